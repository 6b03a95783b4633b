package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go_domainbot/internal/apierr"
	"go_domainbot/internal/dnstypes"
	"go_domainbot/internal/logging"
)

const (
	service           = "cloudflare"
	cloudflareAPIBase = "https://api.cloudflare.com/client/v4"
	RequestTimeout    = 10 * time.Second

	codeZoneExists     = 1061
	codeRecordNotFound = 81044
	codeRecordMissing  = 81043
)

// Config holds provider settings. APIToken wins over Email+GlobalAPIKey.
type Config struct {
	BaseURL      string
	APIToken     string
	Email        string
	GlobalAPIKey string
	HTTPClient   *http.Client
	Logger       *logrus.Entry
}

// CloudflareProvider implements dns.Provider for Cloudflare API
type CloudflareProvider struct {
	baseURL  string
	apiToken string
	email    string
	apiKey   string
	client   *http.Client
	logger   *logrus.Entry
}

// NewCloudflareProvider creates a new Cloudflare DNS provider
func NewCloudflareProvider(cfg Config) *CloudflareProvider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = cloudflareAPIBase
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: RequestTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &CloudflareProvider{
		baseURL:  base,
		apiToken: cfg.APIToken,
		email:    cfg.Email,
		apiKey:   cfg.GlobalAPIKey,
		client:   client,
		logger:   cfg.Logger.WithField("component", "cloudflare"),
	}
}

// CloudflareRecord represents a Cloudflare DNS record (API response)
type CloudflareRecord struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	TTL      int    `json:"ttl"`
	Priority *int   `json:"priority,omitempty"`
	Proxied  *bool  `json:"proxied,omitempty"`
}

// CloudflareZone represents a Cloudflare zone (API response)
type CloudflareZone struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	NameServers []string `json:"name_servers"`
}

// CloudflareResponse represents a Cloudflare API response
type CloudflareResponse struct {
	Success bool              `json:"success"`
	Errors  []CloudflareError `json:"errors"`
	Result  json.RawMessage   `json:"result"`
}

// CloudflareError represents a Cloudflare API error
type CloudflareError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (z CloudflareZone) toZone() *dnstypes.Zone {
	return &dnstypes.Zone{ID: z.ID, Name: z.Name, Status: z.Status, NameServers: z.NameServers}
}

func (r CloudflareRecord) toRecord() dnstypes.Record {
	return dnstypes.Record{ID: r.ID, Type: r.Type, Name: r.Name, Content: r.Content,
		TTL: r.TTL, Priority: r.Priority, Proxied: r.Proxied}
}

func fromRecord(r dnstypes.Record) CloudflareRecord {
	ttl := r.TTL
	if ttl <= 0 {
		ttl = 1
	}
	return CloudflareRecord{Type: r.Type, Name: r.Name, Content: r.Content, TTL: ttl,
		Priority: r.Priority, Proxied: r.Proxied}
}

// CreateZone creates a zone for domain. If the zone already exists the
// existing zone is returned, so repeated calls are safe.
func (p *CloudflareProvider) CreateZone(ctx context.Context, domain string) (*dnstypes.Zone, error) {
	payload := map[string]any{"name": domain, "jump_start": false}

	var zone CloudflareZone
	err := p.do(ctx, "create_zone", http.MethodPost, "/zones", payload, &zone)
	if err == nil {
		p.logger.WithFields(logrus.Fields{"domain": domain, "zone_id": zone.ID}).Info("zone created")
		return zone.toZone(), nil
	}

	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Code == codeZoneExists {
		p.logger.WithField("domain", domain).Info("zone already exists, reusing")
		return p.GetZoneByName(ctx, domain)
	}
	return nil, err
}

// GetZoneByName looks a zone up by domain name
func (p *CloudflareProvider) GetZoneByName(ctx context.Context, name string) (*dnstypes.Zone, error) {
	var zones []CloudflareZone
	if err := p.do(ctx, "get_zone", http.MethodGet, "/zones?name="+url.QueryEscape(name), nil, &zones); err != nil {
		return nil, err
	}
	if len(zones) == 0 {
		return nil, apierr.New(service, "get_zone", apierr.KindNotFound, "zone "+name+" not found")
	}
	return zones[0].toZone(), nil
}

// GetZone returns a zone, including its assigned nameservers
func (p *CloudflareProvider) GetZone(ctx context.Context, zoneID string) (*dnstypes.Zone, error) {
	var zone CloudflareZone
	if err := p.do(ctx, "get_zone", http.MethodGet, "/zones/"+url.PathEscape(zoneID), nil, &zone); err != nil {
		return nil, err
	}
	return zone.toZone(), nil
}

// ListZones lists zones visible to the account
func (p *CloudflareProvider) ListZones(ctx context.Context) ([]dnstypes.Zone, error) {
	var zones []CloudflareZone
	if err := p.do(ctx, "list_zones", http.MethodGet, "/zones?per_page=50", nil, &zones); err != nil {
		return nil, err
	}
	out := make([]dnstypes.Zone, 0, len(zones))
	for _, z := range zones {
		out = append(out, *z.toZone())
	}
	return out, nil
}

// AddRecord creates a DNS record and returns it with its provider id
func (p *CloudflareProvider) AddRecord(ctx context.Context, zoneID string, record dnstypes.Record) (*dnstypes.Record, error) {
	var created CloudflareRecord
	path := fmt.Sprintf("/zones/%s/dns_records", url.PathEscape(zoneID))
	if err := p.do(ctx, "add_record", http.MethodPost, path, fromRecord(record), &created); err != nil {
		return nil, err
	}
	r := created.toRecord()
	return &r, nil
}

// UpdateRecord replaces an existing DNS record
func (p *CloudflareProvider) UpdateRecord(ctx context.Context, zoneID, recordID string, record dnstypes.Record) (*dnstypes.Record, error) {
	var updated CloudflareRecord
	path := fmt.Sprintf("/zones/%s/dns_records/%s", url.PathEscape(zoneID), url.PathEscape(recordID))
	if err := p.do(ctx, "update_record", http.MethodPut, path, fromRecord(record), &updated); err != nil {
		return nil, err
	}
	r := updated.toRecord()
	return &r, nil
}

// DeleteRecord deletes a DNS record by its provider-specific ID.
// A missing record is reported as a NotFound error.
func (p *CloudflareProvider) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	path := fmt.Sprintf("/zones/%s/dns_records/%s", url.PathEscape(zoneID), url.PathEscape(recordID))
	return p.do(ctx, "delete_record", http.MethodDelete, path, nil, nil)
}

// ListRecords lists all DNS records for a zone
func (p *CloudflareProvider) ListRecords(ctx context.Context, zoneID string) ([]dnstypes.Record, error) {
	var records []CloudflareRecord
	path := fmt.Sprintf("/zones/%s/dns_records?per_page=1000", url.PathEscape(zoneID))
	if err := p.do(ctx, "list_records", http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	out := make([]dnstypes.Record, 0, len(records))
	for _, r := range records {
		out = append(out, r.toRecord())
	}
	return out, nil
}

// FindRecord finds DNS records by type and FQDN
func (p *CloudflareProvider) FindRecord(ctx context.Context, zoneID, recordType, name string) ([]dnstypes.Record, error) {
	q := url.Values{}
	q.Set("type", recordType)
	q.Set("name", name)

	var records []CloudflareRecord
	path := fmt.Sprintf("/zones/%s/dns_records?%s", url.PathEscape(zoneID), q.Encode())
	if err := p.do(ctx, "find_record", http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	out := make([]dnstypes.Record, 0, len(records))
	for _, r := range records {
		out = append(out, r.toRecord())
	}
	return out, nil
}

func (p *CloudflareProvider) setAuth(req *http.Request) {
	if p.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiToken)
		return
	}
	req.Header.Set("X-Auth-Email", p.email)
	req.Header.Set("X-Auth-Key", p.apiKey)
}

func (p *CloudflareProvider) do(ctx context.Context, op, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	p.setAuth(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return apierr.FromTransport(service, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.FromTransport(service, op, err)
	}

	var cfResp CloudflareResponse
	if err := json.Unmarshal(raw, &cfResp); err != nil {
		if resp.StatusCode >= 300 {
			return apierr.FromStatus(service, op, resp.StatusCode, "")
		}
		return &apierr.Error{Service: service, Op: op, Kind: apierr.KindUnknown, Message: "failed to parse response", Err: err}
	}

	if !cfResp.Success || resp.StatusCode >= 300 {
		e := apierr.FromStatus(service, op, resp.StatusCode, formatErrors(cfResp.Errors))
		if len(cfResp.Errors) > 0 {
			e.Code = cfResp.Errors[0].Code
		}
		switch e.Code {
		case codeRecordNotFound, codeRecordMissing:
			e.Kind = apierr.KindNotFound
		case codeZoneExists:
			e.Kind = apierr.KindConflict
		}
		p.logger.WithFields(logrus.Fields{"op": op, "status": resp.StatusCode}).Warn(e.Message)
		return e
	}

	if out != nil && len(cfResp.Result) > 0 && string(cfResp.Result) != "null" {
		if err := json.Unmarshal(cfResp.Result, out); err != nil {
			return &apierr.Error{Service: service, Op: op, Kind: apierr.KindUnknown, Message: "failed to parse result", Err: err}
		}
	}
	return nil
}

// formatErrors formats Cloudflare API errors into a readable string
func formatErrors(errs []CloudflareError) string {
	if len(errs) == 0 {
		return "unknown error"
	}

	var errMsgs []string
	for _, e := range errs {
		errMsgs = append(errMsgs, fmt.Sprintf("[%d] %s", e.Code, e.Message))
	}
	return strings.Join(errMsgs, "; ")
}
