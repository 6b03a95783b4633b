package openprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"go_domainbot/internal/apierr"
)

const defaultNSGroup = "dns-openprovider"

// Availability is the result of a domain check
type Availability struct {
	Domain    string
	Available bool
	Status    string
	Price     decimal.Decimal // registrar cost, zero when not returned
	Currency  string
}

// RegisterRequest describes a domain registration
type RegisterRequest struct {
	Name           string // label without the TLD
	TLD            string
	Nameservers    []string
	CustomerHandle string
	AdditionalData map[string]string
}

// RegisterResult is the registrar's answer to a successful registration
type RegisterResult struct {
	DomainID int64
	Status   string
}

// DomainInfo is the registrar view of a domain
type DomainInfo struct {
	ID          int64
	Name        string
	Nameservers []string
	Status      string
	ExpiresAt   *time.Time
}

type domainName struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
}

type nameServer struct {
	Name string `json:"name"`
}

type priceAmount struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// CheckAvailability asks whether name.tld can be registered
func (c *Client) CheckAvailability(ctx context.Context, name, tld string) (*Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	payload := map[string]any{
		"domains":    []domainName{{Name: name, Extension: tld}},
		"with_price": true,
	}
	var out struct {
		Results []struct {
			Domain string `json:"domain"`
			Status string `json:"status"`
			Price  struct {
				Product  *priceAmount `json:"product"`
				Reseller *priceAmount `json:"reseller"`
			} `json:"price"`
		} `json:"results"`
	}
	if err := c.call(ctx, "check", http.MethodPost, "/domains/check", payload, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, apierr.New(service, "check", apierr.KindUnknown, "no results returned")
	}

	r := out.Results[0]
	a := &Availability{
		Domain:    name + "." + tld,
		Status:    r.Status,
		Available: r.Status == "free",
	}
	switch {
	case r.Price.Reseller != nil:
		a.Price, a.Currency = r.Price.Reseller.Price, r.Price.Reseller.Currency
	case r.Price.Product != nil:
		a.Price, a.Currency = r.Price.Product.Price, r.Price.Product.Currency
	}
	return a, nil
}

// ExtensionPrice returns the create price of a TLD. Callers fall back to
// their own table on error.
func (c *Client) ExtensionPrice(ctx context.Context, tld string) (decimal.Decimal, string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var out struct {
		Name   string `json:"name"`
		Prices struct {
			CreatePrice struct {
				Product  *priceAmount `json:"product"`
				Reseller *priceAmount `json:"reseller"`
			} `json:"create_price"`
		} `json:"prices"`
	}
	path := "/tlds/" + url.PathEscape(tld) + "?with_price=true"
	if err := c.call(ctx, "tld_price", http.MethodGet, path, nil, &out); err != nil {
		return decimal.Zero, "", err
	}
	switch p := out.Prices.CreatePrice; {
	case p.Reseller != nil:
		return p.Reseller.Price, p.Reseller.Currency, nil
	case p.Product != nil:
		return p.Product.Price, p.Product.Currency, nil
	}
	return decimal.Zero, "", apierr.New(service, "tld_price", apierr.KindNotFound, "no create price for "+tld)
}

// CreateCustomerHandle creates a registrant contact with the privacy
// placeholder identity and returns its handle. An empty email uses the
// fallback contact address.
func (c *Client) CreateCustomerHandle(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, customerTimeout)
	defer cancel()

	if email == "" {
		email = c.fallbackEmail
	}
	payload := map[string]any{
		"company_name": "Privacy Services LLC",
		"name": map[string]string{
			"first_name": "John",
			"last_name":  "Privacy",
			"initials":   "J P",
		},
		"address": map[string]string{
			"street":  "123 Privacy Street",
			"number":  "1",
			"zipcode": "89101",
			"city":    "Las Vegas",
			"state":   "NV",
			"country": "US",
		},
		"phone": map[string]string{
			"country_code":      "+1",
			"area_code":         "702",
			"subscriber_number": "5551234",
		},
		"email":  email,
		"locale": "en_US",
	}

	var out struct {
		Handle string `json:"handle"`
	}
	if err := c.call(ctx, "create_customer", http.MethodPost, "/customers", payload, &out); err != nil {
		return "", err
	}
	if out.Handle == "" {
		return "", apierr.New(service, "create_customer", apierr.KindUnknown, "no handle returned")
	}
	return out.Handle, nil
}

// RegisterDomain registers a domain for one year. A duplicate registration
// returns an *apierr.Error of kind Conflict.
func (c *Client) RegisterDomain(ctx context.Context, r RegisterRequest) (*RegisterResult, error) {
	ctx, cancel := context.WithTimeout(ctx, registerTimeout)
	defer cancel()

	payload := map[string]any{
		"domain":         domainName{Name: r.Name, Extension: r.TLD},
		"period":         1,
		"owner_handle":   r.CustomerHandle,
		"admin_handle":   r.CustomerHandle,
		"tech_handle":    r.CustomerHandle,
		"billing_handle": r.CustomerHandle,
	}

	ns := r.Nameservers
	if r.TLD == "de" && len(ns) > 4 {
		ns = ns[:4]
	}
	if len(ns) > 0 {
		list := make([]nameServer, len(ns))
		for i, h := range ns {
			list[i] = nameServer{Name: h}
		}
		payload["name_servers"] = list
	} else {
		payload["ns_group"] = defaultNSGroup
	}
	if len(r.AdditionalData) > 0 {
		payload["additional_data"] = r.AdditionalData
	}

	c.logger.WithFields(logrus.Fields{"domain": r.Name + "." + r.TLD, "handle": r.CustomerHandle}).Info("registering domain")

	var out struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := c.call(ctx, "register", http.MethodPost, "/domains", payload, &out); err != nil {
		return nil, err
	}
	return &RegisterResult{DomainID: out.ID, Status: out.Status}, nil
}

// nsPolicy: three attempts, one re-login on 401, immediate retry on timeouts
var nsPolicy = apierr.Policy{MaxAttempts: 3, ReauthOnce: true}

// UpdateNameservers replaces the nameservers of a registered domain
func (c *Client) UpdateNameservers(ctx context.Context, domainID int64, nameservers []string) error {
	list := make([]nameServer, len(nameservers))
	for i, h := range nameservers {
		list[i] = nameServer{Name: h}
	}
	payload := map[string]any{"name_servers": list}
	path := "/domains/" + strconv.FormatInt(domainID, 10)

	reauthed := false
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err := c.call(attemptCtx, "update_nameservers", http.MethodPut, path, payload, nil)
		cancel()
		if err == nil {
			c.logger.WithFields(logrus.Fields{"domain_id": domainID, "attempt": attempt}).Info("nameservers updated")
			return nil
		}

		switch nsPolicy.Decide(err, attempt, reauthed) {
		case apierr.Reauth:
			reauthed = true
			if authErr := c.Authenticate(ctx); authErr != nil {
				return authErr
			}
		case apierr.Retry:
			c.logger.WithError(err).WithField("attempt", attempt).Warn("nameserver update failed, retrying")
		default:
			return err
		}
		if ctx.Err() != nil {
			return apierr.FromTransport(service, "update_nameservers", ctx.Err())
		}
	}
}

// GetDomainInfo looks a domain up by name
func (c *Client) GetDomainInfo(ctx context.Context, domain string) (*DomainInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("domain_name_pattern", domain)
	q.Set("limit", "1")

	var out struct {
		Results []domainRecord `json:"results"`
	}
	if err := c.call(ctx, "domain_info", http.MethodGet, "/domains?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, apierr.New(service, "domain_info", apierr.KindNotFound, fmt.Sprintf("domain %s not found", domain))
	}
	info := out.Results[0].toInfo()
	return &info, nil
}

// ListDomains returns up to limit domains held by the reseller account
func (c *Client) ListDomains(ctx context.Context, limit int) ([]DomainInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var out struct {
		Results []domainRecord `json:"results"`
	}
	path := "/domains?limit=" + strconv.Itoa(limit)
	if err := c.call(ctx, "list_domains", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	infos := make([]DomainInfo, 0, len(out.Results))
	for _, r := range out.Results {
		infos = append(infos, r.toInfo())
	}
	return infos, nil
}

type domainRecord struct {
	ID             int64        `json:"id"`
	Domain         domainName   `json:"domain"`
	NameServers    []nameServer `json:"name_servers"`
	Status         string       `json:"status"`
	ExpirationDate string       `json:"expiration_date"`
}

func (r domainRecord) toInfo() DomainInfo {
	info := DomainInfo{ID: r.ID, Status: r.Status}
	if r.Domain.Name != "" {
		info.Name = r.Domain.Name + "." + r.Domain.Extension
	}
	for _, ns := range r.NameServers {
		info.Nameservers = append(info.Nameservers, ns.Name)
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, r.ExpirationDate); err == nil {
			info.ExpiresAt = &t
			break
		}
	}
	return info
}

// IsDuplicate reports whether err is a duplicate-domain registration failure
func IsDuplicate(err error) bool {
	var e *apierr.Error
	return errors.As(err, &e) && e.Service == service && e.Kind == apierr.KindConflict
}
