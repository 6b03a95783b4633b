package whm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go_domainbot/internal/apierr"
	"go_domainbot/internal/logging"
)

const (
	service        = "whm"
	requestTimeout = 30 * time.Second
)

// Config holds client settings
type Config struct {
	BaseURL     string // https://host:2087
	Username    string
	APIToken    string
	DefaultPlan string
	HTTPClient  *http.Client
	Logger      *logrus.Entry
}

// Client calls the WHM JSON API (api.version=1)
type Client struct {
	baseURL string
	user    string
	token   string
	plan    string
	client  *http.Client
	logger  *logrus.Entry
}

// NewClient creates a WHM client
func NewClient(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	plan := cfg.DefaultPlan
	if plan == "" {
		plan = "default"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		user:    cfg.Username,
		token:   cfg.APIToken,
		plan:    plan,
		client:  client,
		logger:  cfg.Logger.WithField("component", "whm"),
	}
}

// Configured reports whether a panel URL and token are set
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.token != ""
}

// Account is one hosting account
type Account struct {
	User      string `json:"user"`
	Domain    string `json:"domain"`
	Email     string `json:"email"`
	Plan      string `json:"plan"`
	Suspended bool   `json:"suspended"`
	DiskUsed  string `json:"diskused"`
	StartDate string `json:"startdate"`
}

// rawAccount matches listaccts/accountsummary rows, where suspended is 0/1
type rawAccount struct {
	User      string `json:"user"`
	Domain    string `json:"domain"`
	Email     string `json:"email"`
	Plan      string `json:"plan"`
	Suspended int    `json:"suspended"`
	DiskUsed  string `json:"diskused"`
	StartDate string `json:"startdate"`
}

func (r rawAccount) toAccount() Account {
	return Account{User: r.User, Domain: r.Domain, Email: r.Email, Plan: r.Plan,
		Suspended: r.Suspended == 1, DiskUsed: r.DiskUsed, StartDate: r.StartDate}
}

// CreateAccountRequest describes a new hosting account
type CreateAccountRequest struct {
	Domain   string
	Username string
	Password string
	Email    string
	Plan     string // empty uses the configured default
}

type envelope struct {
	Metadata struct {
		Result int    `json:"result"`
		Reason string `json:"reason"`
	} `json:"metadata"`
	Data json.RawMessage `json:"data"`
}

// CreateAccount creates a hosting account (createacct)
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) error {
	plan := req.Plan
	if plan == "" {
		plan = c.plan
	}
	params := url.Values{}
	params.Set("username", req.Username)
	params.Set("domain", req.Domain)
	params.Set("password", req.Password)
	params.Set("contactemail", req.Email)
	params.Set("plan", plan)
	params.Set("hasshell", "0")

	if _, err := c.call(ctx, "createacct", params); err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{"user": req.Username, "domain": req.Domain}).Info("account created")
	return nil
}

// ListAccounts lists all accounts (listaccts)
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	data, err := c.call(ctx, "listaccts", nil)
	if err != nil {
		return nil, err
	}
	return decodeAccounts(data)
}

// SuspendAccount suspends an account (suspendacct)
func (c *Client) SuspendAccount(ctx context.Context, user, reason string) error {
	params := url.Values{}
	params.Set("user", user)
	if reason == "" {
		reason = "Administrative suspension"
	}
	params.Set("reason", reason)
	_, err := c.call(ctx, "suspendacct", params)
	return err
}

// UnsuspendAccount lifts a suspension (unsuspendacct)
func (c *Client) UnsuspendAccount(ctx context.Context, user string) error {
	params := url.Values{}
	params.Set("user", user)
	_, err := c.call(ctx, "unsuspendacct", params)
	return err
}

// TerminateAccount removes an account (removeacct)
func (c *Client) TerminateAccount(ctx context.Context, user string, keepDNS bool) error {
	params := url.Values{}
	params.Set("user", user)
	if keepDNS {
		params.Set("keepdns", "1")
	} else {
		params.Set("keepdns", "0")
	}
	_, err := c.call(ctx, "removeacct", params)
	return err
}

// AccountInfo returns one account (accountsummary)
func (c *Client) AccountInfo(ctx context.Context, user string) (*Account, error) {
	params := url.Values{}
	params.Set("user", user)
	data, err := c.call(ctx, "accountsummary", params)
	if err != nil {
		return nil, err
	}
	accts, err := decodeAccounts(data)
	if err != nil {
		return nil, err
	}
	if len(accts) == 0 {
		return nil, apierr.New(service, "accountsummary", apierr.KindNotFound, "account "+user+" not found")
	}
	return &accts[0], nil
}

func decodeAccounts(data json.RawMessage) ([]Account, error) {
	var payload struct {
		Acct []rawAccount `json:"acct"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("failed to parse accounts: %w", err)
		}
	}
	out := make([]Account, 0, len(payload.Acct))
	for _, a := range payload.Acct {
		out = append(out, a.toAccount())
	}
	return out, nil
}

// call issues GET /json-api/{function}?api.version=1 and checks metadata.result
func (c *Client) call(ctx context.Context, function string, params url.Values) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, apierr.New(service, function, apierr.KindUnavailable, "hosting panel not configured")
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api.version", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/json-api/"+function+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("whm %s:%s", c.user, c.token))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apierr.FromTransport(service, function, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apierr.FromTransport(service, function, err)
	}
	if resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{"function": function, "status": resp.StatusCode}).Warn("request failed")
		return nil, apierr.FromStatus(service, function, resp.StatusCode, "")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &apierr.Error{Service: service, Op: function, Kind: apierr.KindUnknown, Message: "failed to parse response", Err: err}
	}
	if env.Metadata.Result != 1 {
		reason := env.Metadata.Reason
		if reason == "" {
			reason = "Unknown WHM error"
		}
		c.logger.WithField("function", function).Warn(reason)
		return nil, apierr.New(service, function, apierr.KindUnknown, reason)
	}
	return env.Data, nil
}
