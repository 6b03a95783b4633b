package openprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go_domainbot/internal/apierr"
	"go_domainbot/internal/logging"
)

const (
	service = "openprovider"

	loginTimeout    = 45 * time.Second
	customerTimeout = 90 * time.Second
	registerTimeout = 30 * time.Second
	defaultTimeout  = 30 * time.Second

	duplicateCode = 346
	maxLoggedBody = 500
)

// Config holds client settings
type Config struct {
	BaseURL       string
	Username      string
	Password      string
	FallbackEmail string
	HTTPClient    *http.Client // no Timeout set; each call carries its own deadline
	Logger        *logrus.Entry
}

// Client talks to the OpenProvider REST API. The bearer token is obtained
// lazily and shared by concurrent callers.
type Client struct {
	baseURL       string
	username      string
	password      string
	fallbackEmail string
	http          *http.Client
	logger        *logrus.Entry

	mu    sync.Mutex
	token string
}

// envelope is the common response wrapper
type envelope struct {
	Code int             `json:"code"`
	Desc string          `json:"desc"`
	Data json.RawMessage `json:"data"`
}

// NewClient creates a registrar client
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		username:      cfg.Username,
		password:      cfg.Password,
		fallbackEmail: cfg.FallbackEmail,
		http:          hc,
		logger:        cfg.Logger.WithField("component", "openprovider"),
	}
}

// Authenticate logs in and caches the bearer token
func (c *Client) Authenticate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	payload := map[string]string{"username": c.username, "password": c.password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.send(ctx, "auth", http.MethodPost, "/auth/login", "", payload, &out); err != nil {
		return err
	}
	if out.Token == "" {
		return apierr.New(service, "auth", apierr.KindAuth, "login returned no token")
	}

	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	c.logger.Info("authenticated")
	return nil
}

func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok != "" {
		return tok, nil
	}
	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// call performs an authenticated request. An auth failure drops the cached
// token so the next call logs in again.
func (c *Client) call(ctx context.Context, op, method, path string, payload, out any) error {
	tok, err := c.currentToken(ctx)
	if err != nil {
		return err
	}
	err = c.send(ctx, op, method, path, tok, payload, out)
	if apierr.IsAuth(err) {
		c.invalidateToken()
	}
	return err
}

func (c *Client) send(ctx context.Context, op, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apierr.FromTransport(service, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.FromTransport(service, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithFields(logrus.Fields{
			"op":     op,
			"status": resp.StatusCode,
			"body":   truncate(string(raw), maxLoggedBody),
		}).Error("request failed")
		if isDuplicate(string(raw)) {
			return &apierr.Error{Service: service, Op: op, Kind: apierr.KindConflict, StatusCode: resp.StatusCode,
				Code: duplicateCode, Message: "Duplicate domain: " + truncate(string(raw), maxLoggedBody)}
		}
		e := apierr.FromStatus(service, op, resp.StatusCode, truncate(string(raw), maxLoggedBody))
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			e.Code = env.Code
			if env.Desc != "" {
				e.Message = env.Desc
			}
		}
		return e
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &apierr.Error{Service: service, Op: op, Kind: apierr.KindUnknown, StatusCode: resp.StatusCode,
			Message: "failed to parse response", Err: err}
	}
	if env.Code != 0 {
		kind := apierr.KindUnknown
		msg := env.Desc
		if env.Code == duplicateCode {
			kind = apierr.KindConflict
			msg = "Duplicate domain: " + env.Desc
		}
		return &apierr.Error{Service: service, Op: op, Kind: kind, StatusCode: resp.StatusCode, Code: env.Code, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &apierr.Error{Service: service, Op: op, Kind: apierr.KindUnknown, Message: "failed to parse data", Err: err}
		}
	}
	return nil
}

func isDuplicate(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "duplicate domain") || strings.Contains(body, `"code":346`)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
