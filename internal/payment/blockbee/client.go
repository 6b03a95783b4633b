package blockbee

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"go_domainbot/internal/apierr"
	"go_domainbot/internal/logging"
)

const (
	service        = "blockbee"
	defaultBaseURL = "https://api.blockbee.io"
	requestTimeout = 30 * time.Second
)

// currencyCodes maps internal currency codes to gateway tickers.
// Codes not listed pass through lowercased.
var currencyCodes = map[string]string{
	"btc":   "btc",
	"eth":   "eth",
	"ltc":   "ltc",
	"doge":  "doge",
	"trx":   "trx",
	"bch":   "bch",
	"usdt":  "trc20/usdt",
	"ustcr": "erc20/usdt",
	"bsc":   "erc20/bnb",
}

// GatewayCode returns the gateway ticker for an internal currency code
func GatewayCode(currency string) string {
	c := strings.ToLower(strings.TrimSpace(currency))
	if code, ok := currencyCodes[c]; ok {
		return code
	}
	return c
}

// SupportedCurrencies lists the internal codes with an explicit mapping
func SupportedCurrencies() []string {
	return []string{"btc", "eth", "ltc", "doge", "trx", "bch", "usdt", "ustcr", "bsc"}
}

// Config holds client settings
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *logrus.Entry
}

// Client talks to the BlockBee payment gateway
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Entry
}

// NewClient creates a gateway client
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		client:  client,
		logger:  cfg.Logger.WithField("component", "blockbee"),
	}
}

// PaymentAddress is a deposit address bound to a callback URL
type PaymentAddress struct {
	Currency    string          `json:"currency"`
	AddressIn   string          `json:"address_in"`
	CallbackURL string          `json:"callback_url"`
	Minimum     decimal.Decimal `json:"minimum_transaction_coin"`
}

// Quote is a fiat to crypto conversion
type Quote struct {
	Currency  string
	AmountUSD decimal.Decimal
	CryptoDue decimal.Decimal
	RateUSD   decimal.Decimal // USD per coin
}

type createResponse struct {
	Status      string          `json:"status"`
	Error       string          `json:"error"`
	AddressIn   string          `json:"address_in"`
	CallbackURL string          `json:"callback_url"`
	Minimum     decimal.Decimal `json:"minimum_transaction_coin"`
}

type convertResponse struct {
	Status    string          `json:"status"`
	Error     string          `json:"error"`
	ValueCoin decimal.Decimal `json:"value_coin"`
}

// CreatePaymentAddress requests a deposit address that reports to callbackURL.
// amount is optional and only forwarded to the gateway as a hint.
func (c *Client) CreatePaymentAddress(ctx context.Context, currency, callbackURL string, amount *decimal.Decimal) (*PaymentAddress, error) {
	code := GatewayCode(currency)
	q := url.Values{}
	q.Set("callback", callbackURL)
	q.Set("apikey", c.apiKey)
	if amount != nil {
		q.Set("value", amount.String())
	}

	var resp createResponse
	if err := c.get(ctx, "create_address", "/"+code+"/create/", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" || resp.AddressIn == "" {
		return nil, apierr.New(service, "create_address", apierr.KindUnknown, nonEmpty(resp.Error, "no address returned"))
	}

	c.logger.WithFields(logrus.Fields{"currency": code}).Info("payment address created")
	return &PaymentAddress{
		Currency:    strings.ToLower(currency),
		AddressIn:   resp.AddressIn,
		CallbackURL: nonEmpty(resp.CallbackURL, callbackURL),
		Minimum:     resp.Minimum,
	}, nil
}

// ConvertFiatToCrypto quotes amountUSD in currency. Every call hits the gateway.
func (c *Client) ConvertFiatToCrypto(ctx context.Context, amountUSD decimal.Decimal, currency string) (*Quote, error) {
	code := GatewayCode(currency)
	q := url.Values{}
	q.Set("value", amountUSD.String())
	q.Set("from", "usd")
	q.Set("apikey", c.apiKey)

	var resp convertResponse
	if err := c.get(ctx, "convert", "/"+code+"/convert/", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" || !resp.ValueCoin.IsPositive() {
		return nil, apierr.New(service, "convert", apierr.KindUnknown, nonEmpty(resp.Error, "no conversion returned"))
	}

	rate := amountUSD.DivRound(resp.ValueCoin, 8)
	return &Quote{
		Currency:  strings.ToLower(currency),
		AmountUSD: amountUSD,
		CryptoDue: resp.ValueCoin,
		RateUSD:   rate,
	}, nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apierr.FromTransport(service, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apierr.FromTransport(service, op, err)
	}

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		c.logger.WithFields(logrus.Fields{"op": op, "status": resp.StatusCode}).Warn(truncate(string(body), 200))
		return apierr.FromStatus(service, op, resp.StatusCode, e.Error)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &apierr.Error{Service: service, Op: op, Kind: apierr.KindUnknown, Message: "failed to parse response", Err: err}
	}
	return nil
}

func nonEmpty(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
