package v1

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_domainbot/internal/auth"
	"go_domainbot/internal/config"
	"go_domainbot/internal/dnstypes"
	"go_domainbot/internal/httpx"
	"go_domainbot/internal/metrics"
	"go_domainbot/internal/payment/blockbee"
	"go_domainbot/internal/pricing"
	"go_domainbot/internal/registrar/openprovider"
	"go_domainbot/internal/registration"
	"go_domainbot/internal/repository"
	dbtest "go_domainbot/internal/testutil"
	"go_domainbot/internal/wallet"
)

const (
	botToken   = "123456:test-token"
	telegramID = int64(279058397)
)

type stubRegistrar struct{}

func (stubRegistrar) CheckAvailability(ctx context.Context, name, tld string) (*openprovider.Availability, error) {
	return &openprovider.Availability{Domain: name + "." + tld, Available: true, Price: decimal.NewFromInt(10), Currency: "USD"}, nil
}

func (stubRegistrar) CreateCustomerHandle(ctx context.Context, email string) (string, error) {
	return "AB000001-US", nil
}

func (stubRegistrar) RegisterDomain(ctx context.Context, req openprovider.RegisterRequest) (*openprovider.RegisterResult, error) {
	return &openprovider.RegisterResult{DomainID: 1, Status: "ACT"}, nil
}

func (stubRegistrar) UpdateNameservers(ctx context.Context, domainID int64, nameservers []string) error {
	return nil
}

type stubZones struct{}

func (stubZones) CreateZone(ctx context.Context, domain string) (*dnstypes.Zone, error) {
	return &dnstypes.Zone{ID: "z1", Name: domain, NameServers: []string{"a.ns.cloudflare.com", "b.ns.cloudflare.com"}}, nil
}

type stubGateway struct{}

func (stubGateway) CreatePaymentAddress(ctx context.Context, currency, callbackURL string, amount *decimal.Decimal) (*blockbee.PaymentAddress, error) {
	return &blockbee.PaymentAddress{Currency: currency, AddressIn: "bc1qrouter", CallbackURL: callbackURL}, nil
}

func (stubGateway) ConvertFiatToCrypto(ctx context.Context, amountUSD decimal.Decimal, currency string) (*blockbee.Quote, error) {
	rate := decimal.NewFromInt(50000)
	return &blockbee.Quote{Currency: currency, AmountUSD: amountUSD, CryptoDue: amountUSD.Div(rate), RateUSD: rate}, nil
}

type allowClaims struct{}

func (allowClaims) Claim(ctx context.Context, key string) (bool, error) { return true, nil }
func (allowClaims) Release(ctx context.Context, key string) error       { return nil }

type testServer struct {
	engine *gin.Engine
	store  *repository.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)
	auth.InitJWT("router-test-secret")
	cfg := &config.Config{
		JWT:         config.JWTConfig{Secret: "router-test-secret", ExpireMinutes: 60, Issuer: "test"},
		Admin:       config.AdminConfig{Username: "admin", PasswordHash: hash},
		CORSOrigins: []string{"*"},
		Telegram:    config.TelegramConfig{BotToken: botToken, InitDataMaxAgeMin: 60},
	}

	store := repository.NewStore(dbtest.NewDB(t))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	w := wallet.NewService(store, stubGateway{}, allowClaims{}, m, wallet.Config{
		MinDepositUSD:   decimal.NewFromInt(20),
		CallbackBaseURL: "https://bot.example.com",
		CallbackPath:    "/api/v1/payments/blockbee",
	}, nil)
	rs := registration.NewService(registration.Deps{
		Store:     store,
		Registrar: stubRegistrar{},
		Zones:     stubZones{},
		Gateway:   stubGateway{},
		Wallet:    w,
		Claimer:   allowClaims{},
		Markup:    pricing.NewMarkup(decimal.RequireFromString("3.3")),
		Metrics:   m,
	})

	r := gin.New()
	SetupRouter(r, Deps{
		Config:       cfg,
		Store:        store,
		Registration: rs,
		Wallet:       w,
		Gatherer:     reg,
	})
	return &testServer{engine: r, store: store}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, header http.Header) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func signInitData(authDate time.Time) string {
	values := map[string]string{
		"auth_date": strconv.FormatInt(authDate.Unix(), 10),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      `{"id":279058397,"first_name":"Vlad","username":"vlad"}`,
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values[k])
	}
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	q := url.Values{}
	for k, v := range values {
		q.Set(k, v)
	}
	q.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return q.Encode()
}

func miniApp() http.Header {
	return http.Header{"X-Telegram-Init-Data": []string{signInitData(time.Now())}}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, httpx.CodeSuccess, env.Code)

	rec, _ = s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminLoginAndSettings(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"username": "admin", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httpx.CodeInvalidToken, env.Code)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"username": "admin", "password": "s3cret-pass"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)
	bearer := http.Header{"Authorization": []string{"Bearer " + login.Token}}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/admin/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/admin/settings/maintenance", gin.H{"value": "on"}, bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = s.do(t, http.MethodGet, "/api/v1/admin/settings/maintenance", nil, bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"key":"maintenance","value":"on"}`, string(env.Data))

	// no hosting panel wired
	rec, env = s.do(t, http.MethodGet, "/api/v1/admin/hosting/accounts", nil, bearer)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, httpx.CodeStateConflict, env.Code)
}

func TestMiniApp_RequiresInitData(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/app/wallet", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httpx.CodeUnauthorized, env.Code)

	stale := http.Header{"X-Telegram-Init-Data": []string{signInitData(time.Now().Add(-2 * time.Hour))}}
	rec, _ = s.do(t, http.MethodGet, "/api/v1/app/wallet", nil, stale)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiniApp_QuoteAndRegister(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	rec, env := s.do(t, http.MethodPost, "/api/v1/app/quote", gin.H{"domain": "example.com"}, miniApp())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"33`)

	rec, env = s.do(t, http.MethodPost, "/api/v1/app/domains", gin.H{"domain": "example.com"}, miniApp())
	assert.Equal(t, http.StatusPaymentRequired, rec.Code, rec.Body.String())
	assert.Equal(t, httpx.CodeInsufficientBalance, env.Code)

	_, err := s.store.Users.AdjustBalance(ctx, telegramID, decimal.NewFromInt(50))
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/app/domains", gin.H{"domain": "example.com"}, miniApp())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodGet, "/api/v1/app/domains", nil, miniApp())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "example.com")

	rec, env = s.do(t, http.MethodPost, "/api/v1/app/domains", gin.H{"domain": "example.com"}, miniApp())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, httpx.CodeAlreadyExists, env.Code)
}

func TestDepositCallbackFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	rec, env := s.do(t, http.MethodPost, "/api/v1/app/wallet/deposits", gin.H{"amountUsd": "5", "currency": "btc"}, miniApp())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httpx.CodeParamIllegal, env.Code)

	rec, env = s.do(t, http.MethodPost, "/api/v1/app/wallet/deposits", gin.H{"amountUsd": "25", "currency": "btc"}, miniApp())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tx struct {
		Reference string `json:"gateway_reference"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tx))
	require.NotEmpty(t, tx.Reference)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/payments/blockbee?ref=nope&txid_in=abc&value_coin=0.001", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/payments/blockbee?txid_in=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	q := url.Values{"ref": {tx.Reference}, "address_in": {"bc1qforged"}, "txid_in": {"tx-1"}, "value_coin": {"0.0005"}, "coin": {"btc"}}
	rec, _ = s.do(t, http.MethodGet, "/api/v1/payments/blockbee?"+q.Encode(), nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "address mismatch", rec.Body.String())

	q.Set("address_in", "bc1qrouter")
	rec, _ = s.do(t, http.MethodGet, "/api/v1/payments/blockbee?"+q.Encode(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*ok*", rec.Body.String())

	user, err := s.store.Users.Get(ctx, telegramID)
	require.NoError(t, err)
	assert.True(t, user.BalanceUSD.Equal(decimal.NewFromInt(25)), user.BalanceUSD.String())
}
