package bot

import (
	"context"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_domainbot/internal/dnstypes"
	"go_domainbot/internal/payment/blockbee"
	"go_domainbot/internal/pricing"
	"go_domainbot/internal/registrar/openprovider"
	"go_domainbot/internal/registration"
	"go_domainbot/internal/repository"
	dbtest "go_domainbot/internal/testutil"
	"go_domainbot/internal/wallet"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, sentMessage{chatID: m.ChatID, text: m.Text})
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

type stubRegistrar struct{ registered int }

func (r *stubRegistrar) CheckAvailability(ctx context.Context, name, tld string) (*openprovider.Availability, error) {
	return &openprovider.Availability{Domain: name + "." + tld, Available: true, Status: "free", Price: decimal.NewFromInt(10), Currency: "USD"}, nil
}

func (r *stubRegistrar) CreateCustomerHandle(ctx context.Context, email string) (string, error) {
	return "XX000001-US", nil
}

func (r *stubRegistrar) RegisterDomain(ctx context.Context, req openprovider.RegisterRequest) (*openprovider.RegisterResult, error) {
	r.registered++
	return &openprovider.RegisterResult{DomainID: int64(r.registered), Status: "ACT"}, nil
}

func (r *stubRegistrar) UpdateNameservers(ctx context.Context, domainID int64, nameservers []string) error {
	return nil
}

type stubZones struct{}

func (stubZones) CreateZone(ctx context.Context, domain string) (*dnstypes.Zone, error) {
	return &dnstypes.Zone{ID: "z-" + domain, Name: domain, NameServers: []string{"a.ns.cloudflare.com", "b.ns.cloudflare.com"}}, nil
}

type stubGateway struct{}

func (stubGateway) CreatePaymentAddress(ctx context.Context, currency, callbackURL string, amount *decimal.Decimal) (*blockbee.PaymentAddress, error) {
	return &blockbee.PaymentAddress{Currency: currency, AddressIn: "bc1qexample", CallbackURL: callbackURL}, nil
}

func (stubGateway) ConvertFiatToCrypto(ctx context.Context, amountUSD decimal.Decimal, currency string) (*blockbee.Quote, error) {
	rate := decimal.NewFromInt(50000)
	return &blockbee.Quote{Currency: currency, AmountUSD: amountUSD, CryptoDue: amountUSD.Div(rate), RateUSD: rate}, nil
}

type noClaims struct{}

func (noClaims) Claim(ctx context.Context, key string) (bool, error) { return true, nil }
func (noClaims) Release(ctx context.Context, key string) error       { return nil }

type mapCache struct {
	values map[string]string
}

func (m *mapCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapCache) Set(ctx context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

const chatID int64 = 42

func setupHandler(t *testing.T) (*Handler, *fakeSender, *repository.Store, *stubRegistrar) {
	t.Helper()
	store := repository.NewStore(dbtest.NewDB(t))
	w := wallet.NewService(store, stubGateway{}, noClaims{}, nil, wallet.Config{
		MinDepositUSD:   decimal.NewFromInt(20),
		CallbackBaseURL: "https://bot.example.com",
		CallbackPath:    "/api/v1/payments/blockbee",
	}, nil)
	registrar := &stubRegistrar{}
	reg := registration.NewService(registration.Deps{
		Store:     store,
		Registrar: registrar,
		Zones:     stubZones{},
		Gateway:   stubGateway{},
		Wallet:    w,
		Claimer:   noClaims{},
		Markup:    pricing.NewMarkup(decimal.RequireFromString("3.3")),
	})
	sender := &fakeSender{}
	h := NewHandler(sender, reg, w, store, NewTexts(store.Translations, &mapCache{values: map[string]string{}}, nil), []int64{7, 8}, nil)
	reg.SetAlerter(h)
	return h, sender, store, registrar
}

func message(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: chatID, UserName: "alice", FirstName: "Alice"},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		end := strings.IndexByte(text, ' ')
		if end < 0 {
			end = len(text)
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func TestHandleUpdate_Commands(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"start", "/start", "Welcome, Alice!"},
		{"balance", "/balance", "Balance: $0.00"},
		{"search", "/search example.com", "Price: $33.00"},
		{"search trustee", "/search example.fr", "Trustee service included"},
		{"search blocked", "/search example.it", "Italy"},
		{"search invalid", "/search nope", "not a valid domain"},
		{"search usage", "/search", "Usage: /search"},
		{"no domains", "/domains", "no domains yet"},
		{"deposit usage", "/deposit 10", "Supported coins"},
		{"deposit minimum", "/deposit 5 btc", "Deposit refused"},
		{"deposit", "/deposit 25 btc", "bc1qexample"},
		{"ns usage", "/ns example.com", "Usage: /ns"},
		{"ns not found", "/ns example.com ns1.a.net ns2.a.net", "Domain not found"},
		{"register broke", "/register example.com", "Insufficient balance"},
		{"unknown", "/frobnicate", "Unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sender, _, _ := setupHandler(t)
			h.HandleUpdate(context.Background(), message(tt.text))
			got := sender.last(t)
			assert.Equal(t, chatID, got.chatID)
			assert.Contains(t, got.text, tt.want)
		})
	}
}

func TestHandleUpdate_RegisterConversation(t *testing.T) {
	h, sender, store, registrar := setupHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, message("/start"))
	_, err := store.Users.AdjustBalance(ctx, chatID, decimal.NewFromInt(100))
	require.NoError(t, err)

	h.HandleUpdate(ctx, message("/register"))
	assert.Contains(t, sender.last(t).text, "Send the domain")

	h.HandleUpdate(ctx, message("example.com"))
	assert.Contains(t, sender.last(t).text, "example.com is registered")
	assert.Equal(t, 1, registrar.registered)

	// state is consumed by the reply
	h.HandleUpdate(ctx, message("other.com"))
	assert.Contains(t, sender.last(t).text, "Unknown command")
	assert.Equal(t, 1, registrar.registered)

	h.HandleUpdate(ctx, message("/domains"))
	assert.Contains(t, sender.last(t).text, "example.com (managed)")

	h.HandleUpdate(ctx, message("/ns example.com ns1.host.net ns2.host.net"))
	assert.Contains(t, sender.last(t).text, "ns1.host.net, ns2.host.net")

	h.HandleUpdate(ctx, message("/balance"))
	assert.Contains(t, sender.last(t).text, "Balance: $67.00")
}

func TestHandleUpdate_Language(t *testing.T) {
	h, sender, store, _ := setupHandler(t)
	ctx := context.Background()
	require.NoError(t, store.Translations.Upsert(ctx, "balance", "de", "Guthaben: $%s"))

	h.HandleUpdate(ctx, message("/lang DE"))
	assert.Contains(t, sender.last(t).text, "de")

	h.HandleUpdate(ctx, message("/balance"))
	assert.Equal(t, "Guthaben: $0.00", sender.last(t).text)

	// missing German text falls back to English
	h.HandleUpdate(ctx, message("/domains"))
	assert.Contains(t, sender.last(t).text, "no domains yet")
}

func TestAlertAdmins(t *testing.T) {
	h, sender, _, _ := setupHandler(t)
	h.AlertAdmins(context.Background(), "check example.com")

	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(7), sender.sent[0].chatID)
	assert.Equal(t, int64(8), sender.sent[1].chatID)
}

func TestTexts_CacheFirst(t *testing.T) {
	store := repository.NewStore(dbtest.NewDB(t))
	cache := &mapCache{values: map[string]string{"en:balance": "Cached $%s"}}
	texts := NewTexts(store.Translations, cache, nil)
	ctx := context.Background()

	assert.Equal(t, "Cached $1.00", texts.Get(ctx, "en", "balance", "1.00"))
	assert.Equal(t, "no.such.key", texts.Get(ctx, "en", "no.such.key"))

	require.NoError(t, store.Translations.Upsert(ctx, "welcome", "en", "Hi %s"))
	assert.Equal(t, "Hi Bob", texts.Get(ctx, "", "welcome", "Bob"))
	assert.Equal(t, "Hi %s", cache.values["en:welcome"])
}
