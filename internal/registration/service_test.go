package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_domainbot/internal/apierr"
	"go_domainbot/internal/dnstypes"
	"go_domainbot/internal/metrics"
	"go_domainbot/internal/model"
	"go_domainbot/internal/payment/blockbee"
	"go_domainbot/internal/pricing"
	"go_domainbot/internal/registrar/openprovider"
	"go_domainbot/internal/repository"
	dbtest "go_domainbot/internal/testutil"
	"go_domainbot/internal/trustee"
	"go_domainbot/internal/wallet"
)

type fakeRegistrar struct {
	mu         sync.Mutex
	price      decimal.Decimal
	taken      map[string]bool
	duplicate  bool
	checks     int
	handles    int
	registered []openprovider.RegisterRequest
	nsUpdates  map[int64][]string
	nextID     int64
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{
		price:     decimal.RequireFromString("15.00"),
		taken:     map[string]bool{},
		nsUpdates: map[int64][]string{},
		nextID:    1000,
	}
}

func (f *fakeRegistrar) CheckAvailability(ctx context.Context, name, tld string) (*openprovider.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	domain := name + "." + tld
	if f.taken[domain] {
		return &openprovider.Availability{Domain: domain, Status: "active"}, nil
	}
	return &openprovider.Availability{Domain: domain, Available: true, Status: "free", Price: f.price, Currency: "USD"}, nil
}

func (f *fakeRegistrar) CreateCustomerHandle(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handles++
	return fmt.Sprintf("JP%06d-US", f.handles), nil
}

func (f *fakeRegistrar) RegisterDomain(ctx context.Context, r openprovider.RegisterRequest) (*openprovider.RegisterResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.duplicate {
		return nil, apierr.New("openprovider", "RegisterDomain", apierr.KindConflict, "Duplicate domain: "+r.Name+"."+r.TLD)
	}
	f.registered = append(f.registered, r)
	f.nextID++
	return &openprovider.RegisterResult{DomainID: f.nextID, Status: "ACT"}, nil
}

func (f *fakeRegistrar) UpdateNameservers(ctx context.Context, domainID int64, nameservers []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nsUpdates[domainID] = nameservers
	return nil
}

type fakeZones struct {
	err   error
	calls int
}

func (z *fakeZones) CreateZone(ctx context.Context, domain string) (*dnstypes.Zone, error) {
	z.calls++
	if z.err != nil {
		return nil, z.err
	}
	return &dnstypes.Zone{
		ID:          "zone-" + domain,
		Name:        domain,
		Status:      "pending",
		NameServers: []string{"ada.ns.cloudflare.com", "bob.ns.cloudflare.com"},
	}, nil
}

type fakeGateway struct {
	rate decimal.Decimal
}

func (g *fakeGateway) CreatePaymentAddress(ctx context.Context, currency, callbackURL string, amount *decimal.Decimal) (*blockbee.PaymentAddress, error) {
	return &blockbee.PaymentAddress{Currency: currency, AddressIn: "addr-" + currency, CallbackURL: callbackURL}, nil
}

func (g *fakeGateway) ConvertFiatToCrypto(ctx context.Context, amountUSD decimal.Decimal, currency string) (*blockbee.Quote, error) {
	return &blockbee.Quote{Currency: currency, AmountUSD: amountUSD, CryptoDue: amountUSD.Div(g.rate), RateUSD: g.rate}, nil
}

type memClaimer struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (c *memClaimer) Claim(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[key] {
		return false, nil
	}
	c.seen[key] = true
	return true, nil
}

func (c *memClaimer) Release(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, key)
	return nil
}

type recordingAlerter struct {
	messages []string
}

func (a *recordingAlerter) AlertAdmins(ctx context.Context, text string) {
	a.messages = append(a.messages, text)
}

type fixture struct {
	svc       *Service
	store     *repository.Store
	registrar *fakeRegistrar
	zones     *fakeZones
	alerter   *recordingAlerter
	metrics   *metrics.Metrics
}

const userID int64 = 100

func setup(t *testing.T, balance string) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewStore(dbtest.NewDB(t))
	_, err := store.Users.GetOrCreate(ctx, userID, "alice", "Alice")
	require.NoError(t, err)
	if b := decimal.RequireFromString(balance); b.IsPositive() {
		_, err = store.Users.AdjustBalance(ctx, userID, b)
		require.NoError(t, err)
	}

	f := &fixture{
		store:     store,
		registrar: newFakeRegistrar(),
		zones:     &fakeZones{},
		alerter:   &recordingAlerter{},
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	gw := &fakeGateway{rate: decimal.NewFromInt(50000)}
	claimer := &memClaimer{seen: map[string]bool{}}
	w := wallet.NewService(store, gw, claimer, f.metrics, wallet.Config{
		MinDepositUSD:   decimal.NewFromInt(20),
		CallbackBaseURL: "https://bot.example.com",
		CallbackPath:    "/api/v1/payments/blockbee",
	}, nil)
	f.svc = NewService(Deps{
		Store:         store,
		Registrar:     f.registrar,
		Zones:         f.zones,
		Gateway:       gw,
		Wallet:        w,
		Claimer:       claimer,
		Alerter:       f.alerter,
		Markup:        pricing.NewMarkup(decimal.RequireFromString("3.3")),
		Metrics:       f.metrics,
		FallbackEmail: "privacy@example.org",
	})
	return f
}

func (f *fixture) balance(t *testing.T) string {
	t.Helper()
	u, err := f.store.Users.Get(context.Background(), userID)
	require.NoError(t, err)
	return u.BalanceUSD.StringFixed(2)
}

func TestPrepare_Pricing(t *testing.T) {
	tests := []struct {
		name       string
		domain     string
		multiplier string
		base       string
		wantRetail string
		wantTrust  string
		wantTotal  string
	}{
		{"markup only", "example.com", "3.3", "15.00", "49.50", "0.00", "49.50"},
		{"trustee on retail", "example.ca", "1", "15.00", "15.00", "30.00", "45.00"},
		{"trustee after markup", "example.fr", "3.3", "15.00", "49.50", "99.00", "148.50"},
		{"fallback base", "example.sbs", "1", "0", "8.99", "0.00", "8.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, "0")
			f.svc.Markup = pricing.NewMarkup(decimal.RequireFromString(tt.multiplier))
			f.registrar.price = decimal.RequireFromString(tt.base)

			q, err := f.svc.Prepare(context.Background(), tt.domain)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRetail, q.RetailPrice.StringFixed(2))
			assert.Equal(t, tt.wantTrust, q.Breakdown.TrusteeCost.StringFixed(2))
			assert.Equal(t, tt.wantTotal, q.Total.StringFixed(2))
		})
	}
}

type pricedRegistrar struct {
	*fakeRegistrar
	ext decimal.Decimal
}

func (r pricedRegistrar) ExtensionPrice(ctx context.Context, tld string) (decimal.Decimal, string, error) {
	return r.ext, "USD", nil
}

func TestPrepare_ExtensionPrice(t *testing.T) {
	f := setup(t, "0")
	f.registrar.price = decimal.Zero
	f.svc.Registrar = pricedRegistrar{fakeRegistrar: f.registrar, ext: decimal.RequireFromString("12.00")}

	q, err := f.svc.Prepare(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "extension", q.BaseSource)
	assert.Equal(t, "39.60", q.Total.StringFixed(2))
}

func TestPrepare_BlockedNeverPriced(t *testing.T) {
	f := setup(t, "0")

	q, err := f.svc.Prepare(context.Background(), "example.it")
	require.Error(t, err)
	assert.Nil(t, q)
	assert.True(t, errors.Is(err, trustee.ErrBlocked))

	var blocked *trustee.BlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, "Italy", blocked.Country)
	assert.NotEmpty(t, blocked.Reasons)
	assert.Zero(t, f.registrar.checks, "blocked TLDs must not reach the registrar")
}

func TestPrepare_Rejections(t *testing.T) {
	f := setup(t, "0")
	ctx := context.Background()
	f.registrar.taken["taken.com"] = true
	require.NoError(t, f.store.Domains.Create(ctx, &model.RegisteredDomain{
		TelegramID: userID, DomainName: "mine.com", TLD: "com",
	}))

	tests := []struct {
		domain string
		want   error
	}{
		{"not a domain", ErrInvalidDomain},
		{"www.example.com", ErrInvalidDomain},
		{"a.com", ErrInvalidDomain},
		{"example.zzz", ErrUnsupportedTLD},
		{"taken.com", ErrNotAvailable},
		{"MINE.com", ErrAlreadyRegistered},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			_, err := f.svc.Prepare(ctx, tt.domain)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSupportedTLDs(t *testing.T) {
	f := setup(t, "0")
	tlds := f.svc.SupportedTLDs()
	for _, want := range []string{"com", "co", "io", "ca", "ru"} {
		assert.Contains(t, tlds, want)
	}
	assert.NotContains(t, tlds, ".com")
}

func TestRegister_Managed(t *testing.T) {
	f := setup(t, "100")
	ctx := context.Background()

	res, err := f.svc.Register(ctx, Request{TelegramID: userID, Domain: "Example.com"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRegistered, res.Outcome)
	require.NotNil(t, res.Payment)
	assert.Equal(t, "49.50", res.Payment.Amount.StringFixed(2))
	assert.Equal(t, "50.50", f.balance(t))

	d, err := f.store.Domains.GetByName(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "zone-example.com", d.ZoneID)
	assert.Equal(t, model.NameserverModeManaged, d.NameserverMode)
	assert.True(t, d.IsServable())
	assert.Equal(t, "49.50", d.PricePaid.StringFixed(2))
	assert.Equal(t, d.NameserverList(), f.registrar.nsUpdates[d.RegistrarDomainID])

	require.Len(t, f.registrar.registered, 1)
	assert.Empty(t, f.registrar.registered[0].Nameservers)

	// the contact handle is created once and reused
	_, err = f.svc.Register(ctx, Request{TelegramID: userID, Domain: "second.net"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.registrar.handles)
	c, err := f.store.Contacts.GetByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "privacy@example.org", c.Email)

	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.RegistrationOutcomes.WithLabelValues("registered")))
}

func TestRegister_SecondLevelAU(t *testing.T) {
	f := setup(t, "100")
	ctx := context.Background()
	f.svc.Markup = pricing.NewMarkup(decimal.NewFromInt(1))

	for _, domain := range []string{"example.com.au", "example.net.au", "example.org.au"} {
		full, _, suffix, err := f.svc.ParseDomain(domain)
		require.NoError(t, err, domain)
		assert.Equal(t, domain, full)
		assert.Equal(t, strings.TrimPrefix(domain, "example."), suffix)
	}

	q, err := f.svc.Prepare(ctx, "example.com.au")
	require.NoError(t, err)
	assert.True(t, q.Breakdown.RequiresTrustee)
	assert.Equal(t, "45.00", q.Total.StringFixed(2), "trustee TLDs cost 3x the retail price")

	res, err := f.svc.Register(ctx, Request{TelegramID: userID, Domain: "example.com.au"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRegistered, res.Outcome)
	require.Len(t, f.registrar.registered, 1)
	sent := f.registrar.registered[0]
	assert.Equal(t, "example", sent.Name)
	assert.Equal(t, "com.au", sent.TLD)
	assert.Equal(t, "1", sent.AdditionalData["au_trustee_contact"])
	assert.Equal(t, "OTHER", sent.AdditionalData["au_registrant_id_type"])
	assert.Equal(t, "55.00", f.balance(t))
}

func TestRegister_CustomNameservers(t *testing.T) {
	f := setup(t, "100")
	ctx := context.Background()

	_, err := f.svc.Register(ctx, Request{TelegramID: userID, Domain: "example.com", Nameservers: []string{"ns1.host.net"}})
	assert.ErrorIs(t, err, ErrInvalidNameservers)
	assert.Empty(t, f.registrar.registered)

	res, err := f.svc.Register(ctx, Request{
		TelegramID:  userID,
		Domain:      "example.com",
		Nameservers: []string{"NS1.host.net", "ns2.host.net", "ns1.host.net"},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRegistered, res.Outcome)
	assert.Equal(t, []string{"ns1.host.net", "ns2.host.net"}, f.registrar.registered[0].Nameservers)
	assert.Empty(t, f.registrar.nsUpdates)

	d, err := f.store.Domains.GetByName(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, model.NameserverModeCustom, d.NameserverMode)
	assert.Equal(t, []string{"ns1.host.net", "ns2.host.net"}, d.NameserverList())
	assert.Equal(t, "zone-example.com", d.ZoneID)
}

func TestRegister_Duplicate(t *testing.T) {
	f := setup(t, "100")
	f.registrar.duplicate = true

	res, err := f.svc.Register(context.Background(), Request{TelegramID: userID, Domain: "example.com"})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.True(t, apierr.IsConflict(err))
	assert.True(t, openprovider.IsDuplicate(err))
	assert.True(t, strings.Contains(err.Error(), "Duplicate domain: example.com"))

	assert.Equal(t, "100.00", f.balance(t))
	exists, err := f.store.Domains.Exists(context.Background(), "example.com")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Zero(t, f.zones.calls)
}

func TestRegister_InsufficientBalance(t *testing.T) {
	f := setup(t, "10")

	_, err := f.svc.Register(context.Background(), Request{TelegramID: userID, Domain: "example.com"})
	assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)
	assert.Empty(t, f.registrar.registered)
	assert.Zero(t, f.registrar.handles)
	assert.Equal(t, "10.00", f.balance(t))
}

func TestRegister_Requirements(t *testing.T) {
	f := setup(t, "1000")

	_, err := f.svc.Register(context.Background(), Request{
		TelegramID: userID,
		Domain:     "example.ru",
		UserData:   map[string]string{"inn": "12"},
	})
	assert.ErrorIs(t, err, ErrRequirements)
	assert.Empty(t, f.registrar.registered)
}

func TestRegister_ZoneFailureThenReconcile(t *testing.T) {
	f := setup(t, "100")
	ctx := context.Background()
	f.zones.err = apierr.New("cloudflare", "CreateZone", apierr.KindUnavailable, "timeout")

	res, err := f.svc.Register(ctx, Request{TelegramID: userID, Domain: "example.com"})
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, "50.50", f.balance(t))

	notes, err := f.store.Notifications.ListUnresolved(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationReconcile, notes[0].Kind)
	assert.Equal(t, "example.com", notes[0].DomainName)
	require.Len(t, f.alerter.messages, 1)

	f.zones.err = nil
	out, err := f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Checked)
	assert.Equal(t, 1, out.Fixed)

	d, err := f.store.Domains.GetByName(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "zone-example.com", d.ZoneID)
	assert.True(t, d.IsServable())

	require.NoError(t, f.svc.ResolveNotification(ctx, notes[0].ID))
	notes, err = f.svc.Notifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNameserverSwitch(t *testing.T) {
	f := setup(t, "100")
	ctx := context.Background()
	_, err := f.svc.Register(ctx, Request{TelegramID: userID, Domain: "example.com"})
	require.NoError(t, err)

	_, err = f.svc.SetCustomNameservers(ctx, userID, "example.com", []string{"ns1.host.net"})
	assert.ErrorIs(t, err, ErrInvalidNameservers)

	_, err = f.svc.SetCustomNameservers(ctx, 999, "example.com", []string{"ns1.host.net", "ns2.host.net"})
	assert.ErrorIs(t, err, ErrNotOwner)

	d, err := f.svc.SetCustomNameservers(ctx, userID, "example.com", []string{"ns1.host.net", "ns2.host.net"})
	require.NoError(t, err)
	assert.Equal(t, model.NameserverModeCustom, d.NameserverMode)
	assert.Equal(t, []string{"ns1.host.net", "ns2.host.net"}, f.registrar.nsUpdates[d.RegistrarDomainID])

	d, err = f.svc.UseManagedNameservers(ctx, userID, "example.com")
	require.NoError(t, err)
	assert.Equal(t, model.NameserverModeManaged, d.NameserverMode)

	stored, err := f.store.Domains.GetByName(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"ada.ns.cloudflare.com", "bob.ns.cloudflare.com"}, stored.NameserverList())
}

func TestOrder_PaidRegistersWithoutWallet(t *testing.T) {
	f := setup(t, "0")
	ctx := context.Background()

	order, err := f.svc.StartOrder(ctx, userID, "example.com", nil, "btc")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, "49.50", order.TotalPrice.StringFixed(2))
	assert.Equal(t, "addr-btc", order.CryptoAddress)

	cb := &blockbee.Callback{Reference: order.ID, AddressIn: order.CryptoAddress, TxIDIn: "tx-1", ValueCoin: order.CryptoAmount, Coin: "btc"}

	pending := *cb
	pending.Pending = true
	got, err := f.svc.HandleOrderPayment(ctx, &pending)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, got.Status)

	got, err = f.svc.HandleOrderPayment(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, got.Status)
	require.NotNil(t, got.RegisteredDomainID)
	assert.Equal(t, "0.00", f.balance(t))

	// redelivery changes nothing
	got, err = f.svc.HandleOrderPayment(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, got.Status)
	assert.Len(t, f.registrar.registered, 1)

	_, err = f.svc.HandleOrderPayment(ctx, &blockbee.Callback{Reference: "nope", TxIDIn: "tx-2"})
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestOrder_UnderpaidRefunds(t *testing.T) {
	f := setup(t, "0")
	ctx := context.Background()

	order, err := f.svc.StartOrder(ctx, userID, "example.com", nil, "btc")
	require.NoError(t, err)

	got, err := f.svc.HandleOrderPayment(ctx, &blockbee.Callback{
		Reference: order.ID,
		AddressIn: order.CryptoAddress,
		TxIDIn:    "tx-under",
		ValueCoin: order.CryptoAmount.Div(decimal.NewFromInt(2)),
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFailed, got.Status)
	assert.Contains(t, got.FailureReason, "underpaid")
	assert.Equal(t, "24.75", f.balance(t))
	assert.Empty(t, f.registrar.registered)
}

func TestOrder_RegistrationFailureRefunds(t *testing.T) {
	f := setup(t, "0")
	ctx := context.Background()

	order, err := f.svc.StartOrder(ctx, userID, "example.com", nil, "btc")
	require.NoError(t, err)
	f.registrar.duplicate = true

	got, err := f.svc.HandleOrderPayment(ctx, &blockbee.Callback{Reference: order.ID, AddressIn: order.CryptoAddress, TxIDIn: "tx-dup", ValueCoin: order.CryptoAmount})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFailed, got.Status)
	assert.Equal(t, "49.50", f.balance(t))

	notes, err := f.store.Notifications.ListUnresolved(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationPaymentFailure, notes[0].Kind)
}

func TestOrder_ForeignAddressRejected(t *testing.T) {
	f := setup(t, "0")
	ctx := context.Background()

	order, err := f.svc.StartOrder(ctx, userID, "example.com", nil, "btc")
	require.NoError(t, err)

	for _, addr := range []string{"addr-eth", ""} {
		_, err = f.svc.HandleOrderPayment(ctx, &blockbee.Callback{
			Reference: order.ID,
			AddressIn: addr,
			TxIDIn:    "tx-forged",
			ValueCoin: order.CryptoAmount,
		})
		assert.ErrorIs(t, err, blockbee.ErrAddressMismatch, addr)
	}

	got, err := f.store.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, got.Status)
	assert.Empty(t, f.registrar.registered)

	// the real payment with the same txid still settles
	got, err = f.svc.HandleOrderPayment(ctx, &blockbee.Callback{
		Reference: order.ID,
		AddressIn: "ADDR-BTC",
		TxIDIn:    "tx-forged",
		ValueCoin: order.CryptoAmount,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, got.Status)
}

func TestCancelOrder(t *testing.T) {
	f := setup(t, "0")
	ctx := context.Background()

	order, err := f.svc.StartOrder(ctx, userID, "example.com", []string{"ns1.host.net", "ns2.host.net"}, "ltc")
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.CancelOrder(ctx, 999, order.ID), repository.ErrNotFound)
	require.NoError(t, f.svc.CancelOrder(ctx, userID, order.ID))
	assert.ErrorIs(t, f.svc.CancelOrder(ctx, userID, order.ID), repository.ErrOrderStateChanged)

	orders, err := f.svc.Orders(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderStatusCancelled, orders[0].Status)
}
