package registration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"go_domainbot/internal/dnstypes"
	"go_domainbot/internal/domainutil"
	"go_domainbot/internal/logging"
	"go_domainbot/internal/metrics"
	"go_domainbot/internal/model"
	"go_domainbot/internal/pricing"
	"go_domainbot/internal/registrar/openprovider"
	"go_domainbot/internal/repository"
	"go_domainbot/internal/tld"
	"go_domainbot/internal/trustee"
	"go_domainbot/internal/wallet"
)

var (
	// ErrInvalidDomain is returned for malformed domain names
	ErrInvalidDomain = errors.New("invalid domain name")
	// ErrUnsupportedTLD is returned for TLDs the bot does not sell
	ErrUnsupportedTLD = errors.New("unsupported tld")
	// ErrNotAvailable is returned when the registrar reports the domain taken
	ErrNotAvailable = errors.New("domain not available")
	// ErrAlreadyRegistered is returned when the domain is already in our records
	ErrAlreadyRegistered = errors.New("domain already registered")
	// ErrRequirements is returned when registrant data fails TLD requirements
	ErrRequirements = errors.New("tld requirements not met")
	// ErrInvalidNameservers is returned for fewer than two valid nameservers
	ErrInvalidNameservers = errors.New("at least two valid nameservers are required")
	// ErrNotOwner is returned when a user acts on someone else's domain
	ErrNotOwner = errors.New("domain belongs to another user")
)

// Registrar is the registrar surface the orchestrator drives
type Registrar interface {
	CheckAvailability(ctx context.Context, name, tld string) (*openprovider.Availability, error)
	CreateCustomerHandle(ctx context.Context, email string) (string, error)
	RegisterDomain(ctx context.Context, r openprovider.RegisterRequest) (*openprovider.RegisterResult, error)
	UpdateNameservers(ctx context.Context, domainID int64, nameservers []string) error
}

// Zones creates DNS zones
type Zones interface {
	CreateZone(ctx context.Context, domain string) (*dnstypes.Zone, error)
}

// Alerter delivers a message to operators
type Alerter interface {
	AlertAdmins(ctx context.Context, text string)
}

// Outcome classifies a registration attempt that reached the registrar
type Outcome string

const (
	OutcomeRegistered Outcome = "registered"
	// OutcomeDuplicate: the registrar already holds the domain; nothing was charged
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomePartial: registered at the registrar, but a later step needs an operator
	OutcomePartial Outcome = "partial"
)

// Deps holds collaborators for the Service
type Deps struct {
	Store     *repository.Store
	Registrar Registrar
	Zones     Zones
	Gateway   wallet.Gateway
	Wallet    *wallet.Service
	Claimer   wallet.Claimer
	Alerter   Alerter
	TLDs      *tld.Table
	Trustee   *trustee.Rule
	Markup    pricing.Markup
	Metrics   *metrics.Metrics
	Logger    *logrus.Entry
	// FallbackEmail is used for the registrar contact when the user has none
	FallbackEmail string
}

// Service sequences domain registration across the registrar, the DNS
// provider and the wallet. Steps run in order and abort on the first
// failure; nothing already done at a provider is rolled back.
type Service struct {
	Deps
	supported map[string]bool
	logger    *logrus.Entry
}

// NewService creates the orchestrator
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.TLDs == nil {
		d.TLDs = tld.NewTable(d.Logger)
	}
	if d.Trustee == nil {
		d.Trustee = trustee.NewRule()
	}
	s := &Service{
		Deps:      d,
		supported: make(map[string]bool),
		logger:    d.Logger.WithField("component", "registration"),
	}
	for _, t := range defaultTLDs {
		s.supported[t] = true
	}
	for _, t := range secondLevelTLDs {
		s.supported[t] = true
	}
	for _, t := range d.Trustee.Known() {
		s.supported[t] = true
	}
	for _, t := range d.TLDs.SupportedTLDs() {
		s.supported[t] = true
	}
	return s
}

var defaultTLDs = []string{"com", "net", "org", "info", "biz", "me", "co", "io", "xyz", "sbs"}

// public suffixes sold under a country registry; trustee rules and pricing
// follow the country code
var secondLevelTLDs = []string{"com.au", "net.au", "org.au"}

// SupportedTLDs lists the TLDs accepted for registration, sorted
func (s *Service) SupportedTLDs() []string {
	out := make([]string, 0, len(s.supported))
	for t := range s.supported {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Quote is the priced answer for one domain
type Quote struct {
	Domain       string            `json:"domain"`
	Name         string            `json:"name"`
	TLD          string            `json:"tld"`
	Available    bool              `json:"available"`
	BasePrice    decimal.Decimal   `json:"base_price"`
	BaseSource   string            `json:"base_source"` // registrar | extension | fallback
	RetailPrice  decimal.Decimal   `json:"retail_price"`
	Breakdown    trustee.Breakdown `json:"breakdown"`
	Total        decimal.Decimal   `json:"total"`
	Requirements tld.Summary       `json:"requirements"`
}

// ParseDomain validates domain syntax and the TLD against the supported list
func (s *Service) ParseDomain(domain string) (full, name, suffix string, err error) {
	normalized, err := domainutil.Normalize(domain)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}
	name, suffix, err = domainutil.Split(normalized)
	if err != nil || name == "" {
		return "", "", "", fmt.Errorf("%w: %s", ErrInvalidDomain, domain)
	}
	full = name + "." + suffix
	if full != normalized {
		return "", "", "", fmt.Errorf("%w: register %s instead of a subdomain", ErrInvalidDomain, full)
	}
	if len(name) < 2 {
		return "", "", "", fmt.Errorf("%w: name too short", ErrInvalidDomain)
	}
	if !s.supported[suffix] {
		return "", "", "", fmt.Errorf("%w: .%s", ErrUnsupportedTLD, suffix)
	}
	return full, name, suffix, nil
}

// Prepare validates domain, refuses blocked TLDs, checks availability and
// prices it. Blocked TLDs fail with a *trustee.BlockedError before any
// availability or price lookup.
func (s *Service) Prepare(ctx context.Context, domain string) (*Quote, error) {
	full, name, suffix, err := s.ParseDomain(domain)
	if err != nil {
		return nil, err
	}

	if a := s.Trustee.Check(full); !a.CanRegister {
		return nil, &trustee.BlockedError{TLD: a.TLD, Country: a.Country, Reasons: a.Reasons}
	}

	exists, err := s.Store.Domains.Exists(ctx, full)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	avail, err := s.Registrar.CheckAvailability(ctx, name, suffix)
	if err != nil {
		return nil, fmt.Errorf("availability check failed: %w", err)
	}
	if !avail.Available {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotAvailable, full, avail.Status)
	}

	q := &Quote{
		Domain:       full,
		Name:         name,
		TLD:          suffix,
		Available:    true,
		BasePrice:    avail.Price,
		BaseSource:   "registrar",
		Requirements: s.TLDs.Summary(suffix),
	}
	if !usablePrice(q.BasePrice, avail.Currency) {
		q.BasePrice, q.BaseSource = s.extensionPrice(ctx, suffix)
	}
	if err := s.price(q); err != nil {
		return nil, err
	}
	return q, nil
}

// ExtensionPricer is implemented by registrars that quote per-TLD create prices
type ExtensionPricer interface {
	ExtensionPrice(ctx context.Context, tld string) (decimal.Decimal, string, error)
}

func usablePrice(p decimal.Decimal, currency string) bool {
	return p.IsPositive() && (currency == "" || strings.EqualFold(currency, "USD"))
}

// extensionPrice asks the registrar for the TLD create price, then falls back
// to the built-in table
func (s *Service) extensionPrice(ctx context.Context, suffix string) (decimal.Decimal, string) {
	if ep, ok := s.Registrar.(ExtensionPricer); ok {
		p, currency, err := ep.ExtensionPrice(ctx, suffix)
		if err == nil && usablePrice(p, currency) {
			return p, "extension"
		}
		if err != nil {
			s.logger.WithError(err).WithField("tld", suffix).Debug("extension price unavailable")
		}
	}
	return pricing.FallbackBase(suffix), "fallback"
}

// price applies the retail markup, then the trustee rule on the retail price
func (s *Service) price(q *Quote) error {
	q.RetailPrice = s.Markup.Apply(q.BasePrice)
	b, err := s.Trustee.Price(q.Domain, q.RetailPrice)
	if err != nil {
		return err
	}
	q.Breakdown = b
	q.Total = b.Total.Round(2)
	return nil
}

func (s *Service) notify(ctx context.Context, kind model.NotificationKind, telegramID int64, domain, msg string) {
	n := &model.AdminNotification{Kind: kind, Message: msg, DomainName: domain, TelegramID: telegramID}
	if err := s.Store.Notifications.Create(ctx, n); err != nil {
		s.logger.WithError(err).WithField("domain", domain).Error("failed to store admin notification")
	}
	if s.Alerter != nil {
		s.Alerter.AlertAdmins(ctx, fmt.Sprintf("[%s] %s", kind, msg))
	}
}

// SetAlerter sets the operator alert channel after construction
func (s *Service) SetAlerter(a Alerter) {
	s.Alerter = a
}
