package trustee

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrBlocked is returned when a TLD cannot be registered at all
var ErrBlocked = errors.New("tld registration blocked")

// Multiplier is the trustee service cost as a multiple of the domain base price
var Multiplier = decimal.NewFromInt(2)

// BlockedError carries the reasons a TLD is refused
type BlockedError struct {
	TLD     string
	Country string
	Reasons []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s domains (%s) cannot be registered: %s", e.TLD, e.Country, strings.Join(e.Reasons, "; "))
}

func (e *BlockedError) Unwrap() error {
	return ErrBlocked
}

// Assessment is the trustee verdict for a domain
type Assessment struct {
	TLD                 string     `json:"tld"`
	Level               Level      `json:"trustee_requirement"`
	Country             string     `json:"country"`
	Reasons             []string   `json:"reasons"`
	SpecialRequirements []string   `json:"special_requirements"`
	Complexity          Complexity `json:"registration_complexity"`
	RequiresTrustee     bool       `json:"requires_trustee"`
	CanRegister         bool       `json:"can_register"`
	Warning             string     `json:"warning,omitempty"`
}

// Breakdown is the priced result for a registrable domain
type Breakdown struct {
	TLD             string          `json:"tld"`
	DomainCost      decimal.Decimal `json:"domain_cost"`
	TrusteeCost     decimal.Decimal `json:"trustee_cost"`
	Total           decimal.Decimal `json:"total_cost"`
	RequiresTrustee bool            `json:"requires_trustee"`
	RiskLevel       string          `json:"risk_level"`
	SuccessRate     int             `json:"registration_success_rate"`
	Country         string          `json:"country,omitempty"`
	Reasons         []string        `json:"reasons,omitempty"`
	Summary         string          `json:"breakdown"`
}

// Rule decides trustee needs and prices them. Read-only after construction.
type Rule struct {
	config map[string]TLDConfig
}

// NewRule builds the rule from the built-in TLD policy
func NewRule() *Rule {
	return &Rule{config: builtinConfig()}
}

// Known lists every TLD with a verified policy, without the leading dot
func (r *Rule) Known() []string {
	seen := make(map[string]bool, len(r.config)+len(safeTLDs))
	for tld := range r.config {
		seen[strings.TrimPrefix(tld, ".")] = true
	}
	for tld := range safeTLDs {
		seen[strings.TrimPrefix(tld, ".")] = true
	}
	out := make([]string, 0, len(seen))
	for tld := range seen {
		out = append(out, tld)
	}
	sort.Strings(out)
	return out
}

// TLDOf returns the dotted TLD used for trustee lookup: the last label,
// except .co.uk which is kept whole.
func TLDOf(domain string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), ".")), ".")
	if len(parts) < 2 {
		return ""
	}
	if len(parts) >= 3 && parts[len(parts)-2] == "co" && parts[len(parts)-1] == "uk" {
		return ".co.uk"
	}
	return "." + parts[len(parts)-1]
}

// Check assesses the trustee need for domain. Configured TLDs take
// precedence over the safe list.
func (r *Rule) Check(domain string) Assessment {
	tld := TLDOf(domain)

	if cfg, ok := r.config[tld]; ok {
		return Assessment{
			TLD:                 tld,
			Level:               cfg.Level,
			Country:             cfg.Country,
			Reasons:             cfg.Reasons,
			SpecialRequirements: cfg.SpecialRequirements,
			Complexity:          cfg.Complexity,
			RequiresTrustee:     cfg.Level == LevelRequired || cfg.Level == LevelRecommended,
			CanRegister:         cfg.Level != LevelBlocked,
		}
	}

	if safeTLDs[tld] {
		return Assessment{
			TLD:                 tld,
			Level:               LevelNone,
			Country:             "International",
			Reasons:             []string{},
			SpecialRequirements: []string{},
			Complexity:          ComplexitySimple,
			CanRegister:         true,
		}
	}

	return Assessment{
		TLD:                 tld,
		Level:               LevelNone,
		Country:             "Unknown",
		Reasons:             []string{"TLD requirements not verified"},
		SpecialRequirements: []string{"Manual verification may be required"},
		Complexity:          ComplexityUnknown,
		CanRegister:         true,
		Warning:             "TLD requirements not fully verified",
	}
}

// Price applies the trustee rule to base. Blocked TLDs return a *BlockedError
// and no price.
func (r *Rule) Price(domain string, base decimal.Decimal) (Breakdown, error) {
	a := r.Check(domain)
	if !a.CanRegister {
		return Breakdown{}, &BlockedError{TLD: a.TLD, Country: a.Country, Reasons: a.Reasons}
	}

	tld := strings.TrimPrefix(a.TLD, ".")
	if !a.RequiresTrustee {
		return Breakdown{
			TLD:         tld,
			DomainCost:  base,
			TrusteeCost: decimal.Zero,
			Total:       base,
			RiskLevel:   "LOW",
			SuccessRate: successRate("LOW"),
			Summary:     fmt.Sprintf("Domain only: $%s", base.StringFixed(2)),
		}, nil
	}

	trusteeCost := base.Mul(Multiplier)
	total := base.Add(trusteeCost)
	risk := riskLevel(a.Complexity)
	return Breakdown{
		TLD:             tld,
		DomainCost:      base,
		TrusteeCost:     trusteeCost,
		Total:           total,
		RequiresTrustee: true,
		RiskLevel:       risk,
		SuccessRate:     successRate(risk),
		Country:         a.Country,
		Reasons:         a.Reasons,
		Summary: fmt.Sprintf("Domain: $%s + Trustee: $%s = $%s",
			base.StringFixed(2), trusteeCost.StringFixed(2), total.StringFixed(2)),
	}, nil
}

func riskLevel(c Complexity) string {
	switch c {
	case ComplexitySimple:
		return "LOW"
	case ComplexityHigh, ComplexityBlocked:
		return "HIGH"
	default:
		return "MEDIUM"
	}
}

func successRate(risk string) int {
	switch risk {
	case "LOW":
		return 98
	case "HIGH":
		return 90
	default:
		return 95
	}
}
