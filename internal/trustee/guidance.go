package trustee

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Guidance is user-facing registration advice for a domain
type Guidance struct {
	CanRegister         bool     `json:"can_register"`
	Type                string   `json:"guidance_type"` // blocked, trustee_required, standard
	Title               string   `json:"title"`
	Message             string   `json:"message"`
	Reasons             []string `json:"reasons"`
	SpecialRequirements []string `json:"special_requirements,omitempty"`
	Alternative         string   `json:"alternative_suggestion,omitempty"`
}

// Guidance returns registration advice for domain
func (r *Rule) Guidance(domain string) Guidance {
	a := r.Check(domain)
	tld := strings.ToUpper(a.TLD)

	switch {
	case !a.CanRegister:
		return Guidance{
			Type:        "blocked",
			Title:       fmt.Sprintf("%s Registration Blocked", tld),
			Message:     fmt.Sprintf("%s domains require personal documents and residency proof that cannot be fulfilled through trustee services.", a.Country),
			Reasons:     a.Reasons,
			Alternative: "Consider similar domains with .com, .net, or other international extensions.",
		}
	case a.RequiresTrustee:
		return Guidance{
			CanRegister:         true,
			Type:                "trustee_required",
			Title:               fmt.Sprintf("%s Trustee Service Required", tld),
			Message:             fmt.Sprintf("This %s domain requires our trustee service for offshore registration. Local compliance requirements are handled for you.", a.Country),
			Reasons:             a.Reasons,
			SpecialRequirements: a.SpecialRequirements,
		}
	default:
		return Guidance{
			CanRegister: true,
			Type:        "standard",
			Title:       fmt.Sprintf("%s Standard Registration", tld),
			Message:     "This domain can be registered with standard offshore privacy protection.",
			Reasons:     []string{"No special country requirements"},
		}
	}
}

// Explain renders a plain-text explanation with pricing for domain at base
func (r *Rule) Explain(domain string, base decimal.Decimal) string {
	a := r.Check(domain)
	tld := strings.ToUpper(a.TLD)
	var b strings.Builder

	if !a.CanRegister {
		fmt.Fprintf(&b, "%s registration not available\n\n", tld)
		fmt.Fprintf(&b, "%s domains require:\n", a.Country)
		for _, reason := range a.Reasons {
			fmt.Fprintf(&b, "• %s\n", reason)
		}
		b.WriteString("\nThese requirements cannot be fulfilled through trustee services.\n")
		fmt.Fprintf(&b, "Alternative: consider %s or another international extension.",
			strings.TrimSuffix(domain, a.TLD)+".com")
		return b.String()
	}

	bd, _ := r.Price(domain, base)
	if a.RequiresTrustee {
		fmt.Fprintf(&b, "%s trustee service required (%s)\n\n", tld, a.Country)
		b.WriteString("Why:\n")
		for _, reason := range a.Reasons {
			fmt.Fprintf(&b, "• %s\n", reason)
		}
		b.WriteString("\nPricing:\n")
		fmt.Fprintf(&b, "• Domain registration: $%s\n", bd.DomainCost.StringFixed(2))
		fmt.Fprintf(&b, "• Trustee service (2x): $%s\n", bd.TrusteeCost.StringFixed(2))
		fmt.Fprintf(&b, "• Total: $%s", bd.Total.StringFixed(2))
		return b.String()
	}

	fmt.Fprintf(&b, "%s standard registration\n\n", tld)
	b.WriteString("Includes WHOIS privacy and immediate activation.\n")
	fmt.Fprintf(&b, "Total: $%s", bd.Total.StringFixed(2))
	return b.String()
}
