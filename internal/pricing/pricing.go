package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// fallbackBase is used when the registrar price lookup fails
var fallbackBase = map[string]string{
	"com":  "15.99",
	"net":  "16.99",
	"org":  "14.99",
	"info": "12.99",
	"biz":  "13.99",
	"sbs":  "8.99",
}

const defaultFallback = "15.99"

// Markup turns registrar wholesale prices into retail prices
type Markup struct {
	Multiplier decimal.Decimal
}

// NewMarkup creates a markup with the given multiplier
func NewMarkup(multiplier decimal.Decimal) Markup {
	return Markup{Multiplier: multiplier}
}

// Apply multiplies base by the markup and rounds to cents
func (m Markup) Apply(base decimal.Decimal) decimal.Decimal {
	return base.Mul(m.Multiplier).Round(2)
}

// FallbackBase returns the wholesale price assumed for tld when the
// registrar cannot be asked
func FallbackBase(tld string) decimal.Decimal {
	tld = strings.ToLower(strings.TrimPrefix(tld, "."))
	if p, ok := fallbackBase[tld]; ok {
		return decimal.RequireFromString(p)
	}
	return decimal.RequireFromString(defaultFallback)
}
