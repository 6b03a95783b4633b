package blockbee

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrAddressMismatch is returned when a callback names a deposit address other
// than the one issued for its reference
var ErrAddressMismatch = errors.New("callback address does not match payment address")

// Callback is one payment notification. The gateway sends it as query
// parameters, plus any parameters we put in the callback URL ourselves.
type Callback struct {
	Reference     string // our own ref parameter from the callback URL
	UUID          string
	AddressIn     string
	TxIDIn        string
	ValueCoin     decimal.Decimal
	Coin          string
	Confirmations int
	Pending       bool
}

// ParseCallback decodes a callback request
func ParseCallback(v url.Values) (*Callback, error) {
	cb := &Callback{
		Reference: v.Get("ref"),
		UUID:      v.Get("uuid"),
		AddressIn: v.Get("address_in"),
		TxIDIn:    v.Get("txid_in"),
		Coin:      strings.ToLower(v.Get("coin")),
		Pending:   v.Get("pending") == "1",
	}
	if cb.Reference == "" {
		return nil, fmt.Errorf("callback missing ref")
	}
	if cb.TxIDIn == "" && !cb.Pending {
		return nil, fmt.Errorf("callback missing txid_in")
	}

	if raw := v.Get("value_coin"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value_coin %q", raw)
		}
		cb.ValueCoin = d
	}
	if raw := v.Get("confirmations"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid confirmations %q", raw)
		}
		cb.Confirmations = n
	}
	return cb, nil
}

// CheckAddress verifies the callback was sent for the address issued with its
// reference. Hex addresses may arrive with or without checksum casing.
func (cb *Callback) CheckAddress(issued string) error {
	if issued == "" {
		return nil
	}
	if !strings.EqualFold(strings.TrimSpace(cb.AddressIn), issued) {
		return fmt.Errorf("%w: got %q", ErrAddressMismatch, cb.AddressIn)
	}
	return nil
}

// CallbackURL builds the URL the gateway reports to for reference ref
func CallbackURL(base, path, ref string) string {
	q := url.Values{}
	q.Set("ref", ref)
	return strings.TrimRight(base, "/") + path + "?" + q.Encode()
}
