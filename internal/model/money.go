package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/trackeasy/railtick/pkg/currency"
)

// Money is the canonical price form: an exact decimal amount plus a
// validated currency symbol.
type Money struct {
	Amount   decimal.Decimal
	Currency currency.Code
}

// ErrUnknownCurrency is returned when neither the numeric enum nor the
// symbol form of a wire currency maps to a supported code.
var ErrUnknownCurrency = errors.New("unknown currency encoding")

// moneyWire is the superset of price shapes the upstream emits. Pricing
// responses drift between a flat {price, currency} and a nested
// {amount, currency}; the amount may be a JSON number or a numeric
// string, and the currency either the integer enum or the symbol.
type moneyWire struct {
	Price    json.RawMessage `json:"price"`
	Amount   json.RawMessage `json:"amount"`
	Currency json.RawMessage `json:"currency"`
}

// UnmarshalJSON accepts every wire shape and normalizes to the
// canonical form. The amount field wins over price when both appear.
func (m *Money) UnmarshalJSON(data []byte) error {
	var w moneyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("money: %w", err)
	}

	raw := w.Amount
	if len(raw) == 0 || string(raw) == "null" {
		raw = w.Price
	}
	if len(raw) == 0 || string(raw) == "null" {
		return errors.New("money: amount missing")
	}

	amount, err := decodeAmount(raw)
	if err != nil {
		return err
	}

	code, err := decodeCurrency(w.Currency)
	if err != nil {
		return err
	}

	m.Amount = amount
	m.Currency = code
	return nil
}

// MarshalJSON always emits the canonical {amount, currency} shape with
// a numeric amount and the symbol string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   json.Number   `json:"amount"`
		Currency currency.Code `json:"currency"`
	}{
		Amount:   json.Number(m.Amount.String()),
		Currency: m.Currency,
	})
}

func decodeAmount(raw json.RawMessage) (decimal.Decimal, error) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return decimal.NewFromString(num.String())
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("money: amount %q is not numeric", s)
		}
		return d, nil
	}
	return decimal.Decimal{}, errors.New("money: amount is neither number nor string")
}

func decodeCurrency(raw json.RawMessage) (currency.Code, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", ErrUnknownCurrency
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		code := currency.FromNumeric(n)
		if code == "" {
			return "", ErrUnknownCurrency
		}
		return code, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		code := currency.Code(s)
		if !currency.Valid(code) {
			return "", ErrUnknownCurrency
		}
		return code, nil
	}
	return "", ErrUnknownCurrency
}

// Equal reports whether two Money values have the same amount and
// currency. Amounts compare by value, so "90" equals "90.00".
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}
