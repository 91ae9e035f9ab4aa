// Package currency is the single conversion point between the two wire
// encodings the upstream API uses for currencies: the symbol string
// ("PLN") and the integer enum (0=PLN, 1=EUR, 2=USD). Pricing responses
// may carry either; the payment endpoint accepts only the numeric form.
package currency

// Code is an ISO-like currency symbol.
type Code string

const (
	PLN Code = "PLN"
	EUR Code = "EUR"
	USD Code = "USD"
)

// FromNumeric maps the wire enum to a symbol. Unknown values return the
// empty Code; callers must treat that as unconfirmed, not as PLN.
func FromNumeric(n int) Code {
	switch n {
	case 0:
		return PLN
	case 1:
		return EUR
	case 2:
		return USD
	default:
		return ""
	}
}

// ToNumeric maps a symbol to the wire enum. Unknown symbols fall back to
// 0 (PLN), the upstream default; callers should validate the Code first
// if the distinction matters.
func ToNumeric(c Code) int {
	switch c {
	case PLN:
		return 0
	case EUR:
		return 1
	case USD:
		return 2
	default:
		return 0
	}
}

// Valid reports whether c is one of the supported currencies.
func Valid(c Code) bool {
	switch c {
	case PLN, EUR, USD:
		return true
	}
	return false
}
