package money

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatflowers/patron/pkg/apperror"
)

// Cents is an amount of US currency in integer cents.
type Cents int64

// DefaultMaxDonationUSD is the ceiling used when no setting overrides it.
const DefaultMaxDonationUSD = 10000

// maxWholeDigits keeps whole*100 well inside int64.
const maxWholeDigits = 13

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// ParseUSD converts a decimal dollar string with at most two decimal places
// into cents. The decimal part is right-padded to two digits so no float
// arithmetic is involved.
func ParseUSD(field, raw string) (Cents, error) {
	s := strings.TrimSpace(raw)
	if !amountPattern.MatchString(s) {
		return 0, apperror.Validationf(field, "malformed amount %q", raw)
	}

	whole, frac, _ := strings.Cut(s, ".")
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	if len(whole) > maxWholeDigits {
		return 0, apperror.Validation(field, "amount too large")
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, apperror.Validationf(field, "malformed amount %q", raw)
	}
	frac = (frac + "00")[:2]
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, apperror.Validationf(field, "malformed amount %q", raw)
	}

	c := Cents(w*100 + f)
	if c <= 0 {
		return 0, apperror.Validation(field, "amount must be positive")
	}
	return c, nil
}

// FromFloat accepts a numeric dollar amount. The value is rendered in its
// shortest decimal form and parsed as a string, so 19.99 stays 1999 cents.
func FromFloat(field string, v float64) (Cents, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperror.Validation(field, "amount must be finite")
	}
	return ParseUSD(field, strconv.FormatFloat(v, 'f', -1, 64))
}

// EnforceMaxDonationUSD rejects amounts above maxUSD. A non-positive maxUSD
// falls back to DefaultMaxDonationUSD.
func EnforceMaxDonationUSD(field string, c Cents, maxUSD float64) error {
	if maxUSD <= 0 || math.IsNaN(maxUSD) || math.IsInf(maxUSD, 0) {
		maxUSD = DefaultMaxDonationUSD
	}
	limit := Cents(math.Round(maxUSD * 100))
	if c > limit {
		return apperror.Validationf(field, "amount exceeds maximum of %s", limit.String())
	}
	return nil
}

// Dollars returns the amount as a float for display and JSON output.
func (c Cents) Dollars() float64 { return float64(c) / 100 }

// String renders the amount with exactly two decimals, e.g. "25.00".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Mul returns c*qty.
func (c Cents) Mul(qty int) Cents { return c * Cents(qty) }

// Amount is a request field that may be sent as a JSON string or number.
// Numbers keep their literal text so "25.5" and 25.5 parse identically.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = Amount(n.String())
	return nil
}

// Cents parses the amount on behalf of field.
func (a Amount) Cents(field string) (Cents, error) {
	return ParseUSD(field, string(a))
}
