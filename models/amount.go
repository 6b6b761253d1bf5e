package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Amount is a currency amount in minor units (paise, cents).
type Amount int64

var amountToken = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// ParseAmount reads display strings such as "₹1,200", "Rs. 500" or "80.50".
// Currency symbols, words and thousands separators are ignored; the string
// must contain exactly one number with at most two fractional digits.
func ParseAmount(s string) (Amount, error) {
	tokens := amountToken.FindAllString(s, -1)
	if len(tokens) != 1 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	tok := strings.ReplaceAll(tokens[0], ",", "")

	neg := strings.HasPrefix(tok, "-")
	tok = strings.TrimPrefix(tok, "-")

	whole, frac, _ := strings.Cut(tok, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}
	frac += strings.Repeat("0", 2-len(frac))

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	v := major*100 + minor
	if neg {
		v = -v
	}
	return Amount(v), nil
}

// Major returns the amount in major units.
func (a Amount) Major() float64 {
	return float64(a) / 100
}

func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// UnmarshalJSON accepts numbers (major units), display strings and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid amount %s", data)
		}
		s = n.String()
		if strings.ContainsAny(s, "eE") {
			f, err := n.Float64()
			if err != nil {
				return fmt.Errorf("invalid amount %s", data)
			}
			s = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON writes the amount as a number in major units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(a.Major(), 'f', -1, 64)), nil
}
