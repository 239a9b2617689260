package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrPlaceholder is returned for cells the page renders without a value
	ErrPlaceholder = errors.New("placeholder value")
	// ErrNotFinite is returned for values too large to represent
	ErrNotFinite = errors.New("value is not finite")
)

// Range is a low/high pair such as a day range or a 52-week range
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

var multipliers = map[byte]decimal.Decimal{
	'k': decimal.New(1, 3),
	'm': decimal.New(1, 6),
	'b': decimal.New(1, 9),
	't': decimal.New(1, 12),
}

// KillParens removes all parentheses from a given string
func KillParens(text string) string {
	return strings.NewReplacer("(", "", ")", "").Replace(text)
}

// clean trims the cell and rejects the placeholders Yahoo renders for missing data
func clean(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch text {
	case "", "N/A", "-", "--":
		return "", fmt.Errorf("%w: %q", ErrPlaceholder, text)
	}
	return text, nil
}

// ParseDecimal parses a plain decimal, ignoring thousands separators.
// NaN, infinities and hex floats are rejected.
func ParseDecimal(text string) (float64, error) {
	text, err := clean(text)
	if err != nil {
		return 0, err
	}

	d, err := parseDecimal(text)
	if err != nil {
		return 0, err
	}
	return toFloat(d)
}

func parseDecimal(text string) (decimal.Decimal, error) {
	plain := strings.TrimPrefix(strings.ReplaceAll(text, ",", ""), "+")
	d, err := decimal.NewFromString(plain)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal %q: %w", text, err)
	}
	return d, nil
}

func toFloat(d decimal.Decimal) (float64, error) {
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s", ErrNotFinite, d.String())
	}
	return f, nil
}

// ParseInt parses a comma-grouped integer such as "45,012,300"
func ParseInt(text string) (int64, error) {
	text, err := clean(text)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.ReplaceAll(text, ",", ""), 10, 64)
}

// ParsePercent parses "2.31%" as 2.31. The sign is optional.
func ParsePercent(text string) (float64, error) {
	text, err := clean(text)
	if err != nil {
		return 0, err
	}
	return ParseDecimal(strings.TrimSuffix(text, "%"))
}

// ConvertTextMultiplier turns a number formatted like 3.47b or 4.92M into
// its full value. Unsuffixed input parses as a plain decimal.
func ConvertTextMultiplier(text string) (float64, error) {
	text, err := clean(text)
	if err != nil {
		return 0, err
	}

	mult, ok := multipliers[strings.ToLower(text[len(text)-1:])[0]]
	if !ok {
		return ParseDecimal(text)
	}

	d, err := parseDecimal(text[:len(text)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid magnitude %q: %w", text, err)
	}
	return toFloat(d.Mul(mult))
}

// ParseRange splits "31.02 - 32.10" into its two bounds
func ParseRange(text string) (Range, error) {
	text, err := clean(text)
	if err != nil {
		return Range{}, err
	}

	parts := strings.Split(text, " - ")
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("invalid range %q", text)
	}

	low, err := ParseDecimal(parts[0])
	if err != nil {
		return Range{}, err
	}
	high, err := ParseDecimal(parts[1])
	if err != nil {
		return Range{}, err
	}
	return Range{Low: low, High: high}, nil
}

// ParseChange splits "-0.35 (-1.20%)" into the absolute and percent change
func ParseChange(text string) (float64, float64, error) {
	text, err := clean(text)
	if err != nil {
		return 0, 0, err
	}

	parts := strings.Fields(text)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid change %q", text)
	}

	dollar, err := ParseDecimal(parts[0])
	if err != nil {
		return 0, 0, err
	}
	percent, err := ParsePercent(KillParens(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return dollar, percent, nil
}

// ParseDate parses a date rendered like "Jan 5, 2004"
func ParseDate(text string) (time.Time, error) {
	text, err := clean(text)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse("Jan 2, 2006", text)
}
