// Package finance extracts typed quote fields from a Yahoo Finance quote page
package finance

import "fmt"

// Field names one value on the quote page. The string form is also the JSON key.
type Field string

const (
	FieldPrice            Field = "price"
	FieldDailyChange      Field = "dailyChange"
	FieldPreviousClose    Field = "previousClose"
	FieldOpen             Field = "open"
	FieldDaysRange        Field = "dayRange"
	FieldYearsRange       Field = "yearRange"
	FieldVolume           Field = "volume"
	FieldAvgVolume        Field = "avgVolume"
	FieldNetAssets        Field = "netAssets"
	FieldPriceToEarnings  Field = "peRatio"
	FieldYield            Field = "yield"
	FieldFiveYearReturn   Field = "fiveYearReturn"
	FieldHoldingsTurnover Field = "holdingsTurnover"
	FieldLastDividend     Field = "lastDividend"
	FieldCategoryAverage  Field = "categoryAverage"
	FieldInceptionDate    Field = "inceptionDate"
)

// Fields lists every field in page order
var Fields = []Field{
	FieldPrice,
	FieldDailyChange,
	FieldPreviousClose,
	FieldOpen,
	FieldDaysRange,
	FieldYearsRange,
	FieldVolume,
	FieldAvgVolume,
	FieldNetAssets,
	FieldPriceToEarnings,
	FieldYield,
	FieldFiveYearReturn,
	FieldHoldingsTurnover,
	FieldLastDividend,
	FieldCategoryAverage,
	FieldInceptionDate,
}

// ParseField validates a field name
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := extractors[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// Change is the day's move in price and in percent of the previous close
type Change struct {
	Dollar  float64 `json:"dollar"`
	Percent float64 `json:"percent"`
}
