package finance

import (
	"time"

	"quotescraper/utils"
)

// Summary is every field of one quote page. Absent fields are nil and
// their diagnostics are listed in Errors.
type Summary struct {
	Symbol    string    `json:"symbol"`
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetchedAt"`

	Price         *float64     `json:"price,omitempty"`
	DailyChange   *Change      `json:"dailyChange,omitempty"`
	PreviousClose *float64     `json:"previousClose,omitempty"`
	Open          *float64     `json:"open,omitempty"`
	DayRange      *utils.Range `json:"dayRange,omitempty"`
	YearRange     *utils.Range `json:"yearRange,omitempty"`
	Volume        *int64       `json:"volume,omitempty"`
	AvgVolume     *int64       `json:"avgVolume,omitempty"`

	// Fund statistics
	NetAssets        *float64   `json:"netAssets,omitempty"`
	PERatio          *float64   `json:"peRatio,omitempty"`
	Yield            *float64   `json:"yield,omitempty"`
	FiveYearReturn   *float64   `json:"fiveYearReturn,omitempty"`
	HoldingsTurnover *float64   `json:"holdingsTurnover,omitempty"`
	LastDividend     *float64   `json:"lastDividend,omitempty"`
	CategoryAverage  *float64   `json:"categoryAverage,omitempty"`
	InceptionDate    *time.Time `json:"inceptionDate,omitempty"`

	Errors map[Field]string `json:"errors,omitempty"`
}

// Set stores an extracted value in the slot for field. Values of the wrong
// type are ignored.
func (s *Summary) Set(field Field, v any) {
	switch v := v.(type) {
	case float64:
		switch field {
		case FieldPrice:
			s.Price = &v
		case FieldPreviousClose:
			s.PreviousClose = &v
		case FieldOpen:
			s.Open = &v
		case FieldNetAssets:
			s.NetAssets = &v
		case FieldPriceToEarnings:
			s.PERatio = &v
		case FieldYield:
			s.Yield = &v
		case FieldFiveYearReturn:
			s.FiveYearReturn = &v
		case FieldHoldingsTurnover:
			s.HoldingsTurnover = &v
		case FieldLastDividend:
			s.LastDividend = &v
		case FieldCategoryAverage:
			s.CategoryAverage = &v
		}
	case int64:
		switch field {
		case FieldVolume:
			s.Volume = &v
		case FieldAvgVolume:
			s.AvgVolume = &v
		}
	case utils.Range:
		switch field {
		case FieldDaysRange:
			s.DayRange = &v
		case FieldYearsRange:
			s.YearRange = &v
		}
	case Change:
		if field == FieldDailyChange {
			s.DailyChange = &v
		}
	case time.Time:
		if field == FieldInceptionDate {
			s.InceptionDate = &v
		}
	}
}

// SetError records why field is absent
func (s *Summary) SetError(field Field, err error) {
	if s.Errors == nil {
		s.Errors = make(map[Field]string)
	}
	s.Errors[field] = err.Error()
}

// Value returns the value stored for field, dereferenced
func (s *Summary) Value(field Field) (any, bool) {
	switch field {
	case FieldPrice:
		return deref(s.Price)
	case FieldDailyChange:
		return deref(s.DailyChange)
	case FieldPreviousClose:
		return deref(s.PreviousClose)
	case FieldOpen:
		return deref(s.Open)
	case FieldDaysRange:
		return deref(s.DayRange)
	case FieldYearsRange:
		return deref(s.YearRange)
	case FieldVolume:
		return deref(s.Volume)
	case FieldAvgVolume:
		return deref(s.AvgVolume)
	case FieldNetAssets:
		return deref(s.NetAssets)
	case FieldPriceToEarnings:
		return deref(s.PERatio)
	case FieldYield:
		return deref(s.Yield)
	case FieldFiveYearReturn:
		return deref(s.FiveYearReturn)
	case FieldHoldingsTurnover:
		return deref(s.HoldingsTurnover)
	case FieldLastDividend:
		return deref(s.LastDividend)
	case FieldCategoryAverage:
		return deref(s.CategoryAverage)
	case FieldInceptionDate:
		return deref(s.InceptionDate)
	}
	return nil, false
}

func deref[T any](p *T) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}
