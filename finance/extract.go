package finance

import (
	"errors"
	"fmt"
	"strings"

	"quotescraper/utils"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrMarkerNotFound means none of a field's selectors matched the page
	ErrMarkerNotFound = errors.New("marker not found")
	// ErrUnknownField is returned for names outside Fields
	ErrUnknownField = errors.New("unknown field")
	// ErrNoDocument is returned when there is no page to read from
	ErrNoDocument = errors.New("no document")
)

// Every statistic on the page shares this transition class
const statCell = `[class~="Trsdu(0.3s)"]`

const (
	priceSelector  = statCell + `[class~="Fw(b)"][class~="Fz(36px)"][class~="Mb(-4px)"][class~="D(ib)"]`
	changeSelector = statCell + `[class~="Fw(500)"][class~="Pstart(10px)"][class~="Fz(24px)"]`
)

// reactID matches a statistic cell by its render position
func reactID(id string) string {
	return fmt.Sprintf(`%s[data-reactid="%s"]`, statCell, id)
}

func dataTest(id string) string {
	return fmt.Sprintf(`[data-test="%s"]`, id)
}

type extractor func(doc *goquery.Document) (any, error)

var extractors = map[Field]extractor{
	FieldPrice:            text(utils.ParseDecimal, priceSelector),
	FieldDailyChange:      text(parseChange, changeSelector),
	FieldPreviousClose:    text(utils.ParseDecimal, reactID("43")),
	FieldOpen:             text(utils.ParseDecimal, reactID("48")),
	FieldDaysRange:        text(utils.ParseRange, dataTest("DAYS_RANGE-value")),
	FieldYearsRange:       text(utils.ParseRange, dataTest("FIFTY_TWO_WK_RANGE-value")),
	FieldVolume:           text(utils.ParseInt, reactID("71")),
	FieldAvgVolume:        text(utils.ParseInt, reactID("76")),
	FieldNetAssets:        text(utils.ConvertTextMultiplier, reactID("82"), reactID("80")),
	FieldPriceToEarnings:  text(utils.ParseDecimal, reactID("92")),
	FieldYield:            text(utils.ParsePercent, reactID("90")),
	FieldFiveYearReturn:   text(utils.ParsePercent, reactID("95")),
	FieldHoldingsTurnover: text(utils.ParsePercent, reactID("100")),
	FieldLastDividend:     text(utils.ParseDecimal, reactID("105")),
	FieldCategoryAverage:  text(utils.ParsePercent, reactID("109")),
	FieldInceptionDate:    text(utils.ParseDate, `[data-reactid="114"]`),
}

// Extract locates field on the page and converts it to its Go type:
// float64, int64, Change, utils.Range or time.Time.
func Extract(doc *goquery.Document, field Field) (any, error) {
	if doc == nil {
		return nil, fmt.Errorf("%s: %w", field, ErrNoDocument)
	}

	extract, ok := extractors[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	v, err := extract(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

// text builds an extractor that parses the first element matched by the
// first selector with any match
func text[T any](parse func(string) (T, error), selectors ...string) extractor {
	return func(doc *goquery.Document) (any, error) {
		raw, err := findText(doc, selectors...)
		if err != nil {
			return nil, err
		}

		v, err := parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", raw, err)
		}
		return v, nil
	}
}

func findText(doc *goquery.Document, selectors ...string) (string, error) {
	for _, selector := range selectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return strings.TrimSpace(sel.First().Text()), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrMarkerNotFound, strings.Join(selectors, ", "))
}

func parseChange(raw string) (Change, error) {
	dollar, percent, err := utils.ParseChange(raw)
	if err != nil {
		return Change{}, err
	}
	return Change{Dollar: dollar, Percent: percent}, nil
}
