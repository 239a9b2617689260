// Package stock holds the lazily parsed quote for one ticker and its HTTP handlers
package stock

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"quotescraper/fetch"
	"quotescraper/finance"
	"quotescraper/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// Quote is the last fetched quote page of one ticker. Each field is parsed on
// first read and kept until the next Refresh. A field that cannot be read is
// reported as absent (ok == false), never as a panic.
type Quote struct {
	mu      sync.Mutex
	symbol  string
	url     string
	fetcher fetch.Fetcher
	log     zerolog.Logger

	doc       *goquery.Document
	fetchErr  error
	fetchedAt time.Time

	values map[finance.Field]any
	errs   map[finance.Field]error
}

// New creates the quote for symbol and fetches its page. The Quote is
// returned even when the fetch fails; its fields then all read as absent.
func New(ctx context.Context, symbol string, os ...Option) (*Quote, error) {
	q := newQuote(symbol, os...)
	return q, q.Refresh(ctx)
}

func newQuote(symbol string, os ...Option) *Quote {
	opts := buildOptions(os)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	return &Quote{
		symbol:  symbol,
		url:     fetch.BuildURL(opts.template, opts.host, symbol),
		fetcher: opts.fetcher,
		log:     opts.log.With().Str("component", "quote").Str("symbol", symbol).Logger(),
		values:  make(map[finance.Field]any),
		errs:    make(map[finance.Field]error),
	}
}

// Refresh re-fetches the page and drops every cached field. Readers are not
// blocked while the page is in flight; they see the old page until it lands.
func (q *Quote) Refresh(ctx context.Context) error {
	doc, err := q.load(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.doc = doc
	q.fetchErr = err
	q.values = make(map[finance.Field]any)
	q.errs = make(map[finance.Field]error)
	q.fetchedAt = time.Time{}
	if err == nil {
		q.fetchedAt = time.Now()
	}
	return err
}

// load fetches and parses the page without touching the Quote's state
func (q *Quote) load(ctx context.Context) (*goquery.Document, error) {
	if q.symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", fetch.ErrUnknownSymbol)
	}

	body, err := q.fetcher.Fetch(ctx, q.url)
	if err != nil {
		q.log.Error().Err(err).Str("url", q.url).Msg("quote page fetch failed, check connectivity and the symbol")
		return nil, fmt.Errorf("fetch %s: %w", q.symbol, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		q.log.Error().Err(err).Msg("unparseable quote page")
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	q.log.Debug().Int("bytes", len(body)).Msg("quote page fetched")
	return doc, nil
}

// lookup returns the cached value of field, extracting it on first use
func (q *Quote) lookup(field finance.Field) (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if v, ok := q.values[field]; ok {
		return v, true
	}
	if _, failed := q.errs[field]; failed {
		return nil, false
	}

	var (
		v   any
		err error
	)
	if q.doc == nil && q.fetchErr != nil {
		err = fmt.Errorf("%s: %w", field, q.fetchErr)
	} else {
		v, err = finance.Extract(q.doc, field)
	}
	if err != nil {
		q.errs[field] = err
		q.log.Warn().Err(err).Str("field", string(field)).Msg("field unavailable")
		return nil, false
	}

	q.values[field] = v
	return v, true
}

func get[T any](q *Quote, field finance.Field) (T, bool) {
	var zero T
	v, ok := q.lookup(field)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Err returns why field last read as absent, or nil
func (q *Quote) Err(field finance.Field) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.errs[field]
}

// FetchErr returns the error of the last Refresh, or nil
func (q *Quote) FetchErr() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fetchErr
}

// Symbol returns the upper-cased ticker
func (q *Quote) Symbol() string { return q.symbol }

// URL returns the page the quote is read from
func (q *Quote) URL() string { return q.url }

// FetchedAt returns when the current page was retrieved; zero if it never was
func (q *Quote) FetchedAt() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fetchedAt
}

// Price gets the last traded price
func (q *Quote) Price() (float64, bool) {
	return get[float64](q, finance.FieldPrice)
}

// DailyChangeDollar gets the daily change in price
func (q *Quote) DailyChangeDollar() (float64, bool) {
	c, ok := get[finance.Change](q, finance.FieldDailyChange)
	return c.Dollar, ok
}

// DailyChangePercent gets the daily change in percent of the previous close
func (q *Quote) DailyChangePercent() (float64, bool) {
	c, ok := get[finance.Change](q, finance.FieldDailyChange)
	return c.Percent, ok
}

func (q *Quote) PreviousClose() (float64, bool) {
	return get[float64](q, finance.FieldPreviousClose)
}

func (q *Quote) OpenPrice() (float64, bool) {
	return get[float64](q, finance.FieldOpen)
}

// DaysRange gets today's low and high
func (q *Quote) DaysRange() (utils.Range, bool) {
	return get[utils.Range](q, finance.FieldDaysRange)
}

// YearsRange gets the low and high of the last 52 weeks
func (q *Quote) YearsRange() (utils.Range, bool) {
	return get[utils.Range](q, finance.FieldYearsRange)
}

func (q *Quote) Volume() (int64, bool) {
	return get[int64](q, finance.FieldVolume)
}

func (q *Quote) AvgVolume() (int64, bool) {
	return get[int64](q, finance.FieldAvgVolume)
}

// NetAssets gets the net assets of an ETF or mutual fund
func (q *Quote) NetAssets() (float64, bool) {
	return get[float64](q, finance.FieldNetAssets)
}

// PriceToEarnings gets the trailing-twelve-months P/E ratio
func (q *Quote) PriceToEarnings() (float64, bool) {
	return get[float64](q, finance.FieldPriceToEarnings)
}

// PctYield gets the yield of an ETF or mutual fund, in percent
func (q *Quote) PctYield() (float64, bool) {
	return get[float64](q, finance.FieldYield)
}

func (q *Quote) FiveYearAverageReturn() (float64, bool) {
	return get[float64](q, finance.FieldFiveYearReturn)
}

// HoldingsTurnover gets the holdings turnover of a fund, in percent
func (q *Quote) HoldingsTurnover() (float64, bool) {
	return get[float64](q, finance.FieldHoldingsTurnover)
}

func (q *Quote) LastDividend() (float64, bool) {
	return get[float64](q, finance.FieldLastDividend)
}

func (q *Quote) AverageForCategory() (float64, bool) {
	return get[float64](q, finance.FieldCategoryAverage)
}

// InceptionDate gets the launch date of a fund
func (q *Quote) InceptionDate() (time.Time, bool) {
	return get[time.Time](q, finance.FieldInceptionDate)
}

// Value reads any field by name
func (q *Quote) Value(field finance.Field) (any, bool) {
	return q.lookup(field)
}

// Summary reads every field into one struct
func (q *Quote) Summary() finance.Summary {
	s := finance.Summary{
		Symbol:    q.symbol,
		URL:       q.url,
		FetchedAt: q.FetchedAt(),
	}

	for _, field := range finance.Fields {
		if v, ok := q.lookup(field); ok {
			s.Set(field, v)
		} else if err := q.Err(field); err != nil {
			s.SetError(field, err)
		}
	}
	return s
}
