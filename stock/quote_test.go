package stock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"quotescraper/fetch"
	"quotescraper/finance"
	"quotescraper/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves pages in order, repeating the last one
type fakeFetcher struct {
	mu    sync.Mutex
	pages []string
	err   error
	urls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return []byte(page), nil
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "finance", "testdata", name))
	require.NoError(t, err)
	return string(b)
}

func TestNew_BuildsURL(t *testing.T) {
	f := &fakeFetcher{pages: []string{"<html></html>"}}

	q, err := New(context.Background(), " bac ", WithFetcher(f))
	require.NoError(t, err)

	assert.Equal(t, "BAC", q.Symbol())
	assert.Equal(t, "https://finance.yahoo.com/quote/BAC?p=BAC", q.URL())
	assert.Equal(t, []string{q.URL()}, f.urls)
	assert.False(t, q.FetchedAt().IsZero())
}

func TestNew_RegionAndTemplate(t *testing.T) {
	f := &fakeFetcher{pages: []string{"<html></html>"}}

	q, err := New(context.Background(), "vod.l",
		WithFetcher(f),
		WithRegion("uk"),
		WithURLTemplate("https://{host}/quote/{symbol}"),
	)
	require.NoError(t, err)
	assert.Equal(t, "https://uk.finance.yahoo.com/quote/VOD.L", q.URL())
}

func TestQuote_FundFields(t *testing.T) {
	f := &fakeFetcher{pages: []string{fixture(t, "fund.html")}}
	q, err := New(context.Background(), "VFIAX", WithFetcher(f))
	require.NoError(t, err)

	assertFloat := func(want float64, got float64, ok bool) {
		t.Helper()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	price, ok := q.Price()
	assertFloat(1027.53, price, ok)
	dollar, ok := q.DailyChangeDollar()
	assertFloat(-0.35, dollar, ok)
	percent, ok := q.DailyChangePercent()
	assertFloat(-1.2, percent, ok)
	prev, ok := q.PreviousClose()
	assertFloat(1027.88, prev, ok)
	open, ok := q.OpenPrice()
	assertFloat(1026.1, open, ok)
	netAssets, ok := q.NetAssets()
	assertFloat(3.47e9, netAssets, ok)
	pe, ok := q.PriceToEarnings()
	assertFloat(24.87, pe, ok)
	yield, ok := q.PctYield()
	assertFloat(1.32, yield, ok)
	ret, ok := q.FiveYearAverageReturn()
	assertFloat(15.02, ret, ok)
	turnover, ok := q.HoldingsTurnover()
	assertFloat(2, turnover, ok)
	div, ok := q.LastDividend()
	assertFloat(1.64, div, ok)
	avg, ok := q.AverageForCategory()
	assertFloat(12.4, avg, ok)

	days, ok := q.DaysRange()
	require.True(t, ok)
	assert.Equal(t, utils.Range{Low: 1020.05, High: 1031.4}, days)

	years, ok := q.YearsRange()
	require.True(t, ok)
	assert.Equal(t, utils.Range{Low: 810.12, High: 1055}, years)

	vol, ok := q.Volume()
	require.True(t, ok)
	assert.Equal(t, int64(45012300), vol)

	avgVol, ok := q.AvgVolume()
	require.True(t, ok)
	assert.Equal(t, int64(52188417), avgVol)

	inception, ok := q.InceptionDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2000, time.November, 13, 0, 0, 0, 0, time.UTC), inception)

	assert.Equal(t, 1, f.calls())
}

func TestQuote_MemoizesFields(t *testing.T) {
	f := &fakeFetcher{pages: []string{fixture(t, "fund.html")}}
	q, err := New(context.Background(), "VFIAX", WithFetcher(f))
	require.NoError(t, err)

	price, ok := q.Price()
	require.True(t, ok)

	// Take the marker out from under the cache; the memoized value must survive
	q.doc.Find(`[class~="Fz(36px)"]`).Remove()

	again, ok := q.Price()
	require.True(t, ok)
	assert.Equal(t, price, again)

	_, err = finance.Extract(q.doc, finance.FieldPrice)
	assert.ErrorIs(t, err, finance.ErrMarkerNotFound)
}

func TestQuote_RefreshInvalidatesAllFields(t *testing.T) {
	updated := strings.NewReplacer(
		">1,027.53<", ">1,030.00<",
		">45,012,300<", ">50,000,000<",
	).Replace(fixture(t, "fund.html"))
	f := &fakeFetcher{pages: []string{fixture(t, "equity.html"), updated}}

	q, err := New(context.Background(), "VFIAX", WithFetcher(f))
	require.NoError(t, err)

	price, ok := q.Price()
	require.True(t, ok)
	assert.Equal(t, 31.5, price)
	vol, ok := q.Volume()
	require.True(t, ok)
	assert.Equal(t, int64(61842117), vol)
	_, ok = q.InceptionDate()
	assert.False(t, ok)
	assert.Error(t, q.Err(finance.FieldInceptionDate))

	require.NoError(t, q.Refresh(context.Background()))
	assert.Equal(t, 2, f.calls())

	price, ok = q.Price()
	require.True(t, ok)
	assert.Equal(t, 1030.0, price)
	vol, ok = q.Volume()
	require.True(t, ok)
	assert.Equal(t, int64(50000000), vol)

	// Failures are invalidated too
	assert.NoError(t, q.Err(finance.FieldInceptionDate))
	_, ok = q.InceptionDate()
	assert.True(t, ok)
}

func TestQuote_MissingMarkerIsAbsent(t *testing.T) {
	f := &fakeFetcher{pages: []string{fixture(t, "equity.html")}}
	q, err := New(context.Background(), "BAC", WithFetcher(f))
	require.NoError(t, err)

	v, ok := q.LastDividend()
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.ErrorIs(t, q.Err(finance.FieldLastDividend), finance.ErrMarkerNotFound)

	_, ok = q.YearsRange()
	assert.False(t, ok)
	assert.ErrorIs(t, q.Err(finance.FieldYearsRange), utils.ErrPlaceholder)

	// Net assets fall back to the market-cap cell on equity pages
	assets, ok := q.NetAssets()
	require.True(t, ok)
	assert.Equal(t, 248.9e9, assets)
}

func TestQuote_FetchFailure(t *testing.T) {
	boom := errors.New("connection refused")
	f := &fakeFetcher{err: boom}

	q, err := New(context.Background(), "BAC", WithFetcher(f))
	require.Error(t, err)
	require.NotNil(t, q)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, q.FetchErr(), boom)

	_, ok := q.Price()
	assert.False(t, ok)
	_, ok = q.Volume()
	assert.False(t, ok)
	_, ok = q.InceptionDate()
	assert.False(t, ok)
	assert.ErrorIs(t, q.Err(finance.FieldPrice), boom)

	s := q.Summary()
	assert.Nil(t, s.Price)
	assert.Len(t, s.Errors, len(finance.Fields))
}

func TestQuote_RecoversAfterRefresh(t *testing.T) {
	f := &fakeFetcher{err: errors.New("timeout")}
	q, err := New(context.Background(), "BAC", WithFetcher(f))
	require.Error(t, err)
	_, ok := q.Price()
	assert.False(t, ok)

	f.mu.Lock()
	f.err = nil
	f.pages = []string{fixture(t, "equity.html")}
	f.mu.Unlock()

	require.NoError(t, q.Refresh(context.Background()))
	price, ok := q.Price()
	require.True(t, ok)
	assert.Equal(t, 31.5, price)
	assert.NoError(t, q.FetchErr())
}

// gatedFetcher blocks every fetch until release is closed
type gatedFetcher struct {
	page    string
	started chan struct{}
	release chan struct{}
}

func (f *gatedFetcher) Fetch(ctx context.Context, _ string) ([]byte, error) {
	f.started <- struct{}{}
	select {
	case <-f.release:
		return []byte(f.page), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestQuote_ReadsDuringRefresh(t *testing.T) {
	q := newQuote("BAC", WithFetcher(&fakeFetcher{pages: []string{fixture(t, "equity.html")}}))
	require.NoError(t, q.Refresh(context.Background()))
	price, ok := q.Price()
	require.True(t, ok)
	assert.Equal(t, 31.5, price)

	gate := &gatedFetcher{
		page:    fixture(t, "fund.html"),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	q.fetcher = gate

	done := make(chan error, 1)
	go func() { done <- q.Refresh(context.Background()) }()
	<-gate.started

	// The old page stays readable while the new one is in flight
	read := make(chan float64, 1)
	go func() {
		v, _ := q.Price()
		_, _ = q.Volume()
		read <- v
	}()
	select {
	case v := <-read:
		assert.Equal(t, 31.5, v)
	case <-time.After(2 * time.Second):
		t.Fatal("accessor blocked behind an in-flight refresh")
	}
	assert.False(t, q.FetchedAt().IsZero())

	close(gate.release)
	require.NoError(t, <-done)
	price, ok = q.Price()
	require.True(t, ok)
	assert.Equal(t, 1027.53, price)
}

func TestQuote_NonFiniteCellIsAbsent(t *testing.T) {
	page := strings.Replace(fixture(t, "equity.html"), ">11.62<", ">Infinity<", 1)
	q, err := New(context.Background(), "BAC", WithFetcher(&fakeFetcher{pages: []string{page}}))
	require.NoError(t, err)

	_, ok := q.PriceToEarnings()
	assert.False(t, ok)
	assert.Error(t, q.Err(finance.FieldPriceToEarnings))
}

func TestQuote_EmptySymbol(t *testing.T) {
	f := &fakeFetcher{pages: []string{"<html></html>"}}
	q, err := New(context.Background(), "  ", WithFetcher(f))
	assert.ErrorIs(t, err, fetch.ErrUnknownSymbol)
	assert.Equal(t, 0, f.calls())

	_, ok := q.Price()
	assert.False(t, ok)
}

func TestQuote_Summary(t *testing.T) {
	f := &fakeFetcher{pages: []string{fixture(t, "equity.html")}}
	q, err := New(context.Background(), "BAC", WithFetcher(f))
	require.NoError(t, err)

	s := q.Summary()
	assert.Equal(t, "BAC", s.Symbol)
	require.NotNil(t, s.Price)
	assert.Equal(t, 31.5, *s.Price)
	require.NotNil(t, s.DailyChange)
	assert.Equal(t, finance.Change{Dollar: 1.02, Percent: 3.35}, *s.DailyChange)
	require.NotNil(t, s.AvgVolume)
	assert.Equal(t, int64(48730000), *s.AvgVolume)
	assert.Nil(t, s.YearRange)
	assert.Nil(t, s.InceptionDate)

	assert.Contains(t, s.Errors, finance.FieldInceptionDate)
	assert.Contains(t, s.Errors, finance.FieldYearsRange)
	assert.NotContains(t, s.Errors, finance.FieldPrice)
}
