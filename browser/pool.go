// Package browser fetches quote pages through headless Chrome
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Pool manages a fixed number of reusable browser tabs
type Pool struct {
	size      int
	userAgent string
	settle    time.Duration
	log       zerolog.Logger

	initOnce    sync.Once
	initErr     error
	tabs        chan context.Context
	cancelFuncs map[context.Context]context.CancelFunc
	allocCtx    context.Context
	allocCancel context.CancelFunc
	mu          sync.Mutex
}

// New creates a pool of size tabs. Chrome is started on first Fetch.
func New(size int, userAgent string, log zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size:        size,
		userAgent:   userAgent,
		settle:      time.Second,
		tabs:        make(chan context.Context, size),
		cancelFuncs: make(map[context.Context]context.CancelFunc),
		log:         log.With().Str("component", "browser").Logger(),
	}
}

func (pool *Pool) initialize() error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(pool.userAgent),
	)

	pool.allocCtx, pool.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)

	for i := 0; i < pool.size; i++ {
		tab, err := pool.openTab()
		if err != nil {
			pool.log.Warn().Err(err).Msg("failed to open browser tab")
			continue
		}
		pool.tabs <- tab
	}

	if len(pool.cancelFuncs) == 0 {
		pool.allocCancel()
		return fmt.Errorf("no browser tab could be started")
	}

	pool.log.Info().Int("tabs", len(pool.cancelFuncs)).Msg("browser pool initialized")
	return nil
}

// openTab starts a tab on the shared browser. Callers hold pool.mu.
func (pool *Pool) openTab() (context.Context, error) {
	if pool.allocCtx == nil {
		return nil, fmt.Errorf("browser pool is not running")
	}
	if err := pool.allocCtx.Err(); err != nil {
		return nil, fmt.Errorf("browser pool is shut down: %w", err)
	}

	ctx, cancel := chromedp.NewContext(pool.allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser in advance
	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, err
	}

	pool.cancelFuncs[ctx] = cancel
	return ctx, nil
}

// acquire waits for a free tab
func (pool *Pool) acquire(ctx context.Context) (context.Context, error) {
	pool.initOnce.Do(func() {
		pool.initErr = pool.initialize()
	})
	if pool.initErr != nil {
		return nil, pool.initErr
	}

	select {
	case tab := <-pool.tabs:
		return tab, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout getting browser tab from pool: %w", ctx.Err())
	}
}

// release clears the tab's state and hands it back. A tab that cannot be
// reset is closed and replaced.
func (pool *Pool) release(tab context.Context) {
	refreshCtx, cancel := context.WithTimeout(tab, 3*time.Second)
	defer cancel()

	err := chromedp.Run(refreshCtx,
		network.ClearBrowserCookies(),
		chromedp.Navigate("about:blank"),
	)
	if err == nil {
		pool.tabs <- tab
		return
	}

	pool.log.Warn().Err(err).Msg("discarding broken browser tab")

	pool.mu.Lock()
	defer pool.mu.Unlock()

	if closeTab, ok := pool.cancelFuncs[tab]; ok {
		closeTab()
		delete(pool.cancelFuncs, tab)
	}

	fresh, err := pool.openTab()
	if err != nil {
		pool.log.Error().Err(err).Int("tabs", len(pool.cancelFuncs)).Msg("failed to replace browser tab")
		return
	}
	pool.tabs <- fresh
}

// Fetch navigates to url and returns the rendered HTML
func (pool *Pool) Fetch(ctx context.Context, url string) ([]byte, error) {
	tab, err := pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.release(tab)

	// Tie the tab to the caller's deadline without cancelling the tab itself
	runCtx, cancel := context.WithCancel(tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var htmlContent string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(pool.settle),
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL content: %w", err)
	}

	pool.log.Debug().Str("url", url).Int("bytes", len(htmlContent)).Msg("rendered page")
	return []byte(htmlContent), nil
}

// Shutdown closes every tab and the browser
func (pool *Pool) Shutdown() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	for tab, cancel := range pool.cancelFuncs {
		cancel()
		delete(pool.cancelFuncs, tab)
	}

	if pool.allocCancel != nil {
		pool.allocCancel()
		pool.allocCancel = nil
	}
	pool.log.Info().Msg("browser pool shut down")
}
