package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quotescraper/browser"
	"quotescraper/cache"
	"quotescraper/config"
	"quotescraper/fetch"
	"quotescraper/logger"
	"quotescraper/stock"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	fetcher, closeFetcher := newFetcher(cfg, log)
	defer closeFetcher()

	opts := []stock.Option{
		stock.WithFetcher(fetcher),
		stock.WithRegion(cfg.Region),
		stock.WithURLTemplate(cfg.URLTemplate),
		stock.WithLogger(log),
	}

	// One-shot mode: quotescraper BAC VFIAX
	if symbols := os.Args[1:]; len(symbols) > 0 {
		if err := printQuotes(symbols, cfg.FetchTimeout, opts); err != nil {
			log.Error().Err(err).Msg("quote lookup failed")
			closeFetcher()
			os.Exit(1)
		}
		return
	}

	store, closeStore := newStore(cfg, log)
	defer closeStore()

	router := mux.NewRouter()
	stock.NewHandler(store, cfg.CacheTTL, log, opts...).RegisterRoutes(router)

	var h http.Handler = router
	h = handlers.CompressHandler(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet}),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, accessLog(log))
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func newFetcher(cfg *config.Config, log zerolog.Logger) (fetch.Fetcher, func()) {
	if cfg.FetchMode == config.FetchModeBrowser {
		pool := browser.New(2, cfg.UserAgent, log)
		return pool, pool.Shutdown
	}

	client := fetch.NewClient(
		fetch.Timeout(cfg.FetchTimeout),
		fetch.RateLimit(cfg.FetchRate),
		fetch.UserAgent(cfg.UserAgent),
		fetch.Logger(log),
	)
	return client, func() {}
}

func newStore(cfg *config.Config, log zerolog.Logger) (cache.Store, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryStore(cfg.CacheSize), func() {}
	}

	store := cache.NewRedisStore(cfg.RedisAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, using in-memory cache")
		store.Close()
		return cache.NewMemoryStore(cfg.CacheSize), func() {}
	}

	log.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache")
	return store, func() { store.Close() }
}

func printQuotes(symbols []string, timeout time.Duration, opts []stock.Option) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")

	var failed error
	for _, symbol := range symbols {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		q, err := stock.New(ctx, symbol, opts...)
		cancel()
		if err != nil {
			failed = errors.Join(failed, err)
			continue
		}
		if err := enc.Encode(q.Summary()); err != nil {
			return err
		}
	}
	return failed
}

func accessLog(log zerolog.Logger) handlers.LogFormatter {
	return func(_ io.Writer, params handlers.LogFormatterParams) {
		log.Info().
			Str("method", params.Request.Method).
			Str("path", params.URL.Path).
			Int("status", params.StatusCode).
			Int("size", params.Size).
			Dur("elapsed", time.Since(params.TimeStamp)).
			Msg("request")
	}
}
