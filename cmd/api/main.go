package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"goa.design/clue/log"
	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/moodtunes/internal/adapters/anthropic"
	"github.com/ewilliams-labs/moodtunes/internal/adapters/memory"
	"github.com/ewilliams-labs/moodtunes/internal/adapters/ollama"
	"github.com/ewilliams-labs/moodtunes/internal/adapters/openai"
	"github.com/ewilliams-labs/moodtunes/internal/adapters/redis"
	"github.com/ewilliams-labs/moodtunes/internal/adapters/rest"
	"github.com/ewilliams-labs/moodtunes/internal/adapters/spotify"
	"github.com/ewilliams-labs/moodtunes/internal/adapters/sqlite"
	"github.com/ewilliams-labs/moodtunes/internal/adapters/throttle"
	"github.com/ewilliams-labs/moodtunes/internal/config"
	"github.com/ewilliams-labs/moodtunes/internal/core/policy"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
	"github.com/ewilliams-labs/moodtunes/internal/core/services"
	"github.com/ewilliams-labs/moodtunes/internal/worker"
)

func main() {
	// 1. Configuration
	// Crash early if required config is missing.
	cfg, err := config.Load()

	format := log.FormatJSON
	if cfg.Log.Format == "terminal" || (cfg.Log.Format == "" && log.IsTerminal()) {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if cfg.Log.Debug {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}

	if err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "invalid configuration"})
		os.Exit(1)
	}
	log.Debugf(ctx, "spotify client id length: %d, secret length: %d", len(cfg.Spotify.ClientID), len(cfg.Spotify.ClientSecret))

	if err := run(ctx, cfg); err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "server stopped"})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize "Driven" Adapters
	// -- Session store
	store, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// -- Playlist ledger, written off the request path
	ledger, err := sqlite.NewAdapter(cfg.LedgerDSN)
	if err != nil {
		return fmt.Errorf("initialize ledger: %w", err)
	}
	defer ledger.Close()

	pool := worker.NewPool(ctx, ledger, 100, worker.DefaultSaveTimeout)
	pool.Start(2)
	defer pool.Stop()

	// -- Spotify adapters
	httpClient := &http.Client{Timeout: cfg.CatalogTimeout}
	catalog := spotify.NewClient(httpClient, cfg.Spotify.APIURL, cfg.MatchMinScore)
	auth := spotify.NewAuthorizer(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.RedirectURI, oauth2.Endpoint{}, httpClient)

	// -- Language model
	llm, err := newLanguageModel(cfg)
	if err != nil {
		return err
	}
	llm = throttle.Middleware(cfg.LLM.RatePerMinute, 1)(llm)

	// 3. Initialize Core Logic
	opts := services.DefaultOptions()
	opts.Policy = policy.Finalization{
		CoverageThreshold:   cfg.Policy.CoverageThreshold,
		TurnCap:             cfg.Policy.TurnCap,
		FinalizeMinCoverage: cfg.Policy.FinalizeMinCoverage,
		FinalizeMinTurns:    cfg.Policy.FinalizeMinTurns,
	}
	opts.SongsMin = cfg.Songs.Min
	opts.SongsMax = cfg.Songs.Max
	opts.HistoryWindow = cfg.HistoryWindow
	opts.Temperature = cfg.LLM.Temperature
	opts.MaxTokens = cfg.LLM.MaxTokens
	opts.ModelTimeout = cfg.LLM.Timeout

	resolver := services.NewResolver(catalog, auth, cfg.CatalogTimeout)
	chat := services.NewOrchestrator(store, llm, resolver, pool, opts)
	accounts := services.NewAccounts(store, auth, catalog, cfg.FrontendURL, cfg.CatalogTimeout)
	results := services.NewResults(ledger)

	// 4. Initialize "Driving" Adapter
	var handler http.Handler = rest.NewHandler(chat, accounts, results, cfg.FrontendURL)
	handler = log.HTTP(ctx)(handler)

	// 5. Start the Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Print(ctx,
			log.KV{K: "msg", V: "MoodTunes API listening"},
			log.KV{K: "addr", V: srv.Addr},
			log.KV{K: "llm", V: cfg.LLM.Provider},
			log.KV{K: "sessions", V: cfg.Session.Driver})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Printf(ctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func newSessionStore(ctx context.Context, cfg config.Config) (ports.SessionStore, func(), error) {
	switch cfg.Session.Driver {
	case config.DriverRedis:
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Session.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closer := func() {
			if err := rdb.Close(); err != nil {
				log.Printf(ctx, "close redis: %v", err)
			}
		}
		return redis.New(rdb, redis.Options{TTL: cfg.Session.TTL}), closer, nil
	default:
		store := memory.New(memory.Options{TTL: cfg.Session.TTL, Capacity: cfg.Session.Capacity})
		janitorCtx, cancel := context.WithCancel(ctx)
		go store.RunJanitor(janitorCtx, time.Minute)
		return store, cancel, nil
	}
}

func newLanguageModel(cfg config.Config) (ports.LanguageModel, error) {
	switch cfg.LLM.Provider {
	case config.ProviderAnthropic:
		c, err := anthropic.NewFromAPIKey(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
		if err != nil {
			return nil, fmt.Errorf("initialize anthropic: %w", err)
		}
		return c, nil
	case config.ProviderOllama:
		return ollama.NewClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout), nil
	default:
		c, err := openai.New(openai.Options{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize openai: %w", err)
		}
		return c, nil
	}
}
