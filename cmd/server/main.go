// Package main provides the entry point for the ticketeer server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/codeGROOVE-dev/ticketeer/internal/config"
	"github.com/codeGROOVE-dev/ticketeer/internal/discord"
	"github.com/codeGROOVE-dev/ticketeer/internal/roleconfig"
	"github.com/codeGROOVE-dev/ticketeer/internal/ticket"
)

const (
	serverReadTimeout  = 15 * time.Second
	serverWriteTimeout = 15 * time.Second

	watchingStatus = ".help | Ticket System"
)

// keepAlivePage is served at / so uptime monitors see the bot as up.
const keepAlivePage = `<!DOCTYPE html>
<html>
<head><title>Ticket Bot</title></head>
<body><h1>Bot is Active</h1></body>
</html>
`

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load() //nolint:errcheck // missing .env is fine

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Warn("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	exitCode := run(ctx, cancel)
	cancel()
	os.Exit(exitCode)
}

func run(ctx context.Context, cancel context.CancelFunc) int {
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	botCfg, err := config.LoadBot(cfg.ConfigFile)
	if err != nil {
		slog.Error("failed to load bot configuration", "error", err)
		return 1
	}

	slog.Info("configuration loaded",
		"has_discord_bot_token", cfg.DiscordBotToken != "",
		"has_mongo_url", cfg.MongoURL != "",
		"command_prefix", botCfg.CommandPrefix,
		"ticket_category", botCfg.TicketCategory)

	// Role config store: MongoDB when configured, cache-only otherwise.
	var store roleconfig.Store
	if cfg.MongoURL != "" {
		mongoStore, err := roleconfig.NewMongoStore(ctx, cfg.MongoURL)
		if err != nil {
			slog.Warn("MongoDB unavailable, role config will not persist", "error", err)
		} else {
			store = mongoStore
		}
	} else {
		slog.Warn("MONGO_URL not set, role config will not persist")
	}
	defer func() {
		if store == nil {
			return
		}
		closeCtx, closeCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Warn("failed to close role config store", "error", err)
		}
	}()

	roles := roleconfig.NewCache(store, slog.Default())
	if err := roles.LoadAll(ctx); err != nil {
		slog.Warn("failed to load role config, starting with empty cache", "error", err)
	}

	client, err := discord.New(cfg.DiscordBotToken)
	if err != nil {
		slog.Error("failed to create Discord client", "error", err)
		return 1
	}

	registry := ticket.NewRegistry()
	lifecycle := ticket.New(ticket.Config{
		Gateway:    client,
		Roles:      roles,
		Registry:   registry,
		Logger:     slog.Default(),
		Prefix:     ticket.DefaultPrefix,
		Category:   botCfg.TicketCategory,
		LogChannel: botCfg.LogChannel,
		CloseDelay: botCfg.CloseDelay(),
	})

	router := discord.NewCommandRouter(client, lifecycle, roles, botCfg.CommandPrefix, slog.Default())
	router.Register(client.Session())

	buttons := discord.NewButtonHandler(lifecycle, slog.Default())
	buttons.Register(client.Session())

	if err := client.Open(); err != nil {
		slog.Error("failed to open Discord connection", "error", err)
		return 1
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close Discord connection", "error", err)
		}
	}()

	client.SetWatchingStatus(watchingStatus)
	slog.Info("connected to Discord")

	// HTTP surface: keep-alive page, health, ticket counts.
	httpRouter := mux.NewRouter()
	httpRouter.Use(securityHeadersMiddleware)
	httpRouter.HandleFunc("/", keepAliveHandler).Methods("GET")
	httpRouter.HandleFunc("/healthz", healthHandler).Methods("GET")
	httpRouter.HandleFunc("/stats", makeStatsHandler(registry)).Methods("GET")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpRouter,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		slog.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		cancel()
		return 1
	}

	// Let scheduled channel deletions finish before disconnecting.
	lifecycle.Wait()

	slog.Info("shutdown complete")
	return 0
}

func keepAliveHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(keepAlivePage)); err != nil {
		slog.Debug("keep-alive write error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok\n")); err != nil {
		slog.Debug("health write error", "error", err)
	}
}

func makeStatsHandler(registry *ticket.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		tickets, claims := registry.Counts()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]int{
			"tickets": tickets,
			"claimed": claims,
		}); err != nil {
			slog.Debug("stats write error", "error", err)
		}
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		next.ServeHTTP(w, r)
	})
}
