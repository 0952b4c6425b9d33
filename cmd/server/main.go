package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/hoteldistro/internal/api"
	"github.com/dgallion1/hoteldistro/internal/chat"
	"github.com/dgallion1/hoteldistro/internal/config"
	"github.com/dgallion1/hoteldistro/internal/contact"
	"github.com/dgallion1/hoteldistro/internal/glossary"
	"github.com/dgallion1/hoteldistro/internal/pipeline"
	"github.com/dgallion1/hoteldistro/internal/registry"
	"github.com/dgallion1/hoteldistro/internal/render"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// A local .env is optional.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chapters, err := registry.OpenDir(cfg.ContentDir, log)
	if err != nil {
		log.Error("open chapters", "error", err)
		os.Exit(1)
	}

	deps := api.Deps{
		Chapters: chapters,
		Renderer: render.New(),
		Public:   afero.NewOsFs(),
	}

	gl, err := glossary.Load(afero.NewOsFs(), cfg.GlossaryPath, cfg.GlossaryAnchorsPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn("no glossary found, serving an empty one", "path", cfg.GlossaryPath)
	case err != nil:
		log.Error("load glossary", "error", err)
		os.Exit(1)
	default:
		deps.Glossary = gl
		log.Info("glossary loaded", "terms", len(gl.Terms))
	}

	var claude *chat.Client
	if cfg.ChatEnabled() {
		claude = chat.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		deps.Chat = chat.NewService(claude, chapters, chat.NewStats(time.Hour), cfg.ChatMaxTokens, cfg.ChatContextTokens, log)
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, teaching assistant disabled")
	}

	var mailer contact.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = contact.NewResendMailer(cfg.ResendAPIKey)
	}
	deps.Contact = contact.NewService(mailer, cfg.ContactFrom, cfg.ContactRecipients, log)

	var orch *pipeline.Orchestrator
	if cfg.AdminEnabled() {
		orch = pipeline.NewOrchestrator(cfg, chapters.Store(), log)
		orch.Start(ctx)
		deps.Imports = orch
	}

	srv, err := api.NewServer(deps, log, cfg)
	if err != nil {
		log.Error("create server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		// No handler can submit once the server has stopped.
		if orch != nil {
			orch.Stop()
		}

		if claude != nil {
			claude.Close()
		}
	}()

	log.Info("starting hoteldistro",
		"port", cfg.Port,
		"content_dir", cfg.ContentDir,
		"gate", cfg.SitePassword != "",
		"chat", cfg.ChatEnabled(),
		"admin", cfg.AdminEnabled(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
