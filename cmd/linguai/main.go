package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/antoniostano/linguai/internal/assistant"
	"github.com/antoniostano/linguai/internal/chat"
	"github.com/antoniostano/linguai/internal/config"
	"github.com/antoniostano/linguai/internal/contextstore"
	"github.com/antoniostano/linguai/internal/httpapi"
	"github.com/antoniostano/linguai/internal/observability"
	"github.com/antoniostano/linguai/internal/prefs"
	"github.com/antoniostano/linguai/internal/registration"
	"github.com/antoniostano/linguai/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	userStore, err := users.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("user store init failed: %v", err)
	}
	defer userStore.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("user store: in-memory (DATABASE_URL not set)")
	} else {
		log.Printf("user store: postgres")
	}

	cache, err := contextstore.NewStore(ctx, cfg.RedisURL, cfg.ContextTTL)
	if err != nil {
		log.Fatalf("context store init failed: %v", err)
	}
	defer cache.Close()
	if cfg.RedisURL == "" {
		log.Printf("context store: in-memory (REDIS_URL not set), ttl %s", cfg.ContextTTL)
	} else {
		log.Printf("context store: redis, ttl %s", cfg.ContextTTL)
	}

	completer, err := assistant.NewCompleter(assistant.Config{
		Mode:        cfg.AssistantMode,
		Model:       cfg.AssistantModel,
		APIKey:      cfg.AssistantAPIKey,
		BaseURL:     cfg.AssistantBaseURL,
		MaxTokens:   cfg.AssistantMaxTokens,
		Temperature: cfg.AssistantTemperature,
	})
	if err != nil {
		log.Fatalf("assistant init failed: %v", err)
	}

	preferences := prefs.New(userStore)
	registrar := registration.New(userStore)
	orchestrator := chat.NewOrchestrator(cache, preferences, completer, metrics, cfg.ChatHistoryMax)

	api := httpapi.New(cfg, registrar, preferences, cache, orchestrator, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
