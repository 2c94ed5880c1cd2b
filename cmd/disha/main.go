package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dishalabs/disha/internal/bedrock"
	"github.com/dishalabs/disha/internal/chat"
	"github.com/dishalabs/disha/internal/config"
	"github.com/dishalabs/disha/internal/ephemeral"
	"github.com/dishalabs/disha/internal/guardrail"
	"github.com/dishalabs/disha/internal/httpapi"
	"github.com/dishalabs/disha/internal/memory"
	"github.com/dishalabs/disha/internal/observability"
	"github.com/dishalabs/disha/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	historyStore, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("history store init failed: %v", err)
	}
	defer historyStore.Close()
	if cfg.DatabaseURL != "" {
		log.Printf("chat history: postgres")
	} else {
		log.Printf("chat history: in-memory (DATABASE_URL not set)")
	}

	model, err := bedrock.New(ctx, bedrock.Config{
		Region:           cfg.AWSRegion,
		AccountID:        cfg.AWSAccountID,
		ModelID:          cfg.ModelID,
		GuardrailID:      cfg.GuardrailID,
		GuardrailVersion: cfg.GuardrailVersion,
		MaxTokens:        cfg.MaxTokens,
	})
	if err != nil {
		log.Fatalf("bedrock client init failed: %v", err)
	}

	pipeline := guardrail.NewPipeline(
		guardrail.NewBiasDetector(cfg.BiasModelPath, cfg.BiasThreshold),
		guardrail.NewProfanityFilter(cfg.StrictProfanity),
	)

	contexts := ephemeral.NewManager(cfg.ContextTTL)

	agent := tools.NewAgent(
		tools.NewJobSearcher(tools.JobSearchConfig{
			Timeout:      cfg.ToolTimeout,
			MaxPerSource: cfg.MaxJobsPerSource,
			Metrics:      metrics,
		}),
		tools.NewMentorshipSource(cfg.DataDir),
		tools.NewCommunitySource(cfg.DataDir),
		model,
	)

	service := chat.NewService(chat.Config{
		ContextWindow: cfg.ContextWindow,
		HistoryLimit:  cfg.HistoryLimit,
	}, pipeline, contexts, historyStore, model, agent, metrics)

	api := httpapi.New(cfg, service, metrics)
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
