package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viralsafe/content-safety/internal/adapters/classifiers"
	httpadapter "github.com/viralsafe/content-safety/internal/adapters/http"
	"github.com/viralsafe/content-safety/internal/adapters/scanclient"
	"github.com/viralsafe/content-safety/internal/adapters/storage"
	"github.com/viralsafe/content-safety/internal/application"
	"github.com/viralsafe/content-safety/internal/config"
	"github.com/viralsafe/content-safety/internal/domain/analysis"
	"github.com/viralsafe/content-safety/internal/ports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store, err := buildStorage(cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}
	defer store.Close()

	var classifier ports.Classifier
	if providers := buildProviders(cfg); len(providers) > 0 {
		classifier = classifiers.NewChain(providers)
		log.Printf("classifier chain configured with %d provider(s)", len(providers))
	} else {
		log.Println("no classifier provider configured, relying on local signals")
	}

	monitor := scanclient.NewHealthMonitor(cfg.ScanAPIKey != "")
	var scanner ports.URLScanner
	if cfg.ScanAPIKey != "" {
		scanner = scanclient.NewClient(cfg.ScanBaseURL, cfg.ScanAPIKey, monitor)
		log.Println("external URL scanning enabled")
	}

	combiner := analysis.NewCombiner(
		analysis.NewHeuristicScanner(),
		analysis.NewURLAnalyzer(nil),
		classifier,
		scanner,
		cfg.Policy,
	)

	limiter := application.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	service := application.NewAnalysisService(store, combiner, limiter)
	server := httpadapter.NewServer(service, monitor)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func buildStorage(cfg *config.Config) (ports.Storage, error) {
	if cfg.DatabaseURL == "" {
		log.Println("no DATABASE_URL set, using in-memory storage")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// buildProviders assembles the classifier fallback chain in the
// configured priority order. Only providers with credentials are
// included.
func buildProviders(cfg *config.Config) []classifiers.Provider {
	var providers []classifiers.Provider
	for _, name := range cfg.ClassifierPriority {
		switch name {
		case "groq":
			if cfg.GroqAPIKey != "" {
				providers = append(providers, classifiers.NewOpenAICompatProvider(
					"groq",
					"https://api.groq.com/openai/v1/chat/completions",
					cfg.GroqAPIKey,
					"llama-3.1-8b-instant",
				))
			}
		case "openai":
			if cfg.OpenAIAPIKey != "" {
				providers = append(providers, classifiers.NewOpenAICompatProvider(
					"openai",
					"https://api.openai.com/v1/chat/completions",
					cfg.OpenAIAPIKey,
					"gpt-4o-mini",
				))
			}
		case "anthropic":
			if cfg.AnthropicAPIKey != "" {
				providers = append(providers, classifiers.NewAnthropicProvider(
					"https://api.anthropic.com/v1/messages",
					cfg.AnthropicAPIKey,
					"claude-3-5-haiku-latest",
				))
			}
		}
	}
	return providers
}
