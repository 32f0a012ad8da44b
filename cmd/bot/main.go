package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"conspectus/internal/bot"
	"conspectus/internal/config"
	"conspectus/internal/domain"
	"conspectus/internal/extractor"
	"conspectus/internal/feed"
	"conspectus/internal/pipeline"
	"conspectus/internal/provider"
	"conspectus/internal/scheduler"
	"conspectus/internal/store"
)

const availabilityProbeTimeout = 10 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.LoadConfig()

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load sources",
			"error", err,
			"sourcesPath", cfg.SourcesPath)

		return
	}

	st, err := store.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize store",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = st.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close store",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "Store is initialized",
		"dbPath", cfg.DBPath)

	registry := buildRegistry(ctx, cfg, log)

	router := buildRouter(sources, log)

	sink := pipeline.NewArtifactSink(cfg.DataDir, log)

	pipe := pipeline.New(router, registry, st, sink, log)

	fetcher := feed.NewFetcher(sources, log)

	botInst, err := bot.New(cfg.Token, pipe, st, fetcher, registry, cfg.AllowedUsers, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	sched := scheduler.New(ctx, botInst, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", scheduler.DailyDigestSpec)

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", scheduler.DailyDigestSpec,
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, log)
	}

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())
}

// buildRegistry wires the local and cloud backends and probes the default
// model so a dead Ollama shows up in the log at startup, not at the first
// user request.
func buildRegistry(ctx context.Context, cfg config.Config, log *slog.Logger) *provider.Registry {
	registry := provider.NewRegistry(cfg.DefaultModel)

	local := provider.NewOllamaProvider(cfg.OllamaURL, log)
	registry.Register(domain.ModelSpec{Name: "gemma3:12b", Provider: domain.ProviderLocal}, local)

	cloud := provider.NewOpenAIProvider(cfg.OpenAIAPIKey, log)
	registry.Register(domain.ModelSpec{Name: "gpt-3.5-turbo", Provider: domain.ProviderCloud}, cloud)
	registry.Register(domain.ModelSpec{Name: "gpt-4", Provider: domain.ProviderCloud}, cloud)

	probeCtx, cancel := context.WithTimeout(ctx, availabilityProbeTimeout)
	defer cancel()

	spec, impl, err := registry.Resolve("")
	if err != nil {
		log.WarnContext(ctx, "Default model is not registered",
			"defaultModel", cfg.DefaultModel)

		return registry
	}

	if err := impl.CheckAvailability(probeCtx, spec); err != nil {
		log.WarnContext(ctx, "Default model is not available",
			"error", err,
			"model", spec.Name)
	} else {
		log.InfoContext(ctx, "Default model is available",
			"model", spec.Name,
			"provider", spec.Provider)
	}

	return registry
}

func buildRouter(sources []config.SourceConfig, log *slog.Logger) *extractor.Router {
	router := extractor.NewRouter(log)
	client := extractor.NewHTTPClient()

	for _, src := range sources {
		source, err := domain.ParseSource(src.Name)
		if err != nil {
			continue
		}

		switch source {
		case domain.SourceHabr:
			router.Register(src.Domains, extractor.NewHabrExtractor(client, log))
		case domain.SourceGitHub:
			router.Register(src.Domains, extractor.NewGitHubExtractor(client, log))
		case domain.SourceInfostart:
			router.Register(src.Domains, extractor.NewInfostartExtractor(client, log))
		}
	}

	return router
}

func serveMetrics(ctx context.Context, addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shut down metrics server",
				"error", err)
		}
	}()

	log.InfoContext(ctx, "Metrics server is started",
		"addr", addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.ErrorContext(ctx, "Metrics server failed",
			"error", err)
	}
}
