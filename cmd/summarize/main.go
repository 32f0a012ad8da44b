// Command summarize runs the pipeline for a single URL and prints the
// summary. Useful for smoke-testing extraction and models without Telegram.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"conspectus/internal/config"
	"conspectus/internal/domain"
	"conspectus/internal/extractor"
	"conspectus/internal/pipeline"
	"conspectus/internal/provider"
	"conspectus/internal/store"
)

const runTimeout = 10 * time.Minute

func main() {
	model := flag.String("model", "", "model name (default from DEFAULT_MODEL)")
	regenerate := flag.Bool("regenerate", false, "replace the cached summary")
	dbPath := flag.String("db", envOr("DB_PATH", "conspectus.sqlite"), "path to the SQLite database")
	dataDir := flag.String("data-dir", envOr("DATA_DIR", "data"), "directory for JSON artifacts")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	rawURL := strings.TrimSpace(flag.Arg(0))
	if rawURL == "" {
		fmt.Fprintln(os.Stderr, "usage: summarize [flags] <url>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := run(ctx, rawURL, *model, *regenerate, *dbPath, *dataDir, log); err != nil {
		log.ErrorContext(ctx, "Run failed",
			"error", err,
			"url", rawURL)
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	rawURL string,
	model string,
	regenerate bool,
	dbPath string,
	dataDir string,
	log *slog.Logger,
) error {
	sources, err := config.LoadSources(strings.TrimSpace(os.Getenv("SOURCES_PATH")))
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	st, err := store.New(ctx, dbPath, log)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close store",
				"error", err)
		}
	}()

	registry := provider.NewRegistry(envOr("DEFAULT_MODEL", "gemma3:12b"))

	local := provider.NewOllamaProvider(envOr("OLLAMA_URL", "http://localhost:11434"), log)
	registry.Register(domain.ModelSpec{Name: "gemma3:12b", Provider: domain.ProviderLocal}, local)

	cloud := provider.NewOpenAIProvider(os.Getenv("OPENAI_API_KEY"), log)
	registry.Register(domain.ModelSpec{Name: "gpt-3.5-turbo", Provider: domain.ProviderCloud}, cloud)
	registry.Register(domain.ModelSpec{Name: "gpt-4", Provider: domain.ProviderCloud}, cloud)

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

	pipe := pipeline.New(router, registry, st, pipeline.NewArtifactSink(dataDir, log), log)

	result, err := pipe.Process(ctx, pipeline.Request{
		URL:        rawURL,
		Model:      model,
		Regenerate: regenerate,
	})
	if err != nil {
		return err
	}

	record := result.Record

	fmt.Printf("URL:     %s\n", record.URL)
	fmt.Printf("Source:  %s\n", record.Source)
	fmt.Printf("Title:   %s\n", record.Title)
	fmt.Printf("Model:   %s\n", record.ModelUsed)
	if result.CacheHit {
		fmt.Printf("Cached:  %s\n", record.ProcessedAt.Format(time.RFC3339))
	}
	fmt.Printf("\n%s\n", record.Summary)

	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
