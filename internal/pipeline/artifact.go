package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"conspectus/internal/domain"
)

// ArtifactSink mirrors normalized articles to JSON files, one per URL,
// before summarization. Extraction output stays inspectable even when the
// model call fails. It is a debugging aid, never a second source of truth:
// write failures are reported but must not fail the run.
type ArtifactSink struct {
	dir string
	log *slog.Logger
}

func NewArtifactSink(dataDir string, log *slog.Logger) *ArtifactSink {
	return &ArtifactSink{
		dir: filepath.Join(dataDir, "articles"),
		log: log,
	}
}

// Write stores the article as an indented JSON file named by the hash of
// its URL, overwriting any previous version.
func (s *ArtifactSink) Write(ctx context.Context, article *domain.Article) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	payload, err := json.MarshalIndent(article, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}

	path := filepath.Join(s.dir, artifactName(article.URL))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	s.log.DebugContext(ctx, "Wrote artifact",
		"url", article.URL,
		"path", path)

	return nil
}

// artifactName derives a stable filesystem-safe name from a URL.
func artifactName(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:]) + ".json"
}
