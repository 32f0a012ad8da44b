// Package feed lists fresh publications from the RSS feeds of supported
// sources. It only discovers URLs; summarization stays with the pipeline.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"conspectus/internal/config"
	"conspectus/internal/domain"
)

const defaultRecentLimit = 5

// Item is one feed entry, ready to be offered for summarization.
type Item struct {
	Title     string
	URL       string
	Published time.Time
}

type Fetcher struct {
	libParser *gofeed.Parser
	feedURLs  map[domain.Source]string
	log       *slog.Logger
}

// NewFetcher builds a fetcher from source configs. Sources without a feed
// URL (GitHub has none) are simply not listed.
func NewFetcher(sources []config.SourceConfig, log *slog.Logger) *Fetcher {
	feedURLs := make(map[domain.Source]string)

	for _, src := range sources {
		feedURL := strings.TrimSpace(src.FeedURL)
		if feedURL == "" {
			continue
		}

		source, err := domain.ParseSource(src.Name)
		if err != nil {
			log.Warn("Skipping feed for unknown source",
				"source", src.Name)
			continue
		}

		feedURLs[source] = feedURL
	}

	return &Fetcher{
		libParser: gofeed.NewParser(),
		feedURLs:  feedURLs,
		log:       log,
	}
}

// Sources lists the sources that have a configured feed, sorted by name.
func (f *Fetcher) Sources() []domain.Source {
	sources := make([]domain.Source, 0, len(f.feedURLs))
	for source := range f.feedURLs {
		sources = append(sources, source)
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i] < sources[j]
	})

	return sources
}

// Recent returns the newest entries of a source's feed, newest first.
func (f *Fetcher) Recent(
	ctx context.Context,
	source domain.Source,
	limit int,
) ([]Item, error) {
	feedURL, ok := f.feedURLs[source]
	if !ok {
		return nil, fmt.Errorf("no feed configured for source %q", source)
	}

	if limit <= 0 {
		limit = defaultRecentLimit
	}

	parsed, err := f.libParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %q: %w", feedURL, err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			continue
		}

		item := Item{
			Title: strings.TrimSpace(entry.Title),
			URL:   link,
		}

		if entry.PublishedParsed != nil {
			item.Published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.Published = *entry.UpdatedParsed
		}

		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})

	if len(items) > limit {
		items = items[:limit]
	}

	f.log.InfoContext(ctx, "Fetched recent feed items",
		"source", source,
		"count", len(items))

	return items, nil
}
