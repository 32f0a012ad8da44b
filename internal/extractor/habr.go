package extractor

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"conspectus/internal/domain"
)

// HabrExtractor parses habr.com article pages: title, author, publication
// date and body with script/style/aside nodes stripped.
type HabrExtractor struct {
	fetcher *fetcher
	log     *slog.Logger
}

func NewHabrExtractor(client *http.Client, log *slog.Logger) *HabrExtractor {
	return &HabrExtractor{
		fetcher: newFetcher(client),
		log:     log,
	}
}

func (e *HabrExtractor) Source() domain.Source {
	return domain.SourceHabr
}

func (e *HabrExtractor) Extract(ctx context.Context, rawURL string) (*domain.Article, error) {
	doc, body, err := e.fetcher.document(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	content := e.content(ctx, doc, body, rawURL)

	return &domain.Article{
		URL:           rawURL,
		Source:        domain.SourceHabr,
		Title:         strings.TrimSpace(doc.Find("h1.tm-title").First().Text()),
		Author:        habrAuthor(doc),
		PublishedDate: strings.TrimSpace(doc.Find("span.tm-article-datetime-published").First().Text()),
		Content:       content,
	}, nil
}

func (e *HabrExtractor) content(
	ctx context.Context,
	doc *goquery.Document,
	body []byte,
	rawURL string,
) string {
	node := doc.Find("div#post-content-body").First()
	if node.Length() == 0 {
		// The article layout changed or the page is not a regular
		// article; let readability take a shot at the whole document.
		return e.readabilityFallback(ctx, body, rawURL)
	}

	node.Find("script, style, aside").Remove()

	return textWithNewlines(node)
}

func (e *HabrExtractor) readabilityFallback(ctx context.Context, body []byte, rawURL string) string {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		e.log.WarnContext(ctx, "Readability fallback failed",
			"error", err,
			"url", rawURL)

		return ""
	}

	return strings.TrimSpace(article.TextContent)
}

func habrAuthor(doc *goquery.Document) string {
	link := doc.Find("a.tm-user-info__username").First()
	if link.Length() == 0 {
		return ""
	}

	if span := link.Find("span").First(); span.Length() != 0 {
		return strings.TrimSpace(span.Text())
	}

	return strings.TrimSpace(link.Text())
}
