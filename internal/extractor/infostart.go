package extractor

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"conspectus/internal/domain"
)

// InfostartExtractor parses infostart.ru articles and publications. Both
// URL shapes (/1c/articles/... and /public/...) land here; the page layout
// is the same.
type InfostartExtractor struct {
	fetcher *fetcher
	log     *slog.Logger
}

func NewInfostartExtractor(client *http.Client, log *slog.Logger) *InfostartExtractor {
	return &InfostartExtractor{
		fetcher: newFetcher(client),
		log:     log,
	}
}

func (e *InfostartExtractor) Source() domain.Source {
	return domain.SourceInfostart
}

func (e *InfostartExtractor) Extract(ctx context.Context, rawURL string) (*domain.Article, error) {
	doc, _, err := e.fetcher.document(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return &domain.Article{
		URL:     rawURL,
		Source:  domain.SourceInfostart,
		Title:   strings.TrimSpace(doc.Find("h1.main-title").First().Text()),
		Author:  infostartAuthor(doc),
		Content: infostartContent(doc),
	}, nil
}

// Author and date are often missing from the main markup; a profile link is
// the most reliable signal.
func infostartAuthor(doc *goquery.Document) string {
	var author string

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, "/users/") {
			return true
		}

		author = strings.TrimSpace(sel.Text())
		return author == ""
	})

	return author
}

func infostartContent(doc *goquery.Document) string {
	node := doc.Find("div.kurs-spoiler").First()
	if node.Length() == 0 {
		node = doc.Find("div.public-text-wrapper").First()
	}
	if node.Length() == 0 {
		node = doc.Find("div.content").First()
	}
	if node.Length() == 0 {
		return ""
	}

	node.Find("script, style, aside, iframe, nav").Remove()
	node.Find("div.forum-message-wrap, div.comments, div.comment").Remove()

	text := textWithNewlines(node)

	// Navigation breadcrumbs render as lines of nothing but ">".
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == ">" {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n")
}
