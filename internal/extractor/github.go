package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"conspectus/internal/domain"
)

const (
	githubAPIBase   = "https://api.github.com"
	githubAPIAccept = "application/vnd.github.v3+json"

	// Unauthenticated GitHub API access is capped at 60 requests per hour;
	// the limiter keeps bursts from burning the budget.
	githubAPIRequestsPerHour = 60
	githubAPIBurst           = 10

	fileDownloadConcurrency = 4
)

var (
	githubRepoRe  = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+)`)
	githubStarsRe = regexp.MustCompile(`[\d,.]+[kK]?`)

	errGithubNotFound = errors.New("github API returned 404")
)

// Markdown files worth aggregating from the repository root, by priority.
var importantMarkdownFiles = []string{
	"README.md",
	"ARCHITECTURE.md",
	"CONTRIBUTING.md",
	"DEVELOPMENT.md",
	"SETUP.md",
	"INSTALL.md",
	"USAGE.md",
	"API.md",
	"CHANGELOG.md",
}

// GitHubExtractor aggregates repository metadata, the README and other
// markdown documents through the contents API, with an HTML scrape as the
// fallback when the API is unreachable or rate limited.
type GitHubExtractor struct {
	fetcher *fetcher
	limiter *rate.Limiter
	log     *slog.Logger

	htmlBase string
	apiBase  string
}

func NewGitHubExtractor(client *http.Client, log *slog.Logger) *GitHubExtractor {
	return &GitHubExtractor{
		fetcher:  newFetcher(client),
		limiter:  rate.NewLimiter(rate.Every(time.Hour/githubAPIRequestsPerHour), githubAPIBurst),
		log:      log,
		htmlBase: "https://github.com",
		apiBase:  githubAPIBase,
	}
}

func (e *GitHubExtractor) Source() domain.Source {
	return domain.SourceGitHub
}

func (e *GitHubExtractor) Extract(ctx context.Context, rawURL string) (*domain.Article, error) {
	match := githubRepoRe.FindStringSubmatch(rawURL)
	if match == nil {
		return nil, &domain.ExtractionError{
			Reason: domain.ExtractParse,
			URL:    rawURL,
			Err:    errors.New("expected github.com/owner/repo"),
		}
	}

	owner := match[1]
	repo := strings.TrimSuffix(strings.TrimSuffix(match[2], "/"), ".git")

	// The canonical repository URL is the cache key, whatever deep link
	// the caller pasted.
	canonicalURL := fmt.Sprintf("%s/%s/%s", e.htmlBase, owner, repo)

	doc, _, err := e.fetcher.document(ctx, canonicalURL)
	if err != nil {
		return nil, err
	}

	files, findErr := e.findMarkdownFiles(ctx, owner, repo)
	if findErr != nil {
		e.log.WarnContext(ctx, "GitHub contents API failed, falling back to HTML",
			"error", findErr,
			"repo", owner+"/"+repo)
	}

	var content string
	var paths []string

	if len(files) > 0 {
		content = e.combineFiles(ctx, files)
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}

	if content == "" {
		content = githubReadmeFromHTML(doc)
		paths = []string{"README.md"}
	}

	return &domain.Article{
		URL:         canonicalURL,
		Source:      domain.SourceGitHub,
		Title:       owner + "/" + repo,
		Author:      owner,
		Content:     content,
		Description: strings.TrimSpace(doc.Find("p.f4").First().Text()),
		Stars:       githubStars(doc),
		Language:    githubLanguage(doc),
		Files:       paths,
	}, nil
}

type githubContentItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// findMarkdownFiles lists the repository root and docs/ directory. A missing
// docs/ directory is normal and not an error.
func (e *GitHubExtractor) findMarkdownFiles(
	ctx context.Context,
	owner string,
	repo string,
) ([]githubContentItem, error) {
	important := make(map[string]struct{}, len(importantMarkdownFiles))
	for _, name := range importantMarkdownFiles {
		important[strings.ToUpper(name)] = struct{}{}
	}

	var found []githubContentItem

	root, err := e.apiList(ctx, fmt.Sprintf("%s/repos/%s/%s/contents", e.apiBase, owner, repo))
	if err != nil {
		return nil, fmt.Errorf("list repository root: %w", err)
	}

	for _, item := range root {
		if item.Type != "file" {
			continue
		}
		if _, ok := important[strings.ToUpper(item.Name)]; !ok {
			continue
		}
		found = append(found, item)
	}

	docs, err := e.apiList(ctx, fmt.Sprintf("%s/repos/%s/%s/contents/docs", e.apiBase, owner, repo))
	if err != nil && !errors.Is(err, errGithubNotFound) {
		e.log.WarnContext(ctx, "Failed to list docs directory",
			"error", err,
			"repo", owner+"/"+repo)
	}

	for _, item := range docs {
		if item.Type == "file" && strings.HasSuffix(item.Name, ".md") {
			found = append(found, item)
		}
	}

	return found, nil
}

func (e *GitHubExtractor) apiList(ctx context.Context, apiURL string) ([]githubContentItem, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	body, err := e.fetcher.get(ctx, apiURL, githubAPIAccept)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, errGithubNotFound
		}
		return nil, err
	}

	var items []githubContentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode contents listing: %w", err)
	}

	return items, nil
}

// combineFiles downloads every markdown file and concatenates them in the
// discovery order, each under a separator naming its path. Individual
// download failures drop the file, not the whole extraction.
func (e *GitHubExtractor) combineFiles(ctx context.Context, files []githubContentItem) string {
	contents := make([]string, len(files))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(fileDownloadConcurrency)

	for i, file := range files {
		if file.DownloadURL == "" {
			continue
		}

		g.Go(func() error {
			body, err := e.fetcher.get(groupCtx, file.DownloadURL, "")
			if err != nil {
				e.log.WarnContext(groupCtx, "Failed to download markdown file",
					"error", err,
					"path", file.Path)

				return nil
			}

			contents[i] = string(body)
			return nil
		})
	}

	// Errors are swallowed per file, so Wait only synchronizes.
	_ = g.Wait()

	separator := strings.Repeat("=", 60)
	var b strings.Builder

	for i, file := range files {
		if contents[i] == "" {
			continue
		}

		fmt.Fprintf(&b, "\n%s\nFILE: %s\n%s\n\n", separator, file.Path, separator)
		b.WriteString(contents[i])
	}

	return strings.TrimSpace(b.String())
}

func githubReadmeFromHTML(doc *goquery.Document) string {
	node := doc.Find("article.markdown-body").First()
	if node.Length() == 0 {
		return ""
	}

	node.Find("script, style, svg, img").Remove()

	return textWithNewlines(node)
}

func githubStars(doc *goquery.Document) string {
	stars := "0"

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, "/stargazers") {
			return true
		}

		if match := githubStarsRe.FindString(sel.Text()); match != "" {
			stars = match
			return false
		}

		return true
	})

	return stars
}

func githubLanguage(doc *goquery.Document) string {
	return strings.TrimSpace(
		doc.Find(`span[itemprop="programmingLanguage"]`).First().Text(),
	)
}
