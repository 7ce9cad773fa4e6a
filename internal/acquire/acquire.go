// Package acquire provides the content-acquisition collaborator: best-effort
// keyword search against configured external sources, returning normalized
// articles.
package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/mazelab/mazelab/internal/domain"
	"gopkg.in/yaml.v3"
)

// Searcher fetches additional articles by keyword. Implementations are
// best-effort: a failing searcher must never abort a recommendation round.
type Searcher interface {
	Search(ctx context.Context, keywords []string, perKeyword int) ([]domain.Article, error)
}

// Source describes one scrapeable search endpoint. The selectors address
// result items within the search page.
type Source struct {
	Name            string `yaml:"name"`
	SearchURL       string `yaml:"searchUrl"` // contains a {{QUERY}} placeholder
	ItemSelector    string `yaml:"itemSelector"`
	TitleSelector   string `yaml:"titleSelector"`
	SummarySelector string `yaml:"summarySelector"`
	TagSelector     string `yaml:"tagSelector"`
}

// Config is the YAML source list.
type Config struct {
	Sources []Source `yaml:"sources"`
}

// LoadConfig reads the source list from a YAML file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse sources config: %w", err)
	}
	for i, src := range cfg.Sources {
		if src.Name == "" || src.SearchURL == "" || src.ItemSelector == "" {
			return nil, fmt.Errorf("source %d: name, searchUrl and itemSelector are required", i)
		}
	}
	return &cfg, nil
}

// WebSearcher implements Searcher by scraping configured search pages.
type WebSearcher struct {
	client  *http.Client
	sources []Source
}

// NewWebSearcher wires an HTTP client and the configured sources. A nil
// client gets a 20s timeout default.
func NewWebSearcher(client *http.Client, cfg *Config) *WebSearcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &WebSearcher{client: client, sources: cfg.Sources}
}

// Search queries every source for every keyword and returns up to
// perKeyword articles per (source, keyword) pair. Individual source
// failures are logged and skipped; Search fails only when every fetch
// failed and nothing was collected.
func (s *WebSearcher) Search(ctx context.Context, keywords []string, perKeyword int) ([]domain.Article, error) {
	if perKeyword <= 0 {
		perKeyword = 3
	}

	var (
		out      []domain.Article
		failures int
		attempts int
	)
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		for _, src := range s.sources {
			attempts++
			articles, err := s.searchSource(ctx, src, keyword, perKeyword)
			if err != nil {
				failures++
				slog.Warn("Source search failed", "source", src.Name, "keyword", keyword, "error", err)
				continue
			}
			out = append(out, articles...)
		}
	}

	if attempts > 0 && failures == attempts {
		return nil, fmt.Errorf("all %d source fetches failed", attempts)
	}
	return out, nil
}

func (s *WebSearcher) searchSource(ctx context.Context, src Source, keyword string, limit int) ([]domain.Article, error) {
	pageURL := strings.Replace(src.SearchURL, "{{QUERY}}", url.QueryEscape(keyword), 1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return extractArticles(doc, src, keyword, limit), nil
}

func extractArticles(doc *goquery.Document, src Source, keyword string, limit int) []domain.Article {
	now := time.Now()
	var out []domain.Article

	doc.Find(src.ItemSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Find(src.TitleSelector).First().Text())
		if title == "" {
			return true
		}

		summary := ""
		if src.SummarySelector != "" {
			summary = strings.TrimSpace(sel.Find(src.SummarySelector).First().Text())
		}

		tags := []string{keyword}
		if src.TagSelector != "" {
			sel.Find(src.TagSelector).Each(func(_ int, tag *goquery.Selection) {
				if t := strings.TrimSpace(tag.Text()); t != "" {
					tags = append(tags, t)
				}
			})
		}

		out = append(out, domain.Article{
			ID:        "art-" + uuid.NewString(),
			Source:    domain.SourceCrawled,
			Title:     title,
			Summary:   summary,
			Tags:      tags,
			IsPublic:  true,
			CreatedAt: now,
		})
		return len(out) < limit
	})

	return out
}
