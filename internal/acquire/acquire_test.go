package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mazelab/mazelab/internal/domain"
)

const searchPage = `<!DOCTYPE html>
<html><body>
<div class="result">
	<h2 class="title">First Result</h2>
	<p class="summary">A short summary.</p>
	<span class="tag">systems</span>
	<span class="tag">go</span>
</div>
<div class="result">
	<h2 class="title">Second Result</h2>
	<p class="summary">Another summary.</p>
</div>
<div class="result">
	<h2 class="title"></h2>
	<p class="summary">No title, should be skipped.</p>
</div>
<div class="result">
	<h2 class="title">Third Result</h2>
</div>
</body></html>`

func testSource(serverURL string) Source {
	return Source{
		Name:            "test",
		SearchURL:       serverURL + "/search?q={{QUERY}}",
		ItemSelector:    "div.result",
		TitleSelector:   "h2.title",
		SummarySelector: "p.summary",
		TagSelector:     "span.tag",
	}
}

func TestSearchExtractsArticles(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	s := NewWebSearcher(srv.Client(), &Config{Sources: []Source{testSource(srv.URL)}})
	articles, err := s.Search(context.Background(), []string{"distributed systems"}, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotQuery != "distributed systems" {
		t.Errorf("Expected query to be passed through, got %q", gotQuery)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected limit of 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "First Result" {
		t.Errorf("Expected first title, got %q", first.Title)
	}
	if first.Summary != "A short summary." {
		t.Errorf("Unexpected summary: %q", first.Summary)
	}
	// The keyword leads the tag list, followed by scraped tags.
	want := []string{"distributed systems", "systems", "go"}
	if len(first.Tags) != len(want) {
		t.Fatalf("Expected tags %v, got %v", want, first.Tags)
	}
	for i := range want {
		if first.Tags[i] != want[i] {
			t.Errorf("Tag %d: expected %q, got %q", i, want[i], first.Tags[i])
		}
	}
	if first.Source != domain.SourceCrawled {
		t.Errorf("Expected crawled source, got %s", first.Source)
	}
	if !first.IsPublic {
		t.Error("Expected crawled articles to be public")
	}
}

func TestSearchFailsOnlyWhenAllSourcesFail(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchPage))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	s := NewWebSearcher(nil, &Config{Sources: []Source{testSource(bad.URL), testSource(good.URL)}})
	articles, err := s.Search(context.Background(), []string{"go"}, 5)
	if err != nil {
		t.Fatalf("Partial failure must not error: %v", err)
	}
	if len(articles) == 0 {
		t.Error("Expected articles from the healthy source")
	}

	s = NewWebSearcher(nil, &Config{Sources: []Source{testSource(bad.URL)}})
	if _, err := s.Search(context.Background(), []string{"go"}, 5); err == nil {
		t.Error("Expected error when every fetch fails")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	yaml := `sources:
  - name: example
    searchUrl: "https://example.com/search?q={{QUERY}}"
    itemSelector: "div.result"
    titleSelector: "h2"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "example" {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("sources:\n  - name: incomplete\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("Expected validation error for incomplete source")
	}
}
