package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/wiki"
)

func TestSearch(t *testing.T) {
	enc := &mockEncyclopedia{
		titles: []string{"Go (programming language)", "Go (game)"},
		summaries: map[string]wiki.Summary{
			"Go (programming language)": {Title: "Go (programming language)", URL: "https://en.wikipedia.org/wiki/Go_(programming_language)", Extract: "Go is a programming language."},
			"Go (game)":                 {Title: "Go (game)", URL: "https://en.wikipedia.org/wiki/Go_(game)", Extract: "Go is a board game."},
		},
	}
	svc := NewSearchService(enc, testLogger())

	got, err := svc.Search(context.Background(), "go")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search() returned %d summaries, want 2", len(got))
	}
	if got[0].Title != "Go (programming language)" {
		t.Errorf("first result = %q, want relevance order preserved", got[0].Title)
	}
}

func TestSearchTrimsQuery(t *testing.T) {
	enc := &mockEncyclopedia{}
	svc := NewSearchService(enc, testLogger())

	if _, err := svc.Search(context.Background(), "  go  "); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if enc.lastQuery != "go" {
		t.Errorf("query sent = %q, want trimmed %q", enc.lastQuery, "go")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := NewSearchService(&mockEncyclopedia{}, testLogger())

	for _, query := range []string{"", "   "} {
		if _, err := svc.Search(context.Background(), query); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Search(%q) error = %v, want ErrValidation", query, err)
		}
	}
}

func TestSearchUpstreamFailure(t *testing.T) {
	enc := &mockEncyclopedia{searchErr: errors.New("503 from the API")}
	svc := NewSearchService(enc, testLogger())

	_, err := svc.Search(context.Background(), "go")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Search() error = %v, want ErrUpstream", err)
	}
}

func TestSearchAbsorbsUnresolvableCandidates(t *testing.T) {
	// Two candidates, only one resolves. The result shrinks, no error.
	enc := &mockEncyclopedia{
		titles: []string{"Resolves", "Vanished"},
		summaries: map[string]wiki.Summary{
			"Resolves": {Title: "Resolves", URL: "https://example.org", Extract: "ok"},
		},
	}
	svc := NewSearchService(enc, testLogger())

	got, err := svc.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Resolves" {
		t.Errorf("Search() = %v, want just the resolvable candidate", got)
	}
}
