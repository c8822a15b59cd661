package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/wiki"
)

// summarySentences for search results: one sentence per hit, enough for a
// result list.
const searchSummarySentences = 1

// Encyclopedia is the wiki client as the search service sees it.
// Satisfied by *wiki.Client; stubbed in tests.
type Encyclopedia interface {
	Search(ctx context.Context, query string) ([]string, error)
	ResolveSummaries(ctx context.Context, titles []string, sentences int) []wiki.Summary
}

// SearchService answers encyclopedia search requests.
type SearchService struct {
	wiki   Encyclopedia
	logger *slog.Logger
}

func NewSearchService(encyclopedia Encyclopedia, logger *slog.Logger) *SearchService {
	return &SearchService{wiki: encyclopedia, logger: logger}
}

// Search returns up to five resolved summaries for the query.
//
// A failure of the search call itself is an upstream error (one 500, no
// partial result). Failures of individual candidates during resolution are
// absorbed by ResolveSummaries, the result just gets shorter.
func (s *SearchService) Search(ctx context.Context, query string) ([]wiki.Summary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationFailed("query", "search query is required")
	}

	titles, err := s.wiki.Search(ctx, query)
	if err != nil {
		s.logger.Error("encyclopedia search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("encyclopedia search failed", err)
	}

	summaries := s.wiki.ResolveSummaries(ctx, titles, searchSummarySentences)

	s.logger.Info("search completed",
		slog.String("query", query),
		slog.Int("candidates", len(titles)),
		slog.Int("resolved", len(summaries)),
	)

	return summaries, nil
}
