package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/wikishelf/internal/service"
	"github.com/sakif/wikishelf/internal/wiki"
)

// SearchHandler owns the public encyclopedia search endpoint.
type SearchHandler struct {
	search *service.SearchService
	logger *slog.Logger
}

func NewSearchHandler(search *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{search: search, logger: logger}
}

// HandleSearch runs an encyclopedia search.
//
// HTTP: GET /search?query=...
// 200 with up to five {title, url, summary} objects; candidates that fail
// to resolve are silently absent. 500 only when the search itself fails.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.search.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, err)
		return
	}

	if summaries == nil {
		summaries = []wiki.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}
