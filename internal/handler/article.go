package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/auth"
	"github.com/sakif/wikishelf/internal/service"
)

// ArticleHandler owns the saved-articles endpoints. All of them sit behind
// the auth middleware, so the username is always in the request context.
type ArticleHandler struct {
	articles *service.ArticleService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewArticleHandler(articles *service.ArticleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{
		articles: articles,
		validate: validator.New(),
		logger:   logger,
	}
}

type createArticleRequest struct {
	Title string `json:"title" validate:"required,max=255"`
	URL   string `json:"url" validate:"required,url"`
}

// HandleCreate saves a new article for the caller.
//
// HTTP: POST /articles/
// Body: {"title": "...", "url": "..."}
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	username := mustUsername(r)

	var req createArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, apperror.ValidationFailed("body", err.Error()))
		return
	}

	article, err := h.articles.Save(r.Context(), username, req.Title, req.URL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponse(article))
}

// HandleList returns the caller's articles.
//
// HTTP: GET /articles/?skip=0&limit=100
// Both query params are optional; bad values fall back to defaults rather
// than erroring (paging is a convenience, not a contract to police).
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	username := mustUsername(r)

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	articles, err := h.articles.List(r.Context(), username, skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponses(articles))
}

// HandleDelete removes one of the caller's articles.
//
// HTTP: DELETE /articles/{id}
// 204 on success; 404 whether the article is missing or simply not theirs.
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	username := mustUsername(r)

	id, err := articleID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.articles.Delete(r.Context(), username, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleReplaceTags replaces an article's tags with the posted list.
//
// HTTP: PUT /articles/{id}/tags
// Body: ["tag1", "tag2", ...], a bare JSON array, duplicates collapse,
// order of first occurrence wins.
func (h *ArticleHandler) HandleReplaceTags(w http.ResponseWriter, r *http.Request) {
	username := mustUsername(r)

	id, err := articleID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var tagNames []string
	if err := json.NewDecoder(r.Body).Decode(&tagNames); err != nil {
		writeError(w, apperror.ValidationFailed("body", "expected a JSON array of tag names"))
		return
	}

	article, err := h.articles.ReplaceTags(r.Context(), username, id, tagNames)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponse(article))
}

// HandleGenerateTags asks the language model to tag an article.
//
// HTTP: POST /articles/{id}/generate_tags
// 404 if the article is missing/not owned; 500 if the model call fails.
func (h *ArticleHandler) HandleGenerateTags(w http.ResponseWriter, r *http.Request) {
	username := mustUsername(r)

	id, err := articleID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	article, err := h.articles.GenerateTags(r.Context(), username, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponse(article))
}

// articleID parses the {id} path parameter. A non-numeric id can't name an
// existing article, so it maps to the same not-found as an unknown one.
func articleID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NotFound("article", raw)
	}
	return id, nil
}

// mustUsername reads the username the auth middleware stored. Routes using
// this are always behind RequireAuth; an empty result means a wiring bug,
// and the empty string will fail owner resolution downstream anyway.
func mustUsername(r *http.Request) string {
	username, _ := auth.UsernameFromContext(r.Context())
	return username
}
