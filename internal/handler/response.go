// Package handler contains the HTTP layer: request parsing and validation,
// response shaping, and the single place where domain errors become status
// codes.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/model"
)

// ErrorResponse is the standard error shape for every failure, regardless
// of status code: a machine-readable type plus a human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// articleResponse is the wire shape of an article.
//
// STRING IDS ON THE WIRE:
// Article and owner identifiers are integers at rest but strings in JSON,
// that's the API contract clients were built against (JavaScript consumers
// and 64-bit integers don't mix well). The conversion happens here and
// only here.
type articleResponse struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	OwnerID string      `json:"owner_id"`
	URL     string      `json:"url"`
	Tags    []model.Tag `json:"tags"`
}

// userResponse is the wire shape of a user: the account plus their saved
// articles. The password hash never appears (model.User excludes it from
// JSON too, belt and braces).
type userResponse struct {
	ID       int64             `json:"id"`
	Username string            `json:"username"`
	Articles []articleResponse `json:"articles"`
}

func toArticleResponse(a *model.Article) articleResponse {
	tags := a.Tags
	if tags == nil {
		tags = []model.Tag{}
	}
	return articleResponse{
		ID:      strconv.FormatInt(a.ID, 10),
		Title:   a.Title,
		OwnerID: strconv.FormatInt(a.OwnerID, 10),
		URL:     a.URL,
		Tags:    tags,
	}
}

func toArticleResponses(articles []model.Article) []articleResponse {
	out := make([]articleResponse, 0, len(articles))
	for i := range articles {
		out = append(out, toArticleResponse(&articles[i]))
	}
	return out
}

func toUserResponse(u *model.User, articles []model.Article) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Articles: toArticleResponses(articles),
	}
}

// writeJSON sends a JSON response. Headers and status must go out before
// the body, once Encode writes, the headers are sent.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends the standard
// error shape. This is the only place the apperror taxonomy meets status
// codes:
//
//	ErrUnauthorized → 401 (with a WWW-Authenticate challenge)
//	ErrValidation   → 400
//	ErrConflict     → 400 (the API contract uses 400, not 409, for
//	                  duplicate usernames)
//	ErrNotFound     → 404
//	ErrUpstream     → 500 with the best-effort message
//	anything else   → 500 generic (internal details never reach clients)
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
			w.Header().Set("WWW-Authenticate", "Bearer")
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusBadRequest
			errorType = "conflict"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusInternalServerError
			errorType = "upstream_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
