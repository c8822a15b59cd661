package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/auth"
	"github.com/sakif/wikishelf/internal/service"
)

// AuthHandler owns the public auth endpoints (register, token) and the
// authenticated /users/me/ lookup.
type AuthHandler struct {
	auths    *service.AuthService
	articles *service.ArticleService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAuthHandler(auths *service.AuthService, articles *service.ArticleService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auths:    auths,
		articles: articles,
		validate: validator.New(),
		logger:   logger,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

// tokenResponse is the OAuth2-password-flow-shaped login response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /register
// Body: {"username": "...", "password": "..."}
// 200 with the created user (empty article list); 400 if the name is taken.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, apperror.ValidationFailed("body", err.Error()))
		return
	}

	user, err := h.auths.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user, nil))
}

// HandleToken exchanges username/password for a bearer token.
//
// HTTP: POST /token
// Body: form-encoded username + password (the OAuth2 password flow shape,
// which is why this one endpoint takes a form rather than JSON).
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid form body"))
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeError(w, apperror.Unauthorized("incorrect username or password"))
		return
	}

	token, err := h.auths.Login(r.Context(), username, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// HandleMe returns the authenticated user together with their articles.
//
// HTTP: GET /users/me/  (bearer)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.auths.CurrentUser(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	// The whole collection, not a page: this response embeds every article
	// the user has saved.
	articles, err := h.articles.ListAll(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user, articles))
}
