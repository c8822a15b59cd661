package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/model"
	"github.com/sakif/wikishelf/internal/repository"
)

const MaxTitleLength = 255

// TagGenerator is the tagging client as the article service sees it.
// Satisfied by *tagger.Client; stubbed in tests.
type TagGenerator interface {
	GenerateTags(ctx context.Context, title, articleURL string) ([]string, error)
}

// ArticleService handles the saved-articles business logic.
//
// Every operation takes the caller's username (the validated token
// subject), resolves it to an owner, and works strictly within that
// owner's articles. The ownership filter lives in the repository queries;
// this layer just makes sure nothing bypasses it.
type ArticleService struct {
	articles repository.ArticleRepository
	users    repository.UserRepository
	tagger   TagGenerator
	logger   *slog.Logger
}

// NewArticleService creates an ArticleService. tagger may be nil when no
// LLM key is configured; GenerateTags then fails with an upstream error.
func NewArticleService(
	articles repository.ArticleRepository,
	users repository.UserRepository,
	tagger TagGenerator,
	logger *slog.Logger,
) *ArticleService {
	return &ArticleService{
		articles: articles,
		users:    users,
		tagger:   tagger,
		logger:   logger,
	}
}

// Save stores a new article for the caller, with no tags.
func (s *ArticleService) Save(ctx context.Context, username, title, articleURL string) (*model.Article, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "article title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("article title must be %d characters or less", MaxTitleLength))
	}
	if strings.TrimSpace(articleURL) == "" {
		return nil, apperror.ValidationFailed("url", "article url is required")
	}

	owner, err := s.resolveOwner(ctx, username)
	if err != nil {
		return nil, err
	}

	article := &model.Article{
		Title:   title,
		URL:     strings.TrimSpace(articleURL),
		OwnerID: owner.ID,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		s.logger.Error("failed to save article",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving article: %w", err)
	}

	s.logger.Info("article saved",
		slog.Int64("id", article.ID),
		slog.Int64("owner", owner.ID),
		slog.String("title", article.Title),
	)

	return article, nil
}

// List returns the caller's articles with offset/limit paging.
// Clamping of limit lives in the repository alongside the query it guards;
// a negative limit from the client just means "use the default", the
// unbounded repository path is reserved for ListAll.
func (s *ArticleService) List(ctx context.Context, username string, skip, limit int) ([]model.Article, error) {
	if limit < 0 {
		limit = 0
	}
	return s.list(ctx, username, repository.ListOptions{Limit: limit, Offset: skip})
}

// ListAll returns the caller's entire collection, no paging. Used where
// the response embeds the whole article list rather than a page of it.
func (s *ArticleService) ListAll(ctx context.Context, username string) ([]model.Article, error) {
	return s.list(ctx, username, repository.ListOptions{Limit: -1})
}

func (s *ArticleService) list(ctx context.Context, username string, opts repository.ListOptions) ([]model.Article, error) {
	owner, err := s.resolveOwner(ctx, username)
	if err != nil {
		return nil, err
	}

	articles, err := s.articles.ListByOwner(ctx, owner.ID, opts)
	if err != nil {
		s.logger.Error("failed to list articles", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing articles: %w", err)
	}

	return articles, nil
}

// Delete removes one of the caller's articles. An article that doesn't
// exist and an article that belongs to someone else produce the same
// ErrNotFound.
func (s *ArticleService) Delete(ctx context.Context, username string, articleID int64) error {
	owner, err := s.resolveOwner(ctx, username)
	if err != nil {
		return err
	}

	if err := s.articles.DeleteForOwner(ctx, articleID, owner.ID); err != nil {
		return err
	}

	s.logger.Info("article deleted",
		slog.Int64("id", articleID),
		slog.Int64("owner", owner.ID),
	)
	return nil
}

// ReplaceTags replaces an article's tags with the given names, preserving
// order of first occurrence and collapsing duplicates. Names are attached
// exactly as sent, this endpoint is the user's manual tagging, so their
// casing is respected.
func (s *ArticleService) ReplaceTags(ctx context.Context, username string, articleID int64, tagNames []string) (*model.Article, error) {
	owner, err := s.resolveOwner(ctx, username)
	if err != nil {
		return nil, err
	}

	article, err := s.articles.GetByIDForOwner(ctx, articleID, owner.ID)
	if err != nil {
		return nil, err
	}

	if err := s.articles.ReplaceTags(ctx, article, tagNames); err != nil {
		s.logger.Error("failed to replace tags",
			slog.Int64("article", articleID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("replacing tags: %w", err)
	}

	return article, nil
}

// GenerateTags asks the language model for tags and applies them to the
// article, replacing whatever was there.
func (s *ArticleService) GenerateTags(ctx context.Context, username string, articleID int64) (*model.Article, error) {
	owner, err := s.resolveOwner(ctx, username)
	if err != nil {
		return nil, err
	}

	article, err := s.articles.GetByIDForOwner(ctx, articleID, owner.ID)
	if err != nil {
		return nil, err
	}

	if s.tagger == nil {
		return nil, apperror.Upstream("tag generation is not configured",
			errors.New("no language model API key"))
	}

	tagNames, err := s.tagger.GenerateTags(ctx, article.Title, article.URL)
	if err != nil {
		s.logger.Error("tag generation failed",
			slog.Int64("article", articleID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream(fmt.Sprintf("LLM tagging failed: %v", err), err)
	}

	if err := s.articles.ReplaceTags(ctx, article, tagNames); err != nil {
		return nil, fmt.Errorf("applying generated tags: %w", err)
	}

	return article, nil
}

// resolveOwner maps the token subject to a user record. A valid token for
// a vanished user is treated as an authentication failure.
func (s *ArticleService) resolveOwner(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("unknown user")
		}
		return nil, fmt.Errorf("resolving owner %q: %w", username, err)
	}
	return user, nil
}
