// Package repository defines the storage interfaces the service layer
// depends on. The concrete postgres implementation lives in the postgres
// subpackage; tests substitute hand-written mocks.
package repository

import (
	"context"

	"github.com/sakif/wikishelf/internal/model"
)

// ListOptions carries offset/limit paging parameters. A zero Limit selects
// the implementation's default page size; a negative Limit disables paging
// and returns everything.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a new user and fills in its ID.
	// Returns apperror.ErrConflict if the username is already taken.
	Create(ctx context.Context, user *model.User) error
	// GetByUsername returns apperror.ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// ArticleRepository persists articles and their tag associations.
//
// Every method that touches an existing article takes the owner's ID and
// filters on it, "absent" and "not owned" are deliberately the same
// ErrNotFound, so callers can't probe for other users' article IDs.
type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	GetByIDForOwner(ctx context.Context, id, ownerID int64) (*model.Article, error)
	// ListByOwner returns the owner's articles ordered by id ascending, so
	// offset/limit paging is stable across requests.
	ListByOwner(ctx context.Context, ownerID int64, opts ListOptions) ([]model.Article, error)
	DeleteForOwner(ctx context.Context, id, ownerID int64) error
	// ReplaceTags clears the article's tag associations and attaches the
	// given names in order of first occurrence (duplicates collapse),
	// creating missing tags as it goes. On success article.Tags holds the
	// new list.
	ReplaceTags(ctx context.Context, article *model.Article, tagNames []string) error
}
