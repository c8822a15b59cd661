package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/model"
	"github.com/sakif/wikishelf/internal/repository"
)

// Paging bounds for ListByOwner. The default matches the upstream API
// contract; the maximum keeps a single request from dragging the whole
// table through the pool.
const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// compile-time check that *ArticleStore implements repository.ArticleRepository
var _ repository.ArticleRepository = (*ArticleStore)(nil)

// ArticleStore implements repository.ArticleRepository.
type ArticleStore struct {
	db *DB
}

// Create inserts a new article owned by article.OwnerID and populates its
// serial ID. A fresh article has no tags.
func (s *ArticleStore) Create(ctx context.Context, article *model.Article) error {
	err := s.db.pool.QueryRow(ctx,
		`INSERT INTO articles (title, url, owner_id)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		article.Title,
		article.URL,
		article.OwnerID,
	).Scan(&article.ID)
	if err != nil {
		return fmt.Errorf("postgres: inserting article %q: %w", article.Title, err)
	}

	article.Tags = []model.Tag{}
	return nil
}

// GetByIDForOwner fetches a single article, scoped to its owner.
//
// The WHERE clause filters on BOTH id and owner_id, so a caller asking for
// someone else's article gets the same ErrNotFound as for an id that never
// existed, the response leaks nothing about which case it was.
func (s *ArticleStore) GetByIDForOwner(ctx context.Context, id, ownerID int64) (*model.Article, error) {
	var a model.Article

	err := s.db.pool.QueryRow(ctx,
		`SELECT id, title, url, owner_id
		 FROM articles
		 WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&a.ID, &a.Title, &a.URL, &a.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("article", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("postgres: getting article %d: %w", id, err)
	}

	if a.Tags, err = s.loadTags(ctx, a.ID); err != nil {
		return nil, err
	}

	return &a, nil
}

// ListByOwner returns the owner's articles ordered by id ascending. Serial
// ids ascend in insertion order, and the explicit ORDER BY keeps the paging
// stable across requests.
//
// A negative Limit disables paging entirely and returns the whole
// collection; zero selects the default, positive values are clamped to
// MaxListLimit.
func (s *ArticleStore) ListByOwner(ctx context.Context, ownerID int64, opts repository.ListOptions) ([]model.Article, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if opts.Limit < 0 {
		rows, err = s.db.pool.Query(ctx,
			`SELECT id, title, url, owner_id
			 FROM articles
			 WHERE owner_id = $1
			 ORDER BY id ASC`,
			ownerID,
		)
	} else {
		limit := opts.Limit
		if limit == 0 {
			limit = DefaultListLimit
		}
		if limit > MaxListLimit {
			limit = MaxListLimit
		}

		offset := opts.Offset
		if offset < 0 {
			offset = 0
		}

		rows, err = s.db.pool.Query(ctx,
			`SELECT id, title, url, owner_id
			 FROM articles
			 WHERE owner_id = $1
			 ORDER BY id ASC
			 LIMIT $2 OFFSET $3`,
			ownerID, limit, offset,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: listing articles for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	articles := make([]model.Article, 0, 8)
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &a.OwnerID); err != nil {
			return nil, fmt.Errorf("postgres: scanning article row: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating articles: %w", err)
	}

	// One tag query per article. N+1, but personal collections are small;
	// not worth a join-and-regroup yet.
	for i := range articles {
		if articles[i].Tags, err = s.loadTags(ctx, articles[i].ID); err != nil {
			return nil, err
		}
	}

	return articles, nil
}

// DeleteForOwner removes an article if, and only if, it exists and
// belongs to ownerID. Associations go with it via ON DELETE CASCADE; the
// tags themselves are never deleted.
func (s *ArticleStore) DeleteForOwner(ctx context.Context, id, ownerID int64) error {
	tag, err := s.db.pool.Exec(ctx,
		`DELETE FROM articles WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("postgres: deleting article %d: %w", id, err)
	}

	// Zero rows affected covers both "no such article" and "not yours".
	// Deliberately indistinguishable.
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("article", strconv.FormatInt(id, 10))
	}

	return nil
}

// ReplaceTags clears the article's tag associations and attaches tagNames
// in order of first occurrence, creating missing tags on the way.
//
// The whole operation runs in one transaction, and each tag is resolved
// with a single INSERT ... ON CONFLICT ... RETURNING, an atomic
// get-or-create. The lookup-then-insert version of this had a race where
// two requests creating the same new tag name would blow up on the unique
// constraint; the upsert closes it.
func (s *ArticleStore) ReplaceTags(ctx context.Context, article *model.Article, tagNames []string) error {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: beginning tag transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM article_tag_association WHERE article_id = $1`,
		article.ID,
	); err != nil {
		return fmt.Errorf("postgres: clearing tags for article %d: %w", article.ID, err)
	}

	// Collapse duplicates, keeping the first occurrence's position.
	// Names are used exactly as given, case-sensitive, no trimming here;
	// normalisation (if any) is the caller's job.
	seen := make(map[string]bool, len(tagNames))
	tags := make([]model.Tag, 0, len(tagNames))

	for _, name := range tagNames {
		if seen[name] {
			continue
		}
		seen[name] = true

		var tagID int64
		// Atomic get-or-create. The DO UPDATE arm is a no-op write that
		// makes RETURNING yield the existing row's id on conflict.
		err := tx.QueryRow(ctx,
			`INSERT INTO tags (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			name,
		).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("postgres: resolving tag %q: %w", name, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO article_tag_association (article_id, tag_id, position)
			 VALUES ($1, $2, $3)`,
			article.ID, tagID, len(tags),
		); err != nil {
			return fmt.Errorf("postgres: attaching tag %q to article %d: %w", name, article.ID, err)
		}

		tags = append(tags, model.Tag{ID: tagID, Name: name})
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: committing tag transaction: %w", err)
	}

	article.Tags = tags
	return nil
}

// loadTags returns an article's tags in stored position order.
func (s *ArticleStore) loadTags(ctx context.Context, articleID int64) ([]model.Tag, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT t.id, t.name
		 FROM tags t
		 JOIN article_tag_association ata ON ata.tag_id = t.id
		 WHERE ata.article_id = $1
		 ORDER BY ata.position ASC`,
		articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: loading tags for article %d: %w", articleID, err)
	}
	defer rows.Close()

	tags := make([]model.Tag, 0, 4)
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("postgres: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating tags: %w", err)
	}

	return tags, nil
}
