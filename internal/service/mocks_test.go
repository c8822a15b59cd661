package service

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/model"
	"github.com/sakif/wikishelf/internal/repository"
	"github.com/sakif/wikishelf/internal/wiki"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockUserRepo is an in-memory UserRepository.
type mockUserRepo struct {
	users  map[string]*model.User
	nextID int64
	err    error // when set, every call fails with it
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	if _, exists := m.users[user.Username]; exists {
		return apperror.Conflict("username already registered")
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return user, nil
}

// mockArticleRepo is an in-memory ArticleRepository keyed by article ID.
type mockArticleRepo struct {
	articles     map[int64]*model.Article
	nextID       int64
	err          error
	lastListOpts repository.ListOptions
}

func newMockArticleRepo() *mockArticleRepo {
	return &mockArticleRepo{articles: make(map[int64]*model.Article), nextID: 1}
}

func (m *mockArticleRepo) Create(_ context.Context, article *model.Article) error {
	if m.err != nil {
		return m.err
	}
	article.ID = m.nextID
	m.nextID++
	article.Tags = []model.Tag{}
	stored := *article
	m.articles[article.ID] = &stored
	return nil
}

func (m *mockArticleRepo) GetByIDForOwner(_ context.Context, id, ownerID int64) (*model.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.articles[id]
	if !ok || a.OwnerID != ownerID {
		return nil, apperror.NotFound("article", "")
	}
	copied := *a
	return &copied, nil
}

func (m *mockArticleRepo) ListByOwner(_ context.Context, ownerID int64, opts repository.ListOptions) ([]model.Article, error) {
	m.lastListOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Article
	for id := int64(1); id < m.nextID; id++ {
		if a, ok := m.articles[id]; ok && a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []model.Article{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *mockArticleRepo) DeleteForOwner(_ context.Context, id, ownerID int64) error {
	if m.err != nil {
		return m.err
	}
	a, ok := m.articles[id]
	if !ok || a.OwnerID != ownerID {
		return apperror.NotFound("article", "")
	}
	delete(m.articles, id)
	return nil
}

func (m *mockArticleRepo) ReplaceTags(_ context.Context, article *model.Article, tagNames []string) error {
	if m.err != nil {
		return m.err
	}
	stored, ok := m.articles[article.ID]
	if !ok {
		return apperror.NotFound("article", "")
	}
	tags := make([]model.Tag, 0, len(tagNames))
	var names []string
	for _, name := range tagNames {
		if slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
		tags = append(tags, model.Tag{ID: int64(len(tags) + 1), Name: name})
	}
	stored.Tags = tags
	article.Tags = tags
	return nil
}

// mockTagGenerator returns canned tags or an error.
type mockTagGenerator struct {
	tags  []string
	err   error
	calls int
}

func (m *mockTagGenerator) GenerateTags(_ context.Context, _, _ string) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.tags, nil
}

// mockEncyclopedia returns canned titles and summaries.
type mockEncyclopedia struct {
	titles    []string
	searchErr error
	summaries map[string]wiki.Summary // titles absent here are "unresolvable"
	lastQuery string
}

func (m *mockEncyclopedia) Search(_ context.Context, query string) ([]string, error) {
	m.lastQuery = query
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.titles, nil
}

func (m *mockEncyclopedia) ResolveSummaries(_ context.Context, titles []string, _ int) []wiki.Summary {
	out := make([]wiki.Summary, 0, len(titles))
	for _, t := range titles {
		if s, ok := m.summaries[t]; ok {
			out = append(out, s)
		}
	}
	return out
}
