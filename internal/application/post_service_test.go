package application

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulisku/tulisku/internal/domain/apperr"
	"github.com/tulisku/tulisku/internal/domain/entity"
	repo "github.com/tulisku/tulisku/internal/domain/repository"
)

// fakePostRepo mimics the Postgres repository in memory: Insert assigns the
// monotonic id and creation timestamp, UpdateFields touches title and body
// only, listings order by created_at DESC with id ASC breaking ties.
type fakePostRepo struct {
	mu      sync.Mutex
	nextID  int64
	posts   map[int64]*entity.Post
	inserts int
	updates int
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{nextID: 1, posts: map[int64]*entity.Post{}}
}

func (f *fakePostRepo) seed(p entity.Post) *entity.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == 0 {
		p.ID = f.nextID
	}
	if p.ID >= f.nextID {
		f.nextID = p.ID + 1
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	cp := p
	f.posts[p.ID] = &cp
	return &cp
}

func (f *fakePostRepo) Insert(_ context.Context, p *entity.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	p.ID = f.nextID
	f.nextID++
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id int64) (*entity.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, apperr.NotFound("post not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakePostRepo) UpdateFields(_ context.Context, id int64, title, body string) (*entity.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, apperr.NotFound("post not found")
	}
	f.updates++
	p.Title = title
	p.Body = body
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (f *fakePostRepo) ListAll(_ context.Context) ([]*entity.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Post, 0, len(f.posts))
	for _, p := range f.posts {
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakePostRepo) ListFiltered(ctx context.Context, flt repo.PostFilter) ([]*entity.Post, error) {
	all, err := f.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []*entity.Post{}
	for _, p := range all {
		if flt.Query != "" {
			q := strings.ToLower(flt.Query)
			if !strings.Contains(strings.ToLower(p.Title), q) && !strings.Contains(strings.ToLower(p.Body), q) {
				continue
			}
		}
		if flt.AuthorUsername != "" && p.AuthorName != flt.AuthorUsername {
			continue
		}
		if !flt.CreatedFrom.IsZero() && p.CreatedAt.Before(flt.CreatedFrom) {
			continue
		}
		if !flt.CreatedTo.IsZero() && p.CreatedAt.After(flt.CreatedTo) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

var _ repo.PostRepository = (*fakePostRepo)(nil)

func newPostService(r repo.PostRepository) *PostService {
	return NewPostService(r, nil, nil, "")
}

func TestPostServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous caller is refused before the store is touched", func(t *testing.T) {
		store := newFakePostRepo()
		svc := newPostService(store)

		p, err := svc.Create(ctx, "", PostInput{Title: "Hello", Body: "World"})

		require.Error(t, err)
		assert.Nil(t, p)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
		assert.Zero(t, store.inserts)
		assert.Empty(t, store.posts)
	})

	t.Run("validation failures report every bad field", func(t *testing.T) {
		store := newFakePostRepo()
		svc := newPostService(store)

		tests := []struct {
			name   string
			input  PostInput
			fields []string
		}{
			{"empty title and body", PostInput{}, []string{"title", "body"}},
			{"whitespace-only title", PostInput{Title: "   ", Body: "ok"}, []string{"title"}},
			{"whitespace-only body", PostInput{Title: "ok", Body: "\n\t "}, []string{"body"}},
			{"title over 200 runes", PostInput{Title: strings.Repeat("å", 201), Body: "ok"}, []string{"title"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(ctx, "author-1", tt.input)
				require.Error(t, err)
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
				got := apperr.FieldsOf(err)
				assert.Len(t, got, len(tt.fields))
				for _, f := range tt.fields {
					assert.Contains(t, got, f)
				}
			})
		}
		assert.Zero(t, store.inserts)
	})

	t.Run("title at exactly 200 runes is accepted", func(t *testing.T) {
		store := newFakePostRepo()
		svc := newPostService(store)

		p, err := svc.Create(ctx, "author-1", PostInput{Title: strings.Repeat("å", 200), Body: "ok"})
		require.NoError(t, err)
		assert.NotZero(t, p.ID)
	})

	t.Run("success assigns id, owner, and trims the title", func(t *testing.T) {
		store := newFakePostRepo()
		svc := newPostService(store)

		p, err := svc.Create(ctx, "author-1", PostInput{Title: "  Hello World  ", Body: "first post"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, "Hello World", p.Title)
		assert.Equal(t, "first post", p.Body)
		assert.Equal(t, "author-1", p.AuthorID)
		assert.False(t, p.CreatedAt.IsZero())
		assert.Equal(t, 1, store.inserts)
	})
}

func TestPostServiceGetForEdit(t *testing.T) {
	ctx := context.Background()
	store := newFakePostRepo()
	svc := newPostService(store)
	seeded := store.seed(entity.Post{Title: "Mine", Body: "text", AuthorID: "author-1"})

	t.Run("author gets the post", func(t *testing.T) {
		p, err := svc.GetForEdit(ctx, seeded.ID, "author-1")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, p.ID)
	})

	t.Run("non-author is forbidden, not not-found", func(t *testing.T) {
		_, err := svc.GetForEdit(ctx, seeded.ID, "author-2")
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("anonymous actor is forbidden", func(t *testing.T) {
		_, err := svc.GetForEdit(ctx, seeded.ID, "")
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("missing post is not found", func(t *testing.T) {
		_, err := svc.GetForEdit(ctx, 9999, "author-1")
		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestPostServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("forbidden update leaves the store untouched", func(t *testing.T) {
		store := newFakePostRepo()
		svc := newPostService(store)
		seeded := store.seed(entity.Post{Title: "Original", Body: "untouched", AuthorID: "author-1"})

		_, err := svc.Update(ctx, seeded.ID, "author-2", PostInput{Title: "Hijacked", Body: "gotcha"})

		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		assert.Zero(t, store.updates)

		got, err := svc.GetDetail(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, "Original", got.Title)
		assert.Equal(t, "untouched", got.Body)
	})

	t.Run("invalid input after ownership check leaves the store untouched", func(t *testing.T) {
		store := newFakePostRepo()
		svc := newPostService(store)
		seeded := store.seed(entity.Post{Title: "Original", Body: "untouched", AuthorID: "author-1"})

		_, err := svc.Update(ctx, seeded.ID, "author-1", PostInput{Title: "  ", Body: ""})

		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Zero(t, store.updates)
	})

	t.Run("update changes title and body but never owner or creation time", func(t *testing.T) {
		store := newFakePostRepo()
		svc := newPostService(store)
		created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
		seeded := store.seed(entity.Post{Title: "Before", Body: "old", AuthorID: "author-1", CreatedAt: created})

		p, err := svc.Update(ctx, seeded.ID, "author-1", PostInput{Title: " After ", Body: "new"})

		require.NoError(t, err)
		assert.Equal(t, "After", p.Title)
		assert.Equal(t, "new", p.Body)
		assert.Equal(t, "author-1", p.AuthorID)
		assert.True(t, p.CreatedAt.Equal(created))
		assert.True(t, p.UpdatedAt.After(created))
		assert.Equal(t, 1, store.updates)
	})

	t.Run("repeated reads return the same state", func(t *testing.T) {
		store := newFakePostRepo()
		svc := newPostService(store)
		seeded := store.seed(entity.Post{Title: "Stable", Body: "state", AuthorID: "author-1"})

		first, err := svc.GetDetail(ctx, seeded.ID)
		require.NoError(t, err)
		second, err := svc.GetDetail(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestPostServiceListFeed(t *testing.T) {
	ctx := context.Background()
	store := newFakePostRepo()
	svc := newPostService(store)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.seed(entity.Post{ID: 1, Title: "oldest", AuthorID: "a", CreatedAt: base})
	store.seed(entity.Post{ID: 2, Title: "tie-first", AuthorID: "a", CreatedAt: base.Add(time.Hour)})
	store.seed(entity.Post{ID: 3, Title: "tie-second", AuthorID: "b", CreatedAt: base.Add(time.Hour)})
	store.seed(entity.Post{ID: 4, Title: "newest", AuthorID: "b", CreatedAt: base.Add(2 * time.Hour)})

	feed, err := svc.ListFeed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 4)

	titles := make([]string, 0, len(feed))
	for _, p := range feed {
		titles = append(titles, p.Title)
	}
	// Newest first; equal timestamps keep insertion order.
	assert.Equal(t, []string{"newest", "tie-first", "tie-second", "oldest"}, titles)

	t.Run("empty store yields an empty feed, not nil", func(t *testing.T) {
		empty := newPostService(newFakePostRepo())
		feed, err := empty.ListFeed(ctx)
		require.NoError(t, err)
		assert.NotNil(t, feed)
		assert.Empty(t, feed)
	})
}

func TestPostServiceAdminSearch(t *testing.T) {
	ctx := context.Background()
	store := newFakePostRepo()
	// No Elasticsearch configured: the service must fall back to the store.
	svc := newPostService(store)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.seed(entity.Post{Title: "Hello World", Body: "greetings", AuthorID: "a1", AuthorName: "alice", CreatedAt: base})
	store.seed(entity.Post{Title: "Second Post", Body: "hello again", AuthorID: "a1", AuthorName: "alice", CreatedAt: base.Add(time.Hour)})
	store.seed(entity.Post{Title: "Unrelated", Body: "nothing here", AuthorID: "b1", AuthorName: "bob", CreatedAt: base.Add(2 * time.Hour)})

	t.Run("query matches title or body", func(t *testing.T) {
		got, err := svc.AdminSearch(ctx, repo.PostFilter{Query: "hello"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Second Post", got[0].Title)
		assert.Equal(t, "Hello World", got[1].Title)
	})

	t.Run("author filter narrows results", func(t *testing.T) {
		got, err := svc.AdminSearch(ctx, repo.PostFilter{AuthorUsername: "bob"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Unrelated", got[0].Title)
	})

	t.Run("date range filter", func(t *testing.T) {
		got, err := svc.AdminSearch(ctx, repo.PostFilter{
			CreatedFrom: base.Add(30 * time.Minute),
			CreatedTo:   base.Add(90 * time.Minute),
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Second Post", got[0].Title)
	})

	t.Run("no filter returns everything", func(t *testing.T) {
		got, err := svc.AdminSearch(ctx, repo.PostFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}
