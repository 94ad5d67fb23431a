package application

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/tulisku/tulisku/internal/domain/apperr"
	"github.com/tulisku/tulisku/internal/domain/authz"
	"github.com/tulisku/tulisku/internal/domain/entity"
	repo "github.com/tulisku/tulisku/internal/domain/repository"
)

const maxTitleLen = 200

// PostService orchestrates the post lifecycle and the public feed. Posts are
// publicly readable; mutation is gated by the ownership rule in authz.
type PostService struct {
	Posts        repo.PostRepository
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESPostsIndex string
}

func NewPostService(posts repo.PostRepository, logger *logrus.Logger, es *elasticsearch.Client, esPostsIndex string) *PostService {
	return &PostService{Posts: posts, Logger: logger, ES: es, ESPostsIndex: esPostsIndex}
}

type PostInput struct {
	Title string
	Body  string
}

func validatePostInput(in PostInput) map[string]string {
	fields := map[string]string{}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields["title"] = "is required"
	} else if utf8.RuneCountInString(title) > maxTitleLen {
		fields["title"] = "must be at most 200 characters long"
	}
	if strings.TrimSpace(in.Body) == "" {
		fields["body"] = "is required"
	}
	return fields
}

// Create persists a new post owned by the acting identity. Anonymous callers
// are refused before any store access.
func (s *PostService) Create(ctx context.Context, actorID string, in PostInput) (*entity.Post, error) {
	if actorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if fields := validatePostInput(in); len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	p := &entity.Post{
		Title:    strings.TrimSpace(in.Title),
		Body:     in.Body,
		AuthorID: actorID,
	}
	if err := s.Posts.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.indexPost(ctx, p)

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"post_id": p.ID, "author_id": actorID}).Info("post created")
	}
	return p, nil
}

// GetForEdit loads a post for editing by its author. Lookup failures are
// NotFound; ownership failures are Forbidden, never a silent no-op.
func (s *PostService) GetForEdit(ctx context.Context, id int64, actorID string) (*entity.Post, error) {
	p, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModify(p, actorID) {
		return nil, apperr.Forbidden("you are not the author of this post")
	}
	return p, nil
}

// Update mutates title and body of an owned post. Author and creation
// timestamp are never touched.
func (s *PostService) Update(ctx context.Context, id int64, actorID string, in PostInput) (*entity.Post, error) {
	if _, err := s.GetForEdit(ctx, id, actorID); err != nil {
		return nil, err
	}
	if fields := validatePostInput(in); len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	p, err := s.Posts.UpdateFields(ctx, id, strings.TrimSpace(in.Title), in.Body)
	if err != nil {
		return nil, err
	}
	s.indexPost(ctx, p)
	return p, nil
}

// GetDetail returns a post without any authorization check; posts are public.
func (s *PostService) GetDetail(ctx context.Context, id int64) (*entity.Post, error) {
	return s.Posts.GetByID(ctx, id)
}

// ListFeed returns all posts in reverse chronological order, ties kept in
// insertion order. A fresh query every call; no caching, no pagination.
func (s *PostService) ListFeed(ctx context.Context) ([]*entity.Post, error) {
	return s.Posts.ListAll(ctx)
}

// AdminSearch serves the administrative panel: full-text search over
// title/body with author and date filters. Elasticsearch when configured,
// repository fallback otherwise.
func (s *PostService) AdminSearch(ctx context.Context, f repo.PostFilter) ([]*entity.Post, error) {
	if s.ES == nil || s.ESPostsIndex == "" {
		return s.Posts.ListFiltered(ctx, f)
	}
	posts, err := s.searchES(ctx, f)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("es search failed, falling back to store")
		}
		return s.Posts.ListFiltered(ctx, f)
	}
	return posts, nil
}

func (s *PostService) searchES(ctx context.Context, f repo.PostFilter) ([]*entity.Post, error) {
	must := []map[string]any{}
	if f.Query != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  f.Query,
				"fields": []string{"title^2", "body"},
			},
		})
	}
	filter := []map[string]any{}
	if f.AuthorUsername != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"author_name": f.AuthorUsername}})
	}
	if !f.CreatedFrom.IsZero() || !f.CreatedTo.IsZero() {
		rng := map[string]any{}
		if !f.CreatedFrom.IsZero() {
			rng["gte"] = f.CreatedFrom.Format(time.RFC3339)
		}
		if !f.CreatedTo.IsZero() {
			rng["lte"] = f.CreatedTo.Format(time.RFC3339)
		}
		filter = append(filter, map[string]any{"range": map[string]any{"created_at": rng}})
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"must": must, "filter": filter},
		},
		"sort": []map[string]any{{"created_at": map[string]any{"order": "desc"}}},
		"size": 100,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESPostsIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, apperr.Internal("es search: "+res.Status(), nil)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID         int64     `json:"id"`
					Title      string    `json:"title"`
					Body       string    `json:"body"`
					AuthorID   string    `json:"author_id"`
					AuthorName string    `json:"author_name"`
					CreatedAt  time.Time `json:"created_at"`
					UpdatedAt  time.Time `json:"updated_at"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]*entity.Post, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		src := h.Source
		out = append(out, &entity.Post{
			ID:         src.ID,
			Title:      src.Title,
			Body:       src.Body,
			AuthorID:   src.AuthorID,
			AuthorName: src.AuthorName,
			CreatedAt:  src.CreatedAt,
			UpdatedAt:  src.UpdatedAt,
		})
	}
	return out, nil
}

// indexPost mirrors the post into the admin search index, best effort.
func (s *PostService) indexPost(ctx context.Context, p *entity.Post) {
	if s.ES == nil || s.ESPostsIndex == "" {
		return
	}
	doc := map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"body":        p.Body,
		"author_id":   p.AuthorID,
		"author_name": p.AuthorName,
		"created_at":  p.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  p.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      s.ESPostsIndex,
		DocumentID: strconv.FormatInt(p.ID, 10),
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("post_id", p.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"status": res.Status(), "post_id": p.ID}).Warn("es index response error")
	}
}
