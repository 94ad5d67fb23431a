package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/tulisku/tulisku/internal/domain/apperr"
	"github.com/tulisku/tulisku/internal/domain/entity"
	"github.com/tulisku/tulisku/internal/domain/repository"
)

const postColumns = `p.id, p.title, p.body, p.author_id, u.username, p.created_at, p.updated_at`

type PostRepository struct {
	db DBTX
}

func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Insert(ctx context.Context, p *entity.Post) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO posts (title, body, author_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, p.Title, p.Body, p.AuthorID)

	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return apperr.Internal("insert post", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*entity.Post, error) {
	p := &entity.Post{}
	row := r.db.QueryRow(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`, id)

	if err := scanPost(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, apperr.Internal("get post by id", err)
	}
	return p, nil
}

// UpdateFields mutates title and body only. Author and creation timestamp are
// not part of the statement, so they cannot change here.
func (r *PostRepository) UpdateFields(ctx context.Context, id int64, title, body string) (*entity.Post, error) {
	p := &entity.Post{}
	row := r.db.QueryRow(ctx, `
		UPDATE posts p
		SET title = $1, body = $2, updated_at = now()
		FROM users u
		WHERE p.id = $3 AND u.id = p.author_id
		RETURNING `+postColumns+`
	`, title, body, id)

	if err := scanPost(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, apperr.Internal("update post", err)
	}
	return p, nil
}

// ListAll returns every post, most recent first; equal timestamps keep
// insertion order via the monotonic id.
func (r *PostRepository) ListAll(ctx context.Context) ([]*entity.Post, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC, p.id ASC
	`)
	if err != nil {
		return nil, apperr.Internal("list posts", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListFiltered serves the admin surface when Elasticsearch is not configured.
func (r *PostRepository) ListFiltered(ctx context.Context, f repository.PostFilter) ([]*entity.Post, error) {
	q := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE 1=1`
	args := []any{}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := strconv.Itoa(len(args))
		q += ` AND (p.title ILIKE $` + n + ` OR p.body ILIKE $` + n + `)`
	}
	if f.AuthorUsername != "" {
		args = append(args, f.AuthorUsername)
		q += ` AND u.username = $` + strconv.Itoa(len(args))
	}
	if !f.CreatedFrom.IsZero() {
		args = append(args, f.CreatedFrom)
		q += ` AND p.created_at >= $` + strconv.Itoa(len(args))
	}
	if !f.CreatedTo.IsZero() {
		args = append(args, f.CreatedTo)
		q += ` AND p.created_at <= $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY p.created_at DESC, p.id ASC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.Internal("list posts filtered", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

func scanPost(row pgx.Row, p *entity.Post) error {
	return row.Scan(&p.ID, &p.Title, &p.Body, &p.AuthorID, &p.AuthorName, &p.CreatedAt, &p.UpdatedAt)
}

func collectPosts(rows pgx.Rows) ([]*entity.Post, error) {
	out := []*entity.Post{}
	for rows.Next() {
		p := &entity.Post{}
		if err := scanPost(rows, p); err != nil {
			return nil, apperr.Internal("scan post", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("iterate posts", err)
	}
	return out, nil
}

var _ repository.PostRepository = (*PostRepository)(nil)
