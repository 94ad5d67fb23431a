package repository

import (
	"context"
	"time"

	"github.com/tulisku/tulisku/internal/domain/entity"
)

// PostFilter narrows admin listings. Zero values mean "no constraint".
type PostFilter struct {
	Query          string
	AuthorUsername string
	CreatedFrom    time.Time
	CreatedTo      time.Time
}

// PostRepository is the post store contract. Insert assigns the surrogate id
// and creation timestamp; UpdateFields touches title and body only.
type PostRepository interface {
	Insert(ctx context.Context, p *entity.Post) error
	GetByID(ctx context.Context, id int64) (*entity.Post, error)
	UpdateFields(ctx context.Context, id int64, title, body string) (*entity.Post, error)
	ListAll(ctx context.Context) ([]*entity.Post, error)
	ListFiltered(ctx context.Context, f PostFilter) ([]*entity.Post, error)
}
