package persistent

import (
	"context"

	"memories/services/post/internal/entity"
)

// PostRepository is the document store port. Lookups of a well-formed but
// unknown identifier return a nil post and a nil error.
type PostRepository interface {
	// ValidID reports whether id has the store's identifier format.
	ValidID(id string) bool
	Count(ctx context.Context) (int64, error)
	// List returns posts ordered by descending identifier.
	List(ctx context.Context, limit, offset int) ([]*entity.Post, error)
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	// Create assigns the identifier to post.
	Create(ctx context.Context, post *entity.Post) error
	Update(ctx context.Context, id string, fields entity.PostFields) (*entity.Post, error)
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id, userID string) (*entity.Post, error)
	AppendComment(ctx context.Context, id, value string) (*entity.Post, error)
	// Search matches posts whose title contains query case-insensitively or
	// whose tags intersect tags.
	Search(ctx context.Context, query string, tags []string) ([]*entity.Post, error)
}
