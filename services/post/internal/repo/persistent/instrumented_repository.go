package persistent

import (
	"context"
	"time"

	"memories/pkg/metrics"
	"memories/services/post/internal/entity"
)

type instrumentedPostRepository struct {
	next    PostRepository
	metrics metrics.Provider
}

// NewInstrumentedPostRepository records count and latency of every store call.
func NewInstrumentedPostRepository(next PostRepository, provider metrics.Provider) PostRepository {
	return &instrumentedPostRepository{next: next, metrics: provider}
}

func (r *instrumentedPostRepository) observe(operation string, start time.Time, err error) {
	r.metrics.RecordStoreOperation(operation, err == nil, time.Since(start))
}

func (r *instrumentedPostRepository) ValidID(id string) bool {
	return r.next.ValidID(id)
}

func (r *instrumentedPostRepository) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := r.next.Count(ctx)
	r.observe("count", start, err)
	return n, err
}

func (r *instrumentedPostRepository) List(ctx context.Context, limit, offset int) ([]*entity.Post, error) {
	start := time.Now()
	posts, err := r.next.List(ctx, limit, offset)
	r.observe("list", start, err)
	return posts, err
}

func (r *instrumentedPostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	start := time.Now()
	post, err := r.next.GetByID(ctx, id)
	r.observe("get", start, err)
	return post, err
}

func (r *instrumentedPostRepository) Create(ctx context.Context, post *entity.Post) error {
	start := time.Now()
	err := r.next.Create(ctx, post)
	r.observe("create", start, err)
	return err
}

func (r *instrumentedPostRepository) Update(ctx context.Context, id string, fields entity.PostFields) (*entity.Post, error) {
	start := time.Now()
	post, err := r.next.Update(ctx, id, fields)
	r.observe("update", start, err)
	return post, err
}

func (r *instrumentedPostRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := r.next.Delete(ctx, id)
	r.observe("delete", start, err)
	return err
}

func (r *instrumentedPostRepository) ToggleLike(ctx context.Context, id, userID string) (*entity.Post, error) {
	start := time.Now()
	post, err := r.next.ToggleLike(ctx, id, userID)
	r.observe("toggle_like", start, err)
	return post, err
}

func (r *instrumentedPostRepository) AppendComment(ctx context.Context, id, value string) (*entity.Post, error) {
	start := time.Now()
	post, err := r.next.AppendComment(ctx, id, value)
	r.observe("append_comment", start, err)
	return post, err
}

func (r *instrumentedPostRepository) Search(ctx context.Context, query string, tags []string) ([]*entity.Post, error) {
	start := time.Now()
	posts, err := r.next.Search(ctx, query, tags)
	r.observe("search", start, err)
	return posts, err
}
