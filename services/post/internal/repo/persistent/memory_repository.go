package persistent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"memories/services/post/internal/entity"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryPostRepository keeps posts in process. Identifiers use the ObjectID
// format so it behaves like the document store.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[string]*entity.Post
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: make(map[string]*entity.Post)}
}

func (r *MemoryPostRepository) ValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

func (r *MemoryPostRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.posts)), nil
}

func (r *MemoryPostRepository) List(ctx context.Context, limit, offset int) ([]*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.posts))
	for id := range r.posts {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	if offset < 0 {
		offset = 0
	}

	result := []*entity.Post{}
	for i := offset; i < len(ids) && len(result) < limit; i++ {
		result = append(result, r.posts[ids[i]].Clone())
	}
	return result, nil
}

func (r *MemoryPostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	if err := r.checkID(id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.posts[id].Clone(), nil
}

func (r *MemoryPostRepository) Create(ctx context.Context, post *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := post.Clone().Normalize()
	stored.ID = bson.NewObjectID().Hex()
	r.posts[stored.ID] = stored

	*post = *stored.Clone()
	return nil
}

func (r *MemoryPostRepository) Update(ctx context.Context, id string, fields entity.PostFields) (*entity.Post, error) {
	return r.mutate(id, func(p *entity.Post) {
		p.Apply(fields)
		p.Tags = append([]string{}, fields.Tags...)
	})
}

func (r *MemoryPostRepository) Delete(ctx context.Context, id string) error {
	if err := r.checkID(id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *MemoryPostRepository) ToggleLike(ctx context.Context, id, userID string) (*entity.Post, error) {
	return r.mutate(id, func(p *entity.Post) {
		p.ToggleLike(userID)
	})
}

func (r *MemoryPostRepository) AppendComment(ctx context.Context, id, value string) (*entity.Post, error) {
	return r.mutate(id, func(p *entity.Post) {
		p.Comments = append(p.Comments, value)
	})
}

func (r *MemoryPostRepository) Search(ctx context.Context, query string, tags []string) ([]*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		wanted[tag] = struct{}{}
	}
	needle := strings.ToLower(query)

	ids := make([]string, 0, len(r.posts))
	for id := range r.posts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := []*entity.Post{}
	for _, id := range ids {
		post := r.posts[id]
		if strings.Contains(strings.ToLower(post.Title), needle) || hasAnyTag(post.Tags, wanted) {
			result = append(result, post.Clone())
		}
	}
	return result, nil
}

// mutate applies fn to the stored post under the write lock, which makes each
// mutation atomic with respect to the others.
func (r *MemoryPostRepository) mutate(id string, fn func(p *entity.Post)) (*entity.Post, error) {
	if err := r.checkID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	fn(post)
	post.Normalize()
	return post.Clone(), nil
}

func (r *MemoryPostRepository) checkID(id string) error {
	if !r.ValidID(id) {
		return fmt.Errorf("cast to ObjectId failed for value %q", id)
	}
	return nil
}

func hasAnyTag(tags []string, wanted map[string]struct{}) bool {
	for _, tag := range tags {
		if _, ok := wanted[tag]; ok {
			return true
		}
	}
	return false
}
