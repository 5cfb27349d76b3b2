package persistent

import (
	"context"
	"errors"
	"testing"
	"time"

	"memories/services/post/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidID(t *testing.T) {
	mongoRepo := &mongoPostRepository{}
	postgresRepo := &postgresPostRepository{}

	assert.True(t, mongoRepo.ValidID("65e1f0c2a1b2c3d4e5f60718"))
	assert.False(t, mongoRepo.ValidID("not-a-valid-id"))
	assert.False(t, mongoRepo.ValidID("0190a5f2-3c4d-7e8f-9a0b-1c2d3e4f5a6b"))

	assert.True(t, postgresRepo.ValidID("0190a5f2-3c4d-7e8f-9a0b-1c2d3e4f5a6b"))
	assert.False(t, postgresRepo.ValidID("not-a-valid-id"))
	assert.False(t, postgresRepo.ValidID("65e1f0c2a1b2c3d4e5f60718"))
}

func TestObjectIDError(t *testing.T) {
	_, err := objectID("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_done\\`, escapeLike(`100% _done\`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

type storeCall struct {
	operation string
	success   bool
}

type fakeMetrics struct {
	calls []storeCall
}

func (f *fakeMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}

func (f *fakeMetrics) RecordStoreOperation(operation string, success bool, _ time.Duration) {
	f.calls = append(f.calls, storeCall{operation, success})
}

func (f *fakeMetrics) IncrementEventsPublished(string, bool) {}

type failingRepository struct {
	PostRepository
}

func (failingRepository) Count(context.Context) (int64, error) {
	return 0, errors.New("store unavailable")
}

func TestInstrumentedRepository(t *testing.T) {
	provider := &fakeMetrics{}
	repo := NewInstrumentedPostRepository(NewMemoryPostRepository(), provider)
	ctx := context.Background()

	post := &entity.Post{Title: "Hello", Creator: "alice"}
	require.NoError(t, repo.Create(ctx, post))
	_, err := repo.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, "bad")
	require.Error(t, err)

	assert.Equal(t, []storeCall{
		{"create", true},
		{"toggle_like", true},
		{"get", false},
	}, provider.calls)

	failing := NewInstrumentedPostRepository(failingRepository{}, provider)
	_, err = failing.Count(ctx)
	require.Error(t, err)
	assert.Equal(t, storeCall{"count", false}, provider.calls[len(provider.calls)-1])
}
