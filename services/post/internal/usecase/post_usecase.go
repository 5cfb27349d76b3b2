package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"memories/pkg/logger"
	"memories/pkg/metrics"
	"memories/pkg/queue"
	"memories/services/post/internal/entity"
	"memories/services/post/internal/repo/persistent"

	"github.com/go-playground/validator/v10"
)

// PageSize is the fixed number of posts per listing page.
const PageSize = 8

var (
	ErrInvalidID    = errors.New("invalid post id")
	ErrPostNotFound = errors.New("post not found")
	ErrInvalidPage  = errors.New("page must be a positive integer")
)

type PostPage struct {
	Posts         []*entity.Post
	CurrentPage   int
	NumberOfPages int
}

type PostUseCase interface {
	ListPosts(ctx context.Context, page int) (*PostPage, error)
	GetPost(ctx context.Context, postID string) (*entity.Post, error)
	CreatePost(ctx context.Context, userID string, fields entity.PostFields) (*entity.Post, error)
	UpdatePost(ctx context.Context, postID string, fields entity.PostFields) (*entity.Post, error)
	DeletePost(ctx context.Context, postID string) error
	LikePost(ctx context.Context, postID, userID string) (*entity.Post, error)
	CommentPost(ctx context.Context, postID, value string) (*entity.Post, error)
	SearchPosts(ctx context.Context, query string, tags []string) ([]*entity.Post, error)
}

// MediaStore receives decoded selectedFile payloads.
type MediaStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishPostEvent(ctx context.Context, event queue.PostEvent) error
}

type postUseCase struct {
	postRepo  persistent.PostRepository
	media     MediaStore
	publisher EventPublisher
	metrics   metrics.Provider
	validate  *validator.Validate
	logger    *logger.Logger
	now       func() time.Time
}

// NewPostUseCase wires the use case. media and publisher may be nil, which
// disables selectedFile offload and post events respectively.
func NewPostUseCase(
	postRepo persistent.PostRepository,
	media MediaStore,
	publisher EventPublisher,
	metricsProvider metrics.Provider,
	logger *logger.Logger,
) PostUseCase {
	return &postUseCase{
		postRepo:  postRepo,
		media:     media,
		publisher: publisher,
		metrics:   metricsProvider,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

func (uc *postUseCase) ListPosts(ctx context.Context, page int) (*PostPage, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	total, err := uc.postRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	result := &PostPage{
		Posts:         []*entity.Post{},
		CurrentPage:   page,
		NumberOfPages: NumberOfPages(total),
	}

	// Pages past the end, including ones whose offset would overflow, are empty.
	if page-1 > math.MaxInt/PageSize || int64((page-1)*PageSize) >= total {
		return result, nil
	}

	posts, err := uc.postRepo.List(ctx, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if posts != nil {
		result.Posts = posts
	}
	return result, nil
}

// NumberOfPages is ceil(total / PageSize).
func NumberOfPages(total int64) int {
	return int((total + PageSize - 1) / PageSize)
}

func (uc *postUseCase) GetPost(ctx context.Context, postID string) (*entity.Post, error) {
	return uc.postRepo.GetByID(ctx, postID)
}

func (uc *postUseCase) CreatePost(ctx context.Context, userID string, fields entity.PostFields) (*entity.Post, error) {
	// Millisecond precision matches what every store returns on read.
	post := &entity.Post{
		Creator:   userID,
		CreatedAt: uc.now().UTC().Truncate(time.Millisecond),
	}
	post.Apply(fields)
	post.Normalize()

	if err := uc.validate.Struct(post); err != nil {
		return nil, fmt.Errorf("post validation failed: %w", err)
	}

	selectedFile, mediaKey, err := uc.offloadMedia(ctx, fields.SelectedFile)
	if err != nil {
		return nil, err
	}
	post.SelectedFile = selectedFile

	if err := uc.postRepo.Create(ctx, post); err != nil {
		uc.discardMedia(ctx, mediaKey)
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if uc.publisher != nil {
		go uc.publishCreated(post.Clone())
	}

	return post, nil
}

func (uc *postUseCase) UpdatePost(ctx context.Context, postID string, fields entity.PostFields) (*entity.Post, error) {
	if !uc.postRepo.ValidID(postID) {
		return nil, ErrInvalidID
	}

	selectedFile, mediaKey, err := uc.offloadMedia(ctx, fields.SelectedFile)
	if err != nil {
		return nil, err
	}
	fields.SelectedFile = selectedFile

	post, err := uc.postRepo.Update(ctx, postID, fields)
	if err != nil || post == nil {
		uc.discardMedia(ctx, mediaKey)
	}
	return post, err
}

func (uc *postUseCase) DeletePost(ctx context.Context, postID string) error {
	if !uc.postRepo.ValidID(postID) {
		return ErrInvalidID
	}
	return uc.postRepo.Delete(ctx, postID)
}

func (uc *postUseCase) LikePost(ctx context.Context, postID, userID string) (*entity.Post, error) {
	if !uc.postRepo.ValidID(postID) {
		return nil, ErrInvalidID
	}

	post, err := uc.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (uc *postUseCase) CommentPost(ctx context.Context, postID, value string) (*entity.Post, error) {
	post, err := uc.postRepo.AppendComment(ctx, postID, value)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (uc *postUseCase) SearchPosts(ctx context.Context, query string, tags []string) ([]*entity.Post, error) {
	posts, err := uc.postRepo.Search(ctx, query, tags)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*entity.Post{}
	}
	return posts, nil
}

func (uc *postUseCase) publishCreated(post *entity.Post) {
	event := queue.PostEvent{
		Type:      queue.PostCreatedKey,
		PostID:    post.ID,
		CreatorID: post.Creator,
		Tags:      post.Tags,
	}

	err := uc.publisher.PublishPostEvent(context.Background(), event)
	uc.metrics.IncrementEventsPublished(event.Type, err == nil)
	if err != nil {
		uc.logger.Error("Failed to publish %s for post %s: %v", event.Type, post.ID, err)
	}
}
