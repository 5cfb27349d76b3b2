package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"memories/pkg/logger"
	"memories/services/post/internal/entity"
	"memories/services/post/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostUseCase is a mock implementation of PostUseCase
type MockPostUseCase struct {
	mock.Mock
}

func (m *MockPostUseCase) ListPosts(ctx context.Context, page int) (*usecase.PostPage, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PostPage), args.Error(1)
}

func (m *MockPostUseCase) GetPost(ctx context.Context, postID string) (*entity.Post, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) CreatePost(ctx context.Context, userID string, fields entity.PostFields) (*entity.Post, error) {
	args := m.Called(ctx, userID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) UpdatePost(ctx context.Context, postID string, fields entity.PostFields) (*entity.Post, error) {
	args := m.Called(ctx, postID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) DeletePost(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *MockPostUseCase) LikePost(ctx context.Context, postID, userID string) (*entity.Post, error) {
	args := m.Called(ctx, postID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) CommentPost(ctx context.Context, postID, value string) (*entity.Post, error) {
	args := m.Called(ctx, postID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) SearchPosts(ctx context.Context, query string, tags []string) ([]*entity.Post, error) {
	args := m.Called(ctx, query, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Post), args.Error(1)
}

var _ usecase.PostUseCase = (*MockPostUseCase)(nil)

const postID = "65e1f0c2a1b2c3d4e5f60718"

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// withUser stands in for the auth middleware.
func withUser(userID string, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		next(c)
	}
}

func samplePost() *entity.Post {
	return &entity.Post{
		ID:        postID,
		Title:     "Hello",
		Creator:   "user-123",
		Tags:      []string{"a", "b"},
		Likes:     []string{},
		Comments:  []string{},
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func serve(router *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestListPosts_DefaultsToFirstPage(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts", handler.ListPosts)

	mockUseCase.On("ListPosts", mock.Anything, 1).Return(&usecase.PostPage{
		Posts:         []*entity.Post{samplePost()},
		CurrentPage:   1,
		NumberOfPages: 3,
	}, nil)

	w := serve(router, http.MethodGet, "/posts", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeMap(t, w)
	assert.Equal(t, float64(1), response["currentPage"])
	assert.Equal(t, float64(3), response["numberOfPages"])
	data := response["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, postID, data[0].(map[string]interface{})["_id"])

	mockUseCase.AssertExpectations(t)
}

func TestListPosts_EmptyPageSerializesArray(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts", handler.ListPosts)

	mockUseCase.On("ListPosts", mock.Anything, 7).Return(&usecase.PostPage{
		Posts:         []*entity.Post{},
		CurrentPage:   7,
		NumberOfPages: 2,
	}, nil)

	w := serve(router, http.MethodGet, "/posts?page=7", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"currentPage":7,"numberOfPages":2}`, w.Body.String())
}

func TestListPosts_BadPage(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts", handler.ListPosts)

	w := serve(router, http.MethodGet, "/posts?page=abc", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, decodeMap(t, w)["message"])
	mockUseCase.AssertNotCalled(t, "ListPosts", mock.Anything, mock.Anything)
}

func TestListPosts_StoreError(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts", handler.ListPosts)

	mockUseCase.On("ListPosts", mock.Anything, 0).Return(nil, usecase.ErrInvalidPage)

	w := serve(router, http.MethodGet, "/posts?page=0", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, usecase.ErrInvalidPage.Error(), decodeMap(t, w)["message"])
}

func TestGetPost_Absent(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts/:id", handler.GetPost)

	mockUseCase.On("GetPost", mock.Anything, postID).Return(nil, nil)

	w := serve(router, http.MethodGet, "/posts/"+postID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestGetPost_LookupError(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts/:id", handler.GetPost)

	mockUseCase.On("GetPost", mock.Anything, "bogus").Return(nil, errors.New(`cast to ObjectId failed for value "bogus"`))

	w := serve(router, http.MethodGet, "/posts/bogus", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, `cast to ObjectId failed for value "bogus"`, decodeMap(t, w)["message"])
}

func TestCreatePost_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts", withUser("user-123", handler.CreatePost))

	fields := entity.PostFields{Title: "Hello", Message: "Body", Tags: []string{"a", "b"}}
	mockUseCase.On("CreatePost", mock.Anything, "user-123", fields).Return(samplePost(), nil)

	body := []byte(`{"title":"Hello","message":"Body","tags":["a","b"],"creator":"someone-else","likes":["x"]}`)
	w := serve(router, http.MethodPost, "/posts", body)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeMap(t, w)
	assert.Equal(t, "user-123", response["creator"])
	assert.Equal(t, postID, response["_id"])

	mockUseCase.AssertExpectations(t)
}

func TestCreatePost_UndecodableBody(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts", withUser("user-123", handler.CreatePost))

	w := serve(router, http.MethodPost, "/posts", []byte(`{"tags":"not-an-array"}`))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, decodeMap(t, w)["message"])
	mockUseCase.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePost_Failure(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts", withUser("user-123", handler.CreatePost))

	mockUseCase.On("CreatePost", mock.Anything, "user-123", entity.PostFields{}).
		Return(nil, errors.New("failed to create post: duplicate key"))

	w := serve(router, http.MethodPost, "/posts", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "failed to create post: duplicate key", decodeMap(t, w)["message"])
}

func TestUpdatePost_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.PATCH("/posts/:id", withUser("user-123", handler.UpdatePost))

	updated := samplePost()
	updated.Title = "Updated title"
	fields := entity.PostFields{Title: "Updated title", Tags: []string{"a"}}
	mockUseCase.On("UpdatePost", mock.Anything, postID, fields).Return(updated, nil)

	w := serve(router, http.MethodPatch, "/posts/"+postID, []byte(`{"title":"Updated title","tags":["a"],"_id":"other"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeMap(t, w)
	assert.Equal(t, "Updated title", response["title"])
	assert.Equal(t, postID, response["_id"])

	mockUseCase.AssertExpectations(t)
}

func TestUpdatePost_Absent(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.PATCH("/posts/:id", withUser("user-123", handler.UpdatePost))

	mockUseCase.On("UpdatePost", mock.Anything, postID, entity.PostFields{Title: "x"}).Return(nil, nil)

	w := serve(router, http.MethodPatch, "/posts/"+postID, []byte(`{"title":"x"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestMalformedID_PlainText404(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		route  string
		setup  func(m *MockPostUseCase)
		handle func(h *PostHandler) gin.HandlerFunc
	}{
		{
			name:   "update",
			method: http.MethodPatch,
			route:  "/posts/:id",
			path:   "/posts/not-a-valid-id",
			setup: func(m *MockPostUseCase) {
				m.On("UpdatePost", mock.Anything, "not-a-valid-id", mock.Anything).Return(nil, usecase.ErrInvalidID)
			},
			handle: func(h *PostHandler) gin.HandlerFunc { return h.UpdatePost },
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			route:  "/posts/:id",
			path:   "/posts/not-a-valid-id",
			setup: func(m *MockPostUseCase) {
				m.On("DeletePost", mock.Anything, "not-a-valid-id").Return(usecase.ErrInvalidID)
			},
			handle: func(h *PostHandler) gin.HandlerFunc { return h.DeletePost },
		},
		{
			name:   "like",
			method: http.MethodPatch,
			route:  "/posts/:id/likePost",
			path:   "/posts/not-a-valid-id/likePost",
			setup: func(m *MockPostUseCase) {
				m.On("LikePost", mock.Anything, "not-a-valid-id", "user-123").Return(nil, usecase.ErrInvalidID)
			},
			handle: func(h *PostHandler) gin.HandlerFunc { return h.LikePost },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUseCase := new(MockPostUseCase)
			handler := NewPostHandler(mockUseCase, logger.New())
			tt.setup(mockUseCase)

			router := setupTestRouter()
			router.Handle(tt.method, tt.route, withUser("user-123", tt.handle(handler)))

			w := serve(router, tt.method, tt.path, []byte(`{}`))

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "No posts for Id", w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
			mockUseCase.AssertExpectations(t)
		})
	}
}

func TestDeletePost_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.DELETE("/posts/:id", withUser("user-123", handler.DeletePost))

	mockUseCase.On("DeletePost", mock.Anything, postID).Return(nil)

	w := serve(router, http.MethodDelete, "/posts/"+postID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Post deleted successfully", decodeMap(t, w)["message"])
	mockUseCase.AssertExpectations(t)
}

func TestDeletePost_Failure(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.DELETE("/posts/:id", withUser("user-123", handler.DeletePost))

	mockUseCase.On("DeletePost", mock.Anything, postID).Return(errors.New("server selection timeout"))

	w := serve(router, http.MethodDelete, "/posts/"+postID, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "server selection timeout", decodeMap(t, w)["message"])
}

func TestLikePost_Unauthorized(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.PATCH("/posts/:id/likePost", handler.LikePost)

	w := serve(router, http.MethodPatch, "/posts/not-a-valid-id/likePost", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Unauthorized", decodeMap(t, w)["message"])
	mockUseCase.AssertNotCalled(t, "LikePost", mock.Anything, mock.Anything, mock.Anything)
}

func TestLikePost_Like(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.PATCH("/posts/:id/likePost", withUser("user-123", handler.LikePost))

	liked := samplePost()
	liked.Likes = []string{"user-123"}
	mockUseCase.On("LikePost", mock.Anything, postID, "user-123").Return(liked, nil)

	w := serve(router, http.MethodPatch, "/posts/"+postID+"/likePost", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"user-123"}, decodeMap(t, w)["likes"])
	mockUseCase.AssertExpectations(t)
}

func TestLikePost_NotFound(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.PATCH("/posts/:id/likePost", withUser("user-123", handler.LikePost))

	mockUseCase.On("LikePost", mock.Anything, postID, "user-123").Return(nil, usecase.ErrPostNotFound)

	w := serve(router, http.MethodPatch, "/posts/"+postID+"/likePost", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "post not found", decodeMap(t, w)["message"])
}

func TestCommentPost_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts/:id/commentPost", withUser("user-123", handler.CommentPost))

	commented := samplePost()
	commented.Comments = []string{"nice"}
	mockUseCase.On("CommentPost", mock.Anything, postID, "nice").Return(commented, nil)

	w := serve(router, http.MethodPost, "/posts/"+postID+"/commentPost", []byte(`{"value":"nice"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"nice"}, decodeMap(t, w)["comments"])
	mockUseCase.AssertExpectations(t)
}

func TestCommentPost_Failure(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts/:id/commentPost", withUser("user-123", handler.CommentPost))

	mockUseCase.On("CommentPost", mock.Anything, postID, "nice").Return(nil, usecase.ErrPostNotFound)

	w := serve(router, http.MethodPost, "/posts/"+postID+"/commentPost", []byte(`{"value":"nice"}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "post not found", decodeMap(t, w)["message"])
}

func TestSearchPosts(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts/search", handler.SearchPosts)

	mockUseCase.On("SearchPosts", mock.Anything, "hello", []string{"a", "b"}).
		Return([]*entity.Post{samplePost()}, nil)

	w := serve(router, http.MethodGet, "/posts/search?searchQuery=hello&tags=a,,b,", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeMap(t, w)["data"].([]interface{})
	assert.Len(t, data, 1)
	mockUseCase.AssertExpectations(t)
}

func TestSearchPosts_Failure(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts/search", handler.SearchPosts)

	mockUseCase.On("SearchPosts", mock.Anything, "", []string{}).Return(nil, errors.New("connection reset"))

	w := serve(router, http.MethodGet, "/posts/search", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "connection reset", decodeMap(t, w)["message"])
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{}, splitTags(""))
	assert.Equal(t, []string{"a", "b"}, splitTags("a,b"))
	assert.Equal(t, []string{"a", "b"}, splitTags(",a,,b,"))
	assert.Equal(t, []string{" a"}, splitTags(" a"))
}
