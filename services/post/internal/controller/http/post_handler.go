package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"memories/pkg/logger"
	"memories/pkg/middleware"
	"memories/services/post/internal/entity"
	"memories/services/post/internal/usecase"

	"github.com/gin-gonic/gin"
)

const invalidIDMessage = "No posts for Id"

type PostHandler struct {
	postUseCase usecase.PostUseCase
	logger      *logger.Logger
}

func NewPostHandler(postUseCase usecase.PostUseCase, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		postUseCase: postUseCase,
		logger:      logger,
	}
}

// PostRequest carries the editable fields of a post. Any other field in the
// body is ignored.
type PostRequest struct {
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Name         string   `json:"name"`
	Tags         []string `json:"tags"`
	SelectedFile string   `json:"selectedFile"`
}

func (r PostRequest) fields() entity.PostFields {
	return entity.PostFields{
		Title:        r.Title,
		Message:      r.Message,
		Name:         r.Name,
		Tags:         r.Tags,
		SelectedFile: r.SelectedFile,
	}
}

type CommentRequest struct {
	Value string `json:"value"`
}

type PostsResponse struct {
	Data          []*entity.Post `json:"data"`
	CurrentPage   int            `json:"currentPage"`
	NumberOfPages int            `json:"numberOfPages"`
}

type SearchResponse struct {
	Data []*entity.Post `json:"data"`
}

// storeContext detaches store calls from client disconnects.
func storeContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// bindJSON decodes the body into obj. An empty body leaves obj untouched.
func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ListPosts godoc
// @Summary      List posts
// @Description  Get one page of posts, newest first. Pages hold 8 posts.
// @Tags         posts
// @Produce      json
// @Param        page query int false "1-based page number" default(1)
// @Success      200  {object}  PostsResponse
// @Failure      404  {object}  map[string]string
// @Router       /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.logger.Error("Failed to parse page %q: %v", raw, err)
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		page = parsed
	}

	result, err := h.postUseCase.ListPosts(storeContext(c), page)
	if err != nil {
		h.logger.Error("Failed to list posts: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, PostsResponse{
		Data:          result.Posts,
		CurrentPage:   result.CurrentPage,
		NumberOfPages: result.NumberOfPages,
	})
}

// GetPost godoc
// @Summary      Get post by ID
// @Description  Get a post by ID. Responds with null when no post has that ID.
// @Tags         posts
// @Produce      json
// @Param        id path string true "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	postID := c.Param("id")

	post, err := h.postUseCase.GetPost(storeContext(c), postID)
	if err != nil {
		h.logger.Error("Failed to get post %s: %v", postID, err)
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost godoc
// @Summary      Create a new post
// @Description  Create a post owned by the caller. A base64 data URL in selectedFile is moved to object storage when enabled.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PostRequest true "Post data"
// @Success      200  {object}  entity.Post
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	var req PostRequest
	if err := bindJSON(c, &req); err != nil {
		h.logger.Error("Failed to decode post: %v", err)
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}

	post, err := h.postUseCase.CreatePost(storeContext(c), userID, req.fields())
	if err != nil {
		h.logger.Error("Failed to create post: %v", err)
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, post)
}

// UpdatePost godoc
// @Summary      Update post
// @Description  Replace the editable fields of a post. Responds with null when no post has that ID.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Post ID"
// @Param        request body PostRequest true "Post data"
// @Success      200  {object}  entity.Post
// @Failure      401  {object}  map[string]string
// @Failure      404  {string}  string "No posts for Id"
// @Failure      409  {object}  map[string]string
// @Router       /posts/{id} [patch]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID := c.Param("id")

	var req PostRequest
	if err := bindJSON(c, &req); err != nil {
		h.logger.Error("Failed to decode post %s: %v", postID, err)
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}

	post, err := h.postUseCase.UpdatePost(storeContext(c), postID, req.fields())
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidID) {
			c.String(http.StatusNotFound, invalidIDMessage)
			return
		}
		h.logger.Error("Failed to update post %s: %v", postID, err)
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary      Delete post
// @Description  Delete a post. Deleting an ID that does not exist succeeds.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Post ID"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {string}  string "No posts for Id"
// @Failure      409  {object}  map[string]string
// @Router       /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID := c.Param("id")

	if err := h.postUseCase.DeletePost(storeContext(c), postID); err != nil {
		if errors.Is(err, usecase.ErrInvalidID) {
			c.String(http.StatusNotFound, invalidIDMessage)
			return
		}
		h.logger.Error("Failed to delete post %s: %v", postID, err)
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// LikePost godoc
// @Summary      Like or unlike a post
// @Description  Toggle the caller in the post's likes. Anonymous callers get {"message":"Unauthorized"} with status 200.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      404  {string}  string "No posts for Id"
// @Failure      409  {object}  map[string]string
// @Router       /posts/{id}/likePost [patch]
func (h *PostHandler) LikePost(c *gin.Context) {
	postID := c.Param("id")
	userID := c.GetString(middleware.UserIDKey)

	if userID == "" {
		c.JSON(http.StatusOK, gin.H{"message": "Unauthorized"})
		return
	}

	post, err := h.postUseCase.LikePost(storeContext(c), postID, userID)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidID) {
			c.String(http.StatusNotFound, invalidIDMessage)
			return
		}
		h.logger.Error("Failed to like post %s: %v", postID, err)
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, post)
}

// CommentPost godoc
// @Summary      Comment on a post
// @Description  Append a comment to the post's comments
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Post ID"
// @Param        request body CommentRequest true "Comment"
// @Success      200  {object}  entity.Post
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id}/commentPost [post]
func (h *PostHandler) CommentPost(c *gin.Context) {
	postID := c.Param("id")

	var req CommentRequest
	if err := bindJSON(c, &req); err != nil {
		h.logger.Error("Failed to decode comment for post %s: %v", postID, err)
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}

	post, err := h.postUseCase.CommentPost(storeContext(c), postID, req.Value)
	if err != nil {
		h.logger.Error("Failed to comment on post %s: %v", postID, err)
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, post)
}

// SearchPosts godoc
// @Summary      Search posts
// @Description  Find posts whose title contains searchQuery (case-insensitive) or that carry any of the tags
// @Tags         posts
// @Produce      json
// @Param        searchQuery query string false "Title substring"
// @Param        tags query string false "Comma-separated tags"
// @Success      200  {object}  SearchResponse
// @Failure      404  {object}  map[string]string
// @Router       /posts/search [get]
func (h *PostHandler) SearchPosts(c *gin.Context) {
	query := c.Query("searchQuery")
	tags := splitTags(c.Query("tags"))

	posts, err := h.postUseCase.SearchPosts(storeContext(c), query, tags)
	if err != nil {
		h.logger.Error("Failed to search posts: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, SearchResponse{Data: posts})
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
