package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/blaze/backend/internal/engagement"
	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts    repositories.PostRepository
	profiles repositories.ProfileRepository
	sync     *engagement.Synchronizer
	now      func() time.Time
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts repositories.PostRepository, profiles repositories.ProfileRepository, sync *engagement.Synchronizer) *PostHandler {
	return &PostHandler{posts: posts, profiles: profiles, sync: sync, now: time.Now}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.GET("/posts", h.ListPosts)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts/:id/detail", h.GetPostDetail)

	g.POST("/posts", h.CreatePost, requireSession)
	g.PUT("/posts/:id", h.UpdatePost, requireSession)
	g.DELETE("/posts/:id", h.DeletePost, requireSession)
	g.GET("/me/posts", h.MyPosts, requireSession)
}

// PostSummary is a post in a listing with its author and the caller's like state
type PostSummary struct {
	models.Post
	Author  *models.ProfileCompact `json:"author,omitempty"`
	IsLiked bool                   `json:"is_liked"`
}

// PostDetail is everything a post page shows
type PostDetail struct {
	Post     *models.Post           `json:"post"`
	Author   *models.ProfileCompact `json:"author,omitempty"`
	IsLiked  bool                   `json:"is_liked"`
	Comments []models.Comment       `json:"comments"`
}

// CreatePost saves a new post. Published=false keeps it as a draft.
func (h *PostHandler) CreatePost(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if !models.HasRequiredFields(req.Title, req.Content) {
		return toHTTPError(models.ErrMissingFields)
	}

	now := h.now()
	title := strings.TrimSpace(req.Title)
	post := &models.Post{
		AuthorID:      s.UserID,
		Title:         title,
		Content:       req.Content,
		Excerpt:       models.DeriveExcerpt(req.Excerpt, req.Content),
		Slug:          models.BuildSlug(title, now),
		Tags:          models.NormalizeTags(req.Tags),
		FeaturedImage: req.FeaturedImage,
		Published:     req.Published,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.posts.CreatePost(c.Request().Context(), post); err != nil {
		return toHTTPError(fmt.Errorf("create post: %w", err))
	}
	return c.JSON(http.StatusCreated, post)
}

// UpdatePost edits a post owned by the caller. Posts of other users read as not found.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if !models.HasRequiredFields(req.Title, req.Content) {
		return toHTTPError(models.ErrMissingFields)
	}

	ctx := c.Request().Context()
	post, err := h.ownedPost(c, s.UserID)
	if err != nil {
		return err
	}
	post.Title = strings.TrimSpace(req.Title)
	post.Content = req.Content
	post.Excerpt = models.DeriveExcerpt(req.Excerpt, req.Content)
	post.Tags = models.NormalizeTags(req.Tags)
	post.FeaturedImage = req.FeaturedImage
	post.Published = req.Published
	if err := h.posts.UpdatePost(ctx, post); err != nil {
		return toHTTPError(fmt.Errorf("update post %s: %w", post.ID, err))
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost removes a post of the caller. Discarding a draft goes through here too.
func (h *PostHandler) DeletePost(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := h.posts.DeletePost(c.Request().Context(), c.Param("id"), s.UserID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetPost returns a published post, or a draft to its author
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := visiblePost(c, h.posts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// GetPostDetail loads a post page and counts the view
func (h *PostHandler) GetPostDetail(c echo.Context) error {
	post, err := visiblePost(c, h.posts)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	userID := currentUserID(c)

	detail := PostDetail{Post: post, Comments: []models.Comment{}}
	if authors, err := h.profiles.GetCompactByUserIDs(ctx, []string{post.AuthorID}); err != nil {
		log.Printf("posts: load author of %s: %v", post.ID, err)
	} else if a, ok := authors[post.AuthorID]; ok {
		detail.Author = &a
	}

	detail.IsLiked = h.sync.LoadLikeState(ctx, post.ID, userID)

	comments, err := h.sync.Comments(ctx, post.ID)
	if err != nil {
		return toHTTPError(err)
	}
	attachCommentAuthors(ctx, h.profiles, comments)
	if comments != nil {
		detail.Comments = comments
	}

	views, err := h.sync.TrackView(ctx, post.ID, viewerFromRequest(c))
	if err != nil {
		log.Printf("posts: %v", err)
	} else {
		post.ViewsCount = views
	}
	return c.JSON(http.StatusOK, detail)
}

// ListPosts lists published posts with optional search, sort and pagination
func (h *PostHandler) ListPosts(c echo.Context) error {
	ctx := c.Request().Context()
	sort := c.QueryParam("sort")
	if sort != repositories.SortPopular {
		sort = repositories.SortLatest
	}
	page, limit := pageParams(c)

	window, total, err := h.posts.ListPublished(ctx, repositories.ListQuery{
		Sort:   sort,
		Search: c.QueryParam("q"),
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return toHTTPError(fmt.Errorf("list posts: %w", err))
	}

	authorIDs := make([]string, 0, len(window))
	postIDs := make([]string, 0, len(window))
	for _, p := range window {
		authorIDs = append(authorIDs, p.AuthorID)
		postIDs = append(postIDs, p.ID)
	}
	authors, err := h.profiles.GetCompactByUserIDs(ctx, authorIDs)
	if err != nil {
		log.Printf("posts: load authors: %v", err)
		authors = map[string]models.ProfileCompact{}
	}
	liked := h.sync.LoadLikeStates(ctx, postIDs, currentUserID(c))

	summaries := make([]PostSummary, len(window))
	for i, p := range window {
		summaries[i] = PostSummary{Post: p, IsLiked: liked[p.ID]}
		if a, ok := authors[p.AuthorID]; ok {
			a := a
			summaries[i].Author = &a
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts": summaries,
		},
		"meta": pageMeta(page, limit, int(total)),
	})
}

// MyPosts returns the caller's posts split into published ones and drafts, newest first
func (h *PostHandler) MyPosts(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	posts, err := h.posts.ListByAuthor(c.Request().Context(), s.UserID)
	if err != nil {
		return toHTTPError(fmt.Errorf("list posts of %s: %w", s.UserID, err))
	}
	published, drafts := []models.Post{}, []models.Post{}
	for _, p := range posts {
		if p.Published {
			published = append(published, p)
		} else {
			drafts = append(drafts, p)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"published": published, "drafts": drafts})
}

func (h *PostHandler) ownedPost(c echo.Context, userID string) (*models.Post, error) {
	post, err := h.posts.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, toHTTPError(err)
	}
	if post.AuthorID != userID {
		return nil, toHTTPError(repositories.ErrPostNotFound)
	}
	return post, nil
}
