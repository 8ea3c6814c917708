package handlers

import (
	"net/http"

	"github.com/anonto42/blaze/backend/internal/engagement"
	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// EngagementHandler serves likes, comments and views. All counter changes go through the Synchronizer.
type EngagementHandler struct {
	posts    repositories.PostRepository
	profiles repositories.ProfileRepository
	sync     *engagement.Synchronizer
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(posts repositories.PostRepository, profiles repositories.ProfileRepository, sync *engagement.Synchronizer) *EngagementHandler {
	return &EngagementHandler{posts: posts, profiles: profiles, sync: sync}
}

// RegisterEngagementRoutes registers like, comment and view routes
func (h *EngagementHandler) RegisterEngagementRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.GET("/posts/:id/likes/status", h.LikeStatus)
	g.GET("/posts/:id/comments", h.ListComments)
	g.POST("/posts/:id/views", h.TrackView)

	g.POST("/posts/:id/likes/toggle", h.ToggleLike, requireSession)
	g.POST("/posts/:id/comments", h.CreateComment, requireSession)
	g.POST("/posts/:id/reconcile", h.Reconcile, requireSession)
}

// LikeStatus reports whether the caller likes the post along with its likes count
func (h *EngagementHandler) LikeStatus(c echo.Context) error {
	post, err := visiblePost(c, h.posts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.LikeState{
		PostID:     post.ID,
		IsLiked:    h.sync.LoadLikeState(c.Request().Context(), post.ID, currentUserID(c)),
		LikesCount: post.LikesCount,
	})
}

// ToggleLike likes or unlikes the post for the caller
func (h *EngagementHandler) ToggleLike(c echo.Context) error {
	post, err := visiblePost(c, h.posts)
	if err != nil {
		return err
	}
	state, err := h.sync.ToggleLike(c.Request().Context(), post.ID, currentUserID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// ListComments returns the thread of a post, oldest first
func (h *EngagementHandler) ListComments(c echo.Context) error {
	post, err := visiblePost(c, h.posts)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	comments, err := h.sync.Comments(ctx, post.ID)
	if err != nil {
		return toHTTPError(err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	attachCommentAuthors(ctx, h.profiles, comments)
	return c.JSON(http.StatusOK, comments)
}

// CreateComment appends a comment and returns the new count with the refreshed thread
func (h *EngagementHandler) CreateComment(c echo.Context) error {
	post, err := visiblePost(c, h.posts)
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	result, err := h.sync.PostComment(ctx, post.ID, currentUserID(c), req.Content)
	if err != nil {
		return toHTTPError(err)
	}
	attachCommentAuthors(ctx, h.profiles, result.Thread)
	single := []models.Comment{*result.Comment}
	attachCommentAuthors(ctx, h.profiles, single)
	result.Comment = &single[0]
	return c.JSON(http.StatusCreated, result)
}

// TrackView counts a page load and returns the views count
func (h *EngagementHandler) TrackView(c echo.Context) error {
	post, err := visiblePost(c, h.posts)
	if err != nil {
		return err
	}
	count, err := h.sync.TrackView(c.Request().Context(), post.ID, viewerFromRequest(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"post_id": post.ID, "views_count": count})
}

// Reconcile repairs the post's like and comment counters. Only the author may call it.
func (h *EngagementHandler) Reconcile(c echo.Context) error {
	post, err := visiblePost(c, h.posts)
	if err != nil {
		return err
	}
	if post.AuthorID != currentUserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "Only the author can reconcile counters")
	}
	counters, err := h.sync.Reconcile(c.Request().Context(), post.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, counters)
}
