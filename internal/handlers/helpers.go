package handlers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/blaze/backend/internal/engagement"
	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/anonto42/blaze/backend/internal/session"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// currentUserID returns the signed-in user, or "" for anonymous requests
func currentUserID(c echo.Context) string {
	return session.UserID(c.Request().Context())
}

// currentSession returns the caller's session or a 401
func currentSession(c echo.Context) (*session.Session, error) {
	s, ok := session.FromContext(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Sign in required")
	}
	return s, nil
}

// toHTTPError maps domain errors to HTTP errors. Unknown errors are logged and become 500s.
func toHTTPError(err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, repositories.ErrPostNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	case errors.Is(err, repositories.ErrProfileNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Profile not found")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, repositories.ErrUsernameTaken):
		return echo.NewHTTPError(http.StatusConflict, "Username is already taken")
	case errors.Is(err, repositories.ErrAlreadySubscribed):
		return echo.NewHTTPError(http.StatusConflict, "Already subscribed")
	case errors.Is(err, engagement.ErrInFlight):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, engagement.ErrSignInRequired):
		return echo.NewHTTPError(http.StatusUnauthorized, "Sign in required")
	case errors.Is(err, engagement.ErrEmptyComment):
		return echo.NewHTTPError(http.StatusBadRequest, "Comment cannot be empty")
	case errors.Is(err, models.ErrMissingFields):
		return echo.NewHTTPError(http.StatusBadRequest, "Title and content are required")
	}
	log.Printf("handlers: %v", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

// bindAndValidate binds the request body into req and runs the echo validator when one is set
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}

func viewerFromRequest(c echo.Context) models.Viewer {
	return models.Viewer{
		UserID:    currentUserID(c),
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// attachCommentAuthors fills in the author block of each comment. Missing profiles are left nil.
func attachCommentAuthors(ctx context.Context, profiles repositories.ProfileRepository, comments []models.Comment) {
	if len(comments) == 0 {
		return
	}
	ids := make([]string, 0, len(comments))
	seen := make(map[string]bool)
	for _, cm := range comments {
		if !seen[cm.AuthorID] {
			seen[cm.AuthorID] = true
			ids = append(ids, cm.AuthorID)
		}
	}
	authors, err := profiles.GetCompactByUserIDs(ctx, ids)
	if err != nil {
		log.Printf("handlers: load comment authors: %v", err)
		return
	}
	for i := range comments {
		if a, ok := authors[comments[i].AuthorID]; ok {
			a := a
			comments[i].Author = &a
		}
	}
}

// maxPage bounds the page number so (page-1)*limit cannot overflow
const maxPage = 1 << 20

// pageParams reads page and limit query params. Page is 1..maxPage; limit is 1..50 and defaults to 10.
func pageParams(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return page, limit
}

func pageMeta(page, limit, totalItems int) echo.Map {
	totalPages := int(math.Ceil(float64(totalItems) / float64(limit)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      totalItems,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

// visiblePost loads :id and hides drafts from everyone but their author
func visiblePost(c echo.Context, posts repositories.PostRepository) (*models.Post, error) {
	post, err := posts.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, toHTTPError(err)
	}
	if !post.Published && post.AuthorID != currentUserID(c) {
		return nil, toHTTPError(repositories.ErrPostNotFound)
	}
	return post, nil
}
