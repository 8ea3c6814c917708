package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/anonto42/blaze/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

// MaxImageSize is the largest avatar or featured image accepted
const MaxImageSize = 5 << 20

// ObjectStore stores uploaded files and returns their public URL
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
	Remove(ctx context.Context, key string) error
	// KeyFromURL maps a URL returned by Upload back to its key
	KeyFromURL(url string) (string, bool)
}

// ProfileHandler handles HTTP requests related to profiles and image uploads
type ProfileHandler struct {
	profiles repositories.ProfileRepository
	store    ObjectStore
	broker   *session.Broker
}

// NewProfileHandler creates a new ProfileHandler. store may be nil, which disables uploads.
func NewProfileHandler(profiles repositories.ProfileRepository, store ObjectStore, broker *session.Broker) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, store: store, broker: broker}
}

// RegisterProfileRoutes registers profile-related routes
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.GET("/profiles/:user_id", h.GetPublicProfile)
	g.GET("/profiles/by-username/:username", h.GetProfileByUsername)

	g.GET("/profile", h.GetProfile, requireSession)
	g.PUT("/profile", h.UpsertProfile, requireSession)
	g.POST("/profile/avatar", h.UploadAvatar, requireSession)
	g.POST("/uploads/featured", h.UploadFeaturedImage, requireSession)
}

// GetProfile retrieves the caller's profile
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.GetByUserID(c.Request().Context(), s.UserID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// GetPublicProfile retrieves another user's profile by user id
func (h *ProfileHandler) GetPublicProfile(c echo.Context) error {
	profile, err := h.profiles.GetByUserID(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, publicProfile(profile))
}

// GetProfileByUsername retrieves a profile by username
func (h *ProfileHandler) GetProfileByUsername(c echo.Context) error {
	profile, err := h.profiles.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, publicProfile(profile))
}

// UpsertProfile creates the caller's profile or updates its public fields
func (h *ProfileHandler) UpsertProfile(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	var req models.UpsertProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	previous, err := h.profiles.GetByUserID(ctx, s.UserID)
	if err != nil && !errors.Is(err, repositories.ErrProfileNotFound) {
		return toHTTPError(err)
	}

	profile := &models.Profile{
		UserID:    s.UserID,
		Email:     s.Email,
		FullName:  strings.TrimSpace(req.FullName),
		Bio:       strings.TrimSpace(req.Bio),
		AvatarURL: req.AvatarURL,
		Website:   req.Website,
	}
	if username := models.NormalizeUsername(req.Username); username != "" {
		profile.Username = &username
	}
	if err := h.profiles.UpsertProfile(ctx, profile); err != nil {
		return toHTTPError(err)
	}
	if previous != nil && previous.AvatarURL != profile.AvatarURL {
		h.removeAvatar(ctx, s.UserID, previous.AvatarURL)
	}
	h.broker.Publish(session.Event{Type: session.ProfileUpdated, UserID: s.UserID})
	return c.JSON(http.StatusOK, profile)
}

// UploadAvatar stores an avatar image and returns its URL
func (h *ProfileHandler) UploadAvatar(c echo.Context) error {
	return h.upload(c, "avatars")
}

// UploadFeaturedImage stores a post's featured image and returns its URL
func (h *ProfileHandler) UploadFeaturedImage(c echo.Context) error {
	return h.upload(c, "featured")
}

func (h *ProfileHandler) upload(c echo.Context, prefix string) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	if h.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Uploads are not configured")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file")
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return echo.NewHTTPError(http.StatusBadRequest, "Please upload an image file")
	}
	if fh.Size > MaxImageSize {
		return echo.NewHTTPError(http.StatusBadRequest, "Image size must be less than 5MB")
	}

	f, err := fh.Open()
	if err != nil {
		return toHTTPError(fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	key := objectKey(prefix, s.UserID, fh.Filename, contentType)
	url, err := h.store.Upload(c.Request().Context(), key, contentType, f, fh.Size)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"url": url, "key": key})
}

// removeAvatar deletes a replaced avatar if it is one of the user's own uploads.
// Failures leave an orphaned object behind and are only logged.
func (h *ProfileHandler) removeAvatar(ctx context.Context, userID, url string) {
	if h.store == nil || url == "" {
		return
	}
	key, ok := h.store.KeyFromURL(url)
	if !ok || !strings.HasPrefix(key, "avatars/"+userID+"/") {
		return
	}
	if err := h.store.Remove(ctx, key); err != nil {
		log.Printf("profiles: remove old avatar of %s: %v", userID, err)
	}
}

// objectKey builds <prefix>/<user>/<ulid><ext>, taking the extension from the file name or the content type
func objectKey(prefix, userID, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("%s/%s/%s%s", prefix, userID, ulid.Make().String(), ext)
}

// publicProfile hides the email of other users
func publicProfile(p *models.Profile) *models.Profile {
	out := *p
	out.Email = ""
	return &out
}
