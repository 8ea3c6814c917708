package handlers

import (
	"net/http"

	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PreferenceHandler serves the caller's reading preferences
type PreferenceHandler struct {
	preferences repositories.PreferenceRepository
}

func NewPreferenceHandler(preferences repositories.PreferenceRepository) *PreferenceHandler {
	return &PreferenceHandler{preferences: preferences}
}

func (h *PreferenceHandler) RegisterPreferenceRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.GET("/preferences", h.GetPreferences, requireSession)
	g.PUT("/preferences", h.UpdatePreferences, requireSession)
}

func (h *PreferenceHandler) GetPreferences(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	pref, err := h.preferences.GetPreference(c.Request().Context(), s.UserID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, pref)
}

// UpdatePreferences overwrites the fields present in the request and keeps the rest
func (h *PreferenceHandler) UpdatePreferences(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	var req models.UpdatePreferenceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	pref, err := h.preferences.GetPreference(ctx, s.UserID)
	if err != nil {
		return toHTTPError(err)
	}
	if req.Mode != "" {
		pref.Mode = req.Mode
	}
	if req.ColorTheme != "" {
		pref.ColorTheme = req.ColorTheme
	}
	if req.Layout != "" {
		pref.Layout = req.Layout
	}
	if err := h.preferences.SavePreference(ctx, pref); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, pref)
}
