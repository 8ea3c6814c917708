package handlers

import (
	"net/http"

	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// SubscriptionHandler handles newsletter sign-ups
type SubscriptionHandler struct {
	subscriptions repositories.SubscriptionRepository
}

func NewSubscriptionHandler(subscriptions repositories.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

func (h *SubscriptionHandler) RegisterSubscriptionRoutes(g *echo.Group) {
	g.POST("/newsletter", h.Subscribe)
}

// Subscribe adds an email to the newsletter. Duplicates get 409.
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	var req models.SubscribeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email is required")
	}
	sub, err := h.subscriptions.Subscribe(c.Request().Context(), req.Email)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, sub)
}
