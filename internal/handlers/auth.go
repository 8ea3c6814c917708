package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/anonto42/blaze/backend/internal/session"
	"github.com/anonto42/blaze/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

// IDTokenVerifier verifies identity provider tokens. *auth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	profiles  repositories.ProfileRepository
	verifier  IDTokenVerifier
	issuer    *session.Issuer
	revoker   session.Revoker
	broker    *session.Broker
	heartbeat time.Duration
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	profiles repositories.ProfileRepository,
	verifier IDTokenVerifier,
	issuer *session.Issuer,
	revoker session.Revoker,
	broker *session.Broker,
) *AuthHandler {
	return &AuthHandler{
		profiles:  profiles,
		verifier:  verifier,
		issuer:    issuer,
		revoker:   revoker,
		broker:    broker,
		heartbeat: 15 * time.Second,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.POST("/auth/firebase-login", h.FirebaseLogin)
	g.GET("/auth/me", h.Me, requireSession)
	g.POST("/auth/signout", h.SignOut, requireSession)
	g.GET("/auth/events", h.Events, requireSession)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token, makes sure the user has a profile and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.IDToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "idToken is required")
	}

	ctx := c.Request().Context()
	token, err := h.verifier.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	identity := firebase.IdentityFromToken(token)

	profile, err := h.profiles.EnsureProfile(ctx, identity.UID, identity.Email, identity.Name)
	if err != nil {
		return toHTTPError(fmt.Errorf("ensure profile for %s: %w", identity.UID, err))
	}

	signed, s, err := h.issuer.Issue(identity.UID, identity.Email)
	if err != nil {
		return toHTTPError(err)
	}
	h.broker.Publish(session.Event{Type: session.SignedIn, UserID: s.UserID})

	return c.JSON(http.StatusOK, echo.Map{
		"token":      signed,
		"expires_at": s.ExpiresAt,
		"profile":    profile,
	})
}

// Me returns the current session together with the caller's profile, if one exists
func (h *AuthHandler) Me(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	resp := echo.Map{"session": s, "profile": nil}
	profile, err := h.profiles.GetByUserID(c.Request().Context(), s.UserID)
	switch {
	case err == nil:
		resp["profile"] = profile
	case !errors.Is(err, repositories.ErrProfileNotFound):
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// SignOut revokes the caller's token
func (h *AuthHandler) SignOut(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := h.revoker.Revoke(c.Request().Context(), s.TokenID, s.ExpiresAt); err != nil {
		return toHTTPError(fmt.Errorf("revoke session: %w", err))
	}
	h.broker.Publish(session.Event{Type: session.SignedOut, UserID: s.UserID})
	return c.NoContent(http.StatusNoContent)
}

// Events streams the caller's session changes as server-sent events until the client disconnects
func (h *AuthHandler) Events(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	events := h.broker.Subscribe(ctx, s.UserID)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeEvent(res, ev); err != nil {
				log.Printf("auth: write session event: %v", err)
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(w io.Writer, ev session.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
