package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/anonto42/blaze/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// SessionAuth resolves the bearer token of a request into a session.Session
type SessionAuth struct {
	issuer  *session.Issuer
	revoker session.Revoker
}

func NewSessionAuth(issuer *session.Issuer, revoker session.Revoker) *SessionAuth {
	return &SessionAuth{issuer: issuer, revoker: revoker}
}

// OptionalSession attaches a session when a valid token is present and lets anonymous
// requests through. A token that is present but invalid is still rejected.
func (a *SessionAuth) OptionalSession() echo.MiddlewareFunc {
	return a.middleware(false)
}

// RequireSession rejects requests without a valid token. A session already attached by
// OptionalSession is accepted as is.
func (a *SessionAuth) RequireSession() echo.MiddlewareFunc {
	return a.middleware(true)
}

func (a *SessionAuth) middleware(required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := session.FromContext(c.Request().Context()); ok && required {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				if required {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
				}
				return next(c)
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			s, err := a.issuer.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			revoked, err := a.revoker.IsRevoked(c.Request().Context(), s.TokenID)
			if err != nil {
				log.Printf("session: revocation check failed: %v", err)
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Unable to verify session")
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "Session has been signed out")
			}

			req := c.Request()
			c.SetRequest(req.WithContext(session.NewContext(req.Context(), s)))
			return next(c)
		}
	}
}
