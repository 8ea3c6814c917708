package router

import (
	"log"

	"github.com/anonto42/blaze/backend/internal/engagement"
	"github.com/anonto42/blaze/backend/internal/handlers"
	"github.com/anonto42/blaze/backend/internal/middleware"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/anonto42/blaze/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the routes need
type Deps struct {
	Posts         repositories.PostRepository
	Profiles      repositories.ProfileRepository
	Subscriptions repositories.SubscriptionRepository
	Preferences   repositories.PreferenceRepository
	Sync          *engagement.Synchronizer
	Verifier      handlers.IDTokenVerifier
	Store         handlers.ObjectStore
	Issuer        *session.Issuer
	Revoker       session.Revoker
	Broker        *session.Broker
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) {
	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := middleware.NewSessionAuth(d.Issuer, d.Revoker)

	// Every API route attaches a session when a token is sent; protected routes add RequireSession
	api := e.Group("/api/v1", auth.OptionalSession())
	protected := auth.RequireSession()

	handlers.NewAuthHandler(d.Profiles, d.Verifier, d.Issuer, d.Revoker, d.Broker).RegisterAuthRoutes(api, protected)
	log.Println("Auth routes configured.")

	handlers.NewPostHandler(d.Posts, d.Profiles, d.Sync).RegisterPostRoutes(api, protected)
	log.Println("Post routes configured.")

	handlers.NewEngagementHandler(d.Posts, d.Profiles, d.Sync).RegisterEngagementRoutes(api, protected)
	log.Println("Engagement routes configured.")

	handlers.NewProfileHandler(d.Profiles, d.Store, d.Broker).RegisterProfileRoutes(api, protected)
	log.Println("Profile routes configured.")

	handlers.NewSubscriptionHandler(d.Subscriptions).RegisterSubscriptionRoutes(api)
	handlers.NewPreferenceHandler(d.Preferences).RegisterPreferenceRoutes(api, protected)

	log.Println("All routes configured.")
}
