package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/blaze/backend/internal/engagement"
	"github.com/anonto42/blaze/backend/internal/events"
	"github.com/anonto42/blaze/backend/internal/handlers"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/anonto42/blaze/backend/internal/router"
	"github.com/anonto42/blaze/backend/internal/session"
	"github.com/anonto42/blaze/backend/pkg/config"
	"github.com/anonto42/blaze/backend/pkg/firebase"
	"github.com/anonto42/blaze/backend/pkg/storage"
	"github.com/anonto42/blaze/backend/pkg/telemetry"
	"github.com/anonto42/blaze/backend/validators"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(c)
	}()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	var store handlers.ObjectStore
	if cfg.S3Endpoint != "" {
		s3, err := storage.New(storage.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to ensure bucket %s: %v", cfg.S3Bucket, err)
		}
		store = s3
	} else {
		log.Println("S3_ENDPOINT not set, image uploads disabled.")
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		w := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaActivityTopic)
		defer w.Close()
		publisher = w
	}

	var (
		guard   engagement.Guard = engagement.NewMemoryGuard()
		revoker session.Revoker  = session.NewMemoryRevoker()
	)
	if db.Redis != nil {
		guard = engagement.NewRedisGuard(db.Redis, cfg.InFlightTTL)
		revoker = session.NewRedisRevoker(db.Redis)
	}

	postRepo := repositories.NewPostgresPostRepository(db.Postgres)
	profileRepo := repositories.NewPostgresProfileRepository(db.Postgres)
	sync := engagement.NewSynchronizer(engagement.Deps{
		Likes:     repositories.NewPostgresLikeRepository(db.Postgres),
		Comments:  repositories.NewPostgresCommentRepository(db.Postgres),
		Views:     repositories.NewPostgresViewRepository(db.Postgres),
		Counters:  postRepo,
		Guard:     guard,
		Publisher: publisher,
	})

	e := echo.New()
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e)
	router.SetupRoutes(e, router.Deps{
		Posts:         postRepo,
		Profiles:      profileRepo,
		Subscriptions: repositories.NewPostgresSubscriptionRepository(db.Postgres),
		Preferences:   repositories.NewMongoPreferenceRepository(db.Mongo.Database(cfg.MongoDatabase)),
		Sync:          sync,
		Verifier:      firebaseApp.AuthClient,
		Store:         store,
		Issuer:        session.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Revoker:       revoker,
		Broker:        session.NewBroker(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, "blaze-api"),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	go func() {
		log.Printf("blaze-api listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
