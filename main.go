package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/Rani-Boora/campus-event-hub/internal/auth"
	"github.com/Rani-Boora/campus-event-hub/internal/config"
	"github.com/Rani-Boora/campus-event-hub/internal/database/migrations"
	"github.com/Rani-Boora/campus-event-hub/internal/event"
	eventdb "github.com/Rani-Boora/campus-event-hub/internal/event/db"
	"github.com/Rani-Boora/campus-event-hub/internal/event/event_api"
	"github.com/Rani-Boora/campus-event-hub/internal/kafka"
	"github.com/Rani-Boora/campus-event-hub/internal/logger"
	"github.com/Rani-Boora/campus-event-hub/internal/notify"
	"github.com/Rani-Boora/campus-event-hub/internal/registration"
	regdb "github.com/Rani-Boora/campus-event-hub/internal/registration/db"
	"github.com/Rani-Boora/campus-event-hub/internal/registration/pass"
	redislock "github.com/Rani-Boora/campus-event-hub/internal/registration/redis"
	"github.com/Rani-Boora/campus-event-hub/internal/registration/registration_api"
	"github.com/Rani-Boora/campus-event-hub/internal/review"
	revdb "github.com/Rani-Boora/campus-event-hub/internal/review/db"
	"github.com/Rani-Boora/campus-event-hub/internal/review/review_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

// requestLogger tags access log lines with the caller's subject when a token
// is present. The claim is read unverified here, log enrichment only; real
// authorization happens in auth.Middleware.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := "anonymous"
			if token, err := auth.ExtractTokenFromRequest(r); err == nil {
				if sub, err := auth.ExtractUserIDFromJWT(token); err == nil {
					caller = sub
				}
			}
			log.LogAPI(r.Method, r.URL.Path, caller)
			next.ServeHTTP(w, r)
		})
	}
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Campus Event Hub initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.Run(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}
	log.Info("DATABASE", "Migrations applied")

	topics := kafka.Topics{
		RegistrationCreated:   cfg.Kafka.Topics.RegistrationCreated,
		RegistrationStatus:    cfg.Kafka.Topics.RegistrationStatus,
		RegistrationCancelled: cfg.Kafka.Topics.RegistrationCancelled,
	}
	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, topics)
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics.Names()); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	}

	mailer := notify.NewMailer(cfg.Email)

	eventStore := &eventdb.DB{Bun: bunDB}
	regStore := &regdb.DB{Bun: bunDB}
	reviewStore := &revdb.DB{Bun: bunDB}

	eventService := event.NewService(eventStore)
	registrationService := registration.NewService(
		regStore,
		eventStore,
		redislock.NewAdmissionLock(redisClient),
		mailer,
		kafkaProducer,
		log,
	)
	reviewService := review.NewService(reviewStore, regStore, log)

	passSecret := os.Getenv("PASS_SECRET_KEY")
	if passSecret == "" {
		log.Warn("CONFIG", "PASS_SECRET_KEY not set, using insecure default")
		passSecret = "campus-event-hub-dev"
	}

	eventHandler := &event_api.Handler{Service: eventService, Logger: log}
	registrationHandler := &registration_api.Handler{
		Service: registrationService,
		Passes:  pass.NewGenerator(passSecret),
		Logger:  log,
	}
	reviewHandler := &review_api.Handler{Service: reviewService, Logger: log}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(requestLogger(log))

	// --- Public Routes ---
	r.Get("/api/reviews/event/{eventID}", reviewHandler.EventReviews)

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		log.Info("AUTH", "OIDC middleware applied to protected API routes")

		r.Route("/api", func(r chi.Router) {
			r.Route("/events", func(r chi.Router) {
				r.Get("/", eventHandler.ListPublished)
				r.Get("/mine", eventHandler.ListMine)
				r.Get("/{eventID}", eventHandler.Get)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireOrganizer)
					r.Post("/", eventHandler.Create)
					r.Put("/{eventID}", eventHandler.Update)
					r.Delete("/{eventID}", eventHandler.Delete)
				})
			})
			log.Info("ROUTER", "Event routes registered under /api/events")

			r.Route("/registrations", func(r chi.Router) {
				r.Post("/event/{eventID}", registrationHandler.Register)
				r.Get("/event/{eventID}/status", registrationHandler.Status)
				r.Get("/mine", registrationHandler.ListMine)
				r.Delete("/{registrationID}", registrationHandler.Cancel)
				r.Get("/{registrationID}/pass", registrationHandler.Pass)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireOrganizer)
					r.Get("/event/{eventID}", registrationHandler.ListByEvent)
					r.Put("/{registrationID}/status", registrationHandler.UpdateStatus)
					r.Get("/pending", registrationHandler.ListPending)
				})
			})
			log.Info("ROUTER", "Registration routes registered under /api/registrations")

			r.Route("/reviews", func(r chi.Router) {
				r.Post("/event/{eventID}", reviewHandler.Create)
				r.Get("/event/{eventID}/mine", reviewHandler.MyReviewForEvent)
				r.Get("/event/{eventID}/eligibility", reviewHandler.Eligibility)
				r.Get("/mine", reviewHandler.ListMine)
				r.Put("/{reviewID}", reviewHandler.Update)
				r.Delete("/{reviewID}", reviewHandler.Delete)

				r.Route("/admin", func(r chi.Router) {
					r.Use(auth.RequireOrganizer)
					r.Get("/", reviewHandler.AllReviews)
					r.Get("/event/{eventID}", reviewHandler.AllEventReviews)
					r.Delete("/{reviewID}", reviewHandler.DeleteByModerator)
					r.Put("/{reviewID}/visibility", reviewHandler.SetVisibility)
				})
			})
			log.Info("ROUTER", "Review routes registered under /api/reviews")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Campus Event Hub running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Campus Event Hub shutdown complete")
	}

	if err := kafkaProducer.Close(); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Producer close failed: %v", err))
	}
}
