package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/cadenzaschool/backend/docs"
	"github.com/cadenzaschool/backend/internal/auth"
	"github.com/cadenzaschool/backend/internal/config"
	"github.com/cadenzaschool/backend/internal/handlers"
	"github.com/cadenzaschool/backend/internal/logger"
	"github.com/cadenzaschool/backend/internal/metrics"
	appMiddleware "github.com/cadenzaschool/backend/internal/middleware"
	"github.com/cadenzaschool/backend/internal/models"
	"github.com/cadenzaschool/backend/internal/notifications"
	"github.com/cadenzaschool/backend/internal/repositories"
	"github.com/cadenzaschool/backend/internal/services"
)

// @title Cadenza Booking API
// @version 1.0
// @description API for music lesson booking and scheduling

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting Cadenza Booking Service")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize JWT token generator
	tokenGenerator := auth.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize repositories
	lessonRepo := repositories.NewLessonRepository(db)
	teacherRepo := repositories.NewTeacherRepository(db)

	// Register Prometheus collectors
	metrics.Register()

	// Initialize notification bus and inbox
	bus := notifications.NewBus()
	inbox := notifications.NewInbox(50)
	bus.Subscribe(inbox.Handle)
	bus.Subscribe(func(event notifications.Event) {
		zapLogger.Info("notification published",
			zap.String("type", event.Type),
			zap.String("lesson_id", event.LessonID),
			zap.Int("recipient_id", event.RecipientID))
	})

	// Initialize services
	availabilityService := services.NewAvailabilityService(teacherRepo, lessonRepo, cfg.Booking.HorizonDays, cfg.Booking.SlotStepMinutes)
	lessonService := services.NewLessonService(lessonRepo, teacherRepo, bus, zapLogger, cfg.Booking.HorizonDays)
	bookingDraftService := services.NewBookingDraftService(teacherRepo, availabilityService, lessonService, cfg.Booking.DraftTTL, zapLogger)

	// Expire abandoned drafts in the background
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	bookingDraftService.StartCleanup(cleanupCtx, 5*time.Minute)

	// Initialize handlers
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService, zapLogger)
	lessonHandler := handlers.NewLessonHandler(lessonService, zapLogger)
	bookingDraftHandler := handlers.NewBookingDraftHandler(bookingDraftService, zapLogger)
	notificationHandler := handlers.NewNotificationHandler(inbox, zapLogger)

	// Initialize auth middleware
	authMiddleware := auth.Middleware(tokenGenerator)
	studentMiddleware := auth.RequireRole(int(models.RoleStudent), int(models.RoleAdmin))

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(appMiddleware.RequestID)
	r.Use(appMiddleware.Logger(zapLogger))
	r.Use(appMiddleware.Recovery(zapLogger))
	r.Use(appMiddleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(appMiddleware.RequestSizeLimit(1 * 1024 * 1024)) // 1MB

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		// Availability, lessons and notifications for any authenticated participant
		availabilityHandler.RegisterRoutes(r, authMiddleware)
		lessonHandler.RegisterRoutes(r, authMiddleware)
		notificationHandler.RegisterRoutes(r, authMiddleware)
		// Booking drafts are a student flow
		bookingDraftHandler.RegisterRoutes(r, func(next http.Handler) http.Handler {
			return authMiddleware(studentMiddleware(next))
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "booking_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
