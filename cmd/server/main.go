package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"github.com/on-their-footsteps/backend/internal/cache"
	"github.com/on-their-footsteps/backend/internal/config"
	"github.com/on-their-footsteps/backend/internal/handlers"
	"github.com/on-their-footsteps/backend/internal/middleware"
	"github.com/on-their-footsteps/backend/internal/monitoring"
	"github.com/on-their-footsteps/backend/internal/repository"
	"github.com/on-their-footsteps/backend/internal/seed"
	"github.com/on-their-footsteps/backend/internal/service"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	slog.Info("Application starting...")

	db, err := repository.NewDB(cfg.Database, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	if err := seed.Run(db, logger); err != nil {
		slog.Error("Error seeding reference data", slog.Any("error", err))
		os.Exit(1)
	}

	// Dependency injection.
	appCache := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	monitor := monitoring.New(appCache)

	userRepo := repository.NewGormUserRepository()
	characterRepo := repository.NewGormCharacterRepository()
	learningRepo := repository.NewGormLearningRepository()
	progressRepo := repository.NewGormProgressRepository()
	teamRepo := repository.NewGormTeamRepository()
	pipelineRepo := repository.NewGormPipelineRepository()

	authService := service.NewAuthService(db, userRepo, cfg.Auth)
	characterService := service.NewCharacterService(db, characterRepo, teamRepo, appCache)
	learningService := service.NewLearningService(db, learningRepo, userRepo)
	progressService := service.NewProgressService(db, progressRepo, learningRepo, userRepo, appCache)
	pipelineService := service.NewPipelineService(db, pipelineRepo, teamRepo)
	adminService := service.NewAdminService(db, userRepo, characterRepo, pipelineRepo, teamRepo, appCache, monitor)

	fileStore := handlers.NewFileStore(cfg.Upload)

	authHandler := handlers.NewAuthHandler(authService, logger)
	characterHandler := handlers.NewCharacterHandler(characterService, logger)
	learningHandler := handlers.NewLearningHandler(learningService, logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger)
	pipelineHandler := handlers.NewPipelineHandler(pipelineService, fileStore, logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger)

	// Router.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewStructuredLogger(logger))
	r.Use(monitor.Middleware)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes.
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/guest", authHandler.GuestLogin)

		r.Get("/characters", characterHandler.ListCharacters)
		r.Get("/characters/{characterID}", characterHandler.GetCharacter)

		r.Get("/learning/paths", learningHandler.ListPaths)
		r.Get("/learning/paths/{pathID}/lessons", learningHandler.ListLessons)
		r.Get("/learning/lessons/{lessonID}", learningHandler.GetLesson)
		r.Get("/learning/companions", learningHandler.ListCompanions)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService))

			r.Get("/auth/me", authHandler.Me)

			r.Post("/learning/companions/{companionID}/select", learningHandler.SelectCompanion)
			r.Post("/learning/path/select", learningHandler.SelectPath)

			r.Get("/progress/lessons", progressHandler.ListLessonProgress)
			r.Post("/progress/lessons/{lessonID}", progressHandler.SubmitLessonProgress)
			r.Post("/progress/lessons/{lessonID}/skip-quiz", progressHandler.SkipQuiz)
			r.Get("/progress/stories", progressHandler.ListStoryProgress)
			r.Post("/progress/stories/{characterID}", progressHandler.UpdateStoryProgress)

			r.Post("/characters", characterHandler.CreateCharacter)

			// Content-production pipeline.
			r.Route("/pipeline", func(r chi.Router) {
				r.Post("/productions", pipelineHandler.CreateProduction)
				r.Get("/productions", pipelineHandler.ListProductions)
				r.Get("/productions/{productionID}", pipelineHandler.GetProduction)
				r.Get("/productions/{productionID}/status", pipelineHandler.GetPipelineStatus)
				r.Post("/productions/{productionID}/scripts", pipelineHandler.CreateScript)
				r.Post("/productions/{productionID}/publish", pipelineHandler.Publish)

				r.Post("/scripts/{scriptID}/submit", pipelineHandler.SubmitScript)
				r.Post("/scripts/{scriptID}/approve", pipelineHandler.ApproveScript)
				r.Post("/scripts/{scriptID}/reject", pipelineHandler.RejectScript)

				r.Post("/illustrations", pipelineHandler.CreateIllustration)
				r.Post("/illustrations/{illustrationID}/upload", pipelineHandler.UploadIllustrationFile)
				r.Post("/voice-recordings", pipelineHandler.CreateVoiceRecording)
				r.Post("/voice-recordings/{recordingID}/upload", pipelineHandler.UploadVoiceAudio)
				r.Post("/animations", pipelineHandler.CreateAnimation)
				r.Post("/animations/{animationID}/upload", pipelineHandler.UploadAnimationFile)

				r.Get("/platforms", pipelineHandler.ListPlatforms)
			})

			// Superuser-only management surface.
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/stats", adminHandler.Stats)
				r.Get("/users", adminHandler.ListUsers)
				r.Patch("/users/{userID}", adminHandler.PatchUser)
				r.Post("/users/{userID}/reset-password", adminHandler.ResetUserPassword)
				r.Patch("/characters/{characterID}", adminHandler.PatchCharacter)
				r.Delete("/characters/{characterID}", adminHandler.DeleteCharacter)
				r.Post("/team/members", adminHandler.AddTeamMember)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := sqlDB.PingContext(req.Context()); err != nil {
			slog.ErrorContext(req.Context(), "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", monitor.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}
	slog.Info("Server exiting")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(cfg.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" || strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
	}
	return slog.New(handler)
}
