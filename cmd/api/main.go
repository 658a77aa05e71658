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

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/dkravets/photoshare-service/internal/auth"
	"github.com/dkravets/photoshare-service/internal/config"
	"github.com/dkravets/photoshare-service/internal/handler"
	"github.com/dkravets/photoshare-service/internal/integrations/imagecdn"
	"github.com/dkravets/photoshare-service/internal/middleware"
	"github.com/dkravets/photoshare-service/internal/migrations"
	"github.com/dkravets/photoshare-service/internal/models"
	"github.com/dkravets/photoshare-service/internal/repository"
	"github.com/dkravets/photoshare-service/internal/service"
	"github.com/dkravets/photoshare-service/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	config.LoadEnv()
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	if err := migrations.Apply(db); err != nil {
		logger.Fatalf("Failed to apply migrations: %v", err)
	}

	repo := repository.NewRepository(db)

	// Token blacklist: redis with TTL expiry when configured, otherwise
	// the token_blacklist table with a scheduled purge.
	var blacklist auth.Blacklist
	scheduler := cron.New()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatalf("Failed to ping redis: %v", err)
		}
		defer rdb.Close()
		blacklist = auth.NewRedisBlacklist(rdb)
	} else {
		blacklist = auth.NewDBBlacklist(repo)
		if _, err := scheduler.AddFunc("@hourly", func() {
			purged, err := repo.PurgeExpiredTokens(context.Background())
			if err != nil {
				logger.Errorf("Blacklist purge failed: %v", err)
				return
			}
			logger.Debugf("Blacklist purge removed %d tokens", purged)
		}); err != nil {
			logger.Fatalf("Failed to schedule blacklist purge: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize layers
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	cdn := imagecdn.NewClient(cfg, logger)
	mail := email.NewSender(cfg, logger)
	svc := service.NewService(repo, logger, cfg, tokens, blacklist, cdn, mail)
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	// Public routes
	r.HandleFunc("/auth/signup", h.Signup).Methods("POST")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/auth/refresh", h.Refresh).Methods("POST")
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	}).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(tokens, blacklist, repo, logger))
	authRouter.HandleFunc("/auth/logout", h.Logout).Methods("POST")
	authRouter.HandleFunc("/users/me", h.Me).Methods("GET")
	authRouter.HandleFunc("/users/me", h.UpdateMe).Methods("PUT")
	authRouter.HandleFunc("/photos", h.UploadPhoto).Methods("POST")
	authRouter.HandleFunc("/photos/{id:[0-9]+}", h.UpdatePhoto).Methods("PUT")
	authRouter.HandleFunc("/photos/{id:[0-9]+}", h.DeletePhoto).Methods("DELETE")
	authRouter.HandleFunc("/photos/{id:[0-9]+}/tags", h.ReplaceTags).Methods("PUT")
	authRouter.HandleFunc("/photos/{id:[0-9]+}/transform", h.TransformPhoto).Methods("POST")
	authRouter.HandleFunc("/comments/{photo_id:[0-9]+}", h.CreateComment).Methods("POST")
	authRouter.HandleFunc("/comments/{id:[0-9]+}", h.UpdateComment).Methods("PUT")
	authRouter.HandleFunc("/comments/{id:[0-9]+}", h.DeleteComment).Methods("DELETE")
	authRouter.HandleFunc("/ratings/{photo_id:[0-9]+}", h.CreateRating).Methods("POST")
	authRouter.HandleFunc("/ratings/{id:[0-9]+}", h.DeleteRating).Methods("DELETE")

	// Admin routes
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AuthMiddleware(tokens, blacklist, repo, logger))
	adminRouter.Use(middleware.RequireRole(models.RoleAdmin))
	adminRouter.HandleFunc("/users/{id:[0-9]+}/ban", h.BanUser).Methods("PUT")
	adminRouter.HandleFunc("/users/{id:[0-9]+}/unban", h.UnbanUser).Methods("PUT")

	// Public reads
	r.HandleFunc("/photos", h.ListPhotos).Methods("GET")
	r.HandleFunc("/photos/search", h.SearchPhotos).Methods("GET")
	r.HandleFunc("/photos/user/{id:[0-9]+}", h.UserPhotos).Methods("GET")
	r.HandleFunc("/photos/{id:[0-9]+}", h.GetPhoto).Methods("GET")
	r.HandleFunc("/photos/{id:[0-9]+}/transformations", h.PhotoTransformations).Methods("GET")
	r.HandleFunc("/photos/{id:[0-9]+}/qr", h.PhotoQR).Methods("GET")
	r.HandleFunc("/comments/photo/{photo_id:[0-9]+}", h.PhotoComments).Methods("GET")
	r.HandleFunc("/ratings/photo/{photo_id:[0-9]+}", h.PhotoRating).Methods("GET")
	r.HandleFunc("/users/{username}", h.UserProfile).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
