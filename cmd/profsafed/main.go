package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"profsafe-backend/config"
	"profsafe-backend/internal/api"
	"profsafe-backend/internal/auth"
	"profsafe-backend/internal/db"
	"profsafe-backend/internal/journal"
	"profsafe-backend/internal/metrics"
	"profsafe-backend/internal/notification"
	"profsafe-backend/internal/store"
	"profsafe-backend/internal/throttle"
)

const (
	pruneInterval = time.Minute
	clientIdleTTL = 30 * time.Minute
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "profsafe ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded from %s", configPath)

	metrics.Init()

	loc, err := time.LoadLocation(cfg.Alerts.Timezone)
	if err != nil {
		logger.Printf("unknown timezone %q, using local time: %v", cfg.Alerts.Timezone, err)
		loc = time.Local
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}

	var creds *auth.Credentials
	if cfg.Auth.Enabled {
		creds, err = auth.NewCredentials(cfg.Auth.Username, cfg.Auth.Password, cfg.Auth.PasswordHash)
		if err != nil {
			logger.Fatalf("invalid central credentials: %v", err)
		}
	} else {
		logger.Println("WARNING: central authentication is disabled")
	}

	sessions, err := auth.NewSessionManager([]byte(cfg.Auth.SessionSecret), cfg.Auth.SessionIdle, cfg.Auth.SecureCookie)
	if err != nil {
		logger.Fatalf("failed to create session manager: %v", err)
	}

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys not configured; browser push disabled")
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpClient := notification.NewHTTPClient(cfg.Notification.HTTPProxy)
	channels := []notification.Channel{
		notification.NewTelegramChannel(cfg.Telegram, httpClient),
		notification.NewSMSChannel(cfg.SMS, httpClient),
		notification.NewWebPushChannel(gormDB, webpushOptions),
	}
	for _, ch := range channels {
		logger.Printf("notification channel %s enabled=%t", ch.Name(), ch.Enabled())
	}
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, channels,
		notification.WithTimeout(cfg.Notification.Timeout),
		notification.WithQueueSize(cfg.Notification.QueueSize),
	)
	pool.Start(ctx)

	alertStore := store.New(
		store.WithLocation(loc),
		store.WithTimestampLayout(cfg.Alerts.TimestampLayout),
		store.WithSchool(store.School{
			Name:    cfg.School.Name,
			CNPJ:    cfg.School.CNPJ,
			Address: cfg.School.Address,
			Phone:   cfg.School.Phone,
		}),
	)

	loginThrottle := throttle.New(
		throttle.WithThreshold(cfg.Auth.MaxFailedAttempts),
		throttle.WithLockDuration(cfg.Auth.LockoutDuration),
	)

	handler := api.NewHandler(api.Options{
		Store:           alertStore,
		Throttle:        loginThrottle,
		Credentials:     creds,
		Sessions:        sessions,
		AuthEnabled:     cfg.Auth.Enabled,
		Journal:         journal.NewGormJournal(gormDB),
		Notifier:        pool,
		DB:              gormDB,
		WebPush:         webpushOptions,
		Location:        loc,
		TimestampLayout: cfg.Alerts.TimestampLayout,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})

	// Initialize router
	router, err := api.NewRouter(handler, cfg.Server)
	if err != nil {
		logger.Fatalf("failed to build router: %v", err)
	}
	go pruneLoop(ctx, logger, loginThrottle, handler)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	cancel()

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Println("Server gracefully stopped")
}

// pruneLoop drops expired lockouts and idle rate limiter entries.
func pruneLoop(ctx context.Context, logger *log.Logger, t *throttle.LoginThrottle, h *api.Handler) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := t.Prune(); n > 0 {
				logger.Printf("pruned %d expired login locks", n)
			}
			h.PruneClients(clientIdleTTL)
		case <-ctx.Done():
			return
		}
	}
}
