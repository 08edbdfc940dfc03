package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yudhapratama/learnhub/internal/api"
	"github.com/yudhapratama/learnhub/internal/app"
	"github.com/yudhapratama/learnhub/internal/app/maintenance"
	iauth "github.com/yudhapratama/learnhub/internal/auth"
	"github.com/yudhapratama/learnhub/internal/database"
	"github.com/yudhapratama/learnhub/internal/services"
	"github.com/yudhapratama/learnhub/internal/uploads"
	"github.com/yudhapratama/learnhub/pkg/logger"
	"github.com/yudhapratama/learnhub/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("learnhub-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	tokenSvc, err := iauth.NewTokenService(cfg.TokenConfig())
	if err != nil {
		return fmt.Errorf("initialise token service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.SMTPSettings())
	if err != nil {
		return fmt.Errorf("initialise mailer: %w", err)
	}

	verificationSvc, err := services.NewVerificationService(db, mailer,
		services.WithVerificationBaseURL(cfg.App.FrontendURL),
		services.WithVerificationExpiry(cfg.Auth.Verification.TokenTTL),
	)
	if err != nil {
		return fmt.Errorf("initialise verification service: %w", err)
	}

	authSvc, err := services.NewAuthService(db, tokenSvc, verificationSvc, mailer)
	if err != nil {
		return fmt.Errorf("initialise auth service: %w", err)
	}

	uploadSvc, err := uploads.NewService(cfg.UploadsServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise uploads: %w", err)
	}

	courseSvc, err := services.NewCourseService(db, uploadSvc)
	if err != nil {
		return fmt.Errorf("initialise course service: %w", err)
	}

	var googleProvider *iauth.GoogleProvider
	if googleCfg := cfg.GoogleConfig(); googleCfg.Enabled() {
		googleProvider, err = iauth.NewGoogleProvider(ctx, googleCfg)
		if err != nil {
			return fmt.Errorf("initialise google oauth: %w", err)
		}
		log.Info("google oauth enabled")
	} else {
		log.Info("google oauth disabled; client credentials not configured")
	}

	cleaner := maintenance.NewCleaner(verificationSvc)
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		stopCtx := cleaner.Stop()
		if err := cleaner.RunOnce(stopCtx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}()

	router, err := api.NewRouter(
		api.Dependencies{
			DB:      db,
			Tokens:  tokenSvc,
			Auth:    authSvc,
			Courses: courseSvc,
			Google:  googleProvider,
		},
		api.Options{
			Cookies:     cfg.CookieConfig(tokenSvc),
			BaseURL:     cfg.App.BaseURL,
			FrontendURL: cfg.App.FrontendURL,
			UploadsDir:  uploadSvc.Dir(),
		},
	)
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.DatabaseConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
