package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/chaos-io/rmbg/api"
	"github.com/chaos-io/rmbg/config"
	"github.com/chaos-io/rmbg/rembg"
	"github.com/chaos-io/rmbg/scratch"
	nhttp "github.com/chaos-io/rmbg/util/http"
	"github.com/chaos-io/rmbg/util/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("RMBG_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableCaller,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)

	appLogger.Info("Starting rmbg service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("rembg", cfg.RemBG.BaseURL),
	)

	cli := nhttp.NewHTTPClient()

	stager := scratch.NewDir(cfg.Scratch.Dir, cli, appLogger)
	janitor, err := stager.StartJanitor(cfg.Scratch.SweepSpec, cfg.Scratch.MaxAge)
	if err != nil {
		return err
	}
	defer janitor.Stop()

	remover := rembg.NewGradioRemBG(
		rembg.WithBaseURL(cfg.RemBG.BaseURL),
		rembg.WithTriggerID(cfg.RemBG.TriggerID),
		rembg.WithFnIndex(cfg.RemBG.FnIndex),
		rembg.WithPollTimeout(cfg.RemBG.PollTimeout),
		rembg.WithClient(cli),
		rembg.WithLogger(appLogger),
	)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.SetupRouter(&api.Dependencies{
		Logger:  appLogger,
		Stager:  stager,
		Remover: remover,
		AppName: cfg.App.Name,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP server listening", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", slog.Any("error", err))
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}
