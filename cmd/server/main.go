package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Brownie44l1/xray-api/internal/assets"
	"github.com/Brownie44l1/xray-api/internal/config"
	"github.com/Brownie44l1/xray-api/internal/handlers"
	"github.com/Brownie44l1/xray-api/internal/logger"
	"github.com/Brownie44l1/xray-api/internal/metrics"
	"github.com/Brownie44l1/xray-api/internal/model"
	"github.com/Brownie44l1/xray-api/internal/router"
	"github.com/Brownie44l1/xray-api/internal/stats"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.Server.Mode)

	labels, err := model.LoadLabels(cfg.Model.LabelsPath)
	if err != nil {
		return fmt.Errorf("failed to load labels from %s: %w", cfg.Model.LabelsPath, err)
	}

	log.Info("Loading model", zap.String("path", cfg.Model.Path), zap.Strings("classes", labels))

	modelServer, err := model.NewServer(model.Options{
		ModelPath:         cfg.Model.Path,
		SharedLibraryPath: cfg.Model.SharedLibraryPath,
		InputName:         cfg.Model.InputName,
		OutputName:        cfg.Model.OutputName,
	}, labels)
	if err != nil {
		return fmt.Errorf("failed to initialize model server: %w", err)
	}
	defer modelServer.Close()

	classifier, err := model.NewClassifier(modelServer, labels)
	if err != nil {
		return err
	}

	fetchCtx, cancelFetch := context.WithTimeout(context.Background(), cfg.Assets.FetchTimeout)
	animation := assets.NewFetcher(cfg.Assets.FetchTimeout, log).Animation(fetchCtx, cfg.Assets.AnimationURL)
	cancelFetch()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	h := handlers.NewHandler(handlers.Options{
		Classifier: classifier,
		Info:       modelServer.Info(),
		Stats: stats.New(stats.Counts{
			TruePositives:  cfg.Stats.TruePositives,
			FalsePositives: cfg.Stats.FalsePositives,
			FalseNegatives: cfg.Stats.FalseNegatives,
			TrueNegatives:  cfg.Stats.TrueNegatives,
		}),
		Animation:      animation,
		Metrics:        m,
		Logger:         log,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	r, err := router.Setup(h, m, reg, log)
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-quit:
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
