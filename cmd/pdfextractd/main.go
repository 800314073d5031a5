package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/extract"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/registry"
	repo "github.com/joseph-ayodele/pdf-data-extractor/internal/repository"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := common.NewLogger(os.Stdout, cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := repo.OpenKVStore(ctx, repo.ConfigFromStore(cfg.Store), logger)
	if err != nil {
		logger.Error("failed to open parser store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := registry.New(ctx, store, logger)
	srv := server.NewServer(reg, extract.New(cfg.Extract, logger), logger, cfg.Server)

	// gRPC health
	health := server.NewHealthServer(logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		if err := health.Serve(lis); err != nil {
			logger.Error("grpc serve", "error", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP serving", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()
	health.SetServing(true)

	<-ctx.Done()
	logger.Info("shutting down...")
	health.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	health.Stop()
	logger.Info("stopped")
}
