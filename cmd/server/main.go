package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	apphttp "github.com/amakane-hakari/suimon/internal/api/http"
	"github.com/amakane-hakari/suimon/internal/cache"
	ilog "github.com/amakane-hakari/suimon/internal/log"
	"github.com/amakane-hakari/suimon/internal/metrics"
)

func main() {
	logger := ilog.New()

	addr := getEnv("SUIMON_HTTP_ADDR", ":8080")
	size := getEnvInt("SUIMON_CACHE_SIZE", 100_000)

	c, err := cache.NewWithSize[string](size,
		cache.WithLogger(logger),
		cache.WithMetrics(metrics.NewProm("suimon")),
	)
	if err != nil {
		logger.Error("cache init failed", "err", err)
		os.Exit(1)
	}
	defer c.Close()

	router := apphttp.NewRouter(c, logger)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", "addr", addr, "cache_size", size)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}

	apphttp.SetDraining(true)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	} else {
		logger.Info("server stopped")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
