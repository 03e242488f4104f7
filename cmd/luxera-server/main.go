package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"luxera/internal/httpapi"
	"luxera/internal/logger"
	"luxera/internal/photocache"

	_ "github.com/joho/godotenv/autoload"
)

func gracefulShutdown(srv *http.Server, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Default.Info("shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Default.Errorf("server forced to shutdown with error: %v", err)
	}

	logger.Default.Info("server exiting")
	done <- true
}

func main() {
	port := 8080
	if envPort := os.Getenv("PORT"); envPort != "" {
		if p, err := strconv.Atoi(envPort); err == nil {
			port = p
		}
	}

	resultsRoot := os.Getenv("LUXERA_RESULTS_ROOT")
	if resultsRoot == "" {
		resultsRoot = ".luxera/results"
	}

	var cache photocache.Cache
	if dbPath := os.Getenv("LUXERA_PHOTOCACHE_PATH"); dbPath != "" {
		c, err := photocache.Open(dbPath)
		if err != nil {
			logger.Default.Fatalf("opening photometry cache: %v", err)
		}
		cache = c
		defer c.Close()
	}

	api := httpapi.NewServer(httpapi.Config{
		ResultsRoot: resultsRoot,
		Cache:       cache,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	done := make(chan bool, 1)
	go gracefulShutdown(srv, done)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Default.Fatalf("http server error: %v", err)
	}

	<-done
	logger.Default.Info("graceful shutdown complete")
}
