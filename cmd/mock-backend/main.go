// Command mock-backend runs a deterministic OpenAI-compatible chat
// completion server for local development and integration testing.
//
// Configuration:
//
//	MOCK_PORT        - Listen port (default: 9090)
//	MOCK_TOKEN_DELAY - Delay between streamed tokens, e.g. 50ms (default: 0)
//	MOCK_API_KEY     - Require this Bearer token when set
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sklau6/RustLLMRunner/internal/mockbackend"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	opts := []mockbackend.Option{mockbackend.WithLogger(logger)}
	if v := os.Getenv("MOCK_TOKEN_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Fatal("invalid MOCK_TOKEN_DELAY", zap.String("value", v), zap.Error(err))
		}
		opts = append(opts, mockbackend.WithTokenDelay(d))
	}
	if key := os.Getenv("MOCK_API_KEY"); key != "" {
		opts = append(opts, mockbackend.WithAPIKey(key))
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mockbackend.New(opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("mock backend starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("mock backend failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}
