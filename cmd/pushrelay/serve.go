package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	server "github.com/kazz187/pushrelay/internal"
	"github.com/kazz187/pushrelay/internal/config"
	"github.com/kazz187/pushrelay/internal/pushnotification"
	"github.com/kazz187/pushrelay/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/pushrelay/pkg/clog"
	"github.com/kazz187/pushrelay/pkg/panicerr"
)

const shutdownTimeout = 10 * time.Second

func newLogger(env *config.Env, w io.Writer) *slog.Logger {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(w, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(clog.NewAttributesHandler(handler))
}

func runServe(ctx context.Context) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(env, os.Stderr))

	repo := repositoryimpl.NewMemoryRepository()
	transport := pushnotification.NewWebPushTransport(config.VAPIDEnvFromEnv(env), config.PushEnvFromEnv(env))
	sender := pushnotification.NewSender(transport)
	pushNotificationServer := pushnotification.NewServer(config.VAPIDEnvFromEnv(env), repo, sender)

	srv := server.NewServer(env, pushNotificationServer)

	errCh := make(chan error, 1)
	go func() {
		if err := panicerr.SafeContext(srv.ListenAndServe)(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
