package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"blog/internal/blog"
	httpx "blog/internal/http"
	"blog/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Apply the schema, then serve the blog API until SIGINT or SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer e.close()

	authSvc, resolver, err := e.authServices()
	if err != nil {
		return err
	}

	if !e.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := httpx.NewServer(e.cfg, httpx.Deps{
		Auth:     authSvc,
		Resolver: resolver,
		Blog:     blog.NewService(e.store, e.log),
		Metrics:  metrics.New(),
		Log:      e.log,
	})

	hs := &http.Server{
		Addr:              e.cfg.Addr,
		Handler:           httpx.WithTimeout(srv, e.cfg.HTTP.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      e.cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		e.log.Info("listening", "addr", e.cfg.Addr, "storage", e.cfg.Storage.Driver, "env", e.cfg.Env)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	e.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}
