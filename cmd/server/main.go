package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"blog/internal/app"
	"blog/internal/auth"
	"blog/internal/db"
	"blog/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "blog",
	Short:         "Blog API server",
	Long:          "A small blog backend with JWT authentication and owner/admin access control.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what every command needs: config, logger and an open store.
type env struct {
	cfg   app.Config
	log   *slog.Logger
	store store.Store
	close func()
}

func setup(ctx context.Context, migrate bool) (*env, error) {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log := app.NewLogger(cfg.Log, os.Stderr)

	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory storage; data is lost on exit")
		return &env{cfg: cfg, log: log, store: store.NewMemory(), close: func() {}}, nil
	default:
		pool, err := db.Open(ctx, cfg.Storage.DatabaseURL, cfg.Storage.MaxConns)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &env{cfg: cfg, log: log, store: store.NewPostgres(pool), close: pool.Close}, nil
	}
}

func (e *env) authServices() (*auth.Service, *auth.Resolver, error) {
	hasher, err := auth.NewPasswordHasher(e.cfg.Auth.BcryptCost)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := auth.NewTokenService(e.cfg.TokenConfig())
	if err != nil {
		return nil, nil, err
	}
	svc, err := auth.NewService(e.store, hasher, tokens, e.log)
	if err != nil {
		return nil, nil, err
	}
	return svc, auth.NewResolver(tokens, e.store, e.log), nil
}
