package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/dmitrijs2005/asthmaguard/internal/admin/cli"
	"github.com/dmitrijs2005/asthmaguard/internal/flagx"
	"github.com/dmitrijs2005/asthmaguard/internal/logging"
	"github.com/dmitrijs2005/asthmaguard/internal/server"
	"github.com/dmitrijs2005/asthmaguard/internal/server/auth"
	"github.com/dmitrijs2005/asthmaguard/internal/server/config"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/asthmaguard/internal/server/services"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()
	args := flagx.StripArgs(os.Args[1:], slices.Concat(flagx.ConfigFileFlags, config.Flags))

	logger := logging.NewJSON(io.Discard, cfg.LogLevel)
	if cfg.LogLevel == "debug" {
		logger = logging.NewJSON(os.Stderr, cfg.LogLevel)
	}

	m := repomanager.NewPostgresRepositoryManager()
	db, err := server.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.SigningAlgorithm, cfg.AccessTokenValidityDuration)
	if err != nil {
		return err
	}

	users := services.NewUserService(db, m, tokens, cfg.AccessTokenValidityDuration, logger)
	migrate := func(ctx context.Context) error { return m.RunMigrations(ctx, db) }

	return cli.NewApp(users, migrate, os.Stdin, os.Stdout).Run(ctx, args)
}
