package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/app"
	"github.com/noah-isme/classpilot-go/internal/config"
	"github.com/noah-isme/classpilot-go/internal/database"
	"github.com/noah-isme/classpilot-go/internal/gateway"
	"github.com/noah-isme/classpilot-go/internal/tokenstore"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, closeTokens, err := openTokenStore(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open token store")
		return 1
	}
	defer closeTokens()

	gw, err := gateway.New(gateway.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout, Logger: logger})
	if err != nil {
		logger.Error().Err(err).Msg("failed to create api client")
		return 1
	}

	in := bufio.NewReader(os.Stdin)
	cli := &commandLine{in: in, out: os.Stdout, readPassword: readPasswordFunc}
	client, err := app.New(ctx, app.Deps{
		Gateway:   gw,
		Tokens:    tokens,
		Confirmer: cli.confirmer(),
		Logger:    logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to start client")
		return 1
	}
	cli.app = client

	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		}
		return 1
	}
	return 0
}

func openTokenStore(ctx context.Context, cfg config.Config) (tokenstore.Store, func(), error) {
	opts := tokenstore.Options{Backend: cfg.TokenStore, FilePath: cfg.TokenFile, RedisKey: cfg.TokenKey}
	closeFn := func() {}

	if cfg.TokenStore == tokenstore.BackendRedis {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		opts.Redis = client
		closeFn = func() { _ = client.Close() }
	}

	store, err := tokenstore.New(opts)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}
