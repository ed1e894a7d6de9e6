package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/gophsync/internal/client/api"
	"github.com/iudanet/gophsync/internal/client/auth"
	"github.com/iudanet/gophsync/internal/client/cli"
	"github.com/iudanet/gophsync/internal/client/data"
	"github.com/iudanet/gophsync/internal/client/iocli"
	"github.com/iudanet/gophsync/internal/client/storage/boltdb"
	"github.com/iudanet/gophsync/internal/config"
	"github.com/iudanet/gophsync/internal/crypto"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gophsync", flag.ExitOnError)
	fs.Usage = cli.PrintUsage
	cfg := config.RegisterClientFlags(fs)
	showVersion := fs.Bool("version", false, "Show version information")
	if err := config.Parse(fs, args); err != nil {
		return err
	}
	if *showVersion {
		printVersion()
		return nil
	}

	if fs.NArg() == 0 {
		cli.PrintUsage()
		return errors.New("missing command")
	}
	command := fs.Arg(0)
	if command == "help" {
		cli.PrintUsage()
		return nil
	}

	cfg.LoadPassphrase()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Открываем BoltDB storage
	store, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	dataOpts := []data.Option{data.WithLogger(logger)}
	if cfg.Passphrase != "" {
		key, err := crypto.DeriveKey(cfg.Passphrase, cfg.Collection)
		if err != nil {
			return fmt.Errorf("failed to derive encryption key: %w", err)
		}
		sealer, err := crypto.NewSealer(key)
		if err != nil {
			return err
		}
		dataOpts = append(dataOpts, data.WithSealer(sealer))
	}
	dataService, err := data.NewService(ctx, store, store, dataOpts...)
	if err != nil {
		return err
	}

	// токен проверяется пробным pull одного документа
	authService := auth.NewService(store, auth.CheckerFunc(func(ctx context.Context, serverURL, token string) error {
		_, err := api.NewClient(serverURL, cfg.Collection, token, logger).Pull(ctx, nil, 1)
		return err
	}))

	masters := newMasterFactory(cfg, store, authService, logger)
	defer masters.Close()

	c := cli.New(cli.Deps{
		IO:          iocli.NewStdio(),
		DataService: dataService,
		AuthService: authService,
		SyncFactory: masters.SyncService,
		Logger:      logger,
		Collection:  cfg.Collection,
		ServerURL:   cfg.ServerURL,
		MetricsAddr: cfg.MetricsAddr,
	})
	return c.Run(ctx, command, fs.Args()[1:])
}

func printVersion() {
	fmt.Printf("gophsync client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
