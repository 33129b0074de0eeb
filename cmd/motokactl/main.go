package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"motoka/internal/app"
	"motoka/internal/config"
	"motoka/pkg/logger"
	"motoka/pkg/metric"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "motokactl",
		Short:         "Operator tooling for the Motoka payment service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "Path to config file")

	open := func(ctx context.Context) (*app.Core, func(), error) {
		return openCore(ctx, configPath)
	}

	rootCmd.AddCommand(sweepCmd(open))
	rootCmd.AddCommand(verifyCmd(open))
	rootCmd.AddCommand(redispatchCmd(open))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

type coreOpener func(ctx context.Context) (*app.Core, func(), error)

func openCore(ctx context.Context, configPath string) (*app.Core, func(), error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("motokactl: --config or CONFIG_PATH is required")
	}

	cfg, err := config.LoadPath(configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("motokactl: init logger: %w", err)
	}

	core, err := app.NewCore(ctx, cfg, log.With("component", "motokactl"), metric.NewFactory())
	if err != nil {
		return nil, nil, err
	}

	return core, func() {
		core.Close()
		_ = log.Sync()
	}, nil
}
