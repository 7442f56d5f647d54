// Package main provides the CLI tool for bizmatch-service: run a query
// resolution or a card extraction from the terminal without standing up
// the HTTP server.
//
// Run with: go run ./cmd/cli resolve "plumber in davidson"
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/bizmatch-service/internal/config"
	"github.com/fleveque/bizmatch-service/internal/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bizmatch-cli",
		Short: "Business-directory query tools",
	}

	root.AddCommand(resolveCmd())
	root.AddCommand(extractCardCmd())
	return root
}

func resolveCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "resolve <query>",
		Short: "Resolve a query against the business directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(args[0], timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "end-to-end resolution budget")
	return cmd
}

func runResolve(query string, timeout time.Duration) error {
	deps, cleanup, logger, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	env, err := deps.Resolver.Resolve(ctx, query)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", query, err)
	}

	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func extractCardCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "extract-card <image-url>",
		Short: "Extract business-card details from an image URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractCard(args[0], timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 25*time.Second, "extraction budget")
	return cmd
}

func runExtractCard(imageURL string, timeout time.Duration) error {
	deps, cleanup, logger, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = logger.Sync() }()

	if deps.CardService == nil {
		return fmt.Errorf("no vision-capable provider configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	card := deps.CardService.Extract(ctx, imageURL)
	out, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// setup loads .env credentials, config and wires the dependency graph.
func setup() (server.Deps, func(), *zap.Logger, error) {
	// .env is optional — ignore a missing file, same as the crawlers do.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("BIZMATCH_CONFIG_PATH"))
	if err != nil {
		return server.Deps{}, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return server.Deps{}, nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	deps, cleanup, err := server.BuildDeps(context.Background(), cfg, logger)
	if err != nil {
		return server.Deps{}, nil, nil, err
	}
	return deps, cleanup, logger, nil
}
