// Command worker runs background jobs: the Lodestone refresh schedule,
// one-off refreshes and lookups, migrations and demo seeding.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"raid-recruit/internal/app"
	"raid-recruit/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var logger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

var rootCmd = &cobra.Command{
	Use:           "worker",
	Short:         "raid-recruit background worker",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadContainer(ctx context.Context) (*app.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.NewContainer(ctx, cfg, logger)
}
