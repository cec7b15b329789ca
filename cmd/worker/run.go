package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"raid-recruit/internal/scheduler"

	"github.com/spf13/cobra"
)

var runSpec string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduled Lodestone refresh until interrupted",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSpec, "spec", "", "Cron spec (overrides LODESTONE_REFRESH_SPEC)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := loadContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	spec := runSpec
	if spec == "" {
		spec = c.Config.Lodestone.RefreshSpec
	}

	s := scheduler.New(spec, c.Refresher(), logger)
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	s.Stop()
	return nil
}
