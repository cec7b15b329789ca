package main

import (
	"encoding/json"
	"os"
	"time"

	"raid-recruit/internal/config"
	"raid-recruit/internal/infrastructure/lodestone"

	"github.com/spf13/cobra"
)

var (
	lookupBaseURL  string
	lookupHeadless bool
	lookupTimeout  time.Duration
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <lodestone-id>",
	Short: "Fetch a Lodestone character and print the parsed fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&lookupBaseURL, "base-url", lodestone.DefaultBaseURL, "Lodestone base URL")
	lookupCmd.Flags().BoolVar(&lookupHeadless, "headless", false, "Fetch with headless Chrome")
	lookupCmd.Flags().DurationVar(&lookupTimeout, "timeout", lodestone.DefaultTimeout, "Request timeout")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	client := lodestone.NewClient(config.LodestoneConfig{
		BaseURL:  lookupBaseURL,
		Headless: lookupHeadless,
		Timeout:  lookupTimeout,
	}, logger)

	ch, err := client.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ch)
}
