package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()
		return c.Migrate(cmd.Context())
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo users and listings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Migrate(cmd.Context()); err != nil {
			return err
		}
		return c.Seed(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd)
}
