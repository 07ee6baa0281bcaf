package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sjvdm/roadprog/internal/config"
	"github.com/sjvdm/roadprog/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directory and a default config file",
	Long: `Create the data directory and write roadprog.yaml with the default
configuration. Drop your suburb allocation GeoJSON at the configured
roster_path (data/suburbs.geojson by default) and you are ready to go.

Existing files are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		configPath := "roadprog.yaml"
		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("%s %s already exists, leaving it alone\n", ui.RenderWarn("⚠"), configPath)
		} else {
			if err := cfg.Write(configPath); err != nil {
				return err
			}
			fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), configPath)
		}

		fmt.Printf("%s Data directory: %s\n", ui.RenderPass("✓"), cfg.DataDir)
		if _, err := os.Stat(cfg.RosterPath); os.IsNotExist(err) {
			fmt.Printf("\nNext: place your suburb allocation GeoJSON at %s\n", cfg.RosterPath)
			fmt.Printf("(required properties: %s, %s)\n", cfg.NameColumn, cfg.AssignedColumn)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
