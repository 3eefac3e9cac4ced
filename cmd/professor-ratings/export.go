// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emw8105/professor-ratings-lambda/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a recorded run to YAML or JSON",
	Long: `Export writes one recorded run (the latest unless --run is given) with
its matches and unmatched names to run-<id>.yaml or run-<id>.json.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := bindAll(cmd, storeFlagKeys); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runID, _ := cmd.Flags().GetString("run")
	format, _ := cmd.Flags().GetString("format")
	dir, _ := cmd.Flags().GetString("dir")

	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = s.ExportYAML(cmd.Context(), runID, dir)
	case "json":
		path, err = s.ExportJSON(cmd.Context(), runID, dir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

func init() {
	exportCmd.Flags().String("run", "", "run id to export (default: latest run)")
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("dir", "", "output directory (default: the database directory)")
	addStoreFlags(exportCmd)

	rootCmd.AddCommand(exportCmd)
}
