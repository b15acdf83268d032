package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"phistack/internal/diag"
)

func newDiagCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "diag",
		Short: "Write a redacted support bundle (config, system profile, cache stats, log)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				output = diag.DefaultOutputPath()
			}

			cfgYAML, err := a.cfg.Marshal()
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}

			in := diag.Inputs{
				Version: version,
				Config:  cfgYAML,
				Profile: a.advisor(nil).Snapshot(cmd.Context()),
				LogFile: a.cfg.Logging.File,
			}

			if m, err := a.cacheManager(nil); err != nil {
				a.logger.Warn("diag.cache.unavailable", "Cache manager unavailable", map[string]interface{}{
					"error": err.Error(),
				})
			} else if stats, err := m.Stats(); err != nil {
				a.logger.Warn("diag.cache.stats_failed", "Failed to read cache stats", map[string]interface{}{
					"error": err.Error(),
				})
			} else {
				in.CacheStats = stats
			}

			if err := diag.NewPackager(a.logger).CreatePackage(in, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Diagnostic bundle written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "bundle path (default: phistack-diag-<timestamp>.zip)")
	return cmd
}
