package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"phistack/internal/capability"
	"phistack/internal/modelcache"
)

const confirmationYes = "yes"

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage locally cached model artifacts",
	}
	cmd.AddCommand(
		newCacheEnsureCmd(a),
		newCacheListCmd(a),
		newCacheClearCmd(a),
		&cobra.Command{
			Use:   "size",
			Short: "Print the total size of the cache",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := a.cacheManager(nil)
				if err != nil {
					return err
				}
				size, err := m.CacheSize()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", capability.FormatBytes(uint64(size)), size) //nolint:gosec // size is non-negative
				return nil
			},
		},
		newCacheStatsCmd(a),
		&cobra.Command{
			Use:   "verify <id>",
			Short: "Recompute an artifact digest and compare it with the recorded one",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := a.cacheManager(nil)
				if err != nil {
					return err
				}
				v, err := a.variant(args[0])
				if err != nil {
					return err
				}
				if err := m.Verify(v); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", v.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "evict-oldest",
			Short: "Remove the least recently used artifact",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := a.cacheManager(nil)
				if err != nil {
					return err
				}
				victim, err := m.EvictOldest()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Evicted %s (%s, last used %s)\n",
					victim.VariantID, capability.FormatBytes(uint64(victim.Size)), victim.LastUsed.Format(time.DateTime)) //nolint:gosec // size is non-negative
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Delete one cached artifact",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := a.cacheManager(nil)
				if err != nil {
					return err
				}
				v, err := a.variant(args[0])
				if err != nil {
					return err
				}
				if err := m.Remove(v); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", v.ID)
				return nil
			},
		},
	)
	return cmd
}

func newCacheEnsureCmd(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "ensure [id]",
		Short: "Fetch a variant's artifact unless it is already cached",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.cacheManager(nil)
			if err != nil {
				return err
			}
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			v, err := a.variant(id)
			if err != nil {
				return err
			}

			var progress chan modelcache.DownloadProgress
			done := make(chan struct{})
			if !quiet {
				progress = make(chan modelcache.DownloadProgress, 16)
				go func() {
					defer close(done)
					printProgress(cmd.ErrOrStderr(), progress)
				}()
			} else {
				close(done)
			}

			path, err := m.EnsureWithProgress(cmd.Context(), v, progress)
			if progress != nil {
				close(progress)
			}
			<-done
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	return cmd
}

func printProgress(w io.Writer, events <-chan modelcache.DownloadProgress) {
	for ev := range events {
		switch ev.Status {
		case modelcache.StatusStarted:
			fmt.Fprintf(w, "Fetching %s...\n", ev.VariantID)
		case modelcache.StatusProgress:
			if ev.TotalBytes > 0 {
				fmt.Fprintf(w, "\r  %5.1f%%  %s", ev.Percentage, capability.FormatBytes(uint64(ev.BytesDownloaded))) //nolint:gosec // byte counts are non-negative
			} else {
				fmt.Fprintf(w, "\r  %s", capability.FormatBytes(uint64(ev.BytesDownloaded))) //nolint:gosec // byte counts are non-negative
			}
		case modelcache.StatusCompleted:
			fmt.Fprintf(w, "\r  done   %s\n", capability.FormatBytes(uint64(ev.BytesDownloaded))) //nolint:gosec // byte counts are non-negative
		case modelcache.StatusFailed:
			fmt.Fprintf(w, "\n  failed: %s\n", ev.Error)
		}
	}
}

func newCacheListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cached artifacts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.cacheManager(nil)
			if err != nil {
				return err
			}
			cached, uncatalogued, err := m.CachedVariants(a.catalog)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cached) == 0 && len(uncatalogued) == 0 {
				fmt.Fprintf(out, "No artifacts cached in %s\n", m.Root())
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VARIANT\tREPO")
			for _, v := range cached {
				fmt.Fprintf(w, "%s\t%s\n", v.ID, v.Repo)
			}
			for _, repo := range uncatalogued {
				fmt.Fprintf(w, "-\t%s\n", repo)
			}
			return w.Flush()
		},
	}
}

func newCacheClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.cacheManager(nil)
			if err != nil {
				return err
			}
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "This removes everything under %s. Type '%s' to confirm: ", m.Root(), confirmationYes)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(strings.ToLower(answer)) != confirmationYes {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			if err := m.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newCacheStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.cacheManager(nil)
			if err != nil {
				return err
			}
			stats, err := m.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache Statistics for %s:\n\n", stats.Root)
			fmt.Fprintf(out, "  Artifacts:  %d\n", stats.ArtifactCount)
			fmt.Fprintf(out, "  Total Size: %s\n", capability.FormatBytes(uint64(stats.TotalSize))) //nolint:gosec // size is non-negative
			if stats.Oldest != nil {
				fmt.Fprintf(out, "\nLeast Recently Used:\n")
				fmt.Fprintf(out, "  Variant:    %s\n", stats.Oldest.VariantID)
				fmt.Fprintf(out, "  Size:       %s\n", capability.FormatBytes(uint64(stats.Oldest.Size))) //nolint:gosec // size is non-negative
				fmt.Fprintf(out, "  Last Used:  %s\n", stats.Oldest.LastUsed.Format(time.DateTime))
				fmt.Fprintf(out, "  Age:        %s\n", time.Since(stats.Oldest.LastUsed).Round(time.Second))
			}
			return nil
		},
	}
}
