package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"phistack/internal/capability"
	"phistack/internal/catalog"
	"phistack/internal/gpu"
)

func newSystemCmd(a *app) *cobra.Command {
	var gpuReport string

	cmd := &cobra.Command{
		Use:   "system",
		Short: "Show host memory, disk, CPU and accelerator information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			p := a.advisor(nil).Snapshot(cmd.Context())
			printProfile(out, p)

			if gpuReport == "" {
				return nil
			}
			report := gpu.NewDetector(a.logger).DetectGPUs()
			if err := gpu.SaveReport(report, gpuReport, a.logger); err != nil {
				return err
			}
			fmt.Fprintf(out, "GPU report written to %s (%d devices, %d MB)\n", gpuReport, report.DeviceCount(), report.TotalMemoryMB())
			return nil
		},
	}
	cmd.Flags().StringVar(&gpuReport, "gpu-report", "", "also write the NVML GPU report as JSON to this path")
	return cmd
}

func printProfile(w io.Writer, p capability.SystemProfile) {
	fmt.Fprintln(w, "System Information:")
	fmt.Fprintf(w, "  Memory:    %s available of %s\n", capability.FormatBytes(p.MemAvailable), capability.FormatBytes(p.MemTotal))
	fmt.Fprintf(w, "  Disk:      %s available of %s\n", capability.FormatBytes(p.DiskAvailable), capability.FormatBytes(p.DiskTotal))
	fmt.Fprintf(w, "  CPU cores: %d\n", p.CPUCores)
	fmt.Fprintf(w, "  CUDA:      %s\n", yesNo(p.Accelerators.CUDA))
	fmt.Fprintf(w, "  Metal:     %s\n", yesNo(p.Accelerators.Metal))
	fmt.Fprintf(w, "  Vulkan:    %s\n", yesNo(p.Accelerators.Vulkan))
	fmt.Fprintf(w, "  Backend:   %s\n", capability.RecommendedBackend(p))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newCheckCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "check [id]",
		Short: "Check whether this host can run a variant",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			p := a.advisor(nil).Snapshot(cmd.Context())

			if all {
				runnable := capability.RunnableVariants(p, a.catalog)
				if len(runnable) == 0 {
					fmt.Fprintln(out, "No catalog variant fits this host.")
					return nil
				}
				fmt.Fprintf(out, "Variants this host can run (%d of %d):\n", len(runnable), a.catalog.Len())
				for _, v := range runnable {
					fmt.Fprintf(out, "  %-10s %s (%gB)\n", v.ID, v.DisplayName, v.ParamsBillions)
				}
				return nil
			}

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			v, err := a.variant(id)
			if err != nil {
				return err
			}
			printFeasibility(out, v, p, capability.CanRun(p, v))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every variant the host can run")
	return cmd
}

func printFeasibility(w io.Writer, v catalog.ModelVariant, p capability.SystemProfile, r capability.FeasibilityReport) {
	verdict := "yes"
	if !r.CanRun {
		verdict = "no"
	}
	fmt.Fprintf(w, "%s (%gB parameters)\n", v.DisplayName, v.ParamsBillions)
	fmt.Fprintf(w, "  Can run:         %s\n", verdict)
	fmt.Fprintf(w, "  Memory required: ~%s\n", capability.FormatBytes(r.RequiredMemory))
	fmt.Fprintf(w, "  Disk required:   ~%s\n", capability.FormatBytes(r.RequiredDisk))
	fmt.Fprintf(w, "  Backend:         %s\n", capability.RecommendedBackend(p))
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
}
