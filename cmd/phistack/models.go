package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Browse the Phi model catalog",
	}

	var tag string
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List catalog variants",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPARAMS\tCONTEXT\tEDGE\tTAGS")
			for _, v := range a.catalog.List() {
				if tag != "" && !v.HasTag(tag) {
					continue
				}
				edge := "no"
				if v.EdgeSuitable() {
					edge = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%gB\t%d\t%s\t%s\n",
					v.ID, v.DisplayName, v.ParamsBillions, v.ContextLength, edge, strings.Join(v.Tags, ","))
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&tag, "tag", "", "only show variants with this tag")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "info <id>",
		Short: "Describe one variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.catalog.ByID(args[0])
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(a.catalog.IDs(), ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.Describe())
			return nil
		},
	})

	return cmd
}
