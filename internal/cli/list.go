package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) listCommand() *cobra.Command {
	var (
		artifactPath string
		output       string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the entries of a folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			repo, err := a.repository()
			if err != nil {
				return err
			}
			entries, err := repo.ListArtifacts(cmd.Context(), artifactPath)
			if err != nil {
				return err
			}

			return render(a.out, output, entries, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "PATH\tSIZE\tDIR")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%d\t%t\n", e.Path, e.FileSize, e.IsDir)
				}
			})
		},
	}
	cmd.Flags().StringVar(&artifactPath, "path", "", "artifact path relative to the repository root")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}
