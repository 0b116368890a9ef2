package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gluk-w/claworc/artifacts/internal/audit"
)

func (a *app) auditCommand() *cobra.Command {
	var (
		opts   audit.QueryOptions
		output string
		purge  bool
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show or purge the audit trail",
		Long: `Shows recorded repository operations, newest first. Needs --database
or ARTIFACTS_DATABASE_PATH. With --purge, entries older than the
retention period are deleted instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.auditor == nil {
				return fmt.Errorf("audit trail disabled: set --database or ARTIFACTS_DATABASE_PATH")
			}
			if purge {
				deleted, err := a.auditor.PurgeOlderThan(0)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "purged %d entries older than %d days\n", deleted, a.auditor.RetentionDays())
				return nil
			}

			if err := validateOutput(output); err != nil {
				return err
			}
			res, err := a.auditor.Query(opts)
			if err != nil {
				return err
			}

			return render(a.out, output, res, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "TIME\tOP_ID\tRUN\tOPERATION\tPATH\tFILES\tBYTES\tOUTCOME")
				for _, e := range res.Entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
						e.CreatedAt.Format("2006-01-02 15:04:05"), e.OpID, e.RunID, e.Operation, e.ArtifactPath, e.Files, e.Bytes, e.Outcome)
				}
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.Limit, "limit", 50, "max entries to show")
	f.IntVar(&opts.Offset, "offset", 0, "entries to skip")
	f.StringVar(&opts.RunID, "filter-run", "", "only entries of this run")
	f.StringVar(&opts.Operation, "operation", "", "only entries of this operation")
	f.StringVar(&opts.Outcome, "outcome", "", "only success or failure entries")
	f.StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	f.BoolVar(&purge, "purge", false, "delete entries older than the retention period")
	return cmd
}
