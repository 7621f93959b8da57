package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	adaptmcp "myweight/internal/adapter/mcp"
	"myweight/internal/domain"
)

func newFetchCmd(o *rootOptions) *cobra.Command {
	var (
		from, to string
		output   string
		unit     string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch weight measurements once and print them",
		Example: `  myweight fetch --from 20240101000000 --to 20240131235959
  myweight fetch --from 20240101000000 --to 20240131235959 --output table --unit lb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.cfg.Validate(); err != nil {
				return err
			}
			u, err := domain.ParseUnit(unit)
			if err != nil {
				return err
			}
			if output != "json" && output != "table" {
				return fmt.Errorf("unknown output %q (want json or table)", output)
			}

			weights, err := newWeightService(cmd.Context(), o.cfg, o.log)
			if err != nil {
				return err
			}
			records, err := weights.FetchRange(cmd.Context(), domain.DateRange{From: from, To: to})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == "table" {
				_, err = fmt.Fprintln(out, renderWeightTable(records, u))
				return err
			}
			text, err := adaptmcp.RenderRecords(records)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, text)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&from, "from", "", "start date-time, YYYYMMDDHHmmss")
	f.StringVar(&to, "to", "", "end date-time, YYYYMMDDHHmmss")
	f.StringVarP(&output, "output", "o", "json", "output format: json or table")
	f.StringVar(&unit, "unit", "kg", "display unit for table output: kg or lb")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
