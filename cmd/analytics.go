package cmd

import (
	"fmt"

	"github.com/edgeadmin/edgeadmin/analytics"
	"github.com/spf13/cobra"
)

func newAnalyticsCommand(app *App) *cobra.Command {
	var mf managementFlags
	var opts analytics.Options
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Export an analytics query as CSV files, one per dimension",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.managementClient(cmd, &mf)
			if err != nil {
				return err
			}
			files, err := analytics.NewExporter(client, app.log).Export(cmd.Context(), opts)
			if err != nil {
				return err
			}
			app.processed(len(files), "analytics")
			app.printLines(files)
			if len(files) == 0 {
				_, _ = fmt.Fprintln(app.Out, "no data")
			}
			return nil
		},
	}
	mf.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.Environment, "environment", "e", "", "the environment")
	cmd.Flags().StringVarP(&opts.Dimension, "dimension", "d", analytics.DefaultDimension, "the stats dimension")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", analytics.DefaultQuery, "the metric to select")
	cmd.Flags().StringVarP(&opts.Start, "start", "s", "", "start of the range, MM/DD/YYYY [HH:MM] (default start of yesterday)")
	cmd.Flags().StringVarP(&opts.Finish, "finish", "f", "", "end of the range, MM/DD/YYYY [HH:MM] (default start of today)")
	cmd.Flags().StringVar(&opts.TimeUnit, "timeunit", analytics.DefaultTimeUnit, "the time unit of the values")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "", "directory for the CSV files (default the OS temp dir)")
	_ = cmd.MarkFlagRequired("environment")
	return cmd
}
