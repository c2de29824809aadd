package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/edgeadmin/edgeadmin/bundle"
	"github.com/edgeadmin/edgeadmin/edge"
	"github.com/spf13/cobra"
)

func newExportCommand(app *App) *cobra.Command {
	var mf managementFlags
	var opts bundle.Options
	var sharedFlow bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the bundles of API proxies or shared flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sharedFlow {
				opts.Kind = edge.SharedFlow
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			client, err := app.managementClient(cmd, &mf)
			if err != nil {
				return err
			}
			exported, err := bundle.NewExporter(client, app.log).Export(cmd.Context(), opts)
			app.processed(len(exported), "export")
			for _, e := range exported {
				if opts.Trial {
					_, _ = fmt.Fprintf(app.Out, "%s\n", e.File)
					continue
				}
				_, _ = fmt.Fprintf(app.Out, "%s  %d bytes  xxhash %s\n", e.File, e.Size, e.Hash)
			}
			return err
		},
	}
	mf.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.Name, "name", "N", "", "name of a single proxy or shared flow to export")
	cmd.Flags().StringVarP(&opts.Pattern, "pattern", "P", "", "regular expression selecting the names to export")
	cmd.Flags().StringVarP(&opts.Destination, "destination", "D", "", "directory for the bundles (default exported-YYYYMMDD-HHMMSS)")
	cmd.Flags().BoolVarP(&opts.Trial, "trial", "t", false, "list what would be exported without writing")
	cmd.Flags().BoolVarP(&sharedFlow, "sharedflow", "S", false, "export shared flows instead of API proxies")
	cmd.Flags().StringVarP(&opts.Revision, "revision", "R", "", "the revision to export, requires a name")
	cmd.Flags().StringVarP(&opts.Environment, "environment", "e", "", "export the revision deployed in this environment")
	return cmd
}

func newExportAllCommand(app *App) *cobra.Command {
	var mf managementFlags
	var parent string
	cmd := &cobra.Command{
		Use:   "export-all",
		Short: "Export every revision of every API proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.managementClient(cmd, &mf)
			if err != nil {
				return err
			}
			dir, exported, err := bundle.NewExporter(client, app.log).ExportAll(cmd.Context(), parent)
			app.processed(len(exported), "export-all")
			if err != nil {
				return err
			}
			enc := json.NewEncoder(app.Out)
			enc.SetIndent("", "  ")
			_, _ = fmt.Fprintf(app.Out, "exported %d bundles to %s\n", len(exported), dir)
			return enc.Encode(exported)
		},
	}
	mf.register(cmd.Flags())
	cmd.Flags().StringVarP(&parent, "directory", "D", ".", "directory holding the export directory")
	return cmd
}
