package cmd

import (
	"github.com/edgeadmin/edgeadmin/deploy"
	"github.com/edgeadmin/edgeadmin/edge"
	"github.com/spf13/cobra"
)

func newDeployCommand(app *App) *cobra.Command {
	var cacheFile string
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy and undeploy API proxies interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cached, err := deploy.LoadSession(cacheFile)
			if err != nil {
				return err
			}
			session, err := deploy.AskSession(cmd.Context(), app.Prompter, cached, deploy.GcloudToken)
			if err != nil {
				return err
			}
			if err = session.Save(cacheFile); err != nil {
				app.log.Warnf("failed to save %s: %s", cacheFile, err)
			}
			conf := session.ManagementConfig(app.conf.Management)
			if err = conf.Validate(); err != nil {
				return err
			}
			client, err := edge.NewClient(&conf, app.httpOptions())
			if err != nil {
				return err
			}
			return deploy.NewTool(client, app.Prompter, app.Out, app.log).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&cacheFile, "cache", deploy.CacheFile, "file remembering the answers between runs")
	return cmd
}
