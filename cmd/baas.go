package cmd

import (
	"errors"
	"fmt"

	"github.com/edgeadmin/edgeadmin/baas"
	"github.com/edgeadmin/edgeadmin/prompt"
	"github.com/edgeadmin/edgeadmin/sink"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type baasFlags struct {
	file         string
	org          string
	app          string
	user         string
	password     string
	clientId     string
	clientSecret string
	endpoint     string
	anonymous    bool
}

func (f *baasFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.file, "baas-config", "j", "", "JSON file holding org, app, username, password, clientid, clientsecret and URI")
	fs.StringVarP(&f.org, "org", "o", "", "the BaaS organization")
	fs.StringVarP(&f.app, "app", "a", "", "the BaaS application")
	fs.StringVarP(&f.user, "username", "u", "", "app user, unless using client credentials")
	fs.StringVarP(&f.password, "password", "p", "", "password for the app user")
	fs.StringVarP(&f.clientId, "clientid", "i", "", "client id of the application, unless using a user")
	fs.StringVarP(&f.clientSecret, "clientsecret", "s", "", "client secret for the client id")
	fs.StringVarP(&f.endpoint, "endpoint", "e", "", "the BaaS endpoint")
	fs.BoolVarP(&f.anonymous, "anonymous", "A", false, "connect without credentials")
}

func (a *App) baasTool(cmd *cobra.Command, flags *baasFlags) (*baas.Tool, error) {
	conf := &a.conf.BaaS
	if flags.file != "" {
		if err := conf.LoadJSONFile(flags.file); err != nil {
			return nil, err
		}
	}
	// Explicit flags win over the connection file.
	fs := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("org", &conf.Org, flags.org)
	set("app", &conf.App, flags.app)
	set("username", &conf.User, flags.user)
	set("password", &conf.Password, flags.password)
	set("clientid", &conf.ClientId, flags.clientId)
	set("clientsecret", &conf.ClientSecret, flags.clientSecret)
	set("endpoint", &conf.Url, flags.endpoint)
	if fs.Changed("anonymous") {
		conf.Anonymous = flags.anonymous
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	var err error
	switch {
	case conf.User != "":
		conf.Password, err = prompt.PasswordIfMissing(a.Prompter, conf.Password, "password for "+conf.User)
	case conf.ClientId != "":
		conf.ClientSecret, err = prompt.PasswordIfMissing(a.Prompter, conf.ClientSecret, "client secret")
	}
	if err != nil {
		return nil, err
	}
	client, err := baas.NewClient(conf, a.httpOptions())
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintf(a.Out, "using org:%s app:%s\n", conf.Org, conf.App)
	return baas.NewTool(client, a.Prompter, a.Out, a.metrics, a.log), nil
}

func newBaaSLoadCommand(app *App) *cobra.Command {
	var bf baasFlags
	var dir string
	cmd := &cobra.Command{
		Use:   "baas-load",
		Short: "Load the JSON files of a directory into BaaS collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := app.baasTool(cmd, &bf)
			if err != nil {
				return err
			}
			_, err = tool.Load(cmd.Context(), dir)
			return err
		},
	}
	bf.register(cmd.Flags())
	cmd.Flags().StringVarP(&dir, "directory", "d", baas.DefaultDataDir, "directory of <collection>.json files")
	return cmd
}

func newBaaSDeleteCommand(app *App) *cobra.Command {
	var bf baasFlags
	var collection string
	cmd := &cobra.Command{
		Use:   "baas-delete",
		Short: "Delete every entity of a BaaS collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := app.baasTool(cmd, &bf)
			if err != nil {
				return err
			}
			_, err = tool.DeleteAll(cmd.Context(), collection)
			if errors.Is(err, baas.ErrAborted) {
				return nil
			}
			return err
		},
	}
	bf.register(cmd.Flags())
	cmd.Flags().StringVarP(&collection, "collection", "C", "", "the collection")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func newBaaSExportCommand(app *App) *cobra.Command {
	var bf baasFlags
	var collection, file string
	cmd := &cobra.Command{
		Use:   "baas-export",
		Short: "Export every entity of a BaaS collection to a file or a database",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			tool, err := app.baasTool(cmd, &bf)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.Out, "export all items from collection: %s\n", collection)
			s, err := sink.Setup(&app.conf.Sink, file, app.telemetry, app.log)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := s.Close(); err == nil {
					err = closeErr
				}
			}()
			_, err = tool.ExportAll(cmd.Context(), collection, s)
			if errors.Is(err, baas.ErrAborted) {
				return nil
			}
			return err
		},
	}
	bf.register(cmd.Flags())
	cmd.Flags().StringVarP(&collection, "collection", "C", "", "the collection")
	cmd.Flags().StringVarP(&file, "file", "f", "", "output file, unless a database sink is configured")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}
