package cmd

import (
	"context"
	"fmt"

	"github.com/edgeadmin/edgeadmin/portal"
	"github.com/edgeadmin/edgeadmin/prompt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type portalFlags struct {
	server   string
	user     string
	password string
}

func (f *portalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.server, "server", "S", "", "the base url of the Drupal services endpoint")
	fs.StringVarP(&f.user, "username", "u", "", "the portal administrator")
	fs.StringVarP(&f.password, "password", "p", "", "password for the administrator")
}

// withPortal logs in to the portal, runs f and logs out.
func (a *App) withPortal(cmd *cobra.Command, flags *portalFlags, f func(ctx context.Context, c *portal.Client) error) error {
	conf := &a.conf.Portal
	if cmd.Flags().Changed("server") {
		conf.Url = flags.server
	}
	if cmd.Flags().Changed("username") {
		conf.User = flags.user
	}
	if cmd.Flags().Changed("password") {
		conf.Password = flags.password
	}
	if err := conf.Validate(); err != nil {
		return err
	}
	password, err := prompt.PasswordIfMissing(a.Prompter, conf.Password, "password for "+conf.User)
	if err != nil {
		return err
	}
	conf.Password = password

	ctx := cmd.Context()
	c := portal.NewClient(conf, a.httpOptions())
	if _, err = c.Login(ctx); err != nil {
		return err
	}
	defer func() {
		if err := c.Logout(ctx); err != nil {
			a.log.Warnf("logout failed: %s", err)
		}
	}()
	return f(ctx, c)
}

func newActivatePortalUsersCommand(app *App) *cobra.Command {
	var pf portalFlags
	cmd := &cobra.Command{
		Use:   "activate-portal-users",
		Short: "Activate developer portal users interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPortal(cmd, &pf, func(ctx context.Context, c *portal.Client) error {
				return portal.Activate(ctx, c, app.Prompter, app.Out)
			})
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func newProvisionPortalUsersCommand(app *App) *cobra.Command {
	var pf portalFlags
	var file string
	cmd := &cobra.Command{
		Use:   "provision-portal-users",
		Short: "Create developer portal users from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := portal.ReadUsersFile(file)
			if err != nil {
				return err
			}
			return app.withPortal(cmd, &pf, func(ctx context.Context, c *portal.Client) error {
				res, err := portal.Provision(ctx, c, users, app.log)
				app.processed(res.Created, "provision-portal-users")
				_, _ = fmt.Fprintf(app.Out, "created %d, skipped %d\n", res.Created, res.Skipped)
				return err
			})
		},
	}
	pf.register(cmd.Flags())
	cmd.Flags().StringVarP(&file, "file", "F", portal.DefaultUsersFile, "the CSV file of users")
	return cmd
}

func newContrivePortalContentCommand(app *App) *cobra.Command {
	var pf portalFlags
	var file string
	cmd := &cobra.Command{
		Use:   "contrive-portal-content",
		Short: "Replace the forums and the FAQs of the developer portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := portal.LoadContent(file)
			if err != nil {
				return err
			}
			return app.withPortal(cmd, &pf, func(ctx context.Context, c *portal.Client) error {
				if err := portal.Contrive(ctx, c, content, app.log); err != nil {
					return err
				}
				app.processed(len(content.Forums)+len(content.Faqs), "contrive-portal-content")
				return nil
			})
		},
	}
	pf.register(cmd.Flags())
	cmd.Flags().StringVarP(&file, "file", "F", portal.DefaultContentFile, "the content file, JSON or HCL")
	return cmd
}
