package cmd

import (
	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/edge"
	"github.com/edgeadmin/edgeadmin/prompt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// managementFlags override the management section of the configuration when given.
type managementFlags struct {
	url      string
	org      string
	user     string
	password string
	token    string
	netrc    bool
	apigeeX  bool
	sso      bool
}

func (f *managementFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.url, "mgmtserver", "", "the base path, including any HTTP scheme, of the management server")
	fs.StringVarP(&f.org, "org", "o", "", "the organization")
	fs.StringVarP(&f.user, "username", "u", "", "org user with permissions to read the organization")
	fs.StringVarP(&f.password, "password", "p", "", "password for the org user")
	fs.StringVarP(&f.token, "token", "T", "", "an OAuth2 access token, required for Apigee X/hybrid")
	fs.BoolVarP(&f.netrc, "netrc", "n", false, "retrieve the username and password from the .netrc file")
	fs.BoolVar(&f.apigeeX, "apigeex", false, "use Apigee X/hybrid")
	fs.BoolVar(&f.sso, "sso", false, "log in through the Apigee SSO password grant")
}

func (f *managementFlags) apply(fs *pflag.FlagSet, conf *config.ManagementConfig) {
	if fs.Changed("mgmtserver") {
		conf.Url = f.url
	}
	if fs.Changed("org") {
		conf.Org = f.org
	}
	if fs.Changed("username") {
		conf.User = f.user
	}
	if fs.Changed("password") {
		conf.Password = f.password
	}
	if fs.Changed("token") {
		conf.Token = f.token
	}
	if fs.Changed("netrc") {
		conf.Netrc = f.netrc
	}
	if fs.Changed("apigeex") {
		conf.ApigeeX = f.apigeeX
	}
	if fs.Changed("sso") {
		conf.Sso = f.sso
	}
}

// managementClient validates the management settings, reads .netrc or prompts for the
// password when needed, and connects.
func (a *App) managementClient(cmd *cobra.Command, flags *managementFlags) (*edge.Client, error) {
	conf := &a.conf.Management
	flags.apply(cmd.Flags(), conf)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.Netrc && conf.Token == "" {
		if err := conf.ApplyNetrc(config.DefaultNetrcPath()); err != nil {
			return nil, err
		}
	}
	if conf.Token == "" && conf.User != "" {
		password, err := prompt.PasswordIfMissing(a.Prompter, conf.Password, "password for "+conf.User)
		if err != nil {
			return nil, err
		}
		conf.Password = password
	}
	return edge.NewClient(conf, a.httpOptions())
}
