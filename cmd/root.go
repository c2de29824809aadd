// Package cmd holds the edgeadmin command line: one cobra subcommand per tool.
package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag"
	"github.com/edgeadmin/edgeadmin/diag/metrics"
	"github.com/edgeadmin/edgeadmin/diag/status"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/internal/httpclient"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/edgeadmin/edgeadmin/prompt"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// App carries what every command shares. Out receives the results, Err the diagnostics.
type App struct {
	Out      io.Writer
	Err      io.Writer
	Prompter prompt.Prompter
	Version  string
	// DotEnv is the .env file loaded into the environment before the configuration.
	DotEnv string

	configFile string
	verbose    bool
	proxyUrl   string

	conf      config.Config
	log       log.Logger
	metrics   metrics.Reporter
	telemetry telemetry.Reporter
	status    status.Reporter
	diag      *diag.Server
	span      trace.Span
}

func NewApp(out io.Writer, err io.Writer, p prompt.Prompter, version string) *App {
	return &App{Out: out, Err: err, Prompter: p, Version: version, DotEnv: ".env"}
}

// Execute runs the command line in args, then flushes the metrics and the traces.
func Execute(ctx context.Context, app *App, args []string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	app.finish(ctx, err)
	return err
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "edgeadmin",
		Short:         "Administrative tools for Apigee Edge and X/hybrid, the developer portal and API BaaS",
		Version:       app.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	flags := root.PersistentFlags()
	flags.StringVarP(&app.configFile, "config", "c", "", "path to the YAML configuration file")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&app.proxyUrl, "proxy", "", "HTTP proxy url")

	root.AddCommand(
		newGenerateModelCommand(app),
		newExportCommand(app),
		newExportAllCommand(app),
		newFindJavaPoliciesCommand(app),
		newFindKvmAccessCommand(app),
		newFindSharedFlowAccessCommand(app),
		newFindApiKeyCommand(app),
		newFindProductForProxyCommand(app),
		newVerifyUniqueHostAliasesCommand(app),
		newAnalyticsCommand(app),
		newDeployCommand(app),
		newActivatePortalUsersCommand(app),
		newProvisionPortalUsersCommand(app),
		newContrivePortalContentCommand(app),
		newBaaSLoadCommand(app),
		newBaaSDeleteCommand(app),
		newBaaSExportCommand(app),
	)
	return root
}

func (a *App) setup(cmd *cobra.Command) error {
	if a.DotEnv != "" {
		if err := godotenv.Load(a.DotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	conf, err := config.LoadConfigFromFileAndEnvironment(a.configFile)
	if err != nil {
		return err
	}
	if a.proxyUrl != "" {
		conf.HttpProxy.Url = a.proxyUrl
	}
	if err = conf.Validate(); err != nil {
		return err
	}
	a.conf = conf

	level := conf.Log.GetLevel()
	if a.verbose {
		level = log.Debug
	}
	a.log = log.NewLogger(a.Err, a.Err, level)
	a.metrics = metrics.NewReporter(&a.conf.Diag.Metrics, a.log)
	if a.conf.Diag.Traces.Otlp.Enabled {
		a.telemetry = telemetry.NewReporter(&a.conf.Diag.Traces, a.Version, a.log)
	} else {
		a.telemetry = telemetry.NewEmptyReporter()
	}
	a.status = status.NewReporter()
	a.status.SetCommand(cmd.CommandPath())
	if a.conf.Diag.Port > 0 {
		errs := make(chan error, 1)
		a.diag = diag.NewServer(&a.conf.Diag, a.metrics, a.status, a.log, errs)
		a.diag.Listen()
		go func() {
			if err := <-errs; err != nil {
				a.log.Warnf("%s", err)
			}
		}()
	}
	ctx, span := a.telemetry.StartSpan(cmd.Context(), cmd.Name())
	a.span = span
	cmd.SetContext(ctx)
	a.log.Debugf("running %s", cmd.CommandPath())
	return nil
}

// finish flushes the reporters. Flush failures are warnings: they never change the
// outcome of the command.
func (a *App) finish(ctx context.Context, cmdErr error) {
	if a.span != nil {
		if cmdErr != nil {
			a.span.SetStatus(codes.Error, cmdErr.Error())
		}
		a.span.End()
	}
	if a.diag != nil {
		a.diag.Shutdown()
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := a.metrics.Finish(ctx); err != nil {
			a.log.Warnf("%s", err)
		}
	}
	if a.telemetry != nil {
		a.telemetry.Shutdown()
	}
}

func (a *App) httpOptions() httpclient.Options {
	return httpclient.Options{
		Proxy:     &a.conf.HttpProxy,
		Timeout:   a.conf.Management.GetTimeout(),
		Verbose:   a.verbose,
		Metrics:   a.metrics,
		Telemetry: a.telemetry,
		Status:    a.status,
		Log:       a.log,
	}
}

func (a *App) processed(count int, command string) {
	if count > 0 {
		a.metrics.AddProcessedItems(count, command, metrics.OutcomeOk)
	}
}
