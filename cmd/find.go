package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edgeadmin/edgeadmin/finder"
	"github.com/spf13/cobra"
)

func (a *App) printLines(lines []string) {
	for _, l := range lines {
		_, _ = fmt.Fprintln(a.Out, l)
	}
}

func (a *App) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newFindJavaPoliciesCommand(app *App) *cobra.Command {
	var mf managementFlags
	var jar string
	var isRegexp bool
	cmd := &cobra.Command{
		Use:   "find-java-policies",
		Short: "Find the Java callout policies, or the revisions holding a jar",
		RunE: func(cmd *cobra.Command, args []string) error {
			if isRegexp && jar == "" {
				return errors.New("--regexp requires --jar")
			}
			client, err := app.managementClient(cmd, &mf)
			if err != nil {
				return err
			}
			f := finder.NewFinder(client, app.log)
			var found []string
			if jar != "" {
				found, err = f.FindJars(cmd.Context(), jar, isRegexp)
			} else {
				found, err = f.FindPolicies(cmd.Context(), finder.JavaCalloutFilter())
			}
			if err != nil {
				return err
			}
			app.processed(len(found), "find-java-policies")
			app.printLines(found)
			return nil
		},
	}
	mf.register(cmd.Flags())
	cmd.Flags().StringVarP(&jar, "jar", "J", "", "the jar resource to look for")
	cmd.Flags().BoolVarP(&isRegexp, "regexp", "R", false, "treat the jar name as a regular expression")
	return cmd
}

func newFindKvmAccessCommand(app *App) *cobra.Command {
	var mf managementFlags
	var mapName, scope string
	cmd := &cobra.Command{
		Use:   "find-kvm-access",
		Short: "Find the KeyValueMapOperations policies, optionally for one map and scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.managementClient(cmd, &mf)
			if err != nil {
				return err
			}
			found, err := finder.NewFinder(client, app.log).FindPolicies(cmd.Context(), finder.KvmFilter(mapName, scope))
			if err != nil {
				return err
			}
			app.processed(len(found), "find-kvm-access")
			app.printLines(found)
			return nil
		},
	}
	mf.register(cmd.Flags())
	cmd.Flags().StringVarP(&mapName, "map", "M", "", "the key value map identifier")
	cmd.Flags().StringVarP(&scope, "scope", "S", "", "the scope of the map, checked when a map is given")
	return cmd
}

func newFindSharedFlowAccessCommand(app *App) *cobra.Command {
	var mf managementFlags
	var flow, env string
	var deployed bool
	cmd := &cobra.Command{
		Use:   "find-sharedflow-access",
		Short: "Find the FlowCallout policies, optionally for one shared flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			if env != "" && !deployed {
				return errors.New("--environment requires --deployed")
			}
			client, err := app.managementClient(cmd, &mf)
			if err != nil {
				return err
			}
			f := finder.NewFinder(client, app.log)
			var found []string
			if deployed {
				found, err = f.FindDeployedPolicies(cmd.Context(), env, finder.SharedFlowFilter(flow))
			} else {
				found, err = f.FindPolicies(cmd.Context(), finder.SharedFlowFilter(flow))
			}
			if err != nil {
				return err
			}
			app.processed(len(found), "find-sharedflow-access")
			app.printLines(found)
			return nil
		},
	}
	mf.register(cmd.Flags())
	cmd.Flags().StringVarP(&flow, "sharedflow", "s", "", "the shared flow")
	cmd.Flags().BoolVarP(&deployed, "deployed", "d", false, "only examine the deployed revisions")
	cmd.Flags().StringVarP(&env, "environment", "e", "", "with --deployed, only this environment")
	return cmd
}

func newFindApiKeyCommand(app *App) *cobra.Command {
	var mf managementFlags
	var key string
	cmd := &cobra.Command{
		Use:   "find-api-key",
		Short: "Find the app and the developer holding an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.managementClient(cmd, &mf)
			if err != nil {
				return err
			}
			owner, err := finder.NewFinder(client, app.log).FindApiKey(cmd.Context(), key)
			if err != nil {
				return err
			}
			app.processed(1, "find-api-key")
			_, _ = fmt.Fprint(app.Out, owner.String())
			return nil
		},
	}
	mf.register(cmd.Flags())
	cmd.Flags().StringVarP(&key, "key", "k", "", "the API key")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newFindProductForProxyCommand(app *App) *cobra.Command {
	var mf managementFlags
	var proxy string
	cmd := &cobra.Command{
		Use:   "find-product-for-proxy",
		Short: "Find the API products containing a proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.managementClient(cmd, &mf)
			if err != nil {
				return err
			}
			total, products, err := finder.NewFinder(client, app.log).FindProductsForProxy(cmd.Context(), proxy)
			if err != nil {
				return err
			}
			app.processed(len(products), "find-product-for-proxy")
			_, _ = fmt.Fprintf(app.Out, "total apiproducts: %d\n", total)
			_, _ = fmt.Fprintf(app.Out, "count of apiproducts containing %s: %d\n", proxy, len(products))
			if app.verbose {
				return app.printJSON(products)
			}
			names := make([]string, len(products))
			for i := range products {
				names[i] = products[i].Name
			}
			return app.printJSON(names)
		},
	}
	mf.register(cmd.Flags())
	cmd.Flags().StringVarP(&proxy, "proxy", "P", "", "the API proxy")
	_ = cmd.MarkFlagRequired("proxy")
	return cmd
}

func newVerifyUniqueHostAliasesCommand(app *App) *cobra.Command {
	var mf managementFlags
	cmd := &cobra.Command{
		Use:   "verify-unique-hostaliases org...",
		Short: "Check that no host alias is declared by two virtual hosts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.conf.Management.Org == "" && !cmd.Flags().Changed("org") {
				app.conf.Management.Org = args[0]
			}
			client, err := app.managementClient(cmd, &mf)
			if err != nil {
				return err
			}
			orgs := make([]finder.VirtualHostApi, len(args))
			for i, org := range args {
				orgs[i] = client.WithOrg(org)
			}
			report, err := finder.VerifyUniqueHostAliases(cmd.Context(), orgs, app.log)
			if err != nil {
				return err
			}
			app.processed(len(report.Hosts), "verify-unique-hostaliases")
			if err = app.printJSON(report.Hosts); err != nil {
				return err
			}
			if report.Duplicates > 0 {
				return fmt.Errorf("found %d duplicate host aliases", report.Duplicates)
			}
			return nil
		},
	}
	mf.register(cmd.Flags())
	return cmd
}
