package cmd

import (
	"errors"
	"fmt"

	"github.com/edgeadmin/edgeadmin/apimodel"
	"github.com/spf13/cobra"
)

func newGenerateModelCommand(app *App) *cobra.Command {
	var mf managementFlags
	var product, model, basePath string
	cmd := &cobra.Command{
		Use:   "generate-model",
		Short: "Generate an API model from the flows of a product's proxies",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.managementClient(cmd, &mf)
			if err != nil {
				return err
			}
			if product == "" {
				names, err := client.ListProductNames(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(app.Out, "products:")
				for _, n := range names {
					_, _ = fmt.Fprintf(app.Out, "  %s\n", n)
				}
				_ = cmd.Usage()
				return errors.New("specify a product")
			}
			g := apimodel.NewGenerator(client, basePath, app.log)
			m, err := g.Generate(cmd.Context(), product)
			if err != nil {
				return err
			}
			app.processed(len(m.Resources), "generate-model")
			if model != "" {
				if err = g.Import(cmd.Context(), model, m); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(app.Out, "imported a revision of api model %s\n", model)
				return nil
			}
			file, err := apimodel.WriteFile(".", m)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(app.Out, file)
			return nil
		},
	}
	mf.register(cmd.Flags())
	cmd.Flags().StringVarP(&product, "product", "P", "", "the API product")
	cmd.Flags().StringVarP(&model, "model", "m", "", "import the model as a revision of this api model instead of writing a file")
	cmd.Flags().StringVarP(&basePath, "basepath", "b", apimodel.DefaultBasePath, "the base path of the resources")
	return cmd
}
