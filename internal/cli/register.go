package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/mdform"
	"github.com/reoring/mdform/node"
	"github.com/reoring/mdform/registry"
)

type registerOptions struct {
	name        string
	function    string
	deployment  string
	runType     string
	description string
	params      string
	schema      string
	typeMapping string
	published   bool
}

func newRegisterCommand(a *app) *cobra.Command {
	opts := &registerOptions{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Translate a job's parameter schema and register the job",
		Long: `Translate a job's parameter schema and register the job with the dataset
service (POST /jobs/create_or_update).

When redis.addr is configured, a job whose payload is unchanged since its last
registration is not sent again.

Examples:
  mdform register --name "Dose Response" --function dose_response_flow \
    --deployment prod --run-type dose_response --schema params.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRegister(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Job name")
	cmd.Flags().StringVar(&opts.function, "function", "", "Flow function name")
	cmd.Flags().StringVar(&opts.deployment, "deployment", "", "Deployment name")
	cmd.Flags().StringVar(&opts.runType, "run-type", "", "Run type: INTENSITY, DOSE_RESPONSE, PAIRWISE or ANOVA")
	cmd.Flags().StringVar(&opts.description, "description", "", "Job description")
	cmd.Flags().StringVar(&opts.params, "params", "", "File holding the legacy parameter schema, sent untouched")
	cmd.Flags().StringVar(&opts.schema, "schema", "", "File holding the JSON-Schema to translate")
	cmd.Flags().StringVar(&opts.typeMapping, "type-mapping", "", "Apply a named type-by-key mapping (dataset)")
	cmd.Flags().BoolVar(&opts.published, "published", true, "Publish the job")
	for _, f := range []string{"name", "function", "deployment", "run-type", "schema"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func (a *app) runRegister(cmd *cobra.Command, opts *registerOptions) error {
	runType, err := registry.ParseRunType(opts.runType)
	if err != nil {
		return err
	}
	schema, err := readSchema(cmd, opts.schema)
	if err != nil {
		return err
	}
	job := registry.Job{
		Name:        opts.name,
		Description: opts.description,
		Function:    opts.function,
		Deployment:  opts.deployment,
		RunType:     runType,
		Published:   opts.published,
	}
	if opts.params != "" {
		if job.Params, err = readSchema(cmd, opts.params); err != nil {
			return err
		}
	}

	translator, err := a.translator(opts.typeMapping)
	if err != nil {
		return err
	}
	client, cleanup, err := a.registryClient(cmd.Context(), &translator)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := client.Register(cmd.Context(), job, schema)
	if errors.Is(err, registry.ErrUnchanged) {
		color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "• %s unchanged, not sent\n", job.Slug())
		return nil
	}
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✓ Registered %s\n", job.Slug())
	return printResponse(cmd, resp)
}

type deployOptions struct {
	name        string
	function    string
	module      string
	runType     string
	image       string
	slug        string
	description string
}

func newDeployCommand(a *app) *cobra.Command {
	opts := &deployOptions{}
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update a job and deploy its image",
		Long: `Create or update a job and deploy its image through the dataset service.

With registry.api_key set, the authenticated /api endpoint is used. The command
waits until the service reports the deployment finished.

Examples:
  mdform deploy --name "Dose Response" --function dose_response_flow \
    --module md_dose_response.process --run-type dose_response \
    --image 1234.dkr.ecr.us-east-1.amazonaws.com/dose-response:0.0.2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDeploy(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Job name")
	cmd.Flags().StringVar(&opts.function, "function", "", "Flow function name")
	cmd.Flags().StringVar(&opts.module, "module", "", "Package containing the flow function")
	cmd.Flags().StringVar(&opts.runType, "run-type", "", "Run type: INTENSITY, DOSE_RESPONSE, PAIRWISE or ANOVA")
	cmd.Flags().StringVar(&opts.image, "image", "", "Published image tag")
	cmd.Flags().StringVar(&opts.slug, "slug", "", "Slug of an existing job to update")
	cmd.Flags().StringVar(&opts.description, "description", "", "Job description")
	for _, f := range []string{"name", "function", "module", "run-type", "image"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func (a *app) runDeploy(cmd *cobra.Command, opts *deployOptions) error {
	runType, err := registry.ParseRunType(opts.runType)
	if err != nil {
		return err
	}
	client, cleanup, err := a.registryClient(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := client.CreateOrUpdateDeployment(cmd.Context(), registry.Deployment{
		Name:        opts.name,
		Description: opts.description,
		RunType:     runType,
		Slug:        opts.slug,
		Image:       opts.image,
		Module:      opts.module,
		Function:    opts.function,
	})
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✓ Deployed %s\n", opts.name)
	return printResponse(cmd, resp)
}

func readSchema(cmd *cobra.Command, path string) (node.Node, error) {
	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return nil, err
	}
	n, err := mdform.ParseSchema(data, mdform.FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return n, nil
}

func printResponse(cmd *cobra.Command, resp map[string]any) error {
	if resp == nil {
		return nil
	}
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
