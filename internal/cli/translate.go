package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/reoring/mdform"
	"github.com/reoring/mdform/node"
)

type translateOptions struct {
	format      string
	typeMapping string
	output      string
	compact     bool
}

func newTranslateCommand(a *app) *cobra.Command {
	opts := &translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate [file|-]",
		Short: "Translate a JSON-Schema into a form definition",
		Long: `Translate a JSON or YAML schema into a form definition.

The schema is read from the given file, or from stdin when the file is "-" or
omitted. The format follows the file extension unless --format is set.

Examples:
  mdform translate params.schema.json
  mdform translate --format yaml - < params.yaml
  mdform translate --type-mapping dataset -o form.json params.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return a.runTranslate(cmd, path, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "Input format: json or yaml (default: from extension)")
	cmd.Flags().StringVar(&opts.typeMapping, "type-mapping", "", "Apply a named type-by-key mapping (dataset)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the form to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Write compact JSON")

	return cmd
}

func (a *app) runTranslate(cmd *cobra.Command, path string, opts *translateOptions) error {
	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	format := mdform.FormatForPath(path)
	if opts.format != "" {
		if format, err = mdform.ParseFormat(opts.format); err != nil {
			return err
		}
	}

	cfg, err := a.translator(opts.typeMapping)
	if err != nil {
		return err
	}
	form, err := cfg.TranslateBytes(data, format)
	if err != nil {
		return fmt.Errorf("translate %s: %w", path, err)
	}

	var out []byte
	if opts.compact {
		out, err = node.Marshal(form)
	} else {
		out, err = node.MarshalIndent(form, "", "  ")
	}
	if err != nil {
		return err
	}
	out = append(out, '\n')

	if opts.output == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}
	color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s\n", opts.output)
	return nil
}

// translator returns the pipeline configuration for a named type mapping.
func (a *app) translator(typeMapping string) (mdform.Config, error) {
	cfg := mdform.DefaultConfig()
	cfg.Logger = a.log
	switch typeMapping {
	case "":
	case "dataset":
		cfg.TypeMapping = mdform.DatasetTypeMapping()
	default:
		return cfg, fmt.Errorf("unknown type mapping %q (want: dataset)", typeMapping)
	}
	return cfg, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
