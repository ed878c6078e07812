package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/jdk"
	"github.com/linkforge/linkforge/pkg/modgraph"
	"github.com/linkforge/linkforge/pkg/module"
	"github.com/linkforge/linkforge/pkg/run"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output      string
		format      string
		runtimeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "graph <spec.toml>",
		Short: "Render the module universe as DOT or SVG",
		Long: `Render the module universe of a distribution spec as a graph.

Nodes are the runtime's modules plus the spec's module archives; edges are
requires relations and qualified exports. DOT output goes to stdout unless
--output names a file; SVG always requires --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			format = strings.ToLower(format)
			if format != "dot" && format != "svg" {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want dot or svg)", format)
			}
			if format == "svg" && output == "" {
				return errors.New(errors.ErrCodeInvalidInput, "svg output requires --output")
			}

			spec, _, err := c.loadSpec(args[0])
			if err != nil {
				return err
			}

			j, err := jdk.Open(spec.File.Runtime.Home, run.NewExecRunner(c.Logger), c.Logger)
			if err != nil {
				return err
			}

			p := newProgress(c.Logger)
			descriptors, err := j.Modules(ctx)
			if err != nil {
				return err
			}
			if !runtimeOnly {
				supplied, err := describeArchives(ctx, j, spec.ModuleArchives())
				if err != nil {
					return err
				}
				descriptors = append(descriptors, supplied...)
			}
			p.done(fmt.Sprintf("Described %d modules", len(descriptors)))

			dot := modgraph.ToDOT(descriptors)

			var data []byte
			if format == "svg" {
				data, err = modgraph.RenderSVG(ctx, dot)
				if err != nil {
					return err
				}
			} else {
				data = []byte(dot)
			}

			if output == "" {
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", output)
			}

			printSuccess("Graph rendered")
			printFile(output)
			printStats(len(descriptors), countSynthetic(descriptors), false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout for dot)")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or svg")
	cmd.Flags().BoolVar(&runtimeOnly, "runtime-only", false, "graph only the runtime's own modules")

	return cmd
}

func countSynthetic(descriptors []*module.Descriptor) int {
	n := 0
	for _, d := range descriptors {
		if d.Synthetic {
			n++
		}
	}
	return n
}
