package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linkforge/linkforge/pkg/jdk"
	"github.com/linkforge/linkforge/pkg/module"
	"github.com/linkforge/linkforge/pkg/observability"
	"github.com/linkforge/linkforge/pkg/run"
)

// linkCommand creates the link command.
func (c *CLI) linkCommand() *cobra.Command {
	var (
		destDir   string
		noCache   bool
		keepBuild bool
		noSources bool
	)

	cmd := &cobra.Command{
		Use:   "link <spec.toml>",
		Short: "Assemble a runtime image from a distribution spec",
		Long: `Assemble a trimmed Java runtime image from a distribution spec.

The spec names the source runtime, the component module archives, and the
link settings. Linkforge inventories the runtime, resolves qualified exports
across the supplied modules, synthesizes stub modules where the spec allows
it, and drives the runtime's link tooling to produce the image.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			spec, _, err := c.loadSpec(args[0])
			if err != nil {
				return err
			}

			j, err := jdk.Open(spec.File.Runtime.Home, run.NewExecRunner(c.Logger), c.Logger)
			if err != nil {
				return err
			}

			p := newProgress(c.Logger)
			descriptors, err := describeArchives(ctx, j, spec.ModuleArchives())
			if err != nil {
				return err
			}
			p.done(fmt.Sprintf("Described %d module archives", len(descriptors)))

			req := spec.Request()
			req.JDK = j
			req.Modules = descriptors
			if destDir != "" {
				req.DestDir = destDir
			}
			// Verbose runs keep the scratch inputs for inspection.
			req.KeepBuildDir = keepBuild || c.Logger.GetLevel() == LogDebug
			if noSources {
				req.WithSource = func(*module.Descriptor) bool { return false }
			}

			linker, err := c.newLinker(noCache)
			if err != nil {
				return err
			}

			sp := newSpinnerWithContext(ctx, "Assembling image...")
			sp.Start()
			observability.SetLinkHooks(spinnerHooks{sp: sp})
			defer observability.Reset()
			report, err := linker.Run(ctx, req)
			if err != nil {
				sp.StopWithError("Link failed")
				return err
			}
			sp.StopWithSuccess("Image assembled")

			printFile(report.Image)
			printStats(len(report.Universe), len(report.Synthetics), !noCache)

			if len(report.Unresolved) > 0 {
				printNewline()
				targets := make([]string, 0, len(report.Unresolved))
				for target := range report.Unresolved {
					targets = append(targets, target)
				}
				sort.Strings(targets)
				for _, target := range targets {
					printWarning("Export target %s is absent (exported by %s)",
						target, strings.Join(report.Unresolved[target], ", "))
				}
			}

			printNewline()
			printNextStep("Inspect the module graph", fmt.Sprintf("linkforge graph %s", args[0]))
			return nil
		},
	}

	cmd.Flags().StringVarP(&destDir, "output", "o", "", "destination image directory (overrides the spec)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the capability probe cache")
	cmd.Flags().BoolVar(&keepBuild, "keep-build-dir", false, "retain the scratch build directory")
	cmd.Flags().BoolVar(&noSources, "no-sources", false, "skip the source bundle")

	return cmd
}

// spinnerHooks surfaces the linker's current step on the spinner.
type spinnerHooks struct {
	observability.NoopLinkHooks
	sp *Spinner
}

func (h spinnerHooks) OnStepStart(ctx context.Context, step string) {
	h.sp.SetMessage(fmt.Sprintf("Assembling image (%s)...", step))
}

// describeArchives extracts a descriptor from every supplied module archive.
func describeArchives(ctx context.Context, j *jdk.JDK, archives []string) ([]*module.Descriptor, error) {
	descriptors := make([]*module.Descriptor, 0, len(archives))
	for _, archive := range archives {
		d, _, err := j.Describe(ctx, archive)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}
