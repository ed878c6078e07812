package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/jdk"
	"github.com/linkforge/linkforge/pkg/registry"
	"github.com/linkforge/linkforge/pkg/run"
)

// Orchestrator subcommands used to query what a configuration produces.
const (
	distNameSubcommand   = "image-dist-name"
	componentsSubcommand = "image-components"
)

// verifyCommand creates the verify command.
func (c *CLI) verifyCommand() *cobra.Command {
	var (
		buildCmd    string
		javaVersion int
	)

	cmd := &cobra.Command{
		Use:   "verify <spec.toml>",
		Short: "Check spec configurations against the build orchestrator",
		Long: `Check that the distribution configurations a spec declares still match
what the build orchestrator produces.

For each configuration, linkforge re-invokes the orchestrator against the
configuration's environment file, reads back the distribution name it would
produce, and compares it with the expected name. On a mismatch the
orchestrator is asked for its component list so the drift can be reported as
added and removed components.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			spec, reg, err := c.loadSpec(args[0])
			if err != nil {
				return err
			}

			configs := reg.VMConfigs()
			if len(configs) == 0 {
				printInfo("Spec declares no distribution configurations")
				return nil
			}

			version := javaVersion
			if version == 0 {
				j, err := jdk.Open(spec.File.Runtime.Home, run.NewExecRunner(c.Logger), c.Logger)
				if err != nil {
					return err
				}
				version = j.MajorVersion()
			}

			baseName := spec.File.BaseName
			if baseName == "" {
				baseName = defaultBaseName
			}

			p := newProgress(c.Logger)
			results, err := verifyConfigs(ctx, run.NewExecRunner(c.Logger), configs, baseName, version, strings.Fields(buildCmd))
			if err != nil {
				return err
			}
			p.done(fmt.Sprintf("Checked %d configurations", len(results)))

			mismatches := 0
			for _, r := range results {
				if r.ok() {
					printSuccess("%s produces %s", r.Config, r.Expected)
					continue
				}
				mismatches++
				printError("%s: expected %s, orchestrator reports %s", r.Config, r.Expected, r.Actual)
				if len(r.Added) > 0 {
					printDetail("added: %s", strings.Join(r.Added, ", "))
				}
				if len(r.Removed) > 0 {
					printDetail("removed: %s", strings.Join(r.Removed, ", "))
				}
			}

			if mismatches > 0 {
				return errors.New(errors.ErrCodeVerifyMismatch,
					"%d of %d configurations drifted from the orchestrator", mismatches, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&buildCmd, "build-cmd", "mx", "build orchestrator command to re-invoke")
	cmd.Flags().IntVar(&javaVersion, "java-version", 0, "runtime major version (default: read from the spec's runtime)")

	return cmd
}

// verifyResult is the outcome of checking one distribution configuration.
type verifyResult struct {
	Config   string
	Expected string
	Actual   string
	Added    []string
	Removed  []string
}

func (r verifyResult) ok() bool {
	return r.Expected == r.Actual && len(r.Added) == 0 && len(r.Removed) == 0
}

// verifyConfigs re-invokes the orchestrator once per configuration and
// compares the distribution name it reports with the expected name. On a
// mismatch the orchestrator's component list is fetched to compute the drift.
func verifyConfigs(ctx context.Context, runner run.Runner, configs []registry.VMConfig, baseName string, javaVersion int, buildCmd []string) ([]verifyResult, error) {
	if len(buildCmd) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "empty build command")
	}

	results := make([]verifyResult, 0, len(configs))
	for _, cfg := range configs {
		expected := registry.DistName(baseName, cfg.DistName, javaVersion)

		actual, err := orchestratorOutput(ctx, runner, buildCmd, cfg.EnvFile, distNameSubcommand)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeToolFailed, err, "config %s", cfg.ConfigName)
		}

		r := verifyResult{Config: cfg.ConfigName, Expected: expected, Actual: actual}
		if actual != expected {
			list, err := orchestratorOutput(ctx, runner, buildCmd, cfg.EnvFile, componentsSubcommand)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeToolFailed, err, "config %s", cfg.ConfigName)
			}
			r.Added, r.Removed = diffComponents(cfg.Components, splitComponentList(list))
		}
		results = append(results, r)
	}
	return results, nil
}

// orchestratorOutput runs one orchestrator subcommand for an environment file
// and returns the last non-empty stdout line.
func orchestratorOutput(ctx context.Context, runner run.Runner, buildCmd []string, envFile, subcommand string) (string, error) {
	args := append(append([]string{}, buildCmd[1:]...), "--env", envFile, subcommand)
	res, err := runner.Run(ctx, run.Cmd{Path: buildCmd[0], Args: args})
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", errors.New(errors.ErrCodeToolFailed, "%s %s exited %d: %s",
			buildCmd[0], subcommand, res.ExitCode, res.Combined())
	}

	lines := strings.Split(res.Stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line, nil
		}
	}
	return "", errors.New(errors.ErrCodeToolFailed, "%s %s produced no output", buildCmd[0], subcommand)
}

func splitComponentList(list string) []string {
	var components []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			components = append(components, part)
		}
	}
	return components
}

// diffComponents returns what the orchestrator reports beyond the declared
// set (added) and what it no longer reports (removed), both sorted.
func diffComponents(declared, reported []string) (added, removed []string) {
	declaredSet := make(map[string]bool, len(declared))
	for _, name := range declared {
		declaredSet[name] = true
	}
	reportedSet := make(map[string]bool, len(reported))
	for _, name := range reported {
		reportedSet[name] = true
	}

	for name := range reportedSet {
		if !declaredSet[name] {
			added = append(added, name)
		}
	}
	for name := range declaredSet {
		if !reportedSet[name] {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
