package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/registry"
)

// componentsCommand creates the components command.
func (c *CLI) componentsCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "components <spec.toml> [name]",
		Short: "List or describe the components a spec registers",
		Long: `List the components a distribution spec registers, or describe a
single component by its short or long name.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := c.loadSpec(args[0])
			if err != nil {
				return err
			}

			if len(args) == 2 {
				comp, err := reg.ByName(args[1])
				if err != nil {
					return err
				}
				return printComponent(reg, comp)
			}

			components := reg.Components()
			if len(components) == 0 {
				printInfo("Spec registers no components")
				return nil
			}

			if interactive {
				final, err := tea.NewProgram(NewComponentListModel(components)).Run()
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "component picker")
				}
				m, ok := final.(ComponentListModel)
				if !ok {
					return errors.New(errors.ErrCodeInternal, "unexpected picker model %T", final)
				}
				if m.Selected == nil {
					return nil
				}
				printNewline()
				return printComponent(reg, m.Selected)
			}

			fmt.Println(componentTable(components, -1))
			printNewline()
			printDetail("%d components", len(components))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse components interactively")

	return cmd
}

// printComponent prints the detail view for a single component.
func printComponent(reg *registry.Registry, comp *registry.Component) error {
	fmt.Println(StyleTitle.Render(comp.Name))
	printKeyValue("Short name", comp.ShortName)
	printKeyValue("Kind", string(comp.Kind))
	printKeyValue("Directory", comp.DirName())
	printKeyValue("Stability", string(comp.Stability))
	printKeyValue("Priority", fmt.Sprintf("%d", comp.Priority))

	deps, err := reg.DirectDependencies(comp)
	if err != nil {
		return err
	}
	if len(deps) > 0 {
		names := make([]string, len(deps))
		for i, d := range deps {
			names[i] = d.ShortName
		}
		printKeyValue("Depends on", strings.Join(names, ", "))
	}

	if len(comp.JarDistributions) > 0 {
		printKeyValue("Jars", strings.Join(comp.JarDistributions, ", "))
	}
	for _, lc := range comp.LauncherConfigs {
		detail := lc.Destination
		if lc.MainClass != "" {
			detail += " (" + lc.MainClass + ")"
		}
		printKeyValue("Launcher", detail)
	}
	for _, lib := range comp.LibraryConfigs {
		printKeyValue("Library", lib.Destination)
	}

	return nil
}
