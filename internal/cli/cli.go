// Package cli implements the linkforge command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/linkforge/linkforge/pkg/buildinfo"
	"github.com/linkforge/linkforge/pkg/cache"
	"github.com/linkforge/linkforge/pkg/distspec"
	"github.com/linkforge/linkforge/pkg/link"
	"github.com/linkforge/linkforge/pkg/registry"
	"github.com/linkforge/linkforge/pkg/run"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "linkforge"

	// defaultBaseName is the image family prefix used for distribution names.
	defaultBaseName = "linkforge"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "linkforge",
		Short:        "Linkforge assembles custom Java runtime images",
		Long:         `Linkforge is a CLI tool for assembling trimmed Java runtime images from a declarative distribution spec, resolving qualified module exports and invoking the runtime's own link tooling.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.linkCommand())
	root.AddCommand(c.componentsCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// newLinker creates a linker wired with an exec runner and the probe cache.
func (c *CLI) newLinker(noCache bool) (*link.Linker, error) {
	probeCache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return link.New(run.NewExecRunner(c.Logger), c.Logger, probeCache), nil
}

// loadSpec reads a distribution spec into a fresh registry.
func (c *CLI) loadSpec(path string) (*distspec.Spec, *registry.Registry, error) {
	reg := registry.New(c.Logger)
	spec, err := distspec.Load(path, reg)
	if err != nil {
		return nil, nil, err
	}
	return spec, reg, nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/linkforge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
