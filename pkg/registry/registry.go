package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/linkforge/linkforge/pkg/errors"
)

// VMConfig is a named composition of components registered for verification
// and distribution naming.
type VMConfig struct {
	// DistName feeds distribution naming (see [DistName]). Defaults to
	// ConfigName when empty.
	DistName string

	// ConfigName is the configuration's registration name.
	ConfigName string

	// Components lists the short names composing the configuration.
	Components []string

	// EnvFile names the environment file expected to reproduce this
	// configuration. Empty defaults to DistName.
	EnvFile string
}

// HostVMConfig is one way of running guest code on the host VM.
type HostVMConfig struct {
	Name         string
	JavaArgs     []string
	LauncherArgs []string
	Priority     int
}

// Registry owns a set of components keyed by short name, the known VM names,
// and the registered VM configurations. It is not safe for concurrent
// mutation; populate it fully before sharing.
type Registry struct {
	logger *log.Logger

	byShort map[string]*Component
	byName  map[string]*Component

	vmConfigs     []VMConfig
	hostVMConfigs []HostVMConfig
	knownVMs      map[string]struct{}
}

// New creates a registry seeded with the standard host VM modes and the
// default known VM.
func New(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	r := &Registry{
		logger:   logger,
		byShort:  map[string]*Component{},
		byName:   map[string]*Component{},
		knownVMs: map[string]struct{}{},
		hostVMConfigs: []HostVMConfig{
			{Name: "jvm", LauncherArgs: []string{"--jvm"}, Priority: 50},
			{Name: "jvm-no-truffle-compilation", LauncherArgs: []string{"--jvm", "--experimental-options", "--engine.Compilation=false"}, Priority: 29},
			{Name: "native", LauncherArgs: []string{"--native"}, Priority: 100},
			{Name: "native-no-truffle-compilation", LauncherArgs: []string{"--native", "--experimental-options", "--engine.Compilation=false"}, Priority: 39},
		},
	}
	r.knownVMs["truffle"] = struct{}{}
	return r
}

// Register adds a component. When another component already holds the same
// short name, the higher priority wins: equal priorities are an error, a
// lower-priority registration is ignored with a debug log.
func (r *Registry) Register(c *Component) error {
	if err := c.Validate(); err != nil {
		return err
	}

	prev, ok := r.byShort[c.ShortName]
	if ok {
		switch {
		case prev.Priority == c.Priority:
			return errors.New(errors.ErrCodeInvalidComponent,
				"components %q and %q are registered with the same short name (%q) and priority (%d)",
				prev.Name, c.Name, c.ShortName, c.Priority)
		case prev.Priority > c.Priority:
			r.logger.Debug("ignoring lower-priority component registration",
				"short_name", c.ShortName, "kept", prev.Name, "ignored", c.Name)
			return nil
		default:
			r.logger.Debug("overriding component registration",
				"short_name", c.ShortName, "kept", c.Name, "ignored", prev.Name)
			delete(r.byName, prev.Name)
		}
	}

	r.byShort[c.ShortName] = c
	r.byName[c.Name] = c
	return nil
}

// ByName looks a component up by short name first, then by long name.
func (r *Registry) ByName(name string) (*Component, error) {
	if c, ok := r.byShort[name]; ok {
		return c, nil
	}
	if c, ok := r.byName[name]; ok {
		return c, nil
	}
	return nil, errors.New(errors.ErrCodeComponentNotFound, "unknown component: %s", name)
}

// Components lists all registered components sorted by short name.
func (r *Registry) Components() []*Component {
	out := make([]*Component, 0, len(r.byShort))
	for _, c := range r.byShort {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortName < out[j].ShortName })
	return out
}

// DirectDependencies resolves the component's dependency names.
func (r *Registry) DirectDependencies(c *Component) ([]*Component, error) {
	deps := make([]*Component, 0, len(c.Dependencies))
	for _, name := range c.Dependencies {
		d, err := r.ByName(name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeComponentNotFound, err,
				"%s declares an unresolvable dependency", c.Name)
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// RegisterVMConfig records a named component composition.
func (r *Registry) RegisterVMConfig(cfg VMConfig) error {
	if cfg.ConfigName == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "VM config has no name")
	}
	if len(cfg.Components) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"VM config %q names no components", cfg.ConfigName)
	}
	if cfg.DistName == "" {
		cfg.DistName = cfg.ConfigName
	}
	if cfg.EnvFile == "" {
		cfg.EnvFile = cfg.DistName
	}
	r.vmConfigs = append(r.vmConfigs, cfg)
	return nil
}

// VMConfigs lists registered VM configurations in registration order.
func (r *Registry) VMConfigs() []VMConfig {
	return append([]VMConfig(nil), r.vmConfigs...)
}

// RegisterKnownVM records a guest VM name. Duplicate registration is an
// error.
func (r *Registry) RegisterKnownVM(name string) error {
	if _, ok := r.knownVMs[name]; ok {
		return errors.New(errors.ErrCodeInvalidConfig, "VM %q already registered", name)
	}
	r.knownVMs[name] = struct{}{}
	return nil
}

// KnownVMs lists the registered guest VM names, sorted.
func (r *Registry) KnownVMs() []string {
	out := make([]string, 0, len(r.knownVMs))
	for name := range r.knownVMs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AddHostVMConfig records an additional host VM mode.
func (r *Registry) AddHostVMConfig(cfg HostVMConfig) {
	r.hostVMConfigs = append(r.hostVMConfigs, cfg)
}

// HostVMConfigs lists host VM modes in registration order.
func (r *Registry) HostVMConfigs() []HostVMConfig {
	return append([]HostVMConfig(nil), r.hostVMConfigs...)
}

// DistName derives the distribution name a configuration is expected to
// produce: "<BASE>_<DIST>_JAVA<version>", upper-cased with dashes folded to
// underscores.
func DistName(baseName, distName string, javaVersion int) string {
	name := fmt.Sprintf("%s_%s_java%d", baseName, distName, javaVersion)
	return strings.ReplaceAll(strings.ToUpper(name), "-", "_")
}
