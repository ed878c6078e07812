// Package distspec loads declarative distribution spec files.
//
// A spec file is a TOML document describing one distribution: the source
// runtime, the components composing it, link settings, and vendor metadata.
// Loading a spec produces a populated [registry.Registry] and the skeleton of
// a link request; the caller supplies the module descriptors by inspecting
// the component archives.
package distspec

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/link"
	"github.com/linkforge/linkforge/pkg/registry"
)

// File is the decoded shape of a distribution spec.
type File struct {
	Runtime    RuntimeSpec       `toml:"runtime"`
	BaseName   string            `toml:"base_name"`
	Components []ComponentSpec   `toml:"component"`
	Link       LinkSpec          `toml:"link"`
	Vendor     map[string]string `toml:"vendor"`
	Configs    []ConfigSpec      `toml:"config"`
}

// RuntimeSpec locates the source runtime and the output image.
type RuntimeSpec struct {
	Home        string `toml:"home"`
	Destination string `toml:"destination"`
}

// ComponentSpec is one [[component]] block.
type ComponentSpec struct {
	Name           string         `toml:"name"`
	ShortName      string         `toml:"short_name"`
	Kind           string         `toml:"kind"`
	Dir            string         `toml:"dir"`
	LicenseFiles   []string       `toml:"license_files"`
	Jars           []string       `toml:"jars"`
	SupportDists   []string       `toml:"support_distributions"`
	BootJars       []string       `toml:"boot_jars"`
	Priority       int            `toml:"priority"`
	Stability      string         `toml:"stability"`
	Dependencies   []string       `toml:"dependencies"`
	Jlink          *bool          `toml:"jlink"`
	ModuleArchives []string       `toml:"module_archives"`
	Launchers      []LauncherSpec `toml:"launcher"`
}

// LauncherSpec is one [[component.launcher]] block.
type LauncherSpec struct {
	Destination string   `toml:"destination"`
	MainClass   string   `toml:"main_class"`
	Jars        []string `toml:"jars"`
	BuildArgs   []string `toml:"build_args"`
	Language    string   `toml:"language"`
}

// LinkSpec is the [link] block.
type LinkSpec struct {
	MissingExportPolicy string   `toml:"missing_export_policy"`
	RootModules         []string `toml:"root_modules"`
	IgnoreModules       []string `toml:"ignore_modules"`
	DedupLegalNotices   bool     `toml:"dedup_legal_notices"`
}

// ConfigSpec is one [[config]] block naming a component composition.
type ConfigSpec struct {
	Name       string   `toml:"name"`
	DistName   string   `toml:"dist_name"`
	Components []string `toml:"components"`
	EnvFile    string   `toml:"env_file"`
}

// Spec is a loaded and validated distribution spec.
type Spec struct {
	Path     string
	File     File
	Registry *registry.Registry
}

// Load reads and validates the spec file at path, populating a fresh
// registry from its component and config blocks.
func Load(path string, reg *registry.Registry) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot read spec file")
	}
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot parse %s", path)
	}

	if f.Runtime.Home == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"%s: [runtime] has no source home", path)
	}
	if f.Runtime.Destination == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"%s: [runtime] has no destination", path)
	}
	if f.Link.MissingExportPolicy != "" && !link.Policy(f.Link.MissingExportPolicy).Valid() {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"%s: invalid missing-export policy %q", path, f.Link.MissingExportPolicy)
	}

	if reg == nil {
		reg = registry.New(nil)
	}
	for i := range f.Components {
		c, err := toComponent(&f.Components[i])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: invalid component", path)
		}
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: cannot register component", path)
		}
	}
	for _, cs := range f.Configs {
		err := reg.RegisterVMConfig(registry.VMConfig{
			DistName:   cs.DistName,
			ConfigName: cs.Name,
			Components: cs.Components,
			EnvFile:    cs.EnvFile,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: cannot register config", path)
		}
	}

	return &Spec{Path: path, File: f, Registry: reg}, nil
}

// ModuleArchives lists every module archive the spec's components
// contribute, resolved relative to the spec file's directory.
func (s *Spec) ModuleArchives() []string {
	dir := filepath.Dir(s.Path)
	var out []string
	for _, cs := range s.File.Components {
		for _, archive := range cs.ModuleArchives {
			if !filepath.IsAbs(archive) {
				archive = filepath.Join(dir, archive)
			}
			out = append(out, archive)
		}
	}
	return out
}

// Request builds the link request skeleton from the spec's runtime and link
// blocks. The caller fills in the runtime handle and the descriptors.
func (s *Spec) Request() *link.Request {
	return &link.Request{
		DestDir:             s.File.Runtime.Destination,
		RootModules:         append([]string(nil), s.File.Link.RootModules...),
		IgnoreModules:       append([]string(nil), s.File.Link.IgnoreModules...),
		MissingExportPolicy: link.Policy(s.File.Link.MissingExportPolicy),
		VendorInfo:          s.File.Vendor,
		DedupLegalNotices:   s.File.Link.DedupLegalNotices,
	}
}

func toComponent(cs *ComponentSpec) (*registry.Component, error) {
	kind := registry.Kind(cs.Kind)
	if cs.Kind == "" {
		kind = registry.KindTool
	}
	jlink := true
	if cs.Jlink != nil {
		jlink = *cs.Jlink
	}

	c := &registry.Component{
		Name:                 cs.Name,
		ShortName:            cs.ShortName,
		Kind:                 kind,
		Dir:                  cs.Dir,
		LicenseFiles:         cs.LicenseFiles,
		JarDistributions:     cs.Jars,
		SupportDistributions: cs.SupportDists,
		BootJars:             cs.BootJars,
		Priority:             cs.Priority,
		Stability:            registry.Stability(cs.Stability),
		Dependencies:         cs.Dependencies,
		Jlink:                jlink,
	}
	for _, ls := range cs.Launchers {
		lc := &registry.LauncherConfig{
			Destination:      ls.Destination,
			JarDistributions: ls.Jars,
			MainClass:        ls.MainClass,
			BuildArgs:        ls.BuildArgs,
			Language:         ls.Language,
		}
		if ls.Language != "" {
			// A language launcher always finds its own home next to
			// itself.
			rel, err := filepath.Rel(filepath.Dir(ls.Destination), ".")
			if err == nil {
				if err := lc.AddRelativeHomePath(ls.Language, rel); err != nil {
					return nil, err
				}
			}
		}
		c.LauncherConfigs = append(c.LauncherConfigs, lc)
	}
	return c, c.Validate()
}
