// Package registry models the catalog of installable runtime components and
// the named configurations built from them.
//
// A [Component] is the unit of composition: a language runtime, a tool, or a
// piece of VM machinery, together with the distributions and launchers it
// contributes to an assembled image. A [Registry] owns a set of components
// and named VM configurations; there is deliberately no package-level
// registry, callers create and populate their own.
package registry

import (
	"fmt"

	"github.com/linkforge/linkforge/pkg/errors"
)

// Kind classifies what a component contributes to the image.
type Kind string

const (
	KindLanguage Kind = "language"
	KindTool     Kind = "tool"
	KindJDK      Kind = "jdk"
	KindJRE      Kind = "jre"
	KindJVMCI    Kind = "jvmci"
	KindMacro    Kind = "macro"
)

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindLanguage, KindTool, KindJDK, KindJRE, KindJVMCI, KindMacro:
		return true
	}
	return false
}

// Stability grades how production-ready a component is.
type Stability string

const (
	StabilitySupported                Stability = "supported"
	StabilityEarlyAdopter             Stability = "earlyadopter"
	StabilityExperimental             Stability = "experimental"
	StabilityExperimentalEarlyAdopter Stability = "experimental-earlyadopter"
)

// Component describes one installable piece of a runtime distribution.
type Component struct {
	// Name is the long, human-readable component name (e.g. "Truffle").
	Name string

	// ShortName is the short unique handle (e.g. "tfl"). Short names are
	// the primary registry key and appear in component lists.
	ShortName string

	// Kind classifies the component.
	Kind Kind

	// Dir is the directory the component's files live in within the
	// image. Empty means the short name is used.
	Dir string

	// LicenseFiles and ThirdPartyLicenseFiles are paths relative to the
	// component directory.
	LicenseFiles           []string
	ThirdPartyLicenseFiles []string

	// JarDistributions and SupportDistributions name the build-system
	// distributions contributing code and support files.
	JarDistributions     []string
	SupportDistributions []string

	// BootJars are distributions appended to the boot module path.
	BootJars []string

	// LauncherConfigs and LibraryConfigs describe the executables and
	// native libraries the component contributes.
	LauncherConfigs []*LauncherConfig
	LibraryConfigs  []*LibraryConfig

	// Priority breaks ties between components registered under the same
	// short name; higher wins.
	Priority int

	// Stability grades the component. Empty means experimental.
	Stability Stability

	// Dependencies names components this one requires, by short or long
	// name.
	Dependencies []string

	// Jlink reports whether the component's modules participate in image
	// linking. Components with Jlink false ship on the module path of the
	// final image instead of being baked into it.
	Jlink bool
}

// DirName returns the directory name the component installs into.
func (c *Component) DirName() string {
	if c.Dir != "" {
		return c.Dir
	}
	return c.ShortName
}

// Validate checks the component invariants.
func (c *Component) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrCodeInvalidComponent, "component has no name")
	}
	if err := errors.ValidateComponentShortName(c.ShortName); err != nil {
		return err
	}
	if !c.Kind.Valid() {
		return errors.New(errors.ErrCodeInvalidComponent,
			"component %s has invalid kind %q", c.Name, c.Kind)
	}
	if c.Stability == "" {
		c.Stability = StabilityExperimental
	}
	for _, lc := range c.LauncherConfigs {
		if lc.Destination == "" {
			return errors.New(errors.ErrCodeInvalidComponent,
				"component %s has a launcher config without a destination", c.Name)
		}
	}
	return nil
}

func (c *Component) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.DirName())
}

// LauncherConfig describes one executable entry point contributed by a
// component.
type LauncherConfig struct {
	// Destination is the launcher path relative to the image root.
	Destination string

	// JarDistributions name the distributions on the launcher classpath.
	JarDistributions []string

	// MainClass is the launcher entry point.
	MainClass string

	// BuildArgs are extra arguments for building the launcher.
	BuildArgs []string

	// Language, when set, marks a language launcher; the language's home
	// is registered as a relative home path automatically.
	Language string

	relativeHomePaths map[string]string
}

// AddRelativeHomePath records where the given language's home directory
// lives relative to the launcher. Re-registering the same language with a
// different path is an error; launchers locate homes by a single path.
func (lc *LauncherConfig) AddRelativeHomePath(language, path string) error {
	if lc.relativeHomePaths == nil {
		lc.relativeHomePaths = map[string]string{}
	}
	if prev, ok := lc.relativeHomePaths[language]; ok && prev != path {
		return errors.New(errors.ErrCodeInvalidComponent,
			"the relative home path of %s is already set to %s and cannot also be set to %s for %s",
			language, prev, path, lc.Destination)
	}
	lc.relativeHomePaths[language] = path
	return nil
}

// RelativeHomePath returns the recorded home path for a language.
func (lc *LauncherConfig) RelativeHomePath(language string) (string, bool) {
	path, ok := lc.relativeHomePaths[language]
	return path, ok
}

// LibraryConfig describes one native library contributed by a component.
type LibraryConfig struct {
	// Destination is the library path relative to the image root.
	Destination string

	// JarDistributions name the distributions the library is built from.
	JarDistributions []string

	// BuildArgs are extra arguments for building the library.
	BuildArgs []string

	// JVMLibrary marks libraries that belong next to the VM rather than
	// in the component directory.
	JVMLibrary bool
}
