// Package module defines the platform module descriptor model.
//
// A [Descriptor] is a value capturing one platform module's declared surface:
// exported packages (plain and qualified), required modules, consumed and
// provided services, and the archive backing it. Descriptors are produced by
// parsing the output of the platform's module-description tool (see
// [ParseDescribeOutput]) and are treated as immutable once built.
//
// Synthetic descriptors (see [NewSynthetic]) are placeholder modules created
// by the linker to satisfy qualified-export targets that are absent from the
// final image. They carry no capability of their own.
package module

import (
	"sort"

	"github.com/linkforge/linkforge/pkg/errors"
)

// Descriptor describes a single platform module.
type Descriptor struct {
	// Name is the unique module name (e.g. "org.graalvm.truffle").
	Name string

	// Version is the module version, if declared. May be empty.
	Version string

	// Exports maps an exported package name to the sorted set of target
	// module names. An empty or nil target list means the export is
	// unqualified (visible to all modules).
	Exports map[string][]string

	// Requires maps a required module name to its modifiers
	// (e.g. "transitive", "static", "mandated").
	Requires map[string][]string

	// Uses lists consumed service interfaces.
	Uses []string

	// Provides maps a service interface to its implementation classes.
	Provides map[string][]string

	// ArchivePath is the filesystem location of the packaged module
	// artifact (a modular jar or jmod file).
	ArchivePath string

	// Synthetic marks placeholder modules created by the linker.
	Synthetic bool
}

// Validate checks the descriptor invariants: a non-empty, well-formed name.
func (d *Descriptor) Validate() error {
	return errors.ValidateModuleName(d.Name)
}

// QualifiedExports returns only the exports that name explicit targets,
// with target lists sorted. The returned map is freshly allocated.
func (d *Descriptor) QualifiedExports() map[string][]string {
	out := make(map[string][]string)
	for pkg, targets := range d.Exports {
		if len(targets) == 0 {
			continue
		}
		sorted := append([]string(nil), targets...)
		sort.Strings(sorted)
		out[pkg] = sorted
	}
	return out
}

// RequiresNames returns the sorted names of required modules.
func (d *Descriptor) RequiresNames() []string {
	names := make([]string, 0, len(d.Requires))
	for name := range d.Requires {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSynthetic creates a placeholder descriptor for a missing
// qualified-export target. The descriptor has no exports, uses, or provides;
// its requires list is exactly the set of real modules whose qualified
// exports name it, which satisfies the platform rule that every required
// module must exist without granting the placeholder any capability.
func NewSynthetic(name string, requires []string, archivePath string) *Descriptor {
	req := make(map[string][]string, len(requires))
	for _, r := range requires {
		req[r] = nil
	}
	return &Descriptor{
		Name:        name,
		Requires:    req,
		ArchivePath: archivePath,
		Synthetic:   true,
	}
}

// Names returns the sorted names of the given descriptors.
func Names(descriptors []*Descriptor) []string {
	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}
