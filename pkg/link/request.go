package link

import (
	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/jdk"
	"github.com/linkforge/linkforge/pkg/module"
)

// Request describes one image link operation. It is transient: a request is
// consumed by a single [Linker.Run] call and holds no state afterwards.
type Request struct {
	// JDK is the source runtime the new image is derived from.
	JDK *jdk.JDK

	// DestDir is the output directory of the new runtime image. It must
	// not already exist; the linking tool refuses to overwrite.
	DestDir string

	// Modules are the module-bearing distributions to add to the image,
	// replacing any runtime modules of the same name.
	Modules []*module.Descriptor

	// IgnoreModules names modules exempt from the missing-export policy.
	IgnoreModules []string

	// RootModules, when non-empty, is the explicit root set for the new
	// image. Every name must be present in the final universe. When empty,
	// the root set is the entire universe.
	RootModules []string

	// MissingExportPolicy selects how unresolvable qualified-export targets
	// are handled. Empty defaults to PolicyCreate.
	MissingExportPolicy Policy

	// WithSource decides whether a module's sources are included in the
	// image's source bundle. Nil includes every module's sources.
	WithSource func(*module.Descriptor) bool

	// VendorInfo holds values for the linking tool's vendor options
	// (e.g. "vendor-version"). Applied only when the tool supports the
	// extended option set.
	VendorInfo map[string]string

	// DedupLegalNotices asks the linking tool to de-duplicate legal
	// notice files, failing on same-name different-content collisions.
	DedupLegalNotices bool

	// KeepBuildDir retains the scratch build directory for manual
	// re-execution of a failed sub-step. Set in verbose/diagnostic runs.
	KeepBuildDir bool
}

// normalize applies defaults and validates the request.
func (r *Request) normalize() error {
	if r.JDK == nil {
		return errors.New(errors.ErrCodeInvalidInput, "link request has no source runtime")
	}
	if r.DestDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "link request has no destination directory")
	}
	if r.MissingExportPolicy == "" {
		r.MissingExportPolicy = PolicyCreate
	}
	if !r.MissingExportPolicy.Valid() {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid missing-export policy: %q", r.MissingExportPolicy)
	}
	if r.WithSource == nil {
		r.WithSource = func(*module.Descriptor) bool { return true }
	}
	for _, d := range r.Modules {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}
