package link

import (
	"sort"
	"strings"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/module"
)

// Policy selects what happens to qualified-export targets that cannot be
// resolved in the final image.
type Policy string

const (
	// PolicyCreate synthesizes an empty placeholder module per missing target.
	PolicyCreate Policy = "create"
	// PolicyError aborts the link, naming every missing target.
	PolicyError Policy = "error"
	// PolicyNone leaves targets unresolved; the caller accepts the risk of
	// module-resolution failures inside the generated image.
	PolicyNone Policy = "none"
)

// Valid reports whether p is one of the defined policies.
func (p Policy) Valid() bool {
	switch p {
	case PolicyCreate, PolicyError, PolicyNone:
		return true
	}
	return false
}

// Universe is the complete set of module names considered resolvable for one
// link operation.
type Universe struct {
	names map[string]struct{}
}

// NewUniverse builds a universe from the given name lists.
func NewUniverse(nameLists ...[]string) *Universe {
	u := &Universe{names: make(map[string]struct{})}
	for _, list := range nameLists {
		for _, n := range list {
			u.names[n] = struct{}{}
		}
	}
	return u
}

// Contains reports whether the universe holds the named module.
func (u *Universe) Contains(name string) bool {
	_, ok := u.names[name]
	return ok
}

// Names returns all module names in sorted order. Sorting makes the default
// root set deterministic regardless of input iteration order.
func (u *Universe) Names() []string {
	out := make([]string, 0, len(u.names))
	for n := range u.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of modules in the universe.
func (u *Universe) Len() int { return len(u.names) }

func (u *Universe) add(name string) { u.names[name] = struct{}{} }

// Resolution is the outcome of qualified-export resolution.
type Resolution struct {
	// Universe contains every resolvable module name: runtime modules,
	// supplied modules, and (under PolicyCreate) synthetic modules.
	Universe *Universe

	// Synthetics are the placeholder modules created under PolicyCreate,
	// sorted by name. Empty otherwise.
	Synthetics []*module.Descriptor

	// Unresolved maps each missing target to the sorted names of the
	// modules whose qualified exports name it. Populated only under
	// PolicyNone; under PolicyCreate the targets appear as Synthetics
	// instead, and under PolicyError resolution fails.
	Unresolved map[string][]string
}

// Resolve computes the module universe for one link operation and resolves
// missing qualified-export targets according to policy.
//
// A target is missing when it is neither a runtime module nor a supplied
// module, is not in the ignore set, and has no hash recorded in the base
// module (a recorded hash means it was deliberately omitted upstream and is
// verified by hash instead of presence).
//
// Resolve is a pure function: identical inputs yield identical results, and
// output ordering never depends on map iteration order.
func Resolve(supplied []*module.Descriptor, runtimeNames []string, ignore []string, hashes module.HashTable, policy Policy) (*Resolution, error) {
	if !policy.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid missing-export policy: %q", policy)
	}

	universe := NewUniverse(runtimeNames, module.Names(supplied))

	ignored := make(map[string]struct{}, len(ignore))
	for _, n := range ignore {
		ignored[n] = struct{}{}
	}

	// target -> set of exporting module names
	targetRequires := make(map[string]map[string]struct{})
	for _, d := range supplied {
		for _, targets := range d.Exports {
			for _, target := range targets {
				if universe.Contains(target) {
					continue
				}
				if _, ok := ignored[target]; ok {
					continue
				}
				if _, ok := hashes[target]; ok {
					continue
				}
				set, ok := targetRequires[target]
				if !ok {
					set = make(map[string]struct{})
					targetRequires[target] = set
				}
				set[d.Name] = struct{}{}
			}
		}
	}

	res := &Resolution{Universe: universe}
	if len(targetRequires) == 0 {
		return res, nil
	}

	pending := make([]string, 0, len(targetRequires))
	for target := range targetRequires {
		pending = append(pending, target)
	}
	sort.Strings(pending)

	switch policy {
	case PolicyError:
		return nil, errors.New(errors.ErrCodeUnresolvedExportTarget,
			"target(s) of qualified exports cannot be resolved: %s", strings.Join(pending, ", "))

	case PolicyCreate:
		for _, target := range pending {
			requires := make([]string, 0, len(targetRequires[target]))
			for name := range targetRequires[target] {
				requires = append(requires, name)
			}
			sort.Strings(requires)
			res.Synthetics = append(res.Synthetics, module.NewSynthetic(target, requires, ""))
			universe.add(target)
		}

	case PolicyNone:
		res.Unresolved = make(map[string][]string, len(pending))
		for _, target := range pending {
			requires := make([]string, 0, len(targetRequires[target]))
			for name := range targetRequires[target] {
				requires = append(requires, name)
			}
			sort.Strings(requires)
			res.Unresolved[target] = requires
		}
	}

	return res, nil
}
