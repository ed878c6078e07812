package module

import (
	"fmt"
	"sort"
	"strings"
)

// ModuleInfoSource renders the descriptor as module-info.java source text.
//
// The output is deterministic: directives are emitted in sorted order so
// that repeated renders of the same descriptor are byte-identical. This
// matters for the source bundle, which must be reproducible, and for
// synthetic module compilation.
func ModuleInfoSource(d *Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s {\n", d.Name)

	for _, name := range sortedKeys(d.Requires) {
		modifiers := ""
		for _, m := range d.Requires[name] {
			// "mandated" is an attribute of the compiled form, not a
			// source-level modifier.
			if m == "transitive" || m == "static" {
				modifiers += m + " "
			}
		}
		fmt.Fprintf(&b, "    requires %s%s;\n", modifiers, name)
	}

	for _, pkg := range sortedKeys(d.Exports) {
		targets := d.Exports[pkg]
		if len(targets) == 0 {
			fmt.Fprintf(&b, "    exports %s;\n", pkg)
		} else {
			sorted := append([]string(nil), targets...)
			sort.Strings(sorted)
			fmt.Fprintf(&b, "    exports %s to %s;\n", pkg, strings.Join(sorted, ", "))
		}
	}

	uses := append([]string(nil), d.Uses...)
	sort.Strings(uses)
	for _, svc := range uses {
		fmt.Fprintf(&b, "    uses %s;\n", svc)
	}

	for _, svc := range sortedKeys(d.Provides) {
		impls := append([]string(nil), d.Provides[svc]...)
		sort.Strings(impls)
		fmt.Fprintf(&b, "    provides %s with %s;\n", svc, strings.Join(impls, ", "))
	}

	b.WriteString("}\n")
	return b.String()
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
