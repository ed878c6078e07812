// Package modgraph renders a module universe as a node-link diagram.
//
// Requires edges are drawn solid; qualified-export edges (module exports a
// package to a specific target) are drawn dashed. Synthetic placeholder
// modules get a grey fill so a reader can spot which parts of the universe
// were manufactured to satisfy resolution.
package modgraph

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/module"
)

// ToDOT converts the descriptors to Graphviz DOT format. Output is
// deterministic: nodes and edges are emitted in sorted order.
func ToDOT(descriptors []*module.Descriptor) string {
	var buf bytes.Buffer
	buf.WriteString("digraph modules {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	sorted := append([]*module.Descriptor(nil), descriptors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, d := range sorted {
		attrs := []string{fmt.Sprintf("label=%q", d.Name)}
		if d.Synthetic {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", d.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, d := range sorted {
		for _, req := range d.RequiresNames() {
			fmt.Fprintf(&buf, "  %q -> %q;\n", d.Name, req)
		}

		// Qualified exports, deduplicated per target module.
		targets := map[string]struct{}{}
		for _, list := range d.QualifiedExports() {
			for _, t := range list {
				targets[t] = struct{}{}
			}
		}
		names := make([]string, 0, len(targets))
		for t := range targets {
			names = append(names, t)
		}
		sort.Strings(names)
		for _, t := range names {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", d.Name, t)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cannot initialize graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cannot parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cannot render SVG")
	}
	return buf.Bytes(), nil
}
