package module

import (
	"reflect"
	"testing"
)

func TestQualifiedExports(t *testing.T) {
	d := &Descriptor{
		Name: "m.a",
		Exports: map[string][]string{
			"p.open":      nil,
			"p.empty":     {},
			"p.qualified": {"m.c", "m.b"},
		},
	}

	q := d.QualifiedExports()
	if len(q) != 1 {
		t.Fatalf("len(QualifiedExports()) = %d, want 1", len(q))
	}
	if got := q["p.qualified"]; !reflect.DeepEqual(got, []string{"m.b", "m.c"}) {
		t.Errorf("q[p.qualified] = %v, want sorted targets", got)
	}
}

func TestNewSynthetic(t *testing.T) {
	d := NewSynthetic("m.target", []string{"m.a", "m.b"}, "/build/m.target.jar")

	if !d.Synthetic {
		t.Error("Synthetic = false")
	}
	if len(d.Exports) != 0 || len(d.Uses) != 0 || len(d.Provides) != 0 {
		t.Error("synthetic module must have no exports, uses, or provides")
	}
	if got := d.RequiresNames(); !reflect.DeepEqual(got, []string{"m.a", "m.b"}) {
		t.Errorf("RequiresNames() = %v", got)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidateRejectsEmptyName(t *testing.T) {
	d := &Descriptor{}
	if err := d.Validate(); err == nil {
		t.Error("Validate() = nil for empty name")
	}
}

func TestModuleInfoSourceDeterministic(t *testing.T) {
	d := &Descriptor{
		Name: "m.a",
		Requires: map[string][]string{
			"java.base":     {"mandated"},
			"java.compiler": {"transitive"},
			"m.util":        nil,
		},
		Exports: map[string][]string{
			"p.api":      nil,
			"p.internal": {"m.c", "m.b"},
		},
		Uses:     []string{"s.Service"},
		Provides: map[string][]string{"s.Other": {"p.impl.B", "p.impl.A"}},
	}

	want := `module m.a {
    requires java.base;
    requires transitive java.compiler;
    requires m.util;
    exports p.api;
    exports p.internal to m.b, m.c;
    uses s.Service;
    provides s.Other with p.impl.A, p.impl.B;
}
`
	got := ModuleInfoSource(d)
	if got != want {
		t.Errorf("ModuleInfoSource() =\n%s\nwant:\n%s", got, want)
	}

	// Repeated renders must be byte-identical.
	if again := ModuleInfoSource(d); again != got {
		t.Error("ModuleInfoSource() is not deterministic")
	}
}

func TestModuleInfoSourceSynthetic(t *testing.T) {
	d := NewSynthetic("m.target", []string{"m.a"}, "")
	want := `module m.target {
    requires m.a;
}
`
	if got := ModuleInfoSource(d); got != want {
		t.Errorf("ModuleInfoSource() = %q, want %q", got, want)
	}
}

func TestNames(t *testing.T) {
	ds := []*Descriptor{{Name: "m.c"}, {Name: "m.a"}, {Name: "m.b"}}
	if got := Names(ds); !reflect.DeepEqual(got, []string{"m.a", "m.b", "m.c"}) {
		t.Errorf("Names() = %v", got)
	}
}
