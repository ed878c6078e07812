package modgraph

import (
	"strings"
	"testing"

	"github.com/linkforge/linkforge/pkg/module"
)

func testDescriptors() []*module.Descriptor {
	return []*module.Descriptor{
		{
			Name:     "org.graalvm.truffle",
			Requires: map[string][]string{"java.base": {"mandated"}},
			Exports: map[string][]string{
				"com.oracle.truffle.api": {"com.oracle.truffle.enterprise"},
				"org.graalvm.polyglot":   nil,
			},
		},
		{Name: "java.base"},
		module.NewSynthetic("com.oracle.truffle.enterprise", []string{"org.graalvm.truffle"}, ""),
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testDescriptors())

	if !strings.HasPrefix(dot, "digraph modules {") {
		t.Errorf("unexpected header: %q", dot[:40])
	}
	if !strings.Contains(dot, `"org.graalvm.truffle" -> "java.base";`) {
		t.Error("requires edge missing")
	}
	if !strings.Contains(dot, `"org.graalvm.truffle" -> "com.oracle.truffle.enterprise" [style=dashed];`) {
		t.Error("qualified-export edge not dashed")
	}
	if strings.Contains(dot, `-> "org.graalvm.polyglot"`) {
		t.Error("unqualified export produced an edge")
	}
	if !strings.Contains(dot, `"com.oracle.truffle.enterprise" [label="com.oracle.truffle.enterprise", style="rounded,filled,dashed", fillcolor=lightgrey];`) {
		t.Error("synthetic node not marked")
	}
}

func TestToDOTDeterministic(t *testing.T) {
	first := ToDOT(testDescriptors())
	for i := 0; i < 10; i++ {
		if got := ToDOT(testDescriptors()); got != first {
			t.Fatal("output varies between renders")
		}
	}
}

func TestToDOTNodeOrder(t *testing.T) {
	dot := ToDOT(testDescriptors())
	base := strings.Index(dot, `"java.base" [`)
	truffle := strings.Index(dot, `"org.graalvm.truffle" [`)
	enterprise := strings.Index(dot, `"com.oracle.truffle.enterprise" [`)
	if !(enterprise < base && base < truffle) {
		t.Errorf("nodes not sorted: enterprise=%d base=%d truffle=%d", enterprise, base, truffle)
	}
}
