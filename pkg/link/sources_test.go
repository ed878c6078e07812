package link

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linkforge/linkforge/pkg/module"
)

func writeTestZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func includeAll(*module.Descriptor) bool { return true }

func TestAssembleSourcesReplacesModuleSubtree(t *testing.T) {
	dir := t.TempDir()
	runtimeSrc := filepath.Join(dir, "src.zip")
	writeTestZip(t, runtimeSrc, map[string]string{
		"java.base/java/lang/Object.java": "class Object {}",
		"org.graalvm.sdk/Old.java":        "old",
		"org.graalvm.sdk/nested/Old.java": "old nested",
	})

	archive := filepath.Join(dir, "org.graalvm.sdk.jar")
	writeTestZip(t, strings.TrimSuffix(archive, ".jar")+".src.zip", map[string]string{
		"org/graalvm/Value.java": "class Value {}",
	})

	d := &module.Descriptor{
		Name:        "org.graalvm.sdk",
		Requires:    map[string][]string{"java.base": {"mandated"}},
		ArchivePath: archive,
	}

	entries, err := assembleSources(runtimeSrc, []*module.Descriptor{d}, includeAll, nil)
	if err != nil {
		t.Fatalf("assembleSources() error = %v", err)
	}

	if _, ok := entries["java.base/java/lang/Object.java"]; !ok {
		t.Error("unrelated runtime sources were dropped")
	}
	for _, stale := range []string{"org.graalvm.sdk/Old.java", "org.graalvm.sdk/nested/Old.java"} {
		if _, ok := entries[stale]; ok {
			t.Errorf("replaced module source %s survived", stale)
		}
	}
	if got := entries["org.graalvm.sdk/org/graalvm/Value.java"]; string(got) != "class Value {}" {
		t.Errorf("module source entry = %q", got)
	}
	info := string(entries["org.graalvm.sdk/module-info.java"])
	if !strings.Contains(info, "module org.graalvm.sdk {") {
		t.Errorf("module-info entry = %q", info)
	}
}

func TestAssembleSourcesExclusionAndMissingInputs(t *testing.T) {
	dir := t.TempDir()

	// No runtime source bundle and no per-module source archives.
	included := &module.Descriptor{Name: "mod.a", ArchivePath: filepath.Join(dir, "a.jar")}
	excluded := &module.Descriptor{Name: "mod.b", ArchivePath: filepath.Join(dir, "b.jar")}

	entries, err := assembleSources(filepath.Join(dir, "src.zip"),
		[]*module.Descriptor{included, excluded},
		func(d *module.Descriptor) bool { return d.Name != "mod.b" }, nil)
	if err != nil {
		t.Fatalf("assembleSources() error = %v", err)
	}

	if _, ok := entries["mod.a/module-info.java"]; !ok {
		t.Error("included module contributed no module-info entry")
	}
	for name := range entries {
		if strings.HasPrefix(name, "mod.b/") {
			t.Errorf("excluded module contributed entry %s", name)
		}
	}
}

func TestAssembleSourcesRejectsUnsafeEntries(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "mod.jar")
	writeTestZip(t, strings.TrimSuffix(archive, ".jar")+".src.zip", map[string]string{
		"../escape.java": "bad",
	})

	d := &module.Descriptor{Name: "mod.a", ArchivePath: archive}
	_, err := assembleSources(filepath.Join(dir, "src.zip"), []*module.Descriptor{d}, includeAll, nil)
	if err == nil {
		t.Fatal("expected error for traversal entry")
	}
}

func TestWriteDeterministicZipIsReproducible(t *testing.T) {
	dir := t.TempDir()
	entries := map[string][]byte{
		"b/second.java": []byte("b"),
		"a/first.java":  []byte("a"),
		"c/third.java":  []byte("c"),
	}

	first := filepath.Join(dir, "first.zip")
	second := filepath.Join(dir, "second.zip")
	if err := writeDeterministicZip(first, entries); err != nil {
		t.Fatal(err)
	}
	if err := writeDeterministicZip(second, entries); err != nil {
		t.Fatal(err)
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical inputs produced different archives")
	}

	// Entries come back in sorted order with the fixed timestamp.
	r, err := zip.OpenReader(first)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	wantOrder := []string{"a/first.java", "b/second.java", "c/third.java"}
	for i, f := range r.File {
		if f.Name != wantOrder[i] {
			t.Errorf("entry[%d] = %s, want %s", i, f.Name, wantOrder[i])
		}
		if !f.Modified.Equal(zipEpoch) {
			t.Errorf("entry %s timestamp = %v, want %v", f.Name, f.Modified, zipEpoch)
		}
	}
}
