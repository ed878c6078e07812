package link

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linkforge/linkforge/pkg/errors"
)

// writeTestJmod writes a jmod archive (magic header plus zip payload) with
// the given entries.
func writeTestJmod(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(jmodMagic)
	w := zip.NewWriter(&buf)
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
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

// readJmodEntry extracts one entry from a jmod archive.
func readJmodEntry(t *testing.T, path, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, jmodMagic) {
		t.Fatalf("%s has no jmod header", path)
	}
	payload := data[len(jmodMagic):]
	r, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range r.File {
		if f.Name == name {
			content, err := readZipFile(f)
			if err != nil {
				t.Fatal(err)
			}
			return content
		}
	}
	t.Fatalf("%s not found in %s", name, path)
	return nil
}

func TestPatchBasePolicyAppendsGrants(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "java.base.jmod")
	dst := filepath.Join(dir, "patched.jmod")
	writeTestJmod(t, src, map[string]string{
		"classes/module-info.class": "stub",
		policyEntry:                 "// default policy\n",
	})

	outcome, err := PatchBasePolicy(src, dst)
	if err != nil {
		t.Fatalf("PatchBasePolicy() error = %v", err)
	}
	if outcome != PatchModified {
		t.Errorf("outcome = %q, want %q", outcome, PatchModified)
	}

	policy := string(readJmodEntry(t, dst, policyEntry))
	if !strings.HasPrefix(policy, "// default policy\n") {
		t.Error("original policy content not preserved")
	}
	if !strings.Contains(policy, enterpriseGrantMarker) {
		t.Error("enterprise grant not appended")
	}
	if !strings.Contains(policy, truffleGrantMarker) {
		t.Error("truffle grant not appended")
	}
	if !strings.Contains(policy, `grant codeBase "file:${java.home}/languages/-"`) {
		t.Error("language home grant not appended")
	}

	// Unrelated entries survive untouched.
	if got := readJmodEntry(t, dst, "classes/module-info.class"); string(got) != "stub" {
		t.Errorf("module-info.class = %q, want stub", got)
	}
}

func TestPatchBasePolicyIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "java.base.jmod")
	once := filepath.Join(dir, "once.jmod")
	twice := filepath.Join(dir, "twice.jmod")
	writeTestJmod(t, src, map[string]string{policyEntry: "// default policy\n"})

	if _, err := PatchBasePolicy(src, once); err != nil {
		t.Fatal(err)
	}
	outcome, err := PatchBasePolicy(once, twice)
	if err != nil {
		t.Fatalf("PatchBasePolicy() error = %v", err)
	}
	if outcome != PatchUnmodified {
		t.Errorf("outcome = %q, want %q", outcome, PatchUnmodified)
	}

	a := readJmodEntry(t, once, policyEntry)
	b := readJmodEntry(t, twice, policyEntry)
	if !bytes.Equal(a, b) {
		t.Error("re-patching changed the policy content")
	}
}

func TestPatchBasePolicyMissingEntry(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "java.base.jmod")
	writeTestJmod(t, src, map[string]string{"classes/module-info.class": "stub"})

	_, err := PatchBasePolicy(src, filepath.Join(dir, "patched.jmod"))
	if err == nil {
		t.Fatal("expected error for jmod without policy entry")
	}
	if code := errors.GetCode(err); code != errors.ErrCodePolicyPatchLayout {
		t.Errorf("code = %q, want %q", code, errors.ErrCodePolicyPatchLayout)
	}
}

func TestPatchBasePolicyBadHeader(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "java.base.jmod")
	if err := os.WriteFile(src, []byte("PK\x03\x04 not a jmod"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := PatchBasePolicy(src, filepath.Join(dir, "patched.jmod"))
	if err == nil {
		t.Fatal("expected error for non-jmod file")
	}
	if code := errors.GetCode(err); code != errors.ErrCodePolicyPatchLayout {
		t.Errorf("code = %q, want %q", code, errors.ErrCodePolicyPatchLayout)
	}
}
