package link

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/module"
)

// zipEpoch is the fixed timestamp used for all source bundle entries, so
// that repeated builds from identical inputs are byte-identical.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// assembleSources computes the entry set of the new image's source bundle:
// the source runtime's bundle minus the subtrees of replaced modules, plus
// each included module's own sources and a synthesized module-info.java
// entry.
//
// A missing source bundle in the runtime is tolerated (logged); a missing
// per-module source archive just means that module contributes only its
// module-info entry.
func assembleSources(jdkSrcZip string, modules []*module.Descriptor, withSource func(*module.Descriptor) bool, logger *log.Logger) (map[string][]byte, error) {
	entries := map[string][]byte{}

	if fileExists(jdkSrcZip) {
		base, err := readZipEntries(jdkSrcZip)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "cannot read %s", jdkSrcZip)
		}
		entries = base
	} else if logger != nil {
		logger.Warn("source bundle does not exist or is not a file", "path", jdkSrcZip)
	}

	for _, d := range modules {
		// Drop existing sources for every module being replaced.
		for name := range entries {
			if strings.HasPrefix(name, d.Name+"/") {
				delete(entries, name)
			}
		}

		if !withSource(d) {
			continue
		}

		srcZip := moduleSrcZip(d)
		if fileExists(srcZip) {
			moduleEntries, err := readZipEntries(srcZip)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "cannot read %s", srcZip)
			}
			for name, content := range moduleEntries {
				if err := errors.ValidateArchiveEntryPath(name); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInvalidPath, err,
						"unsafe entry in %s", srcZip)
				}
				entries[d.Name+"/"+name] = content
			}
		}

		entries[d.Name+"/module-info.java"] = []byte(module.ModuleInfoSource(d))
	}

	return entries, nil
}

// moduleSrcZip is the conventional location of a module's source archive,
// next to the module archive itself.
func moduleSrcZip(d *module.Descriptor) string {
	ext := filepath.Ext(d.ArchivePath)
	return strings.TrimSuffix(d.ArchivePath, ext) + ".src.zip"
}

// readZipEntries reads every non-directory entry of a zip archive.
func readZipEntries(path string) (map[string][]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	entries := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		content, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		entries[f.Name] = content
	}
	return entries, nil
}

// writeDeterministicZip writes the entries to path in sorted order with a
// fixed timestamp, producing byte-identical output for identical inputs.
func writeDeterministicZip(path string, entries map[string][]byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	w := zip.NewWriter(f)
	for _, name := range names {
		entry, err := w.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: zipEpoch,
		})
		if err != nil {
			return err
		}
		if _, err := entry.Write(entries[name]); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	// The zip writer buffers; a close failure here means a truncated file.
	return f.Close()
}
