package link

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/linkforge/linkforge/pkg/cache"
	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/jdk"
)

// copyStaticLibs propagates the runtime's packaged static libraries into the
// new image.
//
// The lib/static tree is copied wholesale when present. Some platforms fault
// in the metadata phase of a tree copy after file contents have been copied
// successfully; such errors are recovered by verifying that every source
// file exists in the destination with matching content hash. Only a genuine
// content mismatch is fatal. Older runtime layouts without lib/static fall
// back to copying the static archives directly out of lib/.
func copyStaticLibs(j *jdk.JDK, destDir string, logger *log.Logger) error {
	srcDir := j.StaticLibDir()
	if dirExists(srcDir) {
		dstDir := filepath.Join(destDir, "lib", "static")
		if err := copyTree(srcDir, dstDir); err != nil {
			if verr := verifyTreeContents(srcDir, dstDir, err); verr != nil {
				return verr
			}
			if logger != nil {
				logger.Warn("static library copy reported an error but contents verified", "cause", err)
			}
		}
		return nil
	}

	// Older layouts keep static archives directly in lib/.
	prefix, suffix := staticLibNaming()
	libDir := filepath.Join(j.Home, "lib")
	dstLibDir := filepath.Join(destDir, "lib")
	entries, err := os.ReadDir(libDir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStaticLibCopy, err, "cannot list %s", libDir)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		if err := copyFile(filepath.Join(libDir, name), filepath.Join(dstLibDir, name)); err != nil {
			return errors.Wrap(errors.ErrCodeStaticLibCopy, err, "cannot copy %s", name)
		}
	}
	return nil
}

// staticLibNaming returns the platform naming convention for static
// library archives.
func staticLibNaming() (prefix, suffix string) {
	if runtime.GOOS == "windows" {
		return "", ".lib"
	}
	return "lib", ".a"
}

// verifyTreeContents checks that every file under src exists under dst with
// identical content, returning a fatal STATIC_LIB_COPY error (carrying the
// original copy error) on any missing file or hash mismatch.
func verifyTreeContents(src, dst string, cause error) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return errors.Wrap(errors.ErrCodeStaticLibCopy, cause,
				"error verifying static libraries: cannot walk %s: %v", path, err)
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, rel)

		srcHash, err := hashFile(path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStaticLibCopy, cause,
				"error verifying static libraries: cannot hash %s: %v", path, err)
		}
		dstHash, err := hashFile(dstPath)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStaticLibCopy, cause,
				"error copying static libraries: %s missing in %s", rel, dst)
		}
		if srcHash != dstHash {
			return errors.Wrap(errors.ErrCodeStaticLibCopy, cause,
				"error copying static libraries: %s (hash=%s) and %s (hash=%s) differ",
				path, srcHash, dstPath, dstHash)
		}
		return nil
	})
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// copyTree copies the directory tree rooted at src to dst, preserving file
// modes.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
