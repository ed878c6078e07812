package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// moduleNameRegex matches valid platform module names: dot-separated Java
// identifiers (e.g. "java.base", "org.graalvm.truffle").
var moduleNameRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// ValidateModuleName validates a platform module name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Dot-separated identifier segments only
//   - Maximum length of 256 characters
func ValidateModuleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidModule, "module name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidModule, "module name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidModule, "module name contains invalid control characters")
		}
	}

	if !moduleNameRegex.MatchString(name) {
		return New(ErrCodeInvalidModule, "invalid module name: %q", name)
	}

	return nil
}

// componentShortNameRegex matches valid component short names (e.g. "svm", "js").
var componentShortNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateComponentShortName validates a component short name.
// Commas are structurally significant in component lists and are rejected,
// as is anything that would not survive a round trip through an env file.
func ValidateComponentShortName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidComponent, "component short name cannot be empty")
	}

	if strings.Contains(name, ",") {
		return New(ErrCodeInvalidComponent, "component short name cannot contain commas: %q", name)
	}

	if !componentShortNameRegex.MatchString(name) {
		return New(ErrCodeInvalidComponent, "invalid component short name: %q", name)
	}

	return nil
}

// ValidateArchiveEntryPath validates an entry path inside a module or source
// archive. It prevents path traversal when entries are re-packed into a new
// archive.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateArchiveEntryPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "archive entry path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "archive entry path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "archive entry path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "archive entry path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "archive entry path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "archive entry path cannot contain backslashes")
	}

	return nil
}
