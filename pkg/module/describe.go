package module

import (
	"strings"

	"github.com/linkforge/linkforge/pkg/errors"
)

// Hash is one recorded module hash, as stored in the base module of a
// runtime image for modules that were deliberately omitted upstream.
type Hash struct {
	Algorithm string
	Value     string
}

// HashTable maps a module name to its recorded hash.
type HashTable map[string]Hash

// ParseDescribeOutput parses the text output of the platform's
// module-description tool ("jmod describe <file>" or
// "jar --describe-module --file=<file>") into a Descriptor.
//
// The recognized line forms are:
//
//	<name>[@<version>]              (first line; jar output may append the file name)
//	requires <module> [modifiers...]
//	exports <package> [to <m1> <m2> ...]
//	opens <package> [to <m1> <m2> ...]
//	uses <service>
//	provides <service> with <impl1> <impl2> ...
//	hashes <module> <algorithm> <value>
//
// Lines that do not match (contains, platform, main-class, ...) are ignored.
// Opens directives are irrelevant to link-time resolution and are skipped.
//
// Returns a MALFORMED_MODULE error when the output declares no module
// descriptor or the header line is unparsable.
func ParseDescribeOutput(output, archivePath string) (*Descriptor, HashTable, error) {
	lines := strings.Split(output, "\n")

	// The describe tools report automatic or descriptor-less archives
	// explicitly; those cannot be linked.
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "no module descriptor") || strings.Contains(lower, "automatic module") {
			return nil, nil, errors.New(errors.ErrCodeMalformedModule,
				"%s has no module descriptor", archivePath)
		}
	}

	d := &Descriptor{
		Exports:     make(map[string][]string),
		Requires:    make(map[string][]string),
		Provides:    make(map[string][]string),
		ArchivePath: archivePath,
	}
	hashes := HashTable{}

	seenHeader := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		if !seenHeader {
			// Header: "<name>[@<version>]" optionally followed by the
			// archive location in jar output.
			name, version := splitNameVersion(fields[0])
			if err := errors.ValidateModuleName(name); err != nil {
				return nil, nil, errors.Wrap(errors.ErrCodeMalformedModule, err,
					"unparsable module descriptor header %q in %s", line, archivePath)
			}
			d.Name = name
			d.Version = version
			seenHeader = true
			continue
		}

		switch fields[0] {
		case "requires":
			if len(fields) < 2 {
				continue
			}
			d.Requires[fields[1]] = append([]string(nil), fields[2:]...)
		case "exports":
			if len(fields) < 2 {
				continue
			}
			pkg := fields[1]
			switch {
			case len(fields) == 2:
				d.Exports[pkg] = nil
			case fields[2] == "to" && len(fields) > 3:
				d.Exports[pkg] = cleanTargets(fields[3:])
			default:
				// A qualifier with no targets would silently widen the
				// export; reject the scrape instead.
				return nil, nil, errors.New(errors.ErrCodeMalformedModule,
					"unparsable exports line %q in %s", line, archivePath)
			}
		case "opens":
			// Link-time resolution does not consider opens.
		case "uses":
			if len(fields) == 2 {
				d.Uses = append(d.Uses, fields[1])
			}
		case "provides":
			if len(fields) >= 4 && fields[2] == "with" {
				d.Provides[fields[1]] = cleanTargets(fields[3:])
			}
		case "hashes":
			// "hashes <module> <algorithm> <value>", recorded only in the
			// base module.
			if len(fields) != 4 {
				return nil, nil, errors.New(errors.ErrCodeMalformedModule,
					"expected hashes line to have 4 fields, got %d: %s", len(fields), line)
			}
			hashes[fields[1]] = Hash{Algorithm: fields[2], Value: fields[3]}
		}
	}

	if !seenHeader {
		return nil, nil, errors.New(errors.ErrCodeMalformedModule,
			"%s produced no module descriptor output", archivePath)
	}
	return d, hashes, nil
}

// splitNameVersion splits "java.base@21.0.1" into name and version.
func splitNameVersion(token string) (string, string) {
	if i := strings.IndexByte(token, '@'); i >= 0 {
		return token[:i], token[i+1:]
	}
	return token, ""
}

// cleanTargets normalizes a whitespace-separated target list, tolerating
// trailing commas emitted by some tool versions.
func cleanTargets(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSuffix(f, ",")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
