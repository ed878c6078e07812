// Package jdk provides a handle on a source runtime image (a modular JDK).
//
// The handle validates the image layout once at open time, exposes the paths
// of the platform tools the linker invokes (java, jlink, jmod, javac, jar),
// inventories the platform modules packaged under jmods/, and probes the
// runtime for optional linker capabilities (see [JDK.Capabilities]).
package jdk

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/module"
	"github.com/linkforge/linkforge/pkg/run"
)

// BaseModule is the module that records hashes of deliberately omitted
// modules and carries the security policy file.
const BaseModule = "java.base"

// excludedModules are never taken from the source runtime inventory.
// jdk.aot is excluded because linking it is known to produce broken images.
var excludedModules = map[string]bool{
	"jdk.aot": true,
}

// JDK is a handle on a modular runtime image on disk.
type JDK struct {
	// Home is the runtime's root directory.
	Home string

	runner run.Runner
	logger *log.Logger

	// cached inventory, populated by Modules
	modules []*module.Descriptor
	hashes  module.HashTable
}

// Open validates the layout of the runtime at home and returns a handle.
//
// A developer build with exploded modules (modules/java.base on disk) cannot
// be re-linked, nor can an image lacking the lib/modules jimage file or the
// jmods/ directory. Such layouts produce an INVALID_RUNTIME_LAYOUT error.
func Open(home string, runner run.Runner, logger *log.Logger) (*JDK, error) {
	if runner == nil {
		runner = run.NewExecRunner(logger)
	}

	if exploded := filepath.Join(home, "modules", BaseModule); isDir(exploded) {
		return nil, errors.New(errors.ErrCodeRuntimeLayout,
			"cannot derive a new runtime from %s: it appears to be a developer build with exploded modules", home)
	}
	if jimage := filepath.Join(home, "lib", "modules"); !isFile(jimage) {
		return nil, errors.New(errors.ErrCodeRuntimeLayout,
			"cannot derive a new runtime from %s: %s is missing or is not an ordinary file", home, jimage)
	}
	jmods := filepath.Join(home, "jmods")
	if !isDir(jmods) {
		return nil, errors.New(errors.ErrCodeRuntimeLayout,
			"cannot derive a new runtime from %s: %s is missing or is not a directory", home, jmods)
	}

	j := &JDK{Home: home, runner: runner, logger: logger}
	if v := j.MajorVersion(); v > 0 && v < 9 {
		return nil, errors.New(errors.ErrCodeRuntimeLayout,
			"cannot derive a new runtime from %s: it is not JDK 9 or later", home)
	}
	return j, nil
}

// Exe returns the path of the named tool in the runtime's bin directory,
// with the platform executable suffix applied.
func (j *JDK) Exe(name string) string {
	return filepath.Join(j.Home, "bin", exeName(name))
}

// exeName applies the platform executable suffix.
func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// Java returns the path of the java launcher.
func (j *JDK) Java() string { return j.Exe("java") }

// Jlink returns the path of the module-linking tool.
func (j *JDK) Jlink() string { return j.Exe("jlink") }

// Jmod returns the path of the module-description/packaging tool.
func (j *JDK) Jmod() string { return j.Exe("jmod") }

// Javac returns the path of the compiler.
func (j *JDK) Javac() string { return j.Exe("javac") }

// Jar returns the path of the jar tool.
func (j *JDK) Jar() string { return j.Exe("jar") }

// JmodsDir returns the directory holding the packaged platform modules.
func (j *JDK) JmodsDir() string { return filepath.Join(j.Home, "jmods") }

// BaseJmod returns the path of the packaged base module.
func (j *JDK) BaseJmod() string { return filepath.Join(j.JmodsDir(), BaseModule+".jmod") }

// SrcZip returns the path of the runtime's source bundle, which may not exist.
func (j *JDK) SrcZip() string { return filepath.Join(j.Home, "lib", "src.zip") }

// ReleaseFile returns the path of the release metadata file, which may not exist.
func (j *JDK) ReleaseFile() string { return filepath.Join(j.Home, "release") }

// StaticLibDir returns the directory of packaged static libraries, which may
// not exist on older runtime layouts.
func (j *JDK) StaticLibDir() string { return filepath.Join(j.Home, "lib", "static") }

// MajorVersion parses the feature version from the release file.
// Returns 0 when the release file is absent or unparsable.
func (j *JDK) MajorVersion() int {
	f, err := os.Open(j.ReleaseFile())
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "JAVA_VERSION=") {
			continue
		}
		v := strings.Trim(strings.TrimPrefix(line, "JAVA_VERSION="), `"`)
		// "21.0.1" -> 21; "1.8.0" -> 8 (legacy scheme)
		parts := strings.Split(v, ".")
		if len(parts) == 0 {
			return 0
		}
		major, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0
		}
		if major == 1 && len(parts) > 1 {
			if legacy, err := strconv.Atoi(parts[1]); err == nil {
				return legacy
			}
		}
		return major
	}
	return 0
}

// Modules inventories the platform modules packaged in the runtime, one
// descriptor per jmods/*.jmod archive. The inventory is computed once per
// handle and cached.
func (j *JDK) Modules(ctx context.Context) ([]*module.Descriptor, error) {
	if j.modules != nil {
		return j.modules, nil
	}

	entries, err := os.ReadDir(j.JmodsDir())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRuntimeLayout, err, "cannot list %s", j.JmodsDir())
	}

	var archives []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jmod") {
			continue
		}
		archives = append(archives, filepath.Join(j.JmodsDir(), e.Name()))
	}
	sort.Strings(archives)

	hashes := module.HashTable{}
	modules := make([]*module.Descriptor, 0, len(archives))
	for _, archive := range archives {
		d, h, err := j.Describe(ctx, archive)
		if err != nil {
			return nil, err
		}
		if excludedModules[d.Name] {
			continue
		}
		modules = append(modules, d)
		if d.Name == BaseModule {
			hashes = h
		}
	}

	j.modules = modules
	j.hashes = hashes
	return modules, nil
}

// BaseHashes returns the hash table recorded in the base module: hashes of
// modules that were deliberately omitted upstream. Resolution treats such
// modules as intentionally absent.
func (j *JDK) BaseHashes(ctx context.Context) (module.HashTable, error) {
	if j.hashes == nil {
		if _, err := j.Modules(ctx); err != nil {
			return nil, err
		}
	}
	return j.hashes, nil
}

// Describe runs the module-description tool on the given archive and parses
// the resulting descriptor. Jmod archives are described with "jmod describe";
// anything else is treated as a modular jar.
func (j *JDK) Describe(ctx context.Context, archive string) (*module.Descriptor, module.HashTable, error) {
	var cmd run.Cmd
	if strings.HasSuffix(archive, ".jmod") {
		cmd = run.Cmd{Path: j.Jmod(), Args: []string{"describe", archive}}
	} else {
		cmd = run.Cmd{Path: j.Jar(), Args: []string{"--describe-module", "--file=" + archive}}
	}

	res, err := j.runner.Run(ctx, cmd)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeToolFailed, err, "cannot describe %s", archive)
	}
	if !res.Success() {
		return nil, nil, errors.New(errors.ErrCodeMalformedModule,
			"describing %s failed with exit code %d: %s", archive, res.ExitCode, res.Combined())
	}
	return module.ParseDescribeOutput(res.Stdout, archive)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
