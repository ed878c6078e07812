package link

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/jdk"
	"github.com/linkforge/linkforge/pkg/module"
)

// Fixed VM options baked into every link invocation. These mirror how the
// upstream build runs the linking tool to produce its final runtime image
// and are deliberately not caller-configurable: generated images should be
// behaviorally uniform.
var fixedToolOptions = []string{
	"-J-XX:+UseSerialGC",
	"-J-Xms32M",
	"-J-Xmx512M",
	"-J-XX:TieredStopAtLevel=1",
	"-J-Dlink.debug=true",
}

// jitModule, when present among the supplied (non-synthetic) modules, means
// the image carries its own JIT compiler and may default to it.
const jitModule = "jdk.internal.vm.compiler"

// assembleArgs translates the resolved module set and request configuration
// into the linking tool's argument list.
//
// The module path is ordered so that the first match wins: supplied and
// synthetic module archives, then the patched base-module archive, then the
// runtime's own module archive store.
func assembleArgs(req *Request, caps *jdk.Capabilities, universe *Universe, synthetics []*module.Descriptor, patchedBase string) ([]string, error) {
	var args []string

	if caps.JVMCIEnabledByDefault {
		// +EnableJVMCI would force the JVMCI module into the root set.
		args = append(args, "-J-XX:-EnableJVMCI", "-J-XX:-UseJVMCICompiler")
	}

	if len(req.RootModules) > 0 {
		var missing []string
		for _, name := range req.RootModules {
			if !universe.Contains(name) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, errors.New(errors.ErrCodeUnknownModule,
				"invalid module(s): %s. Available modules: %s",
				strings.Join(missing, ","), strings.Join(universe.Names(), ","))
		}
		args = append(args, "--add-modules="+strings.Join(req.RootModules, ","))
	} else {
		args = append(args, "--add-modules="+strings.Join(universe.Names(), ","))
	}

	var pathEntries []string
	for _, d := range req.Modules {
		pathEntries = append(pathEntries, d.ArchivePath)
	}
	for _, d := range synthetics {
		pathEntries = append(pathEntries, d.ArchivePath)
	}
	pathEntries = append(pathEntries, patchedBase, req.JDK.JmodsDir())
	args = append(args, "--module-path="+strings.Join(pathEntries, string(os.PathListSeparator)))

	args = append(args, "--output="+req.DestDir)
	args = append(args, fixedToolOptions...)

	if req.DedupLegalNotices {
		args = append(args, "--dedup-legal-notices=error-if-not-same-content")
	}
	args = append(args, "--keep-packaged-modules="+filepath.Join(req.DestDir, "jmods"))

	if caps.NewJlinkOptions {
		args = append(args, extendedOptions(req, caps)...)
	}

	if release := req.JDK.ReleaseFile(); fileExists(release) {
		args = append(args, "--release-info="+release)
	}

	return args, nil
}

// extendedOptions builds the flags gated on the extended linking option set:
// baked-in VM options and vendor metadata.
func extendedOptions(req *Request, caps *jdk.Capabilities) []string {
	var args []string

	threadPriorityOption := ""
	if caps.ThreadPriorityPolicyQuiet {
		threadPriorityOption = " -XX:ThreadPriorityPolicy=1"
	}

	if caps.EnableJVMCIProduct {
		hasJIT := false
		for _, d := range req.Modules {
			if d.Name == jitModule {
				hasJIT = true
				break
			}
		}
		if hasJIT {
			args = append(args, "--add-options=-XX:+UnlockExperimentalVMOptions -XX:+EnableJVMCIProduct -XX:-UnlockExperimentalVMOptions"+threadPriorityOption)
		} else {
			// Don't default to the JVMCI compiler unless the image ships
			// its own: the runtime's stale copy causes surprises.
			args = append(args, "--add-options=-XX:+UnlockExperimentalVMOptions -XX:+EnableJVMCIProduct -XX:-UseJVMCICompiler -XX:-UnlockExperimentalVMOptions"+threadPriorityOption)
		}
	} else if threadPriorityOption != "" {
		args = append(args, "--add-options="+strings.TrimSpace(threadPriorityOption))
	}

	if len(req.VendorInfo) > 0 {
		keys := make([]string, 0, len(req.VendorInfo))
		for k := range req.VendorInfo {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			args = append(args, "--"+k+"="+req.VendorInfo[k])
		}
	}

	return args
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
