package link

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/linkforge/linkforge/pkg/cache"
	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/module"
	"github.com/linkforge/linkforge/pkg/observability"
	"github.com/linkforge/linkforge/pkg/run"
)

// Linker assembles new runtime images from a source runtime and a set of
// module-bearing distributions. A Linker is stateless across runs and safe
// to reuse; all per-operation state lives in the [Request] and the scratch
// build directory.
type Linker struct {
	runner run.Runner
	logger *log.Logger
	cache  cache.Cache
}

// New creates a Linker. A nil runner defaults to executing real processes
// and a nil cache disables capability caching.
func New(runner run.Runner, logger *log.Logger, c cache.Cache) *Linker {
	if runner == nil {
		runner = run.NewExecRunner(logger)
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Linker{runner: runner, logger: logger, cache: c}
}

// Report summarizes a completed link operation.
type Report struct {
	// Image is the destination directory of the generated runtime image.
	Image string

	// Universe is the sorted set of module names resolvable in the image.
	Universe []string

	// Synthetics names the placeholder modules created for missing
	// qualified-export targets, sorted.
	Synthetics []string

	// Unresolved maps missing export targets left unresolved under
	// PolicyNone to the modules exporting to them.
	Unresolved map[string][]string

	// PolicyPatch records whether the base module's security policy
	// needed patching.
	PolicyPatch PatchOutcome

	// BuildDir is the retained scratch directory, set only when the
	// request asked to keep it.
	BuildDir string
}

// Run executes one image link operation end to end: inventory the source
// runtime, resolve qualified-export targets, materialize placeholder
// modules, patch the base module policy, invoke the linking tool, then
// post-process the image (source bundle, static libraries, startup cache).
//
// The scratch build directory is always removed on return, success or
// failure, unless the request sets KeepBuildDir.
func (l *Linker) Run(ctx context.Context, req *Request) (*Report, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(req.DestDir); err == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"destination %s already exists", req.DestDir)
	}

	j := req.JDK
	l.logger.Info("linking runtime image", "source", j.Home, "dest", req.DestDir,
		"modules", len(req.Modules))

	var (
		runtimeModules []*module.Descriptor
		hashes         module.HashTable
		resolution     *Resolution
	)
	err := l.step(ctx, "inventory", func() error {
		var err error
		if runtimeModules, err = j.Modules(ctx); err != nil {
			return err
		}
		hashes, err = j.BaseHashes(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	caps, err := j.Capabilities(ctx, l.cache)
	if err != nil {
		return nil, err
	}

	err = l.step(ctx, "resolve", func() error {
		var err error
		resolution, err = Resolve(req.Modules, module.Names(runtimeModules),
			req.IgnoreModules, hashes, req.MissingExportPolicy)
		return err
	})
	if err != nil {
		return nil, err
	}
	for target, exporters := range resolution.Unresolved {
		l.logger.Debug("leaving qualified-export target unresolved",
			"target", target, "exported_by", strings.Join(exporters, ","))
	}

	buildDir := req.DestDir + ".build-" + uuid.NewString()[:8]
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cannot create build directory")
	}
	defer func() {
		if req.KeepBuildDir {
			l.logger.Info("keeping build directory", "path", buildDir)
			return
		}
		if err := os.RemoveAll(buildDir); err != nil {
			l.logger.Warn("cannot remove build directory", "path", buildDir, "err", err)
		}
	}()

	err = l.step(ctx, "synthesize", func() error {
		return l.materializeSynthetics(ctx, req, resolution.Synthetics, buildDir)
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		Image:      req.DestDir,
		Universe:   resolution.Universe.Names(),
		Synthetics: module.Names(resolution.Synthetics),
		Unresolved: resolution.Unresolved,
	}

	patchedBase := filepath.Join(buildDir, jdkBaseArchiveName)
	err = l.step(ctx, "policy", func() error {
		outcome, err := PatchBasePolicy(j.BaseJmod(), patchedBase)
		if err != nil {
			return err
		}
		report.PolicyPatch = outcome
		l.logger.Debug("base module security policy", "outcome", outcome)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var sources map[string][]byte
	err = l.step(ctx, "sources", func() error {
		var err error
		sources, err = assembleSources(j.SrcZip(), req.Modules, req.WithSource, l.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = l.step(ctx, "assemble", func() error {
		args, err := assembleArgs(req, caps, resolution.Universe, resolution.Synthetics, patchedBase)
		if err != nil {
			return err
		}
		res, err := l.runTool(ctx, run.Cmd{Path: j.Jlink(), Args: args})
		if err != nil {
			return errors.Wrap(errors.ErrCodeLinkTool, err, "cannot start linking tool")
		}
		if !res.Success() {
			return errors.New(errors.ErrCodeLinkTool,
				"linking tool failed with exit code %d: %s", res.ExitCode, res.Combined())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = l.step(ctx, "bundle", func() error {
		if len(sources) == 0 {
			return nil
		}
		return writeDeterministicZip(filepath.Join(req.DestDir, "lib", "src.zip"), sources)
	})
	if err != nil {
		return nil, err
	}

	err = l.step(ctx, "statics", func() error {
		return copyStaticLibs(j, req.DestDir, l.logger)
	})
	if err != nil {
		return nil, err
	}

	err = l.step(ctx, "startup-cache", func() error {
		java := filepath.Join(req.DestDir, "bin", exeName("java"))
		res, err := l.runTool(ctx, run.Cmd{
			Path: java,
			Args: []string{"-Xshare:dump", "-Xmx128M", "-Xms128M"},
		})
		if err != nil {
			return errors.Wrap(errors.ErrCodeCacheGeneration, err, "cannot start image java")
		}
		if !res.Success() {
			return errors.New(errors.ErrCodeCacheGeneration,
				"startup cache generation failed with exit code %d: %s", res.ExitCode, res.Combined())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.KeepBuildDir {
		report.BuildDir = buildDir
	}
	l.logger.Info("runtime image linked", "dest", req.DestDir,
		"modules", len(report.Universe), "synthetic", len(report.Synthetics))
	return report, nil
}

// jdkBaseArchiveName is the file name of the patched base module archive in
// the build directory. It must keep the original name so the linking tool
// identifies the module.
const jdkBaseArchiveName = "java.base.jmod"

// materializeSynthetics compiles and packages each placeholder descriptor
// into a jmod archive under buildDir, setting its ArchivePath. The
// placeholder's module-info is compiled against the supplied module archives
// with the module graph limited to the base module plus its requires, so
// compilation never resolves more of the runtime than the placeholder names.
func (l *Linker) materializeSynthetics(ctx context.Context, req *Request, synthetics []*module.Descriptor, buildDir string) error {
	if len(synthetics) == 0 {
		return nil
	}
	j := req.JDK

	var modulePath []string
	for _, d := range req.Modules {
		modulePath = append(modulePath, d.ArchivePath)
	}

	for _, d := range synthetics {
		l.logger.Info("creating placeholder module", "name", d.Name,
			"required_by", strings.Join(d.RequiresNames(), ","))

		srcDir := filepath.Join(buildDir, "synthetic", d.Name)
		classDir := filepath.Join(srcDir, "classes")
		if err := os.MkdirAll(classDir, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "cannot create %s", classDir)
		}
		infoPath := filepath.Join(srcDir, "module-info.java")
		if err := os.WriteFile(infoPath, []byte(module.ModuleInfoSource(d)), 0644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "cannot write %s", infoPath)
		}

		limit := append([]string{"java.base"}, d.RequiresNames()...)
		args := []string{
			"-d", classDir,
			"--limit-modules=" + strings.Join(limit, ","),
		}
		if len(modulePath) > 0 {
			args = append(args, "--module-path="+strings.Join(modulePath, string(os.PathListSeparator)))
		}
		args = append(args, infoPath)

		res, err := l.runTool(ctx, run.Cmd{Path: j.Javac(), Args: args})
		if err != nil {
			return errors.Wrap(errors.ErrCodeToolFailed, err, "cannot start compiler")
		}
		if !res.Success() {
			return errors.New(errors.ErrCodeToolFailed,
				"compiling placeholder module %s failed with exit code %d: %s",
				d.Name, res.ExitCode, res.Combined())
		}

		jmodPath := filepath.Join(buildDir, d.Name+".jmod")
		res, err = l.runTool(ctx, run.Cmd{
			Path: j.Jmod(),
			Args: []string{"create", "--class-path", classDir, jmodPath},
		})
		if err != nil {
			return errors.Wrap(errors.ErrCodeToolFailed, err, "cannot start module packaging tool")
		}
		if !res.Success() {
			return errors.New(errors.ErrCodeToolFailed,
				"packaging placeholder module %s failed with exit code %d: %s",
				d.Name, res.ExitCode, res.Combined())
		}
		d.ArchivePath = jmodPath
	}
	return nil
}

// step runs fn as a named link step with observability events around it.
func (l *Linker) step(ctx context.Context, name string, fn func() error) error {
	observability.Link().OnStepStart(ctx, name)
	start := time.Now()
	err := fn()
	observability.Link().OnStepComplete(ctx, name, time.Since(start), err)
	return err
}

// runTool runs an external process with observability events around it.
func (l *Linker) runTool(ctx context.Context, cmd run.Cmd) (run.Result, error) {
	observability.Tool().OnToolStart(ctx, cmd.Path, cmd.Args)
	start := time.Now()
	res, err := l.runner.Run(ctx, cmd)
	observability.Tool().OnToolComplete(ctx, cmd.Path, res.ExitCode, time.Since(start))
	return res, err
}

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}
