package jdk

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/linkforge/linkforge/pkg/cache"
	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/run"
)

// Capabilities records which optional linker features the source runtime
// supports. Each field is established by feature-detection against the
// runtime's own tools, never assumed: a missing capability causes the
// corresponding flags to be omitted from the link invocation instead of
// failing it.
type Capabilities struct {
	// JVMCIEnabledByDefault reports whether the runtime enables JVMCI by
	// default, which forces the JVMCI module into the root set unless
	// suppressed.
	JVMCIEnabledByDefault bool `json:"jvmci_enabled_by_default"`

	// EnableJVMCIProduct reports whether the runtime accepts the
	// -XX:+EnableJVMCIProduct flag.
	EnableJVMCIProduct bool `json:"enable_jvmci_product"`

	// NewJlinkOptions reports whether the linking tool supports the
	// extended option set (--add-options and vendor flags).
	NewJlinkOptions bool `json:"new_jlink_options"`

	// ThreadPriorityPolicyQuiet reports whether the runtime accepts a
	// non-zero ThreadPriorityPolicy baked into the image without warning
	// at startup.
	ThreadPriorityPolicyQuiet bool `json:"thread_priority_policy_quiet"`
}

// Capabilities probes the runtime for optional linker features. Results are
// stored in c keyed by the runtime home (and the release file's modification
// time, so a swapped-in runtime re-probes). Pass a NullCache to force
// probing.
func (j *JDK) Capabilities(ctx context.Context, c cache.Cache) (*Capabilities, error) {
	if c == nil {
		c = cache.NewNullCache()
	}

	key := j.capabilityKey()
	if data, ok, _ := c.Get(ctx, key); ok {
		var caps Capabilities
		if err := json.Unmarshal(data, &caps); err == nil {
			return &caps, nil
		}
	}

	caps, err := j.probeCapabilities(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(caps); err == nil {
		_ = c.Set(ctx, key, data, 0)
	}
	return caps, nil
}

func (j *JDK) capabilityKey() string {
	var releaseMod int64
	if info, err := os.Stat(j.ReleaseFile()); err == nil {
		releaseMod = info.ModTime().UnixNano()
	}
	return cache.Key("jdk-capabilities", j.Home, releaseMod)
}

func (j *JDK) probeCapabilities(ctx context.Context) (*Capabilities, error) {
	caps := &Capabilities{}

	// One PrintFlagsFinal run answers both JVMCI questions.
	res, err := j.runner.Run(ctx, run.Cmd{
		Path: j.Java(),
		Args: []string{"-XX:+UnlockExperimentalVMOptions", "-XX:+PrintFlagsFinal", "-version"},
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolFailed, err, "cannot probe VM flags of %s", j.Home)
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.Contains(line, "EnableJVMCI") && strings.Contains(line, "true") {
			caps.JVMCIEnabledByDefault = true
		}
		if strings.Contains(line, "EnableJVMCIProduct") {
			caps.EnableJVMCIProduct = true
		}
	}

	res, err = j.runner.Run(ctx, run.Cmd{Path: j.Jlink(), Args: []string{"--list-plugins"}})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolFailed, err, "cannot probe jlink plugins of %s", j.Home)
	}
	caps.NewJlinkOptions = strings.Contains(res.Stdout, "--add-options=") ||
		strings.Contains(res.Stdout, "--add-options ")

	if caps.NewJlinkOptions {
		quiet, err := j.probeThreadPriorityPolicy(ctx)
		if err != nil {
			return nil, err
		}
		caps.ThreadPriorityPolicyQuiet = quiet
	}

	return caps, nil
}

// probeThreadPriorityPolicy links a throwaway base-only image with
// -XX:ThreadPriorityPolicy=1 baked in and checks whether starting it warns
// about the setting. Some runtimes emit a system-level-permission warning,
// in which case the flag is left out of real images.
func (j *JDK) probeThreadPriorityPolicy(ctx context.Context) (bool, error) {
	tmp, err := os.MkdirTemp("", "linkforge-tpp-probe")
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, err, "cannot create probe directory")
	}
	defer os.RemoveAll(tmp)

	probeImage := filepath.Join(tmp, "jdk")
	res, err := j.runner.Run(ctx, run.Cmd{
		Path: j.Jlink(),
		Args: []string{
			"--add-options=-XX:ThreadPriorityPolicy=1",
			"--output=" + probeImage,
			"--add-modules=" + BaseModule,
		},
	})
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeToolFailed, err, "cannot link ThreadPriorityPolicy probe image")
	}
	if !res.Success() {
		if j.logger != nil {
			j.logger.Debug("ThreadPriorityPolicy probe link failed", "output", res.Combined())
		}
		return false, nil
	}

	javaExe := filepath.Join(probeImage, "bin", exeName("java"))
	res, err = j.runner.Run(ctx, run.Cmd{Path: javaExe, Args: []string{"-version"}})
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeToolFailed, err, "cannot start ThreadPriorityPolicy probe image")
	}
	return !strings.Contains(res.Combined(), "-XX:ThreadPriorityPolicy=1 may require system level permission"), nil
}
