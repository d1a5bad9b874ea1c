package executor

import (
	"fmt"
	"os/exec"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

// baseFs is readable by every executor in addition to what the sandbox
// exposes by default.
var baseFs = []string{"/etc/alternatives"}

// runtimes resolves command names to host paths once per process.
type runtimes struct {
	lookPath func(file string) (string, error)
	resolved *xsync.MapOf[string, string]
}

func newRuntimes(lookPath func(string) (string, error)) *runtimes {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	return &runtimes{
		lookPath: lookPath,
		resolved: xsync.NewMapOf[string, string](),
	}
}

// resolve returns the host path of cfg's runtime, trying CommandPaths in order.
func (r *runtimes) resolve(cfg Config) (string, error) {
	if path, ok := r.resolved.Load(cfg.Command); ok {
		return path, nil
	}
	for _, name := range cfg.CommandPaths {
		path, err := r.lookPath(name)
		if err != nil {
			continue
		}
		path, _ = r.resolved.LoadOrStore(cfg.Command, path)
		return path, nil
	}
	return "", fmt.Errorf("none of %v found for %s", cfg.CommandPaths, cfg.Command)
}

// allowList composes the base filesystem with the executor's additions.
func allowList(cfg Config, runtimePath string) []string {
	fs := mapset.NewThreadUnsafeSet(baseFs...)
	fs.Append(cfg.ExtraFs...)
	if cfg.FsRuntime && runtimePath != "" {
		fs.Add(runtimePath)
	}
	dirs := fs.ToSlice()
	sort.Strings(dirs)
	return dirs
}
