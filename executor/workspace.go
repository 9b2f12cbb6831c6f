package executor

import (
	"code-lab/errors"
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is the private directory of one execution. Everything the
// toolchain produces lands inside it and Close removes it as a whole.
type Workspace struct {
	Dir string
}

func NewWorkspace(root string) (*Workspace, error) {
	dir, err := os.MkdirTemp(root, "run-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrWorkspace, err)
	}
	return &Workspace{Dir: dir}, nil
}

// Write persists the source text with owner-only permissions.
func (w *Workspace) Write(path, content string) error {
	if filepath.Dir(path) != w.Dir {
		return fmt.Errorf("%w: %s is outside %s", errors.ErrWorkspace, path, w.Dir)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWorkspace, err)
	}
	return nil
}

// Close removes the workspace and every artifact in it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.Dir)
}

// ProbeRoot checks once at startup that executions will be able to write
// their sources under root.
func ProbeRoot(root string) error {
	ws, err := NewWorkspace(root)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()
	return ws.Write(filepath.Join(ws.Dir, "probe.txt"), "probe")
}

// Missing returns the first of paths that does not exist as a file.
func (w *Workspace) Missing(paths []string) (string, bool) {
	for _, p := range paths {
		info, err := os.Stat(filepath.FromSlash(p))
		if err != nil || info.IsDir() {
			return p, true
		}
	}
	return "", false
}
