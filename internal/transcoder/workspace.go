package transcoder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrBadName is returned for artifact names that would escape the workspace.
var ErrBadName = errors.New("invalid artifact name")

// Workspace is the engine's working file namespace: a flat directory of
// named artifacts.
type Workspace struct {
	dir string
}

// OpenWorkspace creates dir if needed.
func OpenWorkspace(dir string) (*Workspace, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "hotghost")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// NewName returns a unique artifact name such as "main-<uuid>.mp4".
func NewName(prefix, ext string) string {
	return prefix + "-" + uuid.NewString() + ext
}

func (w *Workspace) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return filepath.Join(w.dir, name), nil
}

// Path returns the absolute path of an artifact.
func (w *Workspace) Path(name string) (string, error) {
	return w.resolve(name)
}

// WriteFile stores data under name.
func (w *Workspace) WriteFile(name string, data []byte) error {
	p, err := w.resolve(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ReadFile returns the contents of an artifact.
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	p, err := w.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Size returns the byte size of an artifact.
func (w *Workspace) Size(name string) (int64, error) {
	p, err := w.resolve(name)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// DeleteFile removes an artifact. Deleting a missing artifact is not an error.
func (w *Workspace) DeleteFile(name string) error {
	p, err := w.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// List returns the names of all artifacts currently present.
func (w *Workspace) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Sweep removes everything in the workspace and returns the number of bytes freed.
func (w *Workspace) Sweep() (int64, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read workspace directory: %w", err)
	}

	var freed int64
	var errs []error
	for _, entry := range entries {
		path := filepath.Join(w.dir, entry.Name())
		size, _ := dirSize(path)
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
			continue
		}
		freed += size
	}
	return freed, errors.Join(errs...)
}

// dirSize returns the total size of a file or directory tree.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
