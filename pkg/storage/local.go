package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local is a Store rooted at a directory on the local filesystem.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir. The directory does not have
// to exist until the first Put.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute root directory.
func (l *Local) Root() string {
	return l.root
}

// Path returns the filesystem path of the named asset.
func (l *Local) Path(name string) string {
	return l.resolve(name)
}

// resolve maps an asset name under the root. Leading slashes and ".."
// components cannot escape the root.
func (l *Local) resolve(name string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(strings.TrimPrefix(name, "/")))
	return filepath.Join(l.root, clean)
}

func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(l.resolve(name))
}

// Put writes data to a temporary file and renames it into place so readers
// never observe a partial asset.
func (l *Local) Put(_ context.Context, name string, data []byte) error {
	full := l.resolve(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	info, err := os.Stat(l.resolve(name))
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l *Local) String() string {
	return "file://" + filepath.ToSlash(l.root)
}
