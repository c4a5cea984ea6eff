package safeio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SafeFS is a read-only view of one directory. Every path is resolved relative
// to the root and rejected when it escapes it (including through symlinks).
type SafeFS struct {
	absRoot string
}

var ErrOutsideRoot = errors.New("safeio: path escapes root")

// NewSafeFS binds a SafeFS to root, resolved to an absolute, symlink-free directory.
func NewSafeFS(root string) (*SafeFS, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("safeio: %s is not a directory", abs)
	}
	return &SafeFS{absRoot: abs}, nil
}

// Root returns the absolute root directory.
func (s *SafeFS) Root() string {
	if s == nil {
		return ""
	}
	return s.absRoot
}

// Sub returns a SafeFS rooted at dir below the current root.
func (s *SafeFS) Sub(dir string) (*SafeFS, error) {
	p, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	return NewSafeFS(p)
}

// ReadFile reads name. When limit > 0 and the file is larger, only the first
// limit bytes are returned together with ErrTruncated.
func (s *SafeFS) ReadFile(name string, limit int64) ([]byte, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("safeio: %s is a directory", name)
	}
	if limit <= 0 || info.Size() <= limit {
		return io.ReadAll(f)
	}
	buf := make([]byte, limit)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], ErrTruncated
}

var ErrTruncated = errors.New("safeio: file truncated at read limit")

// Open implements fs.FS; names use "/" separators.
func (s *SafeFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	p, err := s.resolve(filepath.FromSlash(name))
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return os.Open(p)
}

func (s *SafeFS) resolve(userPath string) (string, error) {
	if s == nil {
		return "", errors.New("safeio: filesystem not configured")
	}
	clean := filepath.Clean(userPath)
	if clean == "." || clean == "" {
		return s.absRoot, nil
	}
	joined := clean
	if !filepath.IsAbs(clean) {
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, userPath)
		}
		joined = filepath.Join(s.absRoot, clean)
	}
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", err
	}
	if !within(resolved, s.absRoot) {
		return "", fmt.Errorf("%w: %s resolves to %s", ErrOutsideRoot, userPath, resolved)
	}
	return resolved, nil
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
