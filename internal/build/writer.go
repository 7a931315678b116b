package build

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	siteerrors "github.com/conneroisu/labsite/internal/errors"
)

// Artifact is one output document waiting to be written.
type Artifact struct {
	Dest    string
	Content []byte
}

// Stats counts what a Writer did since the last reset.
type Stats struct {
	Written int `json:"written"`
	Skipped int `json:"skipped"`
	Removed int `json:"removed"`
}

// Writer writes into a single output root and never touches a destination
// whose content already matches. It is not safe for concurrent use.
type Writer struct {
	root    string
	hasher  *HashProvider
	stats   Stats
	changes uint64
}

// NewWriter creates a writer confined to root.
func NewWriter(root string, hasher *HashProvider) *Writer {
	if hasher == nil {
		hasher = NewHashProvider(nil)
	}
	return &Writer{root: root, hasher: hasher}
}

// Root returns the output root.
func (w *Writer) Root() string {
	return w.root
}

// Stats returns the counters accumulated since the last ResetStats.
func (w *Writer) Stats() Stats {
	return w.stats
}

// ResetStats zeroes the counters.
func (w *Writer) ResetStats() {
	w.stats = Stats{}
}

// Changes counts every write and removal over the writer's lifetime.
// ResetStats does not clear it, so callers can compare two readings.
func (w *Writer) Changes() uint64 {
	return w.changes
}

// WriteArtifact writes a via MaybeWrite.
func (w *Writer) WriteArtifact(a Artifact) (bool, error) {
	return w.MaybeWrite(a.Dest, a.Content)
}

// MaybeWrite writes content to dest unless dest already holds the same
// bytes. It reports whether a write happened.
func (w *Writer) MaybeWrite(dest string, content []byte) (bool, error) {
	if err := w.guard(dest); err != nil {
		return false, err
	}

	same, err := w.matches(dest, w.hasher.HashBytes(content))
	if err != nil {
		return false, err
	}
	if same {
		w.stats.Skipped++
		return false, nil
	}

	if err := w.write(dest, content, 0644); err != nil {
		return false, err
	}
	w.hasher.Remember(dest, w.hasher.HashBytes(content))
	w.stats.Written++
	w.changes++
	return true, nil
}

// CopyFile copies src to dest unless their contents already match. The
// source is always hashed fresh; the destination may be answered from the
// metadata cache. File permissions are preserved.
func (w *Writer) CopyFile(src, dest string) (bool, error) {
	if err := w.guard(dest); err != nil {
		return false, err
	}

	info, err := os.Stat(src)
	if err != nil {
		return false, siteerrors.WrapRead(err, src)
	}
	if info.IsDir() {
		return false, siteerrors.NewIOError(siteerrors.ErrCodeReadFailed, "cannot copy a directory", nil).
			WithPath(src)
	}

	srcHash, err := w.hasher.HashFileFresh(src)
	if err != nil {
		return false, siteerrors.WrapRead(err, src)
	}

	same, err := w.matches(dest, srcHash)
	if err != nil {
		return false, err
	}
	if same {
		w.stats.Skipped++
		return false, nil
	}

	content, err := os.ReadFile(src)
	if err != nil {
		return false, siteerrors.WrapRead(err, src)
	}
	if err := w.write(dest, content, info.Mode().Perm()); err != nil {
		return false, err
	}
	w.hasher.Remember(dest, srcHash)
	w.stats.Written++
	w.changes++
	return true, nil
}

// Remove deletes dest, recursively if it is a directory. A missing
// destination is not an error.
func (w *Writer) Remove(dest string) error {
	if err := w.guard(dest); err != nil {
		return err
	}
	if samePath(dest, w.root) {
		return siteerrors.NewValidationError(siteerrors.ErrCodePathOutsideRoot,
			"refusing to remove the output root").WithPath(dest)
	}

	if _, err := os.Lstat(dest); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(dest); err != nil {
		return siteerrors.NewIOError(siteerrors.ErrCodeRemoveFailed, "failed to remove output", err).
			WithPath(dest)
	}
	w.hasher.Forget(dest)
	w.stats.Removed++
	w.changes++
	return nil
}

// EnsureDir creates dest and its parents.
func (w *Writer) EnsureDir(dest string) error {
	if err := w.guard(dest); err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return siteerrors.WrapWrite(err, dest)
	}
	return nil
}

// matches reports whether dest exists and hashes to hash.
func (w *Writer) matches(dest, hash string) (bool, error) {
	info, err := os.Stat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, siteerrors.WrapRead(err, dest)
	}
	if info.IsDir() {
		return false, siteerrors.NewIOError(siteerrors.ErrCodeWriteFailed, "destination is a directory", nil).
			WithPath(dest)
	}

	existing, err := w.hasher.HashFile(dest)
	if err != nil {
		return false, siteerrors.WrapRead(err, dest)
	}
	return existing == hash, nil
}

func (w *Writer) write(dest string, content []byte, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return siteerrors.WrapWrite(err, dest)
	}
	if err := os.WriteFile(dest, content, perm); err != nil {
		return siteerrors.WrapWrite(err, dest)
	}
	// WriteFile only applies perm on create.
	if err := os.Chmod(dest, perm); err != nil {
		return siteerrors.WrapWrite(err, dest)
	}
	return nil
}

// guard rejects destinations outside the output root.
func (w *Writer) guard(dest string) error {
	root, err := filepath.Abs(w.root)
	if err != nil {
		return siteerrors.WrapWrite(err, w.root)
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return siteerrors.WrapWrite(err, dest)
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return siteerrors.NewValidationError(siteerrors.ErrCodePathOutsideRoot,
			"destination is outside the output root").WithPath(dest)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
