package upload

// store.go is the filesystem half of the pipeline.  It knows nothing about
// image formats; it writes validated streams below a fixed root and deletes
// them again.  Writes go to a temporary file in the target directory first
// and are renamed into place, so an interrupted transfer never leaves a
// partial file visible at its final public URL.

import (
    "io"
    "os"
    "path/filepath"
    "strings"
)

// LocalStore persists uploads under a fixed root directory.  Date-partitioned
// directories may be created concurrently by racing uploads; MkdirAll is
// create-if-absent and safe to race.
type LocalStore struct {
    root string
}

// NewLocalStore normalizes root to an absolute path once so the traversal
// guard compares like with like.
func NewLocalStore(root string) *LocalStore {
    abs, err := filepath.Abs(filepath.Clean(root))
    if err != nil {
        abs = filepath.Clean(root)
    }
    return &LocalStore{root: abs}
}

// Root returns the normalized storage root.
func (s *LocalStore) Root() string { return s.root }

// WithinRoot reports whether rel resolves to a strict descendant of the
// root after normalization.  Upload names are never derived from user
// input, so this is defense in depth against a future regression that
// reintroduces user-controlled path segments.
func (s *LocalStore) WithinRoot(rel string) bool {
    abs := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(rel)))
    return abs != s.root && strings.HasPrefix(abs, s.root+string(filepath.Separator))
}

// resolve maps a slash-separated relative path onto the filesystem.
func (s *LocalStore) resolve(rel string) string {
    return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Write streams r into the file at rel, creating parent directories as
// needed.  The stream is copied into a temporary file and renamed into
// place only once fully written.  limit caps the actual byte count; a
// stream that keeps going past it is discarded with ErrTooLarge regardless
// of what the declared size claimed.
func (s *LocalStore) Write(rel string, r io.Reader, limit int64) (int64, error) {
    dst := s.resolve(rel)
    if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
        return 0, err
    }

    tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
    if err != nil {
        return 0, err
    }
    tmpName := tmp.Name()

    written, err := io.Copy(tmp, io.LimitReader(r, limit+1))
    if cerr := tmp.Close(); err == nil {
        err = cerr
    }
    if err != nil {
        _ = os.Remove(tmpName)
        return 0, err
    }
    if written > limit {
        _ = os.Remove(tmpName)
        return 0, ErrTooLarge
    }

    if err := os.Rename(tmpName, dst); err != nil {
        _ = os.Remove(tmpName)
        return 0, err
    }
    return written, nil
}

// Remove unlinks the file at rel.  A missing file yields ErrNotFound so the
// handler can report "file not found" without side effects.
func (s *LocalStore) Remove(rel string) error {
    err := os.Remove(s.resolve(rel))
    if os.IsNotExist(err) {
        return ErrNotFound
    }
    return err
}
