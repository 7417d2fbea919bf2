// Package upload implements the image upload validation pipeline: a single
// pass over an upload candidate where every check is a terminal-reject gate.
// Declared filename and content type are fast-path hints; the magic-byte
// check against the real stream is the authoritative decision.
package upload

import (
    "bytes"
    "errors"
    "io"
    "path"
    "path/filepath"
    "strings"
    "time"

    "github.com/google/uuid"
)

// Gate rejection reasons.  Each gate yields its own sentinel so failures are
// diagnosable without leaking filesystem internals.  The error text doubles
// as the user-facing reason string.
var (
    ErrEmptyFile       = errors.New("file is empty")
    ErrTooLarge        = errors.New("file exceeds the 10 MiB limit")
    ErrBadFilename     = errors.New("invalid filename")
    ErrBadExtension    = errors.New("only jpg, png, gif and webp images are allowed")
    ErrBadContentType  = errors.New("unsupported content type")
    ErrTypeMismatch    = errors.New("file extension does not match content type")
    ErrContentMismatch = errors.New("file content does not match the declared type")
    ErrIllegalPath     = errors.New("illegal file path")
    ErrNotFound        = errors.New("file not found")
)

// allowedExtensions is the fixed set of accepted image extensions, matched
// case-insensitively with the leading dot.
var allowedExtensions = map[string]bool{
    ".jpg":  true,
    ".jpeg": true,
    ".png":  true,
    ".gif":  true,
    ".webp": true,
}

// allowedContentTypes maps each accepted declared MIME type to the
// extensions it may legitimately pair with.
var allowedContentTypes = map[string][]string{
    "image/jpeg": {".jpg", ".jpeg"},
    "image/jpg":  {".jpg", ".jpeg"},
    "image/png":  {".png"},
    "image/gif":  {".gif"},
    "image/webp": {".webp"},
}

// headerLen is how many leading bytes the magic-byte gate inspects.  WebP
// needs the longest window: RIFF at 0-3 and WEBP at 8-11.
const headerLen = 12

// Result describes an accepted, persisted upload.
type Result struct {
    URL      string `json:"url"`
    Filename string `json:"filename"`
    Size     int64  `json:"size"`
}

// Validator runs the gate sequence over upload candidates and owns the
// translation between public URLs and relative storage paths.  It carries no
// per-request state; a single instance is shared by all requests.
type Validator struct {
    store     *LocalStore
    urlPrefix string
    maxBytes  int64
}

// NewValidator builds a Validator storing files under root and serving them
// below urlPrefix.  maxBytes caps the accepted size; non-positive values
// fall back to 10 MiB.
func NewValidator(root, urlPrefix string, maxBytes int64) *Validator {
    if maxBytes <= 0 {
        maxBytes = 10 * 1024 * 1024
    }
    return &Validator{
        store:     NewLocalStore(root),
        urlPrefix: strings.TrimRight(urlPrefix, "/"),
        maxBytes:  maxBytes,
    }
}

// SaveImage validates an upload candidate gate by gate and, if every gate
// passes, persists the stream and returns its public URL.  The declared
// size is checked up front; the store re-enforces the ceiling on the actual
// bytes so a lying Content-Length cannot smuggle an oversized body through.
func (v *Validator) SaveImage(filename, contentType string, size int64, r io.Reader) (Result, error) {
    if size == 0 {
        return Result{}, ErrEmptyFile
    }
    if size > v.maxBytes {
        return Result{}, ErrTooLarge
    }

    ext := extensionOf(filename)
    if filename == "" || ext == "" {
        return Result{}, ErrBadFilename
    }
    if !allowedExtensions[ext] {
        return Result{}, ErrBadExtension
    }

    exts, ok := allowedContentTypes[contentType]
    if !ok {
        return Result{}, ErrBadContentType
    }
    if !containsString(exts, ext) {
        return Result{}, ErrTypeMismatch
    }

    // Read the leading bytes once and stitch them back in front of the
    // remaining stream for the write below.
    header := make([]byte, headerLen)
    n, err := io.ReadFull(r, header)
    if err != nil && err != io.ErrUnexpectedEOF {
        return Result{}, ErrContentMismatch
    }
    if !magicMatches(contentType, header[:n]) {
        return Result{}, ErrContentMismatch
    }
    body := io.MultiReader(bytes.NewReader(header[:n]), r)

    // The stored name is never derived from user input: random base name
    // plus the validated extension, partitioned by year/month.
    name := uuid.New().String() + ext
    rel := path.Join(time.Now().UTC().Format("2006/01"), name)

    if !v.store.WithinRoot(rel) {
        return Result{}, ErrIllegalPath
    }

    written, err := v.store.Write(rel, body, v.maxBytes)
    if err != nil {
        return Result{}, err
    }
    return Result{
        URL:      v.urlPrefix + "/" + rel,
        Filename: name,
        Size:     written,
    }, nil
}

// DeleteByURL removes a previously stored file given its public URL.  The
// relative path is re-validated with the same discipline as uploads: the
// yyyy/MM/filename shape, the extension allow-list and the traversal guard
// all run before any filesystem call.
func (v *Validator) DeleteByURL(url string) error {
    if !strings.HasPrefix(url, v.urlPrefix+"/") {
        return ErrIllegalPath
    }
    rel := strings.TrimPrefix(url, v.urlPrefix+"/")

    // Only the fixed yyyy/MM/filename layout is deletable; anything deeper
    // or shallower is treated as an attack.
    parts := strings.Split(rel, "/")
    if len(parts) != 3 || strings.Contains(rel, "\\") {
        return ErrIllegalPath
    }
    for _, p := range parts {
        if p == "" || p == "." || p == ".." {
            return ErrIllegalPath
        }
    }

    if !allowedExtensions[extensionOf(rel)] {
        return ErrBadExtension
    }
    if !v.store.WithinRoot(rel) {
        return ErrIllegalPath
    }
    return v.store.Remove(rel)
}

// extensionOf returns the lower-cased extension including the dot, or ""
// when the name has none.
func extensionOf(name string) string {
    ext := filepath.Ext(name)
    if ext == "." {
        return ""
    }
    return strings.ToLower(ext)
}

func containsString(list []string, s string) bool {
    for _, v := range list {
        if v == s {
            return true
        }
    }
    return false
}

// magicMatches compares the leading bytes of the stream against the true
// binary signature of the declared type.  This check is independent of the
// filename and wins over every declared-metadata gate before it.
func magicMatches(contentType string, header []byte) bool {
    switch contentType {
    case "image/jpeg", "image/jpg":
        return len(header) >= 3 &&
            header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF
    case "image/png":
        return len(header) >= 4 &&
            header[0] == 0x89 && header[1] == 0x50 && header[2] == 0x4E && header[3] == 0x47
    case "image/gif":
        return len(header) >= 4 &&
            header[0] == 0x47 && header[1] == 0x49 && header[2] == 0x46 && header[3] == 0x38
    case "image/webp":
        return len(header) >= 12 &&
            string(header[0:4]) == "RIFF" && string(header[8:12]) == "WEBP"
    }
    return false
}
