package upload

import (
    "bytes"
    "os"
    "path/filepath"
    "regexp"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// imageBytes builds a blob whose leading bytes carry a real format
// signature, padded to the requested total size.
func imageBytes(t *testing.T, format string, total int) []byte {
    t.Helper()
    var header []byte
    switch format {
    case "png":
        header = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
    case "jpeg":
        header = []byte{0xFF, 0xD8, 0xFF, 0xE0}
    case "gif":
        header = []byte("GIF89a")
    case "webp":
        header = append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00)
        header = append(header, []byte("WEBP")...)
    default:
        t.Fatalf("unknown format %s", format)
    }
    require.LessOrEqual(t, len(header), total)
    blob := make([]byte, total)
    copy(blob, header)
    for i := len(header); i < total; i++ {
        blob[i] = byte(i % 251)
    }
    return blob
}

func newTestValidator(t *testing.T, maxBytes int64) *Validator {
    t.Helper()
    return NewValidator(t.TempDir(), "/uploads", maxBytes)
}

func TestSaveImage_AcceptsGenuinePNG(t *testing.T) {
    v := newTestValidator(t, 0)
    blob := imageBytes(t, "png", 50*1024)

    res, err := v.SaveImage("photo.png", "image/png", int64(len(blob)), bytes.NewReader(blob))
    require.NoError(t, err)

    assert.Regexp(t, regexp.MustCompile(`^/uploads/\d{4}/\d{2}/[0-9a-f-]{36}\.png$`), res.URL)
    assert.True(t, strings.HasSuffix(res.URL, "/"+res.Filename))
    assert.Equal(t, int64(len(blob)), res.Size)

    // The stored file carries the full payload.
    rel := strings.TrimPrefix(res.URL, "/uploads/")
    stored, err := os.ReadFile(filepath.Join(v.store.Root(), filepath.FromSlash(rel)))
    require.NoError(t, err)
    assert.Equal(t, blob, stored)
}

func TestSaveImage_AcceptsEveryFormat(t *testing.T) {
    cases := []struct {
        filename    string
        contentType string
        format      string
    }{
        {"a.jpg", "image/jpeg", "jpeg"},
        {"a.jpeg", "image/jpeg", "jpeg"},
        {"a.jpg", "image/jpg", "jpeg"},
        {"a.png", "image/png", "png"},
        {"a.gif", "image/gif", "gif"},
        {"a.webp", "image/webp", "webp"},
        {"UPPER.PNG", "image/png", "png"}, // extension is case-insensitive
    }
    for _, tc := range cases {
        t.Run(tc.filename+"/"+tc.contentType, func(t *testing.T) {
            v := newTestValidator(t, 0)
            blob := imageBytes(t, tc.format, 1024)
            _, err := v.SaveImage(tc.filename, tc.contentType, int64(len(blob)), bytes.NewReader(blob))
            assert.NoError(t, err)
        })
    }
}

func TestSaveImage_GateRejections(t *testing.T) {
    png := imageBytes(t, "png", 1024)

    cases := []struct {
        name        string
        filename    string
        contentType string
        size        int64
        body        []byte
        want        error
    }{
        {"empty file", "a.png", "image/png", 0, nil, ErrEmptyFile},
        {"over the ceiling", "a.png", "image/png", 10*1024*1024 + 1, png, ErrTooLarge},
        {"no filename", "", "image/png", 10, png, ErrBadFilename},
        {"no extension", "noext", "image/png", 10, png, ErrBadFilename},
        {"trailing dot", "file.", "image/png", 10, png, ErrBadFilename},
        {"disallowed extension", "evil.exe", "image/png", 10, png, ErrBadExtension},
        {"disallowed extension svg", "pic.svg", "image/svg+xml", 10, png, ErrBadExtension},
        {"disallowed content type", "a.png", "text/plain", 10, png, ErrBadContentType},
        {"extension/type mismatch", "a.png", "image/jpeg", 10, png, ErrTypeMismatch},
        {"gif bytes declared png", "a.png", "image/png", 1024, imageBytes(t, "gif", 1024), ErrContentMismatch},
        {"png bytes renamed jpg", "a.jpg", "image/jpeg", 1024, png, ErrContentMismatch},
        {"header too short", "a.png", "image/png", 3, []byte{0x89, 0x50, 0x4E}, ErrContentMismatch},
        {"webp signature broken", "a.webp", "image/webp", 1024, func() []byte {
            b := imageBytes(t, "webp", 1024)
            b[8] = 'X' // corrupt the WEBP marker
            return b
        }(), ErrContentMismatch},
    }

    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            v := newTestValidator(t, 0)
            _, err := v.SaveImage(tc.filename, tc.contentType, tc.size, bytes.NewReader(tc.body))
            assert.ErrorIs(t, err, tc.want)
        })
    }
}

func TestSaveImage_SizeBoundary(t *testing.T) {
    const limit = 4096
    v := newTestValidator(t, limit)

    // Exactly at the ceiling is accepted.
    exact := imageBytes(t, "png", limit)
    _, err := v.SaveImage("a.png", "image/png", int64(len(exact)), bytes.NewReader(exact))
    assert.NoError(t, err)

    // One byte over is rejected.
    over := imageBytes(t, "png", limit+1)
    _, err = v.SaveImage("a.png", "image/png", int64(len(over)), bytes.NewReader(over))
    assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSaveImage_LyingDeclaredSize(t *testing.T) {
    const limit = 1024
    v := newTestValidator(t, limit)

    // Declared size fits but the actual stream keeps going; the store must
    // enforce the ceiling on real bytes and leave nothing behind.
    blob := imageBytes(t, "png", 4*limit)
    _, err := v.SaveImage("a.png", "image/png", 100, bytes.NewReader(blob))
    require.ErrorIs(t, err, ErrTooLarge)

    var files []string
    _ = filepath.Walk(v.store.Root(), func(path string, info os.FileInfo, err error) error {
        if err == nil && info != nil && !info.IsDir() {
            files = append(files, path)
        }
        return nil
    })
    assert.Empty(t, files, "no partial or temp file may remain")
}

func TestDeleteByURL_Roundtrip(t *testing.T) {
    v := newTestValidator(t, 0)
    blob := imageBytes(t, "png", 2048)

    res, err := v.SaveImage("photo.png", "image/png", int64(len(blob)), bytes.NewReader(blob))
    require.NoError(t, err)

    require.NoError(t, v.DeleteByURL(res.URL))

    // A second deletion of the same URL reports "file not found".
    assert.ErrorIs(t, v.DeleteByURL(res.URL), ErrNotFound)
}

func TestDeleteByURL_Rejections(t *testing.T) {
    v := newTestValidator(t, 0)

    cases := []struct {
        name string
        url  string
        want error
    }{
        {"traversal", "/uploads/../../../etc/passwd", ErrIllegalPath},
        {"traversal inside shape", "/uploads/2026/../x.png", ErrIllegalPath},
        {"wrong prefix", "/elsewhere/2026/08/a.png", ErrIllegalPath},
        {"too few segments", "/uploads/a.png", ErrIllegalPath},
        {"too many segments", "/uploads/2026/08/deep/a.png", ErrIllegalPath},
        {"empty segment", "/uploads/2026//a.png", ErrIllegalPath},
        {"backslash", `/uploads/2026/08/a\b.png`, ErrIllegalPath},
        {"disallowed extension", "/uploads/2026/08/a.exe", ErrBadExtension},
        {"no extension", "/uploads/2026/08/name", ErrBadExtension},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            assert.ErrorIs(t, v.DeleteByURL(tc.url), tc.want)
        })
    }
}

func TestLocalStore_WithinRoot(t *testing.T) {
    s := NewLocalStore(t.TempDir())

    assert.True(t, s.WithinRoot("2026/08/a.png"))
    assert.False(t, s.WithinRoot("../escape.png"))
    assert.False(t, s.WithinRoot("2026/../../escape.png"))
    assert.False(t, s.WithinRoot(".")) // the root itself is not a descendant
}

func TestLocalStore_ConcurrentWritesSameMonth(t *testing.T) {
    v := newTestValidator(t, 0)
    blob := imageBytes(t, "png", 512)

    // Racing uploads share the yyyy/MM directory; MkdirAll must tolerate it.
    done := make(chan error, 8)
    for i := 0; i < 8; i++ {
        go func() {
            _, err := v.SaveImage("a.png", "image/png", int64(len(blob)), bytes.NewReader(blob))
            done <- err
        }()
    }
    for i := 0; i < 8; i++ {
        assert.NoError(t, <-done)
    }
}
