package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/sblogdev/sblog/internal/upload"
)

// UploadHandler exposes the image upload surface consumed by the admin UI.
// All format and path decisions live in the validator; the handler only
// shuttles the multipart stream in and translates gate rejections to HTTP.
type UploadHandler struct {
    Validator *upload.Validator
}

func NewUploadHandler(v *upload.Validator) *UploadHandler {
    return &UploadHandler{Validator: v}
}

type deleteImageReq struct {
    URL string `json:"url"`
}

// UploadImage handles POST /api/admin/upload/image.  The multipart field is
// named "file"; success returns the public URL, the generated filename and
// the stored size.
func (h *UploadHandler) UploadImage(c echo.Context) error {
    fh, err := c.FormFile("file")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": upload.ErrEmptyFile.Error()})
    }

    src, err := fh.Open()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
    }
    defer src.Close()

    res, err := h.Validator.SaveImage(fh.Filename, fh.Header.Get("Content-Type"), fh.Size, src)
    if err != nil {
        return uploadError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// DeleteImage handles DELETE /api/admin/upload/image with a JSON body
// {"url": ...}.  Success returns no payload; deleting an already-deleted
// file reports "file not found" without side effects.
func (h *UploadHandler) DeleteImage(c echo.Context) error {
    var req deleteImageReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.URL) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "url required"})
    }

    if err := h.Validator.DeleteByURL(strings.TrimSpace(req.URL)); err != nil {
        return uploadError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// uploadError maps validator rejections to status codes.  Gate failures are
// the client's fault (4xx, distinct reason per gate); anything else means
// the store itself failed and surfaces as a 500 without leaking paths.
func uploadError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, upload.ErrEmptyFile),
        errors.Is(err, upload.ErrBadFilename),
        errors.Is(err, upload.ErrBadExtension),
        errors.Is(err, upload.ErrBadContentType),
        errors.Is(err, upload.ErrTypeMismatch),
        errors.Is(err, upload.ErrContentMismatch),
        errors.Is(err, upload.ErrIllegalPath):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, upload.ErrTooLarge):
        return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": err.Error()})
    case errors.Is(err, upload.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    default:
        c.Logger().Errorf("[upload] storage error: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "storage failure"})
    }
}
