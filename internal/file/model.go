package file

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/book-rental-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "file not found")
	ErrFileTooLarge     = apperror.New(http.StatusRequestEntityTooLarge, "file is too large")
	ErrUnsupportedType  = apperror.New(http.StatusUnsupportedMediaType, "unsupported file type")
	ErrInvalidImage     = apperror.New(http.StatusBadRequest, "file is not a valid image")
	ErrThumbnailMissing = apperror.New(http.StatusNotFound, "thumbnail not available for this file")
)

// File is the metadata of an uploaded blob, such as a book cover.
type File struct {
	ID            string
	UserID        string
	Filename      string
	StoragePath   string
	ThumbnailPath *string
	ContentType   string
	Size          int64
	CreatedAt     time.Time
}

// FileURL returns the public URL for accessing a file by its ID.
func FileURL(id string) string {
	return "/files/" + id
}

// ThumbnailURL returns the public URL for accessing a file's thumbnail by its ID.
func ThumbnailURL(id string) string {
	return "/files/" + id + "/thumbnail"
}
