package book

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/book-rental-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "book not found")
	ErrTitleRequired = apperror.New(http.StatusBadRequest, "title is required")
	ErrInvalidStatus = apperror.New(http.StatusBadRequest, "invalid book status")
	ErrHasRentals    = apperror.New(http.StatusConflict, "book has rentals and cannot be deleted")
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusRented      Status = "rented"
	StatusUnavailable Status = "unavailable"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusRented, StatusUnavailable:
		return true
	}
	return false
}

// Book is a catalog item that can be rented.
type Book struct {
	ID          string
	Title       string
	Author      *string
	ISBN        *string
	Description *string
	CoverFileID *string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter defines parameters for listing books.
type Filter struct {
	Keyword   string // matched against title, author and isbn
	Status    Status
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
