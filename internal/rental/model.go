package rental

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/book-rental-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/dates"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "rental not found")
	ErrDateConflict     = apperror.New(http.StatusConflict, "this book is already rented in this period")
	ErrInvalidDateRange = apperror.New(http.StatusBadRequest, "start date must not be after the expected return date")
	ErrNotActive        = apperror.New(http.StatusConflict, "rental is not active")
	ErrInvalidStatus    = apperror.New(http.StatusBadRequest, "invalid rental status")
	ErrBookNotFound     = apperror.New(http.StatusNotFound, "book not found")
	ErrCustomerNotFound = apperror.New(http.StatusNotFound, "customer not found")
	ErrRentalTooLong    = apperror.New(http.StatusBadRequest, "a rental may not span more than 366 days")
	ErrWindowTooLong    = apperror.New(http.StatusBadRequest, "calendar window may not span more than 366 days")
	ErrRangeTooLong     = apperror.New(http.StatusBadRequest, "blocked range is too long to expand into days")
)

const (
	// MaxRentalDays bounds a single rental, both endpoints included.
	MaxRentalDays = 366
	// MaxCalendarDays bounds the window of a calendar query.
	MaxCalendarDays = 366
)

type Status string

const (
	StatusActive    Status = "active"
	StatusReturned  Status = "returned"
	StatusCancelled Status = "cancelled"

	// StatusOverdue is never stored. It is the view of an active rental past its due date.
	StatusOverdue Status = "overdue"
)

// Rental is one rental commitment of a book to a customer.
// All dates are calendar dates held as UTC midnight.
type Rental struct {
	ID                 string
	BookID             string
	BookTitle          string
	CustomerID         string
	CustomerName       string
	StartDate          time.Time
	ExpectedReturnDate time.Time
	ActualReturnDate   *time.Time
	Status             Status
	Notes              *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// EffectiveEnd is the actual return date when known, otherwise the expected one.
func (r *Rental) EffectiveEnd() time.Time {
	if r.ActualReturnDate != nil {
		return *r.ActualReturnDate
	}
	return r.ExpectedReturnDate
}

// IsOverdue reports whether the rental is active and was due before today.
func (r *Rental) IsOverdue(today time.Time) bool {
	return r.Status == StatusActive && r.ExpectedReturnDate.Before(today)
}

// ViewStatus is the status shown to clients, with overdue derived from today.
func (r *Rental) ViewStatus(today time.Time) Status {
	if r.IsOverdue(today) {
		return StatusOverdue
	}
	return r.Status
}

// BlockedRange is an inclusive date interval during which a book cannot be newly rented.
type BlockedRange struct {
	Start        time.Time
	End          time.Time
	CustomerName string
}

// Len is the number of days the range covers, or zero when End precedes Start.
func (b BlockedRange) Len() int {
	return max(dates.SpanDays(b.Start, b.End), 0)
}

// Filter defines parameters for listing rentals.
type Filter struct {
	BookID     string
	CustomerID string
	Status     Status // includes StatusOverdue
	Today      time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// ParseStatus accepts any stored status plus the overdue view.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusReturned, StatusCancelled, StatusOverdue:
		return st, nil
	}
	return "", ErrInvalidStatus
}
