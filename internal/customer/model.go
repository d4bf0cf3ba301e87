package customer

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/book-rental-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "customer not found")
	ErrNameRequired = apperror.New(http.StatusBadRequest, "name is required")
	ErrHasRentals   = apperror.New(http.StatusConflict, "customer has rentals and cannot be deleted")
)

// Customer is a person who rents books.
type Customer struct {
	ID        string
	Name      string
	Email     *string
	Phone     *string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter defines parameters for listing customers.
type Filter struct {
	Keyword   string // matched against name, email and phone
	Page      int
	PageSize  int
	SortOrder string
}

// Stats summarizes a customer's rental history.
// Overdue rentals are active rentals past their due date and are counted in ActiveRentals too.
type Stats struct {
	TotalRentals      int
	ActiveRentals     int
	ReturnedRentals   int
	CancelledRentals  int
	OverdueRentals    int
	AverageRentalDays int // over returned rentals, rounded; zero when there are none
}

// TopBook is a book the customer rented, with how often. Cancelled rentals do not count.
type TopBook struct {
	BookID      string
	Title       string
	Author      *string
	CoverFileID *string
	RentalCount int
}

const (
	DefaultTopBooksLimit = 5
	MaxTopBooksLimit     = 50
)
