package rental

import (
	"context"
	"errors"
	"time"

	"github.com/nekogravitycat/book-rental-backend/internal/book"
	"github.com/nekogravitycat/book-rental-backend/internal/customer"
	"github.com/nekogravitycat/book-rental-backend/internal/metrics"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/dates"
)

type CreateRequest struct {
	BookID             string
	CustomerID         string
	StartDate          time.Time
	ExpectedReturnDate time.Time
	Notes              *string
}

type UpdateRequest struct {
	StartDate          *time.Time
	ExpectedReturnDate *time.Time
	Notes              *string
}

// BookGetter is the part of the book service rentals depend on.
type BookGetter interface {
	GetByID(ctx context.Context, id string) (*book.Book, error)
}

// CustomerGetter is the part of the customer service rentals depend on.
type CustomerGetter interface {
	GetByID(ctx context.Context, id string) (*customer.Customer, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Rental, error)
	GetByID(ctx context.Context, id string) (*Rental, error)
	List(ctx context.Context, filter Filter) ([]*Rental, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Rental, error)
	Return(ctx context.Context, id string) (*Rental, error)
	Cancel(ctx context.Context, id string) (*Rental, error)
	Calendar(ctx context.Context, from, to time.Time) ([]*Rental, error)

	CheckAvailability(ctx context.Context, bookID string, start, end time.Time, excludeRentalID string) (bool, error)
	BlockedRanges(ctx context.Context, bookID string) ([]BlockedRange, error)

	// Today is the calendar date the service uses for overdue and return dates.
	Today() time.Time
}

type service struct {
	repo      Repository
	books     BookGetter
	customers CustomerGetter
	now       func() time.Time
}

func NewService(repo Repository, books BookGetter, customers CustomerGetter) Service {
	return &service{
		repo:      repo,
		books:     books,
		customers: customers,
		now:       time.Now,
	}
}

func (s *service) Today() time.Time {
	return dates.Today(s.now())
}

func (s *service) ensureBook(ctx context.Context, id string) error {
	if _, err := s.books.GetByID(ctx, id); err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return ErrBookNotFound
		}
		return err
	}
	return nil
}

func (s *service) ensureCustomer(ctx context.Context, id string) error {
	if _, err := s.customers.GetByID(ctx, id); err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}
	return nil
}

// checkAndWrite runs the availability check and write under the book lock.
func (s *service) checkAndWrite(ctx context.Context, bookID string, start, end time.Time, excludeRentalID string, write func(ctx context.Context, store Store) error) error {
	err := s.repo.WithBookLock(ctx, bookID, func(ctx context.Context, store Store) error {
		available, err := NewEngine(store).IsAvailable(ctx, bookID, start, end, excludeRentalID)
		if err != nil {
			return err
		}
		if !available {
			return ErrDateConflict
		}
		return write(ctx, store)
	})
	if errors.Is(err, ErrDateConflict) {
		metrics.IncRentalConflict()
	}
	return err
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Rental, error) {
	// 1. Validate Date Range
	start, end := dates.Truncate(req.StartDate), dates.Truncate(req.ExpectedReturnDate)
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}
	if dates.SpanDays(start, end) > MaxRentalDays {
		return nil, ErrRentalTooLong
	}

	// 2. Validate Book and Customer Exist
	if err := s.ensureBook(ctx, req.BookID); err != nil {
		return nil, err
	}
	if err := s.ensureCustomer(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	// 3. Check Availability and Insert atomically
	r := &Rental{
		BookID:             req.BookID,
		CustomerID:         req.CustomerID,
		StartDate:          start,
		ExpectedReturnDate: end,
		Status:             StatusActive,
		Notes:              req.Notes,
	}

	err := s.checkAndWrite(ctx, req.BookID, start, end, "", func(ctx context.Context, store Store) error {
		return store.Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncRentalCreated()

	return s.GetByID(ctx, r.ID)
}

func (s *service) GetByID(ctx context.Context, id string) (*Rental, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Rental, int, error) {
	if filter.Status == StatusOverdue && filter.Today.IsZero() {
		filter.Today = s.Today()
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Rental, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusActive {
		return nil, ErrNotActive
	}

	if req.Notes != nil {
		r.Notes = req.Notes
	}

	datesChanged := false
	if req.StartDate != nil {
		r.StartDate = dates.Truncate(*req.StartDate)
		datesChanged = true
	}
	if req.ExpectedReturnDate != nil {
		r.ExpectedReturnDate = dates.Truncate(*req.ExpectedReturnDate)
		datesChanged = true
	}

	if !datesChanged {
		if err := s.repo.Update(ctx, r); err != nil {
			return nil, err
		}
		return s.repo.GetByID(ctx, id)
	}

	if r.StartDate.After(r.ExpectedReturnDate) {
		return nil, ErrInvalidDateRange
	}
	if dates.SpanDays(r.StartDate, r.ExpectedReturnDate) > MaxRentalDays {
		return nil, ErrRentalTooLong
	}

	// Re-check excluding the rental itself so it does not conflict with its own old dates.
	err = s.checkAndWrite(ctx, r.BookID, r.StartDate, r.ExpectedReturnDate, r.ID, func(ctx context.Context, store Store) error {
		return store.Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *service) close(ctx context.Context, id string, status Status, actualReturnDate *time.Time) (*Rental, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusActive {
		return nil, ErrNotActive
	}

	if err := s.repo.Close(ctx, id, status, actualReturnDate); err != nil {
		return nil, err
	}
	metrics.IncRentalClosed(string(status))

	return s.repo.GetByID(ctx, id)
}

func (s *service) Return(ctx context.Context, id string) (*Rental, error) {
	today := s.Today()
	return s.close(ctx, id, StatusReturned, &today)
}

func (s *service) Cancel(ctx context.Context, id string) (*Rental, error) {
	return s.close(ctx, id, StatusCancelled, nil)
}

func (s *service) Calendar(ctx context.Context, from, to time.Time) ([]*Rental, error) {
	from, to = dates.Truncate(from), dates.Truncate(to)
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}
	if dates.SpanDays(from, to) > MaxCalendarDays {
		return nil, ErrWindowTooLong
	}
	return s.repo.ListInRange(ctx, from, to)
}

func (s *service) CheckAvailability(ctx context.Context, bookID string, start, end time.Time, excludeRentalID string) (bool, error) {
	available, err := NewEngine(s.repo).IsAvailable(ctx, bookID, start, end, excludeRentalID)
	if err != nil {
		return false, err
	}
	metrics.IncAvailabilityCheck(available)
	return available, nil
}

func (s *service) BlockedRanges(ctx context.Context, bookID string) ([]BlockedRange, error) {
	return NewEngine(s.repo).BlockedRanges(ctx, bookID)
}
