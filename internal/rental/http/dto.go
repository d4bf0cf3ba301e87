package http

import (
	"time"

	"github.com/nekogravitycat/book-rental-backend/internal/pkg/dates"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/request"
	"github.com/nekogravitycat/book-rental-backend/internal/rental"
)

type ListRentalsRequest struct {
	request.ListParams
	BookID     string `form:"book_id" binding:"omitempty,uuid"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=active returned cancelled overdue"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=start_date expected_return_date created_at status"`
}

// Dates travel as YYYY-MM-DD strings.
type CreateRentalRequest struct {
	BookID             string  `json:"book_id" binding:"required,uuid"`
	CustomerID         string  `json:"customer_id" binding:"required,uuid"`
	StartDate          string  `json:"start_date" binding:"required,isodate"`
	ExpectedReturnDate string  `json:"expected_return_date" binding:"required,isodate"`
	Notes              *string `json:"notes"`
}

// Validate checks the date order and length. Formats were already checked by the isodate binding.
func (r *CreateRentalRequest) Validate() error {
	start, _ := dates.Parse(r.StartDate)
	end, _ := dates.Parse(r.ExpectedReturnDate)
	if start.After(end) {
		return rental.ErrInvalidDateRange
	}
	if dates.SpanDays(start, end) > rental.MaxRentalDays {
		return rental.ErrRentalTooLong
	}
	return nil
}

type UpdateRentalRequest struct {
	StartDate          *string `json:"start_date" binding:"omitempty,isodate"`
	ExpectedReturnDate *string `json:"expected_return_date" binding:"omitempty,isodate"`
	Notes              *string `json:"notes"`
}

type AvailabilityRequest struct {
	StartDate       string `form:"start_date" binding:"required,isodate"`
	EndDate         string `form:"end_date" binding:"required,isodate"`
	ExcludeRentalID string `form:"exclude_rental_id" binding:"omitempty,uuid"`
}

type BlockedRangesRequest struct {
	Expand string `form:"expand" binding:"omitempty,oneof=days"`
}

type CalendarRequest struct {
	From string `form:"from" binding:"required,isodate"`
	To   string `form:"to" binding:"required,isodate"`
}

func (r *CalendarRequest) Validate() error {
	from, _ := dates.Parse(r.From)
	to, _ := dates.Parse(r.To)
	if from.After(to) {
		return rental.ErrInvalidDateRange
	}
	if dates.SpanDays(from, to) > rental.MaxCalendarDays {
		return rental.ErrWindowTooLong
	}
	return nil
}

type RentalResponse struct {
	ID                 string    `json:"id"`
	BookID             string    `json:"book_id"`
	BookTitle          string    `json:"book_title"`
	CustomerID         string    `json:"customer_id"`
	CustomerName       string    `json:"customer_name"`
	StartDate          string    `json:"start_date"`
	ExpectedReturnDate string    `json:"expected_return_date"`
	ActualReturnDate   *string   `json:"actual_return_date"`
	Status             string    `json:"status"`
	Notes              *string   `json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewRentalResponse(r *rental.Rental, today time.Time) RentalResponse {
	return RentalResponse{
		ID:                 r.ID,
		BookID:             r.BookID,
		BookTitle:          r.BookTitle,
		CustomerID:         r.CustomerID,
		CustomerName:       r.CustomerName,
		StartDate:          dates.Format(r.StartDate),
		ExpectedReturnDate: dates.Format(r.ExpectedReturnDate),
		ActualReturnDate:   dates.FormatPtr(r.ActualReturnDate),
		Status:             string(r.ViewStatus(today)),
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func newRentalResponses(list []*rental.Rental, today time.Time) []RentalResponse {
	items := make([]RentalResponse, len(list))
	for i, r := range list {
		items[i] = NewRentalResponse(r, today)
	}
	return items
}

type AvailabilityResponse struct {
	BookID    string `json:"book_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Available bool   `json:"available"`
}

type BlockedRangeResponse struct {
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	CustomerName string   `json:"customer_name"`
	Days         []string `json:"days,omitempty"`
}

func NewBlockedRangeResponse(b rental.BlockedRange, expandDays bool) BlockedRangeResponse {
	resp := BlockedRangeResponse{
		StartDate:    dates.Format(b.Start),
		EndDate:      dates.Format(b.End),
		CustomerName: b.CustomerName,
	}
	if expandDays {
		for d := range b.Days() {
			resp.Days = append(resp.Days, dates.Format(d))
		}
	}
	return resp
}
