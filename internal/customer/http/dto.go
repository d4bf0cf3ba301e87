package http

import (
	"time"

	"github.com/nekogravitycat/book-rental-backend/internal/customer"
	"github.com/nekogravitycat/book-rental-backend/internal/file"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/request"
)

type ListCustomersRequest struct {
	request.ListParams
	Keyword string `form:"q"`
}

type CreateCustomerRequest struct {
	Name    string  `json:"name" binding:"required,max=255"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone" binding:"omitempty,max=32"`
	Address *string `json:"address"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=255"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone" binding:"omitempty,max=32"`
	Address *string `json:"address"`
}

type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type TopBooksRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

type StatsResponse struct {
	TotalRentals      int `json:"total_rentals"`
	ActiveRentals     int `json:"active_rentals"`
	ReturnedRentals   int `json:"returned_rentals"`
	CancelledRentals  int `json:"cancelled_rentals"`
	OverdueRentals    int `json:"overdue_rentals"`
	AverageRentalDays int `json:"average_rental_days"`
}

func NewStatsResponse(st *customer.Stats) StatsResponse {
	return StatsResponse{
		TotalRentals:      st.TotalRentals,
		ActiveRentals:     st.ActiveRentals,
		ReturnedRentals:   st.ReturnedRentals,
		CancelledRentals:  st.CancelledRentals,
		OverdueRentals:    st.OverdueRentals,
		AverageRentalDays: st.AverageRentalDays,
	}
}

type TopBookResponse struct {
	BookID      string  `json:"book_id"`
	Title       string  `json:"title"`
	Author      *string `json:"author"`
	CoverURL    *string `json:"cover_url"`
	RentalCount int     `json:"rental_count"`
}

func NewTopBookResponse(b *customer.TopBook) TopBookResponse {
	resp := TopBookResponse{
		BookID:      b.BookID,
		Title:       b.Title,
		Author:      b.Author,
		RentalCount: b.RentalCount,
	}
	if b.CoverFileID != nil {
		url := file.FileURL(*b.CoverFileID)
		resp.CoverURL = &url
	}
	return resp
}
