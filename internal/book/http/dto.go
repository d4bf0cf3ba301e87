package http

import (
	"time"

	"github.com/nekogravitycat/book-rental-backend/internal/book"
	"github.com/nekogravitycat/book-rental-backend/internal/file"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/request"
)

type ListBooksRequest struct {
	request.ListParams
	Keyword string `form:"q"`
	Status  string `form:"status" binding:"omitempty,oneof=available rented unavailable"`
	SortBy  string `form:"sort_by" binding:"omitempty,oneof=title author created_at status"`
}

type CreateBookRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Author      *string `json:"author" binding:"omitempty,max=255"`
	ISBN        *string `json:"isbn" binding:"omitempty,max=32"`
	Description *string `json:"description"`
}

// UpdateBookRequest uses pointers to distinguish between "field not sent" and "field sent as empty".
type UpdateBookRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Author      *string `json:"author" binding:"omitempty,max=255"`
	ISBN        *string `json:"isbn" binding:"omitempty,max=32"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=available rented unavailable"`
}

type BookResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      *string   `json:"author"`
	ISBN        *string   `json:"isbn"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CoverURL    *string   `json:"cover_url"`
	CoverThumb  *string   `json:"cover_thumbnail_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewBookResponse(b *book.Book) BookResponse {
	resp := BookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		ISBN:        b.ISBN,
		Description: b.Description,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.CoverFileID != nil {
		url := file.FileURL(*b.CoverFileID)
		thumb := file.ThumbnailURL(*b.CoverFileID)
		resp.CoverURL = &url
		resp.CoverThumb = &thumb
	}
	return resp
}
