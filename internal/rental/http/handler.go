package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/book-rental-backend/internal/pkg/dates"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/request"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/response"
	"github.com/nekogravitycat/book-rental-backend/internal/rental"
)

type Handler struct {
	service rental.Service
}

func NewHandler(service rental.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListRentalsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize("DESC")

	filter := rental.Filter{
		BookID:     req.BookID,
		CustomerID: req.CustomerID,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	}
	if req.Status != "" {
		st, err := rental.ParseStatus(req.Status)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Status = st
	}

	list, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := newRentalResponses(list, h.service.Today())
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRentalResponse(r, h.service.Today()))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRentalRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	// Formats were checked by the isodate binding.
	start, _ := dates.Parse(body.StartDate)
	end, _ := dates.Parse(body.ExpectedReturnDate)

	r, err := h.service.Create(c.Request.Context(), rental.CreateRequest{
		BookID:             body.BookID,
		CustomerID:         body.CustomerID,
		StartDate:          start,
		ExpectedReturnDate: end,
		Notes:              body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewRentalResponse(r, h.service.Today()))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateRentalRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := rental.UpdateRequest{Notes: body.Notes}
	if body.StartDate != nil {
		t, _ := dates.Parse(*body.StartDate)
		req.StartDate = &t
	}
	if body.ExpectedReturnDate != nil {
		t, _ := dates.Parse(*body.ExpectedReturnDate)
		req.ExpectedReturnDate = &t
	}

	r, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRentalResponse(r, h.service.Today()))
}

func (h *Handler) Return(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	r, err := h.service.Return(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRentalResponse(r, h.service.Today()))
}

func (h *Handler) Cancel(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	r, err := h.service.Cancel(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRentalResponse(r, h.service.Today()))
}

// Availability answers whether the book is free for every day of [start_date, end_date].
func (h *Handler) Availability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var q AvailabilityRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	start, _ := dates.Parse(q.StartDate)
	end, _ := dates.Parse(q.EndDate)

	available, err := h.service.CheckAvailability(c.Request.Context(), uri.ID, start, end, q.ExcludeRentalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		BookID:    uri.ID,
		StartDate: dates.Format(start),
		EndDate:   dates.Format(end),
		Available: available,
	})
}

// BlockedRanges lists the periods the book is taken, for calendar display.
func (h *Handler) BlockedRanges(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var q BlockedRangesRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	ranges, err := h.service.BlockedRanges(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	expand := q.Expand == "days"
	items := make([]BlockedRangeResponse, len(ranges))
	for i, b := range ranges {
		if expand && b.Len() > rental.MaxRentalDays {
			response.Error(c, rental.ErrRangeTooLong)
			return
		}
		items[i] = NewBlockedRangeResponse(b, expand)
	}

	c.JSON(http.StatusOK, response.NewListResponse(items))
}

// Calendar lists every rental that touches [from, to], in any status.
func (h *Handler) Calendar(c *gin.Context) {
	var q CalendarRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := q.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	from, _ := dates.Parse(q.From)
	to, _ := dates.Parse(q.To)

	list, err := h.service.Calendar(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewListResponse(newRentalResponses(list, h.service.Today())))
}
