package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/book-rental-backend/internal/book"
	fileHttp "github.com/nekogravitycat/book-rental-backend/internal/file/http"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/request"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/response"
)

type Handler struct {
	service        book.Service
	fileHandler    *fileHttp.Handler
	maxUploadBytes int64
}

func NewHandler(service book.Service, fileHandler *fileHttp.Handler, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		fileHandler:    fileHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) List(c *gin.Context) {
	var req ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize("ASC")

	filter := book.Filter{
		Keyword:   req.Keyword,
		Status:    book.Status(req.Status),
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if filter.SortBy == "" {
		filter.SortBy = "title"
	}

	list, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookResponse, len(list))
	for i, b := range list {
		items[i] = NewBookResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookResponse(b))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), book.CreateRequest{
		Title:       body.Title,
		Author:      body.Author,
		ISBN:        body.ISBN,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookResponse(b))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateBookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Update(c.Request.Context(), uri.ID, book.UpdateRequest{
		Title:       body.Title,
		Author:      body.Author,
		ISBN:        body.ISBN,
		Description: body.Description,
		Status:      body.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookResponse(b))
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadCover stores an image and makes it the book's cover.
func (h *Handler) UploadCover(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	// Fail before accepting the upload when the book does not exist.
	if _, err := h.service.GetByID(c.Request.Context(), req.ID); err != nil {
		response.Error(c, err)
		return
	}

	h.fileHandler.HandleFileUpload(c, fileHttp.FileUploadConfig{
		FormFieldName: "cover",
		MaxSizeBytes:  h.maxUploadBytes,
		AllowedTypes:  fileHttp.ImageTypes,
		ResizeImage:   true,
		AfterUpload: func(ctx context.Context, fileID string) error {
			return h.service.SetCover(ctx, req.ID, fileID)
		},
	})
}
