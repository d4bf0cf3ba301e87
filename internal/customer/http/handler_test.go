package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/book-rental-backend/internal/customer"
)

const customerID = "6f1c2b8e-3a4d-4e5f-8a9b-0c1d2e3f4a5b"

type stubService struct {
	customer.Service

	stats    *customer.Stats
	topBooks []*customer.TopBook
	err      error
	gotLimit int
}

func (s *stubService) GetStats(context.Context, string) (*customer.Stats, error) {
	return s.stats, s.err
}

func (s *stubService) TopBooks(_ context.Context, _ string, limit int) ([]*customer.TopBook, error) {
	s.gotLimit = limit
	return s.topBooks, s.err
}

func newTestRouter(svc customer.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc), func(c *gin.Context) {})
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestStats(t *testing.T) {
	svc := &stubService{stats: &customer.Stats{
		TotalRentals: 4, ActiveRentals: 2, ReturnedRentals: 1, CancelledRentals: 1, OverdueRentals: 1, AverageRentalDays: 3,
	}}

	w := get(newTestRouter(svc), "/v1/customers/"+customerID+"/stats")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_rentals":4,"active_rentals":2,"returned_rentals":1,"cancelled_rentals":1,"overdue_rentals":1,"average_rental_days":3}`, w.Body.String())

	w = get(newTestRouter(&stubService{err: customer.ErrNotFound}), "/v1/customers/"+customerID+"/stats")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(newTestRouter(svc), "/v1/customers/not-a-uuid/stats")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTopBooks(t *testing.T) {
	cover := "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	svc := &stubService{topBooks: []*customer.TopBook{
		{BookID: "b2", Title: "Dune", CoverFileID: &cover, RentalCount: 2},
		{BookID: "b1", Title: "Kindred", RentalCount: 1},
	}}
	router := newTestRouter(svc)

	w := get(router, "/v1/customers/"+customerID+"/top-books")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, svc.gotLimit, "service applies the default")
	assert.JSONEq(t, `{"items":[
		{"book_id":"b2","title":"Dune","author":null,"cover_url":"/files/`+cover+`","rental_count":2},
		{"book_id":"b1","title":"Kindred","author":null,"cover_url":null,"rental_count":1}
	]}`, w.Body.String())

	w = get(router, "/v1/customers/"+customerID+"/top-books?limit=3")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, svc.gotLimit)

	w = get(router, "/v1/customers/"+customerID+"/top-books?limit=51")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
