package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/book-rental-backend/internal/pkg/dates"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/response"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/validation"
	"github.com/nekogravitycat/book-rental-backend/internal/rental"
)

const (
	bookID   = "6f1c2b8e-3a4d-4e5f-8a9b-0c1d2e3f4a5b"
	rentalID = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

// stubService implements rental.Service with canned answers and records its inputs.
type stubService struct {
	rental.Service

	today     time.Time
	available bool
	ranges    []rental.BlockedRange
	created   *rental.Rental
	err       error

	gotStart, gotEnd time.Time
	gotExclude       string
	gotCreate        rental.CreateRequest
}

func (s *stubService) Today() time.Time { return s.today }

func (s *stubService) CheckAvailability(_ context.Context, _ string, start, end time.Time, exclude string) (bool, error) {
	s.gotStart, s.gotEnd, s.gotExclude = start, end, exclude
	return s.available, s.err
}

func (s *stubService) BlockedRanges(context.Context, string) ([]rental.BlockedRange, error) {
	return s.ranges, s.err
}

func (s *stubService) Create(_ context.Context, req rental.CreateRequest) (*rental.Rental, error) {
	s.gotCreate = req
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func (s *stubService) GetByID(context.Context, string) (*rental.Rental, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dates.Parse(s)
	require.NoError(t, err)
	return d
}

func newTestRouter(t *testing.T, svc rental.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.Register())

	r := gin.New()
	noAuth := func(c *gin.Context) {}
	RegisterRoutes(r.Group("/v1"), NewHandler(svc), noAuth)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAvailability(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &stubService{available: true}
		w := do(newTestRouter(t, svc), "GET",
			"/v1/books/"+bookID+"/availability?start_date=2024-06-11&end_date=2024-06-15&exclude_rental_id="+rentalID, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp AvailabilityResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Available)
		assert.Equal(t, "2024-06-11", resp.StartDate)
		assert.Equal(t, "2024-06-15", resp.EndDate)
		assert.Equal(t, mustDate(t, "2024-06-11"), svc.gotStart)
		assert.Equal(t, rentalID, svc.gotExclude)
	})

	t.Run("Malformed date", func(t *testing.T) {
		w := do(newTestRouter(t, &stubService{}), "GET",
			"/v1/books/"+bookID+"/availability?start_date=11/06/2024&end_date=2024-06-15", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing end date", func(t *testing.T) {
		w := do(newTestRouter(t, &stubService{}), "GET",
			"/v1/books/"+bookID+"/availability?start_date=2024-06-11", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Inverted range reported by the engine", func(t *testing.T) {
		w := do(newTestRouter(t, &stubService{err: rental.ErrInvalidDateRange}), "GET",
			"/v1/books/"+bookID+"/availability?start_date=2024-06-15&end_date=2024-06-11", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid book id", func(t *testing.T) {
		w := do(newTestRouter(t, &stubService{}), "GET",
			"/v1/books/not-a-uuid/availability?start_date=2024-06-11&end_date=2024-06-15", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBlockedRanges(t *testing.T) {
	svc := &stubService{ranges: []rental.BlockedRange{
		{Start: mustDate(t, "2024-06-01"), End: mustDate(t, "2024-06-03"), CustomerName: "Ana"},
	}}
	router := newTestRouter(t, svc)

	t.Run("Plain ranges", func(t *testing.T) {
		w := do(router, "GET", "/v1/books/"+bookID+"/blocked-ranges", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp response.ListResponse[BlockedRangeResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "2024-06-01", resp.Items[0].StartDate)
		assert.Equal(t, "2024-06-03", resp.Items[0].EndDate)
		assert.Equal(t, "Ana", resp.Items[0].CustomerName)
		assert.Empty(t, resp.Items[0].Days)
	})

	t.Run("Expanded days", func(t *testing.T) {
		w := do(router, "GET", "/v1/books/"+bookID+"/blocked-ranges?expand=days", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp response.ListResponse[BlockedRangeResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, []string{"2024-06-01", "2024-06-02", "2024-06-03"}, resp.Items[0].Days)
	})

	t.Run("Expanding an overlong range is rejected", func(t *testing.T) {
		long := &stubService{ranges: []rental.BlockedRange{
			{Start: mustDate(t, "2024-01-01"), End: mustDate(t, "9999-12-31"), CustomerName: "Ana"},
		}}
		r := newTestRouter(t, long)

		w := do(r, "GET", "/v1/books/"+bookID+"/blocked-ranges?expand=days", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(r, "GET", "/v1/books/"+bookID+"/blocked-ranges", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Empty list is an array", func(t *testing.T) {
		w := do(newTestRouter(t, &stubService{}), "GET", "/v1/books/"+bookID+"/blocked-ranges", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"items":[]}`, w.Body.String())
	})
}

func TestCreateRental(t *testing.T) {
	created := &rental.Rental{
		ID:                 rentalID,
		BookID:             bookID,
		CustomerName:       "Ana",
		StartDate:          mustDate(t, "2024-05-01"),
		ExpectedReturnDate: mustDate(t, "2024-05-10"),
		Status:             rental.StatusActive,
	}
	body := `{"book_id":"` + bookID + `","customer_id":"` + rentalID + `","start_date":"2024-05-01","expected_return_date":"2024-05-10"}`

	t.Run("Created and shown as overdue when past due", func(t *testing.T) {
		svc := &stubService{created: created, today: mustDate(t, "2024-06-01")}
		w := do(newTestRouter(t, svc), "POST", "/v1/rentals", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp RentalResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "2024-05-01", resp.StartDate)
		assert.Equal(t, "2024-05-10", resp.ExpectedReturnDate)
		assert.Nil(t, resp.ActualReturnDate)
		assert.Equal(t, "overdue", resp.Status)
		assert.Equal(t, mustDate(t, "2024-05-10"), svc.gotCreate.ExpectedReturnDate)
	})

	t.Run("Conflict", func(t *testing.T) {
		w := do(newTestRouter(t, &stubService{err: rental.ErrDateConflict}), "POST", "/v1/rentals", body)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":"this book is already rented in this period"}`, w.Body.String())
	})

	t.Run("Inverted dates rejected before the service", func(t *testing.T) {
		svc := &stubService{created: created}
		inverted := `{"book_id":"` + bookID + `","customer_id":"` + rentalID + `","start_date":"2024-05-10","expected_return_date":"2024-05-01"}`
		w := do(newTestRouter(t, svc), "POST", "/v1/rentals", inverted)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.gotCreate.BookID)
	})

	t.Run("Overlong rental rejected before the service", func(t *testing.T) {
		svc := &stubService{created: created}
		long := `{"book_id":"` + bookID + `","customer_id":"` + rentalID + `","start_date":"2024-01-01","expected_return_date":"9999-12-31"}`
		w := do(newTestRouter(t, svc), "POST", "/v1/rentals", long)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.gotCreate.BookID)
	})

	t.Run("Missing dates", func(t *testing.T) {
		w := do(newTestRouter(t, &stubService{}), "POST", "/v1/rentals", `{"book_id":"`+bookID+`","customer_id":"`+rentalID+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCalendarWindow(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	w := do(router, "GET", "/v1/calendar?from=2024-01-01&to=2025-06-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"calendar window may not span more than 366 days"}`, w.Body.String())

	w = do(router, "GET", "/v1/calendar?from=2024-02-01&to=2024-01-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
