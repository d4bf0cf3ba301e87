package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/book-rental-backend/internal/app"
	bookHttp "github.com/nekogravitycat/book-rental-backend/internal/book/http"
	customerHttp "github.com/nekogravitycat/book-rental-backend/internal/customer/http"
	"github.com/nekogravitycat/book-rental-backend/internal/db"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/response"
	rentalHttp "github.com/nekogravitycat/book-rental-backend/internal/rental/http"
	userHttp "github.com/nekogravitycat/book-rental-backend/internal/user/http"
)

// These tests run against a real Postgres and are skipped when TEST_DB_DSN is unset.

var (
	testRouter *gin.Engine
	testPool   *pgxpool.Pool
)

func TestMain(m *testing.M) {
	// Attempt to load .env from the repository root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("No .env file found or failed to load: %v", err)
	}

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		log.Printf("TEST_DB_DSN is not set, skipping integration tests")
		os.Exit(0)
	}

	ctx := context.Background()
	var err error
	testPool, err = db.NewPool(ctx, dsn, 0)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	if err := db.Migrate(ctx, testPool); err != nil {
		log.Fatalf("Unable to migrate database: %v", err)
	}

	storageDir, err := os.MkdirTemp("", "book-rental-test-*")
	if err != nil {
		log.Fatalf("Unable to create storage dir: %v", err)
	}

	container, err := app.NewContainer(app.Config{
		DBPool:          testPool,
		JWTSecret:       "integration-secret",
		JWTTTL:          30 * time.Minute,
		BcryptCost:      4, // Lower cost for testing purposes
		StoragePath:     storageDir,
		MaxUploadSizeMB: 1,
	})
	if err != nil {
		log.Fatalf("Unable to build container: %v", err)
	}
	testRouter = container.Router
	gin.SetMode(gin.TestMode)

	exitCode := m.Run()

	testPool.Close()
	_ = os.RemoveAll(storageDir)
	os.Exit(exitCode)
}

func clearTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		"TRUNCATE TABLE public.rentals, public.books, public.customers, public.files, public.users CASCADE")
	require.NoError(t, err)
}

func executeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// loginOperator registers an operator and returns an access token.
func loginOperator(t *testing.T) string {
	t.Helper()
	creds := userHttp.RegisterRequest{Email: "desk@library.org", Password: "correct-horse"}
	w := executeRequest("POST", "/v1/auth/register", creds, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = executeRequest("POST", "/v1/auth/login", userHttp.LoginRequest{Email: creds.Email, Password: creds.Password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[userHttp.LoginResponse](t, w).AccessToken
}

func createBookAndCustomers(t *testing.T, token string, names ...string) (string, []string) {
	t.Helper()
	w := executeRequest("POST", "/v1/books", bookHttp.CreateBookRequest{Title: "The Dispossessed"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookID := decode[bookHttp.BookResponse](t, w).ID

	var customerIDs []string
	for _, name := range names {
		w := executeRequest("POST", "/v1/customers", customerHttp.CreateCustomerRequest{Name: name}, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		customerIDs = append(customerIDs, decode[customerHttp.CustomerResponse](t, w).ID)
	}
	return bookID, customerIDs
}

func TestRentalLifecycle(t *testing.T) {
	clearTables(t)
	token := loginOperator(t)
	bookID, customers := createBookAndCustomers(t, token, "Ana", "Ben")

	var anaRentalID string

	t.Run("Create rental", func(t *testing.T) {
		w := executeRequest("POST", "/v1/rentals", rentalHttp.CreateRentalRequest{
			BookID:             bookID,
			CustomerID:         customers[0],
			StartDate:          "2030-06-01",
			ExpectedReturnDate: "2030-06-10",
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := decode[rentalHttp.RentalResponse](t, w)
		assert.Equal(t, "active", resp.Status)
		assert.Equal(t, "Ana", resp.CustomerName)
		anaRentalID = resp.ID
	})

	t.Run("Overlapping rental conflicts", func(t *testing.T) {
		w := executeRequest("POST", "/v1/rentals", rentalHttp.CreateRentalRequest{
			BookID:             bookID,
			CustomerID:         customers[1],
			StartDate:          "2030-06-10",
			ExpectedReturnDate: "2030-06-12",
		}, token)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Availability", func(t *testing.T) {
		w := executeRequest("GET", "/v1/books/"+bookID+"/availability?start_date=2030-06-05&end_date=2030-06-07", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, decode[rentalHttp.AvailabilityResponse](t, w).Available)

		w = executeRequest("GET", "/v1/books/"+bookID+"/availability?start_date=2030-06-11&end_date=2030-06-15", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[rentalHttp.AvailabilityResponse](t, w).Available)

		w = executeRequest("GET", "/v1/books/"+bookID+"/availability?start_date=2030-06-05&end_date=2030-06-07&exclude_rental_id="+anaRentalID, nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[rentalHttp.AvailabilityResponse](t, w).Available)
	})

	t.Run("Blocked ranges", func(t *testing.T) {
		w := executeRequest("GET", "/v1/books/"+bookID+"/blocked-ranges", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[response.ListResponse[rentalHttp.BlockedRangeResponse]](t, w)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "2030-06-01", resp.Items[0].StartDate)
		assert.Equal(t, "2030-06-10", resp.Items[0].EndDate)
		assert.Equal(t, "Ana", resp.Items[0].CustomerName)
	})

	t.Run("Cancel frees the dates", func(t *testing.T) {
		w := executeRequest("POST", "/v1/rentals/"+anaRentalID+"/cancel", nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "cancelled", decode[rentalHttp.RentalResponse](t, w).Status)

		w = executeRequest("GET", "/v1/books/"+bookID+"/blocked-ranges", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[response.ListResponse[rentalHttp.BlockedRangeResponse]](t, w).Items)
	})

	t.Run("Customer stats and top books", func(t *testing.T) {
		w := executeRequest("POST", "/v1/rentals", rentalHttp.CreateRentalRequest{
			BookID:             bookID,
			CustomerID:         customers[0],
			StartDate:          "2030-09-01",
			ExpectedReturnDate: "2030-09-05",
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = executeRequest("GET", "/v1/customers/"+customers[0]+"/stats", nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		stats := decode[customerHttp.StatsResponse](t, w)
		assert.Equal(t, 2, stats.TotalRentals)
		assert.Equal(t, 1, stats.ActiveRentals)
		assert.Equal(t, 1, stats.CancelledRentals)
		assert.Zero(t, stats.OverdueRentals)

		w = executeRequest("GET", "/v1/customers/"+customers[0]+"/top-books", nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		top := decode[response.ListResponse[customerHttp.TopBookResponse]](t, w)
		require.Len(t, top.Items, 1, "cancelled rental is not counted")
		assert.Equal(t, 1, top.Items[0].RentalCount)
	})

	t.Run("Customer with rentals cannot be deleted", func(t *testing.T) {
		w := executeRequest("DELETE", "/v1/customers/"+customers[0], nil, token)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestConcurrentRentalsSameBook(t *testing.T) {
	clearTables(t)
	token := loginOperator(t)
	names := []string{"Ana", "Ben", "Cy", "Dee", "Eli", "Fay", "Gus", "Hal"}
	bookID, customers := createBookAndCustomers(t, token, names...)

	var wg sync.WaitGroup
	codes := make([]int, len(customers))
	for i, customerID := range customers {
		wg.Go(func() {
			w := executeRequest("POST", "/v1/rentals", rentalHttp.CreateRentalRequest{
				BookID:             bookID,
				CustomerID:         customerID,
				StartDate:          "2030-07-01",
				ExpectedReturnDate: "2030-07-05",
			}, token)
			codes[i] = w.Code
		})
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created, "exactly one overlapping rental may win")
	assert.Equal(t, len(customers)-1, conflicts)
}

func TestExclusionConstraintRejectsDirectInsert(t *testing.T) {
	clearTables(t)
	token := loginOperator(t)
	bookID, customers := createBookAndCustomers(t, token, "Ana")

	ctx := context.Background()
	insert := `INSERT INTO public.rentals (book_id, customer_id, start_date, expected_return_date)
		VALUES ($1, $2, $3::date, $4::date)`

	_, err := testPool.Exec(ctx, insert, bookID, customers[0], "2030-08-01", "2030-08-10")
	require.NoError(t, err)

	_, err = testPool.Exec(ctx, insert, bookID, customers[0], "2030-08-10", "2030-08-12")
	assert.Error(t, err, "rows sharing a day must be rejected by the database")

	_, err = testPool.Exec(ctx, insert, bookID, customers[0], "2030-08-11", "2030-08-12")
	assert.NoError(t, err)
}
