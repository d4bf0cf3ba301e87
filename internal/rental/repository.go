package rental

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the subset of persistence that may run while a book is locked.
type Store interface {
	ActiveRentalFinder
	Create(ctx context.Context, r *Rental) error
	Update(ctx context.Context, r *Rental) error
}

type Repository interface {
	Store
	GetByID(ctx context.Context, id string) (*Rental, error)
	List(ctx context.Context, filter Filter) ([]*Rental, int, error)

	// ListInRange returns rentals of any status touching [from, to], ordered by start date.
	ListInRange(ctx context.Context, from, to time.Time) ([]*Rental, error)

	// Close moves an active rental to status. It returns ErrNotActive when the rental
	// exists but is no longer active.
	Close(ctx context.Context, id string, status Status, actualReturnDate *time.Time) error

	// WithBookLock runs fn in a transaction that holds an exclusive per-book lock, so an
	// availability check and the write that depends on it cannot interleave with another
	// writer for the same book.
	WithBookLock(ctx context.Context, bookID string, fn func(ctx context.Context, store Store) error) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var rentalColumns = []string{
	"r.id", "r.book_id", "COALESCE(b.title, '')", "r.customer_id", "COALESCE(c.name, '')",
	"r.start_date", "r.expected_return_date", "r.actual_return_date",
	"r.status", "r.notes", "r.created_at", "r.updated_at",
}

var sortColumns = map[string]string{
	"start_date":           "r.start_date",
	"expected_return_date": "r.expected_return_date",
	"created_at":           "r.created_at",
	"status":               "r.status",
}

type pgxStore struct {
	q querier
}

type pgxRepository struct {
	pgxStore
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pgxStore: pgxStore{q: pool},
		pool:     pool,
	}
}

func selectRentals(columns ...string) squirrel.SelectBuilder {
	return psql.Select(slices.Concat(rentalColumns, columns)...).
		From("public.rentals r").
		LeftJoin("public.books b ON r.book_id = b.id").
		LeftJoin("public.customers c ON r.customer_id = c.id")
}

func scanRental(row pgx.Row, extra ...any) (*Rental, error) {
	var r Rental
	dest := []any{
		&r.ID, &r.BookID, &r.BookTitle, &r.CustomerID, &r.CustomerName,
		&r.StartDate, &r.ExpectedReturnDate, &r.ActualReturnDate,
		&r.Status, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *pgxStore) FindActiveByBook(ctx context.Context, bookID, excludeRentalID string) ([]*Rental, error) {
	query := selectRentals().
		Where(squirrel.Eq{"r.book_id": bookID}).
		Where(squirrel.Eq{"r.status": StatusActive}).
		OrderBy("r.start_date ASC")

	if excludeRentalID != "" {
		query = query.Where(squirrel.NotEq{"r.id": excludeRentalID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find active rentals query failed: %w", err)
	}

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find active rentals failed: %w", err)
	}
	defer rows.Close()

	var result []*Rental
	for rows.Next() {
		r, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rental failed: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find active rentals failed: %w", err)
	}
	return result, nil
}

func (s *pgxStore) Create(ctx context.Context, r *Rental) error {
	query, args, err := psql.Insert("public.rentals").
		Columns("book_id", "customer_id", "start_date", "expected_return_date", "status", "notes").
		Values(r.BookID, r.CustomerID, r.StartDate, r.ExpectedReturnDate, r.Status, r.Notes).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create rental query failed: %w", err)
	}

	if err := s.q.QueryRow(ctx, query, args...).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return mapWriteError(err, "create rental failed")
	}
	return nil
}

func (s *pgxStore) Update(ctx context.Context, r *Rental) error {
	query, args, err := psql.Update("public.rentals").
		Set("start_date", r.StartDate).
		Set("expected_return_date", r.ExpectedReturnDate).
		Set("notes", r.Notes).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": r.ID}).
		Where(squirrel.Eq{"status": StatusActive}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update rental query failed: %w", err)
	}

	ct, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "update rental failed")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotActive
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Rental, error) {
	query, args, err := selectRentals().
		Where(squirrel.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get rental query failed: %w", err)
	}

	rent, err := scanRental(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get rental failed: %w", err)
	}
	return rent, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Rental, int, error) {
	query := selectRentals("count(*) OVER() AS total_count")

	if filter.BookID != "" {
		query = query.Where(squirrel.Eq{"r.book_id": filter.BookID})
	}
	if filter.CustomerID != "" {
		query = query.Where(squirrel.Eq{"r.customer_id": filter.CustomerID})
	}
	switch filter.Status {
	case "":
	case StatusOverdue:
		query = query.
			Where(squirrel.Eq{"r.status": StatusActive}).
			Where(squirrel.Lt{"r.expected_return_date": filter.Today})
	default:
		query = query.Where(squirrel.Eq{"r.status": filter.Status})
	}

	// Sorting
	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "r.created_at"
	}
	orderDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "ASC") {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "r.id")

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list rentals query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list rentals failed: %w", err)
	}
	defer rows.Close()

	var rentals []*Rental
	var total int

	for rows.Next() {
		rent, err := scanRental(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan rental failed: %w", err)
		}
		rentals = append(rentals, rent)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list rentals failed: %w", err)
	}

	return rentals, total, nil
}

func (r *pgxRepository) ListInRange(ctx context.Context, from, to time.Time) ([]*Rental, error) {
	query, args, err := selectRentals().
		Where(squirrel.LtOrEq{"r.start_date": to}).
		Where(squirrel.Or{
			squirrel.GtOrEq{"r.expected_return_date": from},
			squirrel.GtOrEq{"r.actual_return_date": from},
		}).
		OrderBy("r.start_date ASC", "r.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list rentals in range query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rentals in range failed: %w", err)
	}
	defer rows.Close()

	var rentals []*Rental
	for rows.Next() {
		rent, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rental failed: %w", err)
		}
		rentals = append(rentals, rent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rentals in range failed: %w", err)
	}
	return rentals, nil
}

func (r *pgxRepository) Close(ctx context.Context, id string, status Status, actualReturnDate *time.Time) error {
	query, args, err := psql.Update("public.rentals").
		Set("status", status).
		Set("actual_return_date", actualReturnDate).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": StatusActive}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build close rental query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("close rental failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotActive
	}
	return nil
}

func (r *pgxRepository) WithBookLock(ctx context.Context, bookID string, fn func(ctx context.Context, store Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rental transaction failed: %w", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	// Transaction-scoped lock, released on commit or rollback.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))", bookID); err != nil {
		return fmt.Errorf("acquire book lock failed: %w", err)
	}

	if err := fn(ctx, &pgxStore{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapWriteError(err, "commit rental transaction failed")
	}
	return nil
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return ErrDateConflict
		case pgerrcode.CheckViolation:
			return ErrInvalidDateRange
		case pgerrcode.ForeignKeyViolation:
			if strings.Contains(pgErr.ConstraintName, "customer") {
				return ErrCustomerNotFound
			}
			return ErrBookNotFound
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
