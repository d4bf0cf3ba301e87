package customer

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

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, filter Filter) ([]*Customer, int, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id string) error

	// Stats counts the customer's rentals; active rentals due before today are overdue.
	Stats(ctx context.Context, customerID string, today time.Time) (*Stats, error)
	TopBooks(ctx context.Context, customerID string, limit int) ([]*TopBook, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var customerColumns = []string{"id", "name", "email", "phone", "address", "created_at", "updated_at"}

func (r *pgxRepository) Create(ctx context.Context, c *Customer) error {
	query, args, err := psql.Insert("public.customers").
		Columns("name", "email", "phone", "address").
		Values(c.Name, c.Email, c.Phone, c.Address).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create customer query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create customer failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	query, args, err := psql.Select(customerColumns...).
		From("public.customers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get customer query failed: %w", err)
	}

	var c Customer
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get customer failed: %w", err)
	}
	return &c, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Customer, int, error) {
	query := psql.Select(slices.Concat(customerColumns, []string{"count(*) OVER() as total_count"})...).
		From("public.customers")

	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"phone": pattern},
		})
	}

	orderDir := "ASC"
	if strings.EqualFold(filter.SortOrder, "DESC") {
		orderDir = "DESC"
	}
	query = query.OrderBy("name "+orderDir, "id")

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
		return nil, 0, fmt.Errorf("build list customers query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers failed: %w", err)
	}
	defer rows.Close()

	var result []*Customer
	var total int

	for rows.Next() {
		var c Customer
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan customer failed: %w", err)
		}
		result = append(result, &c)
	}

	return result, total, rows.Err()
}

func (r *pgxRepository) Update(ctx context.Context, c *Customer) error {
	query, args, err := psql.Update("public.customers").
		Set("name", c.Name).
		Set("email", c.Email).
		Set("phone", c.Phone).
		Set("address", c.Address).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": c.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update customer query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update customer failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.customers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete customer query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrHasRentals
		}
		return fmt.Errorf("delete customer failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Stats(ctx context.Context, customerID string, today time.Time) (*Stats, error) {
	query, args, err := psql.Select().
		Column("count(*)").
		Column("count(*) FILTER (WHERE status = 'active')").
		Column("count(*) FILTER (WHERE status = 'returned')").
		Column("count(*) FILTER (WHERE status = 'cancelled')").
		Column(squirrel.Expr("count(*) FILTER (WHERE status = 'active' AND expected_return_date < ?)", today)).
		Column("COALESCE(round(avg(actual_return_date - start_date) FILTER (WHERE status = 'returned' AND actual_return_date IS NOT NULL)), 0)::int").
		From("public.rentals").
		Where(squirrel.Eq{"customer_id": customerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build customer stats query failed: %w", err)
	}

	var st Stats
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&st.TotalRentals, &st.ActiveRentals, &st.ReturnedRentals, &st.CancelledRentals,
		&st.OverdueRentals, &st.AverageRentalDays,
	); err != nil {
		return nil, fmt.Errorf("customer stats failed: %w", err)
	}
	return &st, nil
}

func (r *pgxRepository) TopBooks(ctx context.Context, customerID string, limit int) ([]*TopBook, error) {
	query, args, err := psql.Select("r.book_id", "b.title", "b.author", "b.cover_file_id", "count(*) AS rental_count").
		From("public.rentals r").
		Join("public.books b ON b.id = r.book_id").
		Where(squirrel.Eq{"r.customer_id": customerID}).
		Where(squirrel.NotEq{"r.status": "cancelled"}).
		GroupBy("r.book_id", "b.title", "b.author", "b.cover_file_id").
		OrderBy("rental_count DESC", "b.title", "r.book_id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top books query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top books failed: %w", err)
	}
	defer rows.Close()

	result := []*TopBook{}
	for rows.Next() {
		var b TopBook
		if err := rows.Scan(&b.BookID, &b.Title, &b.Author, &b.CoverFileID, &b.RentalCount); err != nil {
			return nil, fmt.Errorf("scan top book failed: %w", err)
		}
		result = append(result, &b)
	}
	return result, rows.Err()
}
