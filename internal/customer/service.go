package customer

import (
	"context"
	"strings"
	"time"

	"github.com/nekogravitycat/book-rental-backend/internal/pkg/dates"
)

type CreateRequest struct {
	Name    string
	Email   *string
	Phone   *string
	Address *string
}

type UpdateRequest struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, filter Filter) ([]*Customer, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Customer, error)
	Delete(ctx context.Context, id string) error

	GetStats(ctx context.Context, id string) (*Stats, error)
	// TopBooks lists the customer's most rented books. A limit of zero or less means the default.
	TopBooks(ctx context.Context, id string, limit int) ([]*TopBook, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	if v := strings.TrimSpace(*s); v != "" {
		return &v
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	c := &Customer{
		Name:    name,
		Email:   trimmed(req.Email),
		Phone:   trimmed(req.Phone),
		Address: trimmed(req.Address),
	}
	if c.Email != nil {
		e := strings.ToLower(*c.Email)
		c.Email = &e
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Customer, int, error) {
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		c.Name = name
	}
	if req.Email != nil {
		c.Email = trimmed(req.Email)
		if c.Email != nil {
			e := strings.ToLower(*c.Email)
			c.Email = &e
		}
	}
	if req.Phone != nil {
		c.Phone = trimmed(req.Phone)
	}
	if req.Address != nil {
		c.Address = trimmed(req.Address)
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) GetStats(ctx context.Context, id string) (*Stats, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	// Same calendar day the rental service uses to mark rentals overdue.
	return s.repo.Stats(ctx, id, dates.Today(s.now()))
}

func (s *service) TopBooks(ctx context.Context, id string, limit int) ([]*TopBook, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTopBooksLimit
	}
	limit = min(limit, MaxTopBooksLimit)
	return s.repo.TopBooks(ctx, id, limit)
}
