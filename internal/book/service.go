package book

import (
	"context"
	"strings"
)

type CreateRequest struct {
	Title       string
	Author      *string
	ISBN        *string
	Description *string
}

type UpdateRequest struct {
	Title       *string
	Author      *string
	ISBN        *string
	Description *string
	Status      *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Book, error)
	GetByID(ctx context.Context, id string) (*Book, error)
	List(ctx context.Context, filter Filter) ([]*Book, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Book, error)
	SetCover(ctx context.Context, id string, fileID string) error
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// optional trims s and maps blank values to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Book, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	b := &Book{
		Title:       title,
		Author:      optional(req.Author),
		ISBN:        optional(req.ISBN),
		Description: optional(req.Description),
		Status:      StatusAvailable,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Book, int, error) {
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Book, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		b.Title = title
	}
	if req.Author != nil {
		b.Author = optional(req.Author)
	}
	if req.ISBN != nil {
		b.ISBN = optional(req.ISBN)
	}
	if req.Description != nil {
		b.Description = optional(req.Description)
	}
	if req.Status != nil {
		st := Status(*req.Status)
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
		b.Status = st
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) SetCover(ctx context.Context, id string, fileID string) error {
	return s.repo.SetCover(ctx, id, &fileID)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
