package product

import (
	"context"
	"strings"
	"unicode/utf8"

	"marketplace-be/internal/logger"

	"go.uber.org/zap"
)

const (
	minNameLength = 3
	maxNameLength = 100
)

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, f ListFilter) ([]*Product, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*Product, error)
	Delete(ctx context.Context, id int64) (*Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "CreateProduct"))

	in.Name = strings.TrimSpace(in.Name)
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	log.Info("product created", zap.Int64("product_id", p.ID), zap.String("price", p.Price.String()))
	return p, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, f ListFilter) ([]*Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, ErrInvalidRange
	}
	return s.repo.List(ctx, f)
}

func (s *service) Update(ctx context.Context, id int64, in UpdateInput) (*Product, error) {
	if in.Empty() {
		return nil, ErrNoFieldsToPatch
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		in.Name = &name
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	return s.repo.Update(ctx, id, in)
}

func (s *service) Delete(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("product deleted",
		zap.Int64("product_id", p.ID),
		zap.String("name", p.Name),
	)
	return p, nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minNameLength || n > maxNameLength {
		return ErrInvalidName
	}
	return nil
}
