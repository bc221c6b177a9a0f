package kpis

import (
	"context"
	"fmt"
	"log/slog"
)

// Service serves KPI snapshots through the cache.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// List returns all KPIs. Redis failures fall back to the database.
func (s *Service) List(ctx context.Context) ([]Kpi, error) {
	load := func(ctx context.Context) (any, error) {
		items, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []Kpi{}
		}
		return items, nil
	}

	key, err := s.cache.BuildKey(ctx, "kpis", "list")
	if err == nil {
		var items []Kpi
		if err = s.cache.FetchJSON(ctx, key, &items, load); err == nil {
			return items, nil
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.logger.Warn("kpi cache unavailable", slog.Any("error", err))

	value, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kpis: %w", err)
	}
	return value.([]Kpi), nil
}

// Invalidate drops cached KPI lists.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
