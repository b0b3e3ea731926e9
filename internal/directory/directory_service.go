package directory

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

//go:generate mockgen -source=directory_service.go -destination=mock/directory_service_mock.go -package=mock
type Service interface {
	// Resolve returns the cached display entry for an employee. The second
	// return reports whether the employee is known at all.
	Resolve(ctx context.Context, employeeID string) (Entry, bool, error)
	// IsEligible blocks a submission only when the work-status flag is the
	// explicit negative sentinel; unknown employees pass.
	IsEligible(ctx context.Context, employeeID string) (bool, error)
	// Invalidate drops the cached directory so edits surface on next read.
	Invalidate(ctx context.Context)
}

type service struct {
	repo   Repository
	cache  Cache
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, cache Cache, logger ...*zap.Logger) Service {
	l := zap.L().Named("directory.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("directory.service")
	}
	return &service{repo: repo, cache: cache, sf: &singleflight.Group{}, logger: l}
}

func (s *service) Resolve(ctx context.Context, employeeID string) (Entry, bool, error) {
	employeeID = strings.TrimSpace(employeeID)

	if entries, ok := s.cache.Get(ctx); ok {
		entry, found := entries[employeeID]
		return entry, found, nil
	}

	// Collapse concurrent rebuilds into one source read
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		rows, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}

		entries := make(map[string]Entry, len(rows))
		for _, row := range rows {
			entries[row.EmployeeID] = Entry{Name: row.FullName, PhotoURL: row.PhotoURL}
		}

		if err := s.cache.Set(ctx, entries); err != nil {
			s.logger.Warn("directory cache set failed", zap.Error(err))
		}
		return entries, nil
	})
	if err != nil {
		return Entry{}, false, err
	}

	entries := v.(map[string]Entry)
	entry, found := entries[employeeID]
	return entry, found, nil
}

func (s *service) IsEligible(ctx context.Context, employeeID string) (bool, error) {
	employeeID = strings.TrimSpace(employeeID)

	row, err := s.repo.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}

	return !strings.EqualFold(strings.TrimSpace(row.WorkStatus), WorkStatusInactive), nil
}

func (s *service) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("directory cache invalidation failed", zap.Error(err))
	}
}
