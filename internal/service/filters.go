package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/lifecycle"
	"github.com/boddenberg/denuncias-bfa/internal/port"

	"go.uber.org/zap"
)

// FilterPreferences persists each user's advanced filter criteria.
// Stored values are validated on read; an unreadable entry is logged,
// deleted and reported as empty criteria.
type FilterPreferences struct {
	store  port.KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewFilterPreferences creates the preference service. ttl <= 0 keeps entries forever.
func NewFilterPreferences(store port.KVStore, ttl time.Duration, logger *zap.Logger) *FilterPreferences {
	return &FilterPreferences{store: store, ttl: ttl, logger: logger}
}

func filterKey(userID string) string { return "filters:" + userID }

// Get returns the caller's saved criteria, or zero criteria.
func (f *FilterPreferences) Get(ctx context.Context) (domain.FilterCriteria, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.FilterCriteria{}, err
	}

	raw, found, err := f.store.Get(ctx, filterKey(p.UserID))
	if err != nil {
		return domain.FilterCriteria{}, fmt.Errorf("load filters: %w", err)
	}
	if !found {
		return domain.FilterCriteria{}, nil
	}

	var criteria domain.FilterCriteria
	if err := json.Unmarshal(raw, &criteria); err == nil {
		err = lifecycle.ValidateCriteria(criteria)
	}
	if err != nil {
		f.logger.Warn("discarding corrupted filter preferences",
			zap.String("user_id", p.UserID),
			zap.Error(err),
		)
		if derr := f.store.Delete(ctx, filterKey(p.UserID)); derr != nil {
			f.logger.Warn("failed to delete corrupted filter preferences", zap.Error(derr))
		}
		return domain.FilterCriteria{}, nil
	}
	return criteria, nil
}

// Save validates and stores criteria for the caller.
func (f *FilterPreferences) Save(ctx context.Context, criteria domain.FilterCriteria) (domain.FilterCriteria, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	if err := lifecycle.ValidateCriteria(criteria); err != nil {
		return domain.FilterCriteria{}, err
	}
	if criteria.IsZero() {
		return criteria, f.Clear(ctx)
	}

	raw, err := json.Marshal(criteria)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	if err := f.store.Set(ctx, filterKey(p.UserID), raw, f.ttl); err != nil {
		return domain.FilterCriteria{}, fmt.Errorf("save filters: %w", err)
	}
	return criteria, nil
}

// Clear removes the caller's saved criteria.
func (f *FilterPreferences) Clear(ctx context.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if err := f.store.Delete(ctx, filterKey(p.UserID)); err != nil {
		return fmt.Errorf("clear filters: %w", err)
	}
	return nil
}
