// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/redbuttegarden/memberships/internal/adapters/repository"
	"github.com/redbuttegarden/memberships/internal/domain/pricing"
	"github.com/redbuttegarden/memberships/internal/domain/recommend"
	"github.com/redbuttegarden/memberships/internal/domain/selector"
	"github.com/redbuttegarden/memberships/internal/domain/types"
	"github.com/redbuttegarden/memberships/pkg/logger"
	"github.com/redbuttegarden/memberships/pkg/metrics"
)

// Service implements the API dependencies for the membership selector.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	validator *selector.Validator

	// Configuration
	discount    decimal.Decimal
	fixturePath string

	// State
	started         bool
	loadedAt        time.Time
	recommendations atomic.Uint64
	noMatches       atomic.Uint64
	rejected        atomic.Uint64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore sets the catalog store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithValidator sets the selector validator.
func WithValidator(v *selector.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithAutoRenewDiscount sets the auto-renewal discount in USD. Negative
// amounts are clamped to zero.
func WithAutoRenewDiscount(discount decimal.Decimal) Option {
	return func(s *Service) {
		if discount.IsNegative() {
			discount = decimal.Zero
		}
		s.discount = discount
	}
}

// WithFixturePath sets the fixture loaded by Start.
func WithFixturePath(path string) Option {
	return func(s *Service) {
		s.fixturePath = path
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		discount: decimal.Zero,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewInMemoryStore(repository.WithLogger(s.logger))
	}
	if s.validator == nil {
		s.validator = selector.New()
	}
	return s
}

// Start loads the configured fixture, if any, and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	path := s.fixturePath
	s.mu.Unlock()

	s.logger.Info(ctx, "starting membership service...")

	if path != "" {
		if err := s.Reload(ctx, path); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	total, active := s.store.Count(ctx)
	s.logger.Info(ctx, "membership service started",
		logger.Int("levels", total),
		logger.Int("activeLevels", active),
		logger.String("autoRenewDiscount", s.discount.StringFixed(2)),
		logger.Bool("autoRenewAdvertised", pricing.HasAutoRenewDiscount(s.discount)),
	)
	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	if s.logger != nil {
		s.logger.Info(context.Background(), "membership service stopped")
	}
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Get()
	}
	return l
}

// Reload replaces the catalog with the levels in the fixture at path. The
// current catalog is kept when the file cannot be loaded or is invalid.
func (s *Service) Reload(ctx context.Context, path string) error {
	levels, err := repository.LoadFixtureFile(ctx, path)
	if err == nil {
		err = s.store.Replace(ctx, levels)
	}
	metrics.RecordCatalogLoad(err == nil)
	if err != nil {
		s.log().Error(ctx, "catalog reload failed",
			logger.String("path", path),
			logger.Error(err),
		)
		return fmt.Errorf("reload %s: %w", path, err)
	}

	s.mu.Lock()
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.log().Info(ctx, "catalog loaded",
		logger.String("path", path),
		logger.Int("levels", len(levels)),
	)
	return nil
}

// Recommend validates req and returns the highlighted level with its
// downsell and upsell suggestions. Validation failures unwrap to
// selector.ErrInvalidRequest.
func (s *Service) Recommend(ctx context.Context, req selector.Request) (types.Recommendation, error) {
	if err := s.validator.Check(req); err != nil {
		s.rejected.Add(1)
		var verr *selector.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				metrics.RecordValidationFailure(f.Field)
			}
		}
		s.log().Debug(ctx, "selector input rejected", logger.Error(err))
		return types.Recommendation{Requested: req}, err
	}

	catalog := s.store.List(ctx)
	byID := make(map[int]repository.CatalogLevel, len(catalog))
	for _, l := range catalog {
		byID[l.ID] = l
	}
	levels := repository.EngineLevels(catalog)

	start := time.Now()
	res := recommend.Recommend(levels, req.Cardholders, req.Guests, req.Tickets)
	metrics.RecordRecommendationLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordRecommendation(string(res.MatchType))
	s.recommendations.Add(1)

	if res.Empty() {
		s.noMatches.Add(1)
		s.log().Debug(ctx, "no membership level matches request",
			logger.Int("cardholders", req.Cardholders),
			logger.Int("guests", req.Guests),
			logger.Int("tickets", req.Tickets),
		)
	} else {
		for _, slot := range res.Slots() {
			if slot.Level != nil {
				metrics.RecordSlotFilled(slot.Slot)
			}
		}
		s.log().Debug(ctx, "membership level recommended",
			logger.Int("cardholders", req.Cardholders),
			logger.Int("guests", req.Guests),
			logger.Int("tickets", req.Tickets),
			logger.String("matchType", string(res.MatchType)),
			logger.Int("highlighted", res.Highlighted.ID),
			logger.Stringer("price", res.Highlighted.Price),
		)
	}

	return buildRecommendation(req, res, byID, s.discount), nil
}

// Levels returns the active catalog ordered by price, then id.
func (s *Service) Levels(ctx context.Context) []types.LevelView {
	catalog := s.store.List(ctx)
	out := make([]types.LevelView, 0, len(catalog))
	for _, l := range catalog {
		if l.Active {
			out = append(out, newLevelView(l, s.discount))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if cmp := out[i].Price.Cmp(out[j].Price); cmp != 0 {
			return cmp < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Level returns one catalog level by id, active or not. Unknown ids unwrap
// to repository.ErrNotFound.
func (s *Service) Level(ctx context.Context, id int) (types.LevelView, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return types.LevelView{}, err
	}
	return newLevelView(l, s.discount), nil
}

// LevelCount returns the number of active levels.
func (s *Service) LevelCount(ctx context.Context) int {
	_, active := s.store.Count(ctx)
	return active
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total, active := s.store.Count(context.Background())
	stats := map[string]interface{}{
		"started":           s.started,
		"levels":            total,
		"activeLevels":      active,
		"recommendations":   s.recommendations.Load(),
		"noMatches":         s.noMatches.Load(),
		"rejected":          s.rejected.Load(),
		"autoRenewDiscount": s.discount.StringFixed(2),
		"fixturePath":       s.fixturePath,
	}
	if !s.loadedAt.IsZero() {
		stats["catalogLoadedAt"] = s.loadedAt.UTC().Format(time.RFC3339)
	}

	metrics.UpdateCatalogLevels(total, active)
	return stats
}
