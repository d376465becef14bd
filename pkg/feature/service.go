package feature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Service evaluates and administers feature flags against a Store.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for fail-closed evaluation errors.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a flag service backed by store.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("feature: store cannot be nil")
	}
	s := &Service{
		store: store,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsEnabled reports whether the flag is visible to the subject. Evaluation
// is deterministic for a given (subject, flag) pair and never errors: an
// unknown flag, a malformed record, or an unreachable store all evaluate to
// false. A flag outage must never expose a half-shipped feature, so every
// failure path fails closed.
func (s *Service) IsEnabled(ctx context.Context, subjectID, flagName string) bool {
	flag, err := s.store.FindByName(ctx, flagName)
	if err != nil {
		if !errors.Is(err, ErrFlagNotFound) {
			s.log.ErrorContext(ctx, "flag lookup failed, evaluating as disabled",
				"flag", flagName, "error", err)
		}
		return false
	}

	if !flag.Enabled {
		return false
	}
	if flag.RolloutPercent >= 100 {
		return true
	}
	if flag.RolloutPercent <= 0 {
		return false
	}

	return Bucket(subjectID, flagName) < flag.RolloutPercent
}

// Get returns the flag definition for name.
func (s *Service) Get(ctx context.Context, name string) (*Flag, error) {
	return s.store.FindByName(ctx, name)
}

// List returns all flag definitions ordered by name.
func (s *Service) List(ctx context.Context) ([]Flag, error) {
	return s.store.ListAll(ctx)
}

// Create adds a new flag. The name must be unique; the rollout percentage
// must be within [0,100]. New flags default to disabled at 0% and are
// expanded through Update.
func (s *Service) Create(ctx context.Context, name, description string, enabled bool, rolloutPercent int) (*Flag, error) {
	if name == "" {
		return nil, errors.Join(ErrInvalidFlag, errors.New("name is required"))
	}
	if description == "" {
		return nil, errors.Join(ErrInvalidFlag, errors.New("description is required"))
	}
	if err := validatePercent(rolloutPercent); err != nil {
		return nil, err
	}

	now := s.now()
	flag := &Flag{
		Name:           name,
		Description:    description,
		Enabled:        enabled,
		RolloutPercent: rolloutPercent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, flag); err != nil {
		return nil, err
	}
	return flag, nil
}

// Update upserts the flag by name with the new enabled state and rollout
// percentage, stamping UpdatedAt. A flag that does not exist yet is created
// with a generated description. Out-of-range percentages are rejected,
// never clamped.
func (s *Service) Update(ctx context.Context, name string, enabled bool, rolloutPercent int) (*Flag, error) {
	if name == "" {
		return nil, errors.Join(ErrInvalidFlag, errors.New("name is required"))
	}
	if err := validatePercent(rolloutPercent); err != nil {
		return nil, err
	}

	return s.store.Upsert(ctx, &Flag{
		Name:           name,
		Description:    fmt.Sprintf("Feature flag for %s", name),
		Enabled:        enabled,
		RolloutPercent: rolloutPercent,
		UpdatedAt:      s.now(),
	})
}

func validatePercent(p int) error {
	if p < 0 || p > 100 {
		return fmt.Errorf("%w, got %d", ErrInvalidRolloutPercent, p)
	}
	return nil
}
