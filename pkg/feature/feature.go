package feature

import (
	"context"
	"time"
)

// Flag is a feature flag definition. A flag is visible to a subject when it
// is globally enabled and the subject's bucket falls below the rollout
// percentage.
type Flag struct {
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Enabled        bool      `json:"enabled"`
	RolloutPercent int       `json:"rolloutPercent"`
	CreatedAt      time.Time `json:"createdAt,omitzero"`
	UpdatedAt      time.Time `json:"updatedAt,omitzero"`
}

// Store persists flag definitions. Implementations must return
// ErrFlagNotFound from FindByName for unknown names and ErrFlagExists from
// Create on name collisions.
type Store interface {
	// FindByName returns the flag definition for name.
	FindByName(ctx context.Context, name string) (*Flag, error)

	// Create inserts a new flag. The flag name must be unique.
	Create(ctx context.Context, flag *Flag) error

	// Upsert inserts the flag or, if a flag with the same name exists,
	// updates its enabled state, rollout percentage, and update timestamp.
	// It returns the stored definition.
	Upsert(ctx context.Context, flag *Flag) (*Flag, error)

	// ListAll returns every flag definition ordered by name.
	ListAll(ctx context.Context) ([]Flag, error)
}
