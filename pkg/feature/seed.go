package feature

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFlag is one entry in a YAML seed file.
type SeedFlag struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	Enabled        bool   `yaml:"enabled"`
	RolloutPercent int    `yaml:"rollout_percent"`
}

type seedFile struct {
	Flags []SeedFlag `yaml:"flags"`
}

// Seed creates the flags described in the YAML document read from r,
// skipping any that already exist. Existing definitions are never mutated:
// seeding establishes launch defaults, admin operations own everything
// after that.
func Seed(ctx context.Context, store Store, r io.Reader) error {
	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return fmt.Errorf("feature: failed to decode seed file: %w", err)
	}

	svc := NewService(store)
	for _, seed := range file.Flags {
		if seed.Description == "" {
			seed.Description = fmt.Sprintf("Feature flag for %s", seed.Name)
		}
		_, err := svc.Create(ctx, seed.Name, seed.Description, seed.Enabled, seed.RolloutPercent)
		if err != nil && !errors.Is(err, ErrFlagExists) {
			return fmt.Errorf("feature: failed to seed flag %q: %w", seed.Name, err)
		}
	}
	return nil
}

// SeedFromFile seeds flags from the YAML file at path. A missing file is
// not an error, so deployments without a seed file boot cleanly.
func SeedFromFile(ctx context.Context, store Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	return Seed(ctx, store, f)
}
