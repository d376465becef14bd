package feature_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermedhq/pulse/pkg/feature"
)

const seedYAML = `
flags:
  - name: metabolic_insights_enabled
    description: Metabolic insights dashboard
    enabled: true
    rollout_percent: 25
  - name: glucose_predictions
  - name: cgm_integration
    description: CGM device integration
`

func TestSeed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := feature.NewMemoryStore()

	require.NoError(t, feature.Seed(ctx, store, strings.NewReader(seedYAML)))

	insights, err := store.FindByName(ctx, "metabolic_insights_enabled")
	require.NoError(t, err)
	assert.True(t, insights.Enabled)
	assert.Equal(t, 25, insights.RolloutPercent)

	// Entries without explicit fields default to disabled at 0% with a
	// generated description.
	predictions, err := store.FindByName(ctx, "glucose_predictions")
	require.NoError(t, err)
	assert.False(t, predictions.Enabled)
	assert.Equal(t, 0, predictions.RolloutPercent)
	assert.Equal(t, "Feature flag for glucose_predictions", predictions.Description)
}

func TestSeedSkipsExistingFlags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := feature.NewMemoryStore()

	svc := feature.NewService(store)
	_, err := svc.Create(ctx, "cgm_integration", "already tuned", true, 80)
	require.NoError(t, err)

	require.NoError(t, feature.Seed(ctx, store, strings.NewReader(seedYAML)))

	flag, err := store.FindByName(ctx, "cgm_integration")
	require.NoError(t, err)
	assert.True(t, flag.Enabled, "seeding must not mutate existing flags")
	assert.Equal(t, 80, flag.RolloutPercent)
}

func TestSeedRejectsMalformedYAML(t *testing.T) {
	t.Parallel()
	store := feature.NewMemoryStore()
	err := feature.Seed(context.Background(), store, strings.NewReader("flags: [whoops"))
	require.Error(t, err)
}

func TestSeedRejectsInvalidPercent(t *testing.T) {
	t.Parallel()
	store := feature.NewMemoryStore()
	err := feature.Seed(context.Background(), store, strings.NewReader(`
flags:
  - name: broken
    rollout_percent: 250
`))
	require.ErrorIs(t, err, feature.ErrInvalidRolloutPercent)
}

func TestSeedFromFileMissingFileIsNoop(t *testing.T) {
	t.Parallel()
	store := feature.NewMemoryStore()
	path := filepath.Join(t.TempDir(), "absent.yaml")
	require.NoError(t, feature.SeedFromFile(context.Background(), store, path))
}
