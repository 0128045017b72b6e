package appetite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotewell/placement-cli/internal/model"
	"github.com/quotewell/placement-cli/internal/store"
)

type stubStore struct {
	store.Store
	profile *model.AppetiteProfile
	signals []model.AppetiteSignal
}

func (s *stubStore) LoadAppetiteProfile(ctx context.Context, carrierID uuid.UUID, state, line string) (*model.AppetiteProfile, error) {
	return s.profile, nil
}

func (s *stubStore) LoadRecentSignals(ctx context.Context, carrierID uuid.UUID, state, line string, lookbackDays int) ([]model.AppetiteSignal, error) {
	return s.signals, nil
}

func floatPtr(f float64) *float64 { return &f }

func daysAgo(days int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, -days)
	return &t
}

func TestWeightsSumTo100(t *testing.T) {
	total := 0.0
	for _, w := range Weights {
		total += w
	}
	assert.Equal(t, 100.0, total)
}

func TestScoreAppetite_NoProfile(t *testing.T) {
	s := NewScorer(&stubStore{}, 90)

	result, err := s.ScoreAppetite(context.Background(), uuid.New(), "TX", "general_liability",
		&model.RiskProfile{ClassCode: "236118", State: "TX", Lines: []string{"general_liability"}})
	require.NoError(t, err)

	assert.Equal(t, 25.0, result.Score)
	require.Len(t, result.Components, 5)
	for name, v := range result.Components {
		assert.Equal(t, 5.0, v, name)
	}
	require.Len(t, result.Notes, 1)
	assert.Contains(t, result.Notes[0], "No appetite profile")
}

// Scenario: preferred class, territory preference 8/10, -6% rate change 30
// days ago, one positive signal of strength 8.
func TestScoreAppetite_RoundTripComponents(t *testing.T) {
	profile := &model.AppetiteProfile{
		ID:                   uuid.New(),
		AppetiteRating:       7.0,
		PreferredClasses:     []string{"236118"},
		EligibleClasses:      []string{"236"},
		TerritoryPreferences: map[string]*float64{"TX": floatPtr(8.0)},
		LastRateChangePct:    floatPtr(-6.0),
		LastRateChangeDate:   daysAgo(30),
	}
	signals := []model.AppetiteSignal{
		{ID: uuid.New(), Type: model.SignalRateDecrease, Strength: 8.0, Date: time.Now().UTC().AddDate(0, 0, -10)},
	}

	s := NewScorer(&stubStore{profile: profile, signals: signals}, 90)
	result, err := s.ScoreAppetite(context.Background(), uuid.New(), "TX", "general_liability",
		&model.RiskProfile{ClassCode: "236118", State: "TX", Lines: []string{"general_liability"}})
	require.NoError(t, err)

	assert.Equal(t, 20.0, result.Components[ComponentRecency])
	assert.Equal(t, 20.0, result.Components[ComponentRateDirection])
	assert.Equal(t, 30.0, result.Components[ComponentClassFit])
	assert.Equal(t, 12.0, result.Components[ComponentTerritory])
	assert.InDelta(t, 13.6, result.Components[ComponentSignal], 1e-9)

	// 0.70 * 95.6 + 0.30 * 70 = 87.92
	assert.InDelta(t, 87.92, result.Score, 1e-9)
	assert.Len(t, result.RecentSignals, 1)
}

func TestScoreRecency_Buckets(t *testing.T) {
	tests := []struct {
		days int
		want float64
	}{
		{30, 20.0},
		{120, 17.0},
		{300, 13.0},
		{600, 8.0},
		{900, 3.0},
	}
	for _, tt := range tests {
		profile := &model.AppetiteProfile{LastRateChangeDate: daysAgo(tt.days)}
		assert.Equal(t, tt.want, scoreRecency(profile), "days=%d", tt.days)
	}

	assert.Equal(t, 5.0, scoreRecency(&model.AppetiteProfile{}))
}

func TestScoreRateDirection_Buckets(t *testing.T) {
	tests := []struct {
		pct  float64
		want float64
	}{
		{-8.0, 20.0},
		{-5.0, 20.0},
		{-3.5, 17.0},
		{-0.5, 14.0},
		{0.0, 10.0},
		{2.0, 7.0},
		{5.0, 4.0},
		{9.0, 1.0},
	}
	for _, tt := range tests {
		profile := &model.AppetiteProfile{LastRateChangePct: floatPtr(tt.pct)}
		assert.Equal(t, tt.want, scoreRateDirection(profile), "pct=%.1f", tt.pct)
	}

	assert.Equal(t, 10.0, scoreRateDirection(&model.AppetiteProfile{}))
}

func TestScoreClassFit(t *testing.T) {
	profile := &model.AppetiteProfile{
		PreferredClasses:  []string{"2361"},
		EligibleClasses:   []string{"23"},
		IneligibleClasses: []string{"1522"},
	}

	assert.Equal(t, 0.0, scoreClassFit(profile, "152201"), "ineligible wins")
	assert.Equal(t, 30.0, scoreClassFit(profile, "236118"), "preferred prefix match")
	assert.Equal(t, 18.0, scoreClassFit(profile, "238912"), "eligible only")
	assert.Equal(t, 5.0, scoreClassFit(profile, "500000"), "no match")
	assert.Equal(t, 10.0, scoreClassFit(profile, ""), "missing class code")
}

func TestScoreTerritory(t *testing.T) {
	assert.Equal(t, 10.0, scoreTerritory(&model.AppetiteProfile{}, "TX"), "no preference data")

	profile := &model.AppetiteProfile{TerritoryPreferences: map[string]*float64{
		"TX": floatPtr(8.0),
		"OK": nil,
	}}
	assert.Equal(t, 12.0, scoreTerritory(profile, "TX"), "scaled preference")
	assert.Equal(t, 8.0, scoreTerritory(profile, "OK"), "key present without value")
	assert.Equal(t, 8.0, scoreTerritory(profile, "LA"), "state not in map")

	capped := &model.AppetiteProfile{TerritoryPreferences: map[string]*float64{"TX": floatPtr(10.0)}}
	assert.Equal(t, 15.0, scoreTerritory(capped, "TX"), "capped at 15")
}

func TestScoreSignals(t *testing.T) {
	assert.Equal(t, 8.0, scoreSignals(nil), "no signals is neutral")

	positive := []model.AppetiteSignal{
		{Type: model.SignalRateDecrease, Strength: 10.0},
	}
	assert.Equal(t, 15.0, scoreSignals(positive), "max positive")

	negative := []model.AppetiteSignal{
		{Type: model.SignalMarketExit, Strength: 10.0},
	}
	assert.Equal(t, 1.0, scoreSignals(negative), "max negative")

	mixed := []model.AppetiteSignal{
		{Type: model.SignalRateDecrease, Strength: 6.0},
		{Type: model.SignalRateIncrease, Strength: 6.0},
	}
	assert.Equal(t, 8.0, scoreSignals(mixed), "balanced signals net to neutral")

	unknownType := []model.AppetiteSignal{
		{Type: "press_release", Strength: 9.0},
	}
	assert.Equal(t, 8.0, scoreSignals(unknownType), "unclassified types are ignored")

	defaultStrength := []model.AppetiteSignal{
		{Type: model.SignalRateDecrease},
	}
	assert.InDelta(t, 11.5, scoreSignals(defaultStrength), 1e-9, "zero strength defaults to 5")
}
