package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
carriers:
  - legal_name: Acme Mutual
    naic_code: "12345"
    am_best_rating: A
    programs:
      - state: TX
        line: general_liability
        appetite:
          rating: 7.5
          eligible_classes: ["236115", "236118"]
          territory_preferences:
            TX: 8.0
            OK: null
        criteria:
          - type: ineligible_class
            operator: not_in
            value: '["1522"]'
            hard: true
        rate_table:
          table_name: GL Base Rates 2026
          territories:
            - code: T1
              zip_codes: ["78701", "78702"]
          base_rates:
            - class_code: "236115"
              territory: T1
              rate: 2.35
              exposure_basis: revenue
          factors:
            - type: territory
              key: T1
              value: 1.15
market:
  - state: TX
    line: general_liability
    filing_count: 40
    market_trend: softening
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeedFixture(t *testing.T) {
	fx, err := LoadSeedFixture(writeFixture(t, fixtureYAML))
	require.NoError(t, err)

	require.Len(t, fx.Carriers, 1)
	carrier := fx.Carriers[0]
	assert.Equal(t, "Acme Mutual", carrier.LegalName)
	assert.Equal(t, "active", carrier.Status) // defaulted

	require.Len(t, carrier.Programs, 1)
	prog := carrier.Programs[0]
	require.NotNil(t, prog.Appetite)
	assert.Equal(t, 7.5, prog.Appetite.Rating)

	require.Contains(t, prog.Appetite.TerritoryPreferences, "OK")
	assert.Nil(t, prog.Appetite.TerritoryPreferences["OK"])
	require.NotNil(t, prog.Appetite.TerritoryPreferences["TX"])
	assert.Equal(t, 8.0, *prog.Appetite.TerritoryPreferences["TX"])

	require.NotNil(t, prog.Rates)
	require.Len(t, prog.Rates.BaseRates, 1)
	assert.Equal(t, 2.35, prog.Rates.BaseRates[0].Rate)
	require.Len(t, prog.Rates.Factors, 1)
	assert.Equal(t, "territory", prog.Rates.Factors[0].Type)

	require.Len(t, fx.Market, 1)
	assert.Equal(t, "softening", fx.Market[0].MarketTrend)
}

func TestLoadSeedFixture_MissingLegalName(t *testing.T) {
	_, err := LoadSeedFixture(writeFixture(t, "carriers:\n  - naic_code: \"99\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legal_name")
}

func TestLoadSeedFixture_MissingFile(t *testing.T) {
	_, err := LoadSeedFixture(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
