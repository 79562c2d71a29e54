package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "shipform/pkg/domain-errors"
)

func TestTierCatalogue(t *testing.T) {
	tiers := Tiers()
	require.Len(t, tiers, 2)
	assert.Equal(t, DefaultTier, tiers[0].Tier)

	standard, ok := TierStandard.Info()
	require.True(t, ok)
	assert.Equal(t, "6.00", standard.PriceText())
	assert.Equal(t, "3-5 working days", standard.LeadTime)

	express, ok := TierExpress.Info()
	require.True(t, ok)
	assert.Equal(t, "12.00", express.PriceText())
	assert.True(t, express.Price.GreaterThan(standard.Price))
}

func TestTiersReturnsCopy(t *testing.T) {
	tiers := Tiers()
	tiers[0].Label = "mutated"
	info, _ := TierStandard.Info()
	assert.Equal(t, "Standard delivery", info.Label)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" Express ")
	require.NoError(t, err)
	assert.Equal(t, TierExpress, tier)

	_, err = ParseTier("overnight")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
