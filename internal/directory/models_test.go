package directory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionIDDecodesNumbersAndStrings(t *testing.T) {
	var regions []Region
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1,"name":"Lazio"},{"id":"R12","name":"Lombardia"}]`), &regions))

	assert.Equal(t, RegionID("1"), regions[0].ID)
	assert.Equal(t, RegionID("R12"), regions[1].ID)
}

func TestRegionIDRejectsNull(t *testing.T) {
	var r Region
	assert.Error(t, json.Unmarshal([]byte(`{"id":null,"name":"x"}`), &r))
}

func TestFindRegionAndDistrict(t *testing.T) {
	regions := []Region{{ID: "1", Name: "Lazio"}}
	r, ok := FindRegion(regions, "1")
	assert.True(t, ok)
	assert.Equal(t, "Lazio", r.Name)
	_, ok = FindRegion(regions, "2")
	assert.False(t, ok)

	districts := []District{{Code: "A1", Name: "Roma"}}
	d, ok := FindDistrict(districts, " A1 ")
	assert.True(t, ok)
	assert.Equal(t, "Roma", d.Name)
	_, ok = FindDistrict(districts, "B2")
	assert.False(t, ok)
}
