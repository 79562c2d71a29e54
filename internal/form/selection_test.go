package form

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"shipform/internal/directory"
	dErrors "shipform/pkg/domain-errors"
)

var (
	lazio     = directory.Region{ID: "1", Name: "Lazio"}
	lombardia = directory.Region{ID: "R12", Name: "Lombardia"}
	roma      = directory.District{Code: "A1", Name: "Roma"}
	latina    = directory.District{Code: "A2", Name: "Latina"}
	milano    = directory.District{Code: "C045", Name: "Milano"}
)

func loadedSelection() selection {
	s := newSelection()
	s.setRegions([]directory.Region{lazio, lombardia})
	return s
}

func TestSelectionStartsWithoutRegion(t *testing.T) {
	s := newSelection()
	assert.Equal(t, PhaseNoRegion, s.phase())
	assert.Equal(t, DistrictsNone, s.status)

	_, err := s.chooseRegion("1")
	assert.ErrorIs(t, err, ErrRegionsNotLoaded)
}

func TestSelectionHappyPath(t *testing.T) {
	s := loadedSelection()

	ticket, err := s.chooseRegion("1")
	require.NoError(t, err)
	assert.Equal(t, PhaseRegionChosen, s.phase())
	assert.Equal(t, DistrictsPending, s.status)
	assert.ErrorIs(t, s.chooseDistrict("A1"), ErrDistrictsNotReady, "district choice is disabled while pending")

	require.True(t, s.applyDistricts(ticket, []directory.District{roma, latina}))
	assert.Equal(t, DistrictsReady, s.status)
	assert.Equal(t, PhaseRegionChosen, s.phase())

	require.NoError(t, s.chooseDistrict("A1"))
	assert.Equal(t, PhaseDistrictChosen, s.phase())

	res := s.resolved()
	require.True(t, res.ok)
	assert.Equal(t, lazio, res.Region())
	assert.Equal(t, roma, res.District())
}

func TestSelectionUnknownRegionIsLogicError(t *testing.T) {
	s := loadedSelection()
	ticket, _ := s.chooseRegion("1")
	s.applyDistricts(ticket, []directory.District{roma})
	require.NoError(t, s.chooseDistrict("A1"))

	_, err := s.chooseRegion("99")

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.Equal(t, PhaseDistrictChosen, s.phase(), "state is untouched")
	assert.Equal(t, lazio.ID, s.region.ID)
}

func TestSelectionUnknownDistrictDoesNotMutate(t *testing.T) {
	s := loadedSelection()
	ticket, _ := s.chooseRegion("1")
	s.applyDistricts(ticket, []directory.District{roma, latina})
	require.NoError(t, s.chooseDistrict("A2"))
	before := s.resolved()

	err := s.chooseDistrict("ZZZ")

	require.ErrorIs(t, err, ErrUnknownDistrict)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.Equal(t, before, s.resolved())
	assert.Equal(t, []directory.District{roma, latina}, s.activeDistricts())
}

func TestSelectionNewRegionDropsDistrict(t *testing.T) {
	s := loadedSelection()
	ticket, _ := s.chooseRegion("1")
	s.applyDistricts(ticket, []directory.District{roma})
	require.NoError(t, s.chooseDistrict("A1"))

	ticket, err := s.chooseRegion("R12")
	require.NoError(t, err)

	assert.Nil(t, s.district)
	assert.Equal(t, PhaseRegionChosen, s.phase())
	assert.Empty(t, s.activeDistricts(), "Lazio districts are not shown for Lombardia")
	assert.False(t, s.resolved().ok)

	require.True(t, s.applyDistricts(ticket, []directory.District{milano}))
	assert.Equal(t, []directory.District{milano}, s.activeDistricts())
}

func TestSelectionStaleTicketIsDiscarded(t *testing.T) {
	s := loadedSelection()
	first, _ := s.chooseRegion("1")
	second, _ := s.chooseRegion("R12")

	assert.False(t, s.applyDistricts(first, []directory.District{roma}))
	assert.False(t, s.failDistricts(first))
	assert.Equal(t, DistrictsPending, s.status)

	assert.True(t, s.applyDistricts(second, []directory.District{milano}))
	assert.Equal(t, []directory.District{milano}, s.activeDistricts())
}

func TestSelectionSameRegionTwiceOnlyLatestApplies(t *testing.T) {
	s := loadedSelection()
	first, _ := s.chooseRegion("1")
	second, _ := s.chooseRegion("1")

	assert.False(t, s.applyDistricts(first, []directory.District{roma}))
	assert.True(t, s.applyDistricts(second, []directory.District{roma, latina}))
	assert.Len(t, s.activeDistricts(), 2)
}

func TestSelectionFailureKeepsPreviousList(t *testing.T) {
	s := loadedSelection()
	ticket, _ := s.chooseRegion("1")
	s.applyDistricts(ticket, []directory.District{roma, latina})

	ticket, _ = s.chooseRegion("R12")
	require.True(t, s.failDistricts(ticket))

	assert.Equal(t, DistrictsFailed, s.status)
	assert.Equal(t, []directory.District{roma, latina}, s.districts, "last fetched list is retained")
	assert.Equal(t, lazio.ID, s.districtsFor)
	assert.Empty(t, s.activeDistricts())
	assert.ErrorIs(t, s.chooseDistrict("A1"), ErrDistrictsNotReady)
}

func TestSelectionRefreshFailureKeepsChosenDistrict(t *testing.T) {
	s := loadedSelection()
	ticket, _ := s.chooseRegion("1")
	s.applyDistricts(ticket, []directory.District{roma, latina})
	require.NoError(t, s.chooseDistrict("A2"))

	ticket, err := s.refresh()
	require.NoError(t, err)
	assert.Equal(t, PhaseRegionChosen, s.phase(), "no submission while refreshing")

	require.True(t, s.failDistricts(ticket))
	assert.Equal(t, DistrictsReady, s.status)
	assert.Equal(t, PhaseDistrictChosen, s.phase())
	assert.Equal(t, latina, s.resolved().District())
}

func TestSelectionRefreshDropsVanishedDistrict(t *testing.T) {
	s := loadedSelection()
	ticket, _ := s.chooseRegion("1")
	s.applyDistricts(ticket, []directory.District{roma, latina})
	require.NoError(t, s.chooseDistrict("A2"))

	ticket, _ = s.refresh()
	s.applyDistricts(ticket, []directory.District{roma})

	assert.Nil(t, s.district)
	assert.Equal(t, PhaseRegionChosen, s.phase())
}

func TestSelectionRefreshWithoutRegion(t *testing.T) {
	s := loadedSelection()
	_, err := s.refresh()
	assert.ErrorIs(t, err, ErrNoRegion)
}

// TestSelectionActiveDistrictsFollowLatestRegion drives random interleavings
// of region choices and fetch completions. Whatever the order, the visible
// districts always belong to the region currently selected.
func TestSelectionActiveDistrictsFollowLatestRegion(t *testing.T) {
	regions := []directory.Region{{ID: "1", Name: "Lazio"}, {ID: "2", Name: "Lombardia"}, {ID: "3", Name: "Sicilia"}}
	districtsOf := func(id directory.RegionID) []directory.District {
		return []directory.District{
			{Code: fmt.Sprintf("%s-a", id), Name: "first of " + string(id)},
			{Code: fmt.Sprintf("%s-b", id), Name: "second of " + string(id)},
		}
	}

	rapid.Check(t, func(rt *rapid.T) {
		s := newSelection()
		s.setRegions(regions)
		var outstanding []fetchTicket
		var latest fetchTicket

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for range steps {
			if len(outstanding) == 0 || rapid.Bool().Draw(rt, "choose") {
				r := rapid.SampledFrom(regions).Draw(rt, "region")
				ticket, err := s.chooseRegion(r.ID)
				if err != nil {
					rt.Fatalf("choose region: %v", err)
				}
				outstanding = append(outstanding, ticket)
				latest = ticket
			} else {
				i := rapid.IntRange(0, len(outstanding)-1).Draw(rt, "complete")
				ticket := outstanding[i]
				outstanding = append(outstanding[:i], outstanding[i+1:]...)
				var applied bool
				if rapid.Bool().Draw(rt, "fail") {
					applied = s.failDistricts(ticket)
				} else {
					applied = s.applyDistricts(ticket, districtsOf(ticket.regionID))
				}
				if applied != (ticket == latest) {
					rt.Fatalf("ticket %+v applied=%v, latest=%+v", ticket, applied, latest)
				}
			}

			for _, d := range s.activeDistricts() {
				if !strings.HasPrefix(d.Code, string(s.region.ID)+"-") {
					rt.Fatalf("district %s shown for region %s", d.Code, s.region.ID)
				}
			}
			if s.status == DistrictsReady && s.districtsFor != s.region.ID {
				rt.Fatalf("ready list belongs to %s, region is %s", s.districtsFor, s.region.ID)
			}
		}
	})
}
