package form

import (
	"slices"

	"shipform/internal/address"
	"shipform/internal/directory"
)

// Phase is the coarse state of the selection machine.
type Phase string

const (
	PhaseNoRegion       Phase = "no_region"
	PhaseRegionChosen   Phase = "region_chosen"
	PhaseDistrictChosen Phase = "district_chosen"
)

// DistrictStatus tracks the district list of the chosen region.
type DistrictStatus string

const (
	DistrictsNone    DistrictStatus = "none"
	DistrictsPending DistrictStatus = "pending"
	DistrictsReady   DistrictStatus = "ready"
	DistrictsFailed  DistrictStatus = "failed"
)

// fetchTicket tags a district fetch with the region it was issued for.
// Only the most recently issued ticket may apply its result.
type fetchTicket struct {
	regionID directory.RegionID
	seq      uint64
}

// Resolved is a fully chosen region/district pair. The zero value means
// nothing is resolved; only selection hands out non-zero values.
type Resolved struct {
	region   directory.Region
	district directory.District
	ok       bool
}

func (r Resolved) Region() directory.Region     { return r.region }
func (r Resolved) District() directory.District { return r.district }

// Destination returns the names the sink keys on.
func (r Resolved) Destination() address.Destination {
	return address.ResolveDestination(r.region, r.district)
}

// selection is the region/district state machine:
//
//	NoRegion -> RegionChosen(pending|ready|failed) -> DistrictChosen
//
// It performs no I/O; Session drives the fetches and feeds results back with
// the ticket they were issued under. Not safe for concurrent use.
type selection struct {
	regions       []directory.Region
	regionsLoaded bool

	region *directory.Region

	// districts is the list from the last successful fetch and districtsFor the
	// region it belongs to. A failed fetch leaves both untouched.
	districts    []directory.District
	districtsFor directory.RegionID
	status       DistrictStatus
	district     *directory.District

	pending *fetchTicket
	seq     uint64
}

func newSelection() selection {
	return selection{status: DistrictsNone}
}

func (s *selection) setRegions(regions []directory.Region) {
	s.regions = slices.Clone(regions)
	s.regionsLoaded = true
}

func (s *selection) phase() Phase {
	switch {
	case s.region == nil:
		return PhaseNoRegion
	case s.district != nil && s.status == DistrictsReady:
		return PhaseDistrictChosen
	default:
		return PhaseRegionChosen
	}
}

func (s *selection) issue(regionID directory.RegionID) fetchTicket {
	s.seq++
	t := fetchTicket{regionID: regionID, seq: s.seq}
	s.pending = &t
	s.status = DistrictsPending
	return t
}

// chooseRegion switches to a new region, drops the chosen district and issues
// a fetch ticket. An id outside the loaded list is a logic error and leaves
// the state untouched.
func (s *selection) chooseRegion(id directory.RegionID) (fetchTicket, error) {
	if !s.regionsLoaded {
		return fetchTicket{}, ErrRegionsNotLoaded
	}
	region, ok := directory.FindRegion(s.regions, id)
	if !ok {
		return fetchTicket{}, ErrUnknownRegion
	}
	s.region = &region
	s.district = nil
	return s.issue(region.ID), nil
}

// refresh re-issues the fetch for the current region without touching the
// chosen district.
func (s *selection) refresh() (fetchTicket, error) {
	if s.region == nil {
		return fetchTicket{}, ErrNoRegion
	}
	return s.issue(s.region.ID), nil
}

func (s *selection) current(t fetchTicket) bool {
	return s.pending != nil && *s.pending == t && s.region != nil && s.region.ID == t.regionID
}

// applyDistricts installs a fetched list. Results for a superseded ticket are
// discarded and reported as not applied.
func (s *selection) applyDistricts(t fetchTicket, districts []directory.District) bool {
	if !s.current(t) {
		return false
	}
	s.pending = nil
	s.districts = slices.Clone(districts)
	s.districtsFor = t.regionID
	s.status = DistrictsReady
	if s.district != nil {
		if d, ok := directory.FindDistrict(s.districts, s.district.Code); ok {
			s.district = &d
		} else {
			s.district = nil
		}
	}
	return true
}

// failDistricts records a failed fetch. The previous list and chosen district
// are kept; if that list still belongs to the chosen region it stays usable.
func (s *selection) failDistricts(t fetchTicket) bool {
	if !s.current(t) {
		return false
	}
	s.pending = nil
	if s.districtsFor == t.regionID && s.districts != nil {
		s.status = DistrictsReady
	} else {
		s.status = DistrictsFailed
	}
	return true
}

// chooseDistrict picks a district from the ready list of the chosen region.
func (s *selection) chooseDistrict(code string) error {
	if s.region == nil {
		return ErrNoRegion
	}
	if s.status != DistrictsReady || s.districtsFor != s.region.ID {
		return ErrDistrictsNotReady
	}
	d, ok := directory.FindDistrict(s.districts, code)
	if !ok {
		return ErrUnknownDistrict
	}
	s.district = &d
	return nil
}

func (s *selection) resolved() Resolved {
	if s.phase() != PhaseDistrictChosen || s.districtsFor != s.region.ID {
		return Resolved{}
	}
	return Resolved{region: *s.region, district: *s.district, ok: true}
}

// activeDistricts returns the list shown to the user: the districts of the
// chosen region, or nothing when the only list on hand belongs to another one.
func (s *selection) activeDistricts() []directory.District {
	if s.region == nil || s.districtsFor != s.region.ID {
		return nil
	}
	return slices.Clone(s.districts)
}
