package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RegionID is the directory's opaque region identifier. The directory sends it
// either as a JSON number or a JSON string; both decode to the same value.
type RegionID string

func (id RegionID) String() string { return string(id) }

// UnmarshalJSON accepts `1` and `"1"` alike.
func (id *RegionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("region id must not be null")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RegionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("region id: %w", err)
	}
	*id = RegionID(n.String())
	return nil
}

// Region is a top-level unit of the geographic hierarchy.
type Region struct {
	ID   RegionID `json:"id"`
	Name string   `json:"name"`
}

// District belongs to exactly one region. Code is unique only within that region.
type District struct {
	Code string `json:"codiceComune"`
	Name string `json:"name"`
}

// FindRegion looks a region up by identifier.
func FindRegion(regions []Region, id RegionID) (Region, bool) {
	for _, r := range regions {
		if r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}

// FindDistrict looks a district up by code.
func FindDistrict(districts []District, code string) (District, bool) {
	code = strings.TrimSpace(code)
	for _, d := range districts {
		if d.Code == code {
			return d, true
		}
	}
	return District{}, false
}
