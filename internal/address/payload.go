package address

import (
	"encoding/json"
	"strings"

	"shipform/internal/directory"
)

// Destination is the resolved region/district pair of an address. It can only
// be built from directory records, so it always carries display names and
// never identifiers.
type Destination struct {
	regionName   string
	districtName string
}

// ResolveDestination takes the names of a chosen region and district.
func ResolveDestination(region directory.Region, district directory.District) Destination {
	return Destination{regionName: region.Name, districtName: district.Name}
}

func (d Destination) RegionName() string   { return d.regionName }
func (d Destination) DistrictName() string { return d.districtName }

// Payload is the body sent to the address sink. It is immutable once built.
type Payload struct {
	via      string
	civico   string
	cap      string
	province string
	comune   string
}

// NewPayload builds the sink payload from the address fields and a resolved destination.
func NewPayload(f Fields, dest Destination) Payload {
	return Payload{
		via:      strings.TrimSpace(f.Street),
		civico:   strings.TrimSpace(f.HouseNumber),
		cap:      strings.TrimSpace(f.PostalCode),
		province: dest.regionName,
		comune:   dest.districtName,
	}
}

func (p Payload) Street() string       { return p.via }
func (p Payload) HouseNumber() string  { return p.civico }
func (p Payload) PostalCode() string   { return p.cap }
func (p Payload) RegionName() string   { return p.province }
func (p Payload) DistrictName() string { return p.comune }

// wirePayload is the JSON shape the sink expects.
type wirePayload struct {
	Via       string `json:"via"`
	Civico    string `json:"civico"`
	Cap       string `json:"cap"`
	Provincia string `json:"provincia"`
	Comune    string `json:"comune"`
}

func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(wirePayload{
		Via:       p.via,
		Civico:    p.civico,
		Cap:       p.cap,
		Provincia: p.province,
		Comune:    p.comune,
	})
}

// UnmarshalJSON exists so stored receipts can be read back.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var w wirePayload
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Payload{via: w.Via, civico: w.Civico, cap: w.Cap, province: w.Provincia, comune: w.Comune}
	return nil
}
