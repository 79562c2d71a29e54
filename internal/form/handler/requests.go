package handler

import (
	"strings"

	"shipform/internal/address"
	"shipform/internal/directory"
	dErrors "shipform/pkg/domain-errors"
)

const maxFieldLength = 200

// ChooseRegionRequest is the body of PUT /sessions/{id}/region.
// region_id may be a JSON number or string.
type ChooseRegionRequest struct {
	RegionID directory.RegionID `json:"region_id"`
}

func (r *ChooseRegionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.RegionID = directory.RegionID(strings.TrimSpace(string(r.RegionID)))
	if r.RegionID == "" {
		return dErrors.New(dErrors.CodeValidation, "region_id is required")
	}
	return nil
}

// ChooseDistrictRequest is the body of PUT /sessions/{id}/district.
type ChooseDistrictRequest struct {
	DistrictCode string `json:"district_code"`
}

func (r *ChooseDistrictRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.DistrictCode = strings.TrimSpace(r.DistrictCode)
	if r.DistrictCode == "" {
		return dErrors.New(dErrors.CodeValidation, "district_code is required")
	}
	return nil
}

// UpdateAddressRequest is the body of PATCH /sessions/{id}/address. Absent
// fields are left unchanged; values are stored as typed.
type UpdateAddressRequest struct {
	Street      *string `json:"street"`
	HouseNumber *string `json:"house_number"`
	PostalCode  *string `json:"postal_code"`
}

func (r *UpdateAddressRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Street == nil && r.HouseNumber == nil && r.PostalCode == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one address field is required")
	}
	fields := []struct {
		name  string
		value *string
	}{
		{"street", r.Street},
		{"house_number", r.HouseNumber},
		{"postal_code", r.PostalCode},
	}
	for _, f := range fields {
		if f.value != nil && len(*f.value) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation, f.name+" must be at most 200 characters")
		}
	}
	return nil
}

// Patch converts the request to a field patch.
func (r *UpdateAddressRequest) Patch() address.Patch {
	return address.Patch{Street: r.Street, HouseNumber: r.HouseNumber, PostalCode: r.PostalCode}
}

// SetTierRequest is the body of PUT /sessions/{id}/tier.
type SetTierRequest struct {
	Tier string `json:"tier"`

	parsed address.Tier
}

func (r *SetTierRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Tier) == "" {
		return dErrors.New(dErrors.CodeValidation, "tier is required")
	}
	t, err := address.ParseTier(r.Tier)
	if err != nil {
		return err
	}
	r.parsed = t
	return nil
}

// ParsedTier returns the validated tier.
func (r *SetTierRequest) ParsedTier() address.Tier {
	return r.parsed
}
