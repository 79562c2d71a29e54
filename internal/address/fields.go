package address

import "strings"

// Fields are the free-text parts of the address.
type Fields struct {
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	PostalCode  string `json:"postal_code"`
}

// Patch updates only the fields that are set.
type Patch struct {
	Street      *string
	HouseNumber *string
	PostalCode  *string
}

// Apply returns f with the patch applied. Values are stored as typed.
func (f Fields) Apply(p Patch) Fields {
	if p.Street != nil {
		f.Street = *p.Street
	}
	if p.HouseNumber != nil {
		f.HouseNumber = *p.HouseNumber
	}
	if p.PostalCode != nil {
		f.PostalCode = *p.PostalCode
	}
	return f
}

// Missing names the required fields that are blank.
func (f Fields) Missing() []string {
	var missing []string
	if strings.TrimSpace(f.Street) == "" {
		missing = append(missing, "street")
	}
	if strings.TrimSpace(f.HouseNumber) == "" {
		missing = append(missing, "house_number")
	}
	if strings.TrimSpace(f.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	return missing
}
