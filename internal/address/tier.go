package address

import (
	"strings"

	"github.com/shopspring/decimal"

	dErrors "shipform/pkg/domain-errors"
)

// Tier is the delivery speed/price option.
type Tier string

const (
	TierStandard Tier = "standard"
	TierExpress  Tier = "express"
)

// DefaultTier is preselected on every new form.
const DefaultTier = TierStandard

// TierInfo is the fixed price and lead time of a tier.
type TierInfo struct {
	Tier     Tier
	Label    string
	Price    decimal.Decimal
	Currency string
	LeadTime string
}

var catalogue = []TierInfo{
	{
		Tier:     TierStandard,
		Label:    "Standard delivery",
		Price:    decimal.RequireFromString("6.00"),
		Currency: "EUR",
		LeadTime: "3-5 working days",
	},
	{
		Tier:     TierExpress,
		Label:    "Express delivery",
		Price:    decimal.RequireFromString("12.00"),
		Currency: "EUR",
		LeadTime: "2-4 working days",
	},
}

// Tiers lists every tier, default first.
func Tiers() []TierInfo {
	out := make([]TierInfo, len(catalogue))
	copy(out, catalogue)
	return out
}

// Info returns the catalogue entry for t. Unknown tiers report false.
func (t Tier) Info() (TierInfo, bool) {
	for _, info := range catalogue {
		if info.Tier == t {
			return info, true
		}
	}
	return TierInfo{}, false
}

// PriceText renders the price with two decimals, e.g. "12.00".
func (i TierInfo) PriceText() string {
	return i.Price.StringFixed(2)
}

// ErrUnknownTier rejects tiers outside the catalogue.
var ErrUnknownTier = dErrors.New(dErrors.CodeValidation, "unknown delivery tier")

// ParseTier parses a tier name case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := t.Info(); !ok {
		return "", ErrUnknownTier
	}
	return t, nil
}
