package form

import "shipform/internal/address"

// addressForm holds the free-text fields and the delivery tier.
type addressForm struct {
	fields address.Fields
	tier   address.Tier
}

func newAddressForm() addressForm {
	return addressForm{tier: address.DefaultTier}
}

func (f *addressForm) update(p address.Patch) {
	f.fields = f.fields.Apply(p)
}

func (f *addressForm) setTier(t address.Tier) error {
	if _, ok := t.Info(); !ok {
		return address.ErrUnknownTier
	}
	f.tier = t
	return nil
}
