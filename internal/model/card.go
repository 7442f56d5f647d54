package model

// CardInfo is the fixed-shape record extracted from a business-card image.
// All six keys are always present in serialized output — missing data is an
// explicit null, never an absent key. Marshaling the struct guarantees this
// because none of the fields use omitempty.
type CardInfo struct {
	BusinessName    *string `json:"business_name"`
	OwnerName       *string `json:"owner_name"`
	PhoneNumber     *string `json:"phone_number"`
	Email           *string `json:"email"`
	Address         *string `json:"address"`
	AnyOtherDetails *string `json:"any_other_details"`
}

// EmptyCardInfo returns the all-null record used whenever extraction fails.
// Callers never branch on extraction failure, only on field nullity.
func EmptyCardInfo() CardInfo {
	return CardInfo{}
}

// IsEmpty reports whether every field is null.
func (c CardInfo) IsEmpty() bool {
	return c.BusinessName == nil &&
		c.OwnerName == nil &&
		c.PhoneNumber == nil &&
		c.Email == nil &&
		c.Address == nil &&
		c.AnyOtherDetails == nil
}
