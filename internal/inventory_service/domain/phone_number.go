package domain

import (
	"time"

	"github.com/google/uuid"
)

// PhoneNumberRecord is one phone-number assignment as known either to the
// local inventory or to the remote Teams directory. Both sources produce
// records of this shape; inventory-only metadata (carrier, location, range)
// is empty on records fetched from Teams.
type PhoneNumberRecord struct {
	ID                uuid.UUID `json:"id"`
	TenantID          uuid.UUID `json:"tenant_id"`
	LineURI           string    `json:"line_uri"`
	DisplayName       string    `json:"display_name"`
	UserPrincipalName string    `json:"user_principal_name"`
	RoutingPolicy     string    `json:"routing_policy"`
	Carrier           string    `json:"carrier,omitempty"`
	Location          string    `json:"location,omitempty"`
	NumberRange       string    `json:"number_range,omitempty"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewPhoneNumberRecord creates a local inventory record.
func NewPhoneNumberRecord(id, tenantID uuid.UUID, lineURI, displayName, upn, routingPolicy, carrier, location, numberRange string, active bool) *PhoneNumberRecord {
	now := time.Now().UTC()
	return &PhoneNumberRecord{
		ID:                id,
		TenantID:          tenantID,
		LineURI:           lineURI,
		DisplayName:       displayName,
		UserPrincipalName: upn,
		RoutingPolicy:     routingPolicy,
		Carrier:           carrier,
		Location:          location,
		NumberRange:       numberRange,
		Active:            active,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// ListFilter narrows inventory listings. Zero values mean "no constraint".
type ListFilter struct {
	Carrier     string
	Location    string
	NumberRange string
	// Assigned filters on whether a user principal name is present.
	Assigned *bool
	Active   *bool
}
