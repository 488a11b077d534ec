package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConfigurationProfile is a named, tenant-scoped template used to pre-fill
// assignment forms. Profiles have their own lifecycle; applying one never
// mutates assignments.
type ConfigurationProfile struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	Name          string    `json:"name"`
	NumberPrefix  string    `json:"number_prefix"`
	RoutingPolicy string    `json:"routing_policy"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewConfigurationProfile creates a profile with fresh timestamps.
func NewConfigurationProfile(id, tenantID uuid.UUID, name, numberPrefix, routingPolicy, description string) *ConfigurationProfile {
	now := time.Now().UTC()
	return &ConfigurationProfile{
		ID:            id,
		TenantID:      tenantID,
		Name:          name,
		NumberPrefix:  numberPrefix,
		RoutingPolicy: routingPolicy,
		Description:   description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ProfilePrefill is what an "apply profile" action returns: values for
// downstream forms, nothing more.
type ProfilePrefill struct {
	NumberPrefix  string `json:"number_prefix"`
	RoutingPolicy string `json:"routing_policy"`
}
