package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one isolated customer organization. All data and operations
// in the system are scoped to a tenant; there is no cross-tenant sharing.
type Tenant struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	DefaultDomain string    `json:"default_domain"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewTenant creates a tenant with fresh timestamps.
func NewTenant(id uuid.UUID, name, defaultDomain string) *Tenant {
	now := time.Now().UTC()
	return &Tenant{
		ID:            id,
		Name:          name,
		DefaultDomain: defaultDomain,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
