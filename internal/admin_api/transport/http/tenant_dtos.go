package http

import (
	"time"

	tenantdomain "github.com/voiceops/teamsadmin/internal/tenant_service/domain"
)

// CreateTenantRequestDTO creates a tenant.
type CreateTenantRequestDTO struct {
	Name          string `json:"name" validate:"required,min=2,max=120"`
	DefaultDomain string `json:"default_domain" validate:"required,fqdn"`
}

// UpdateTenantRequestDTO updates a tenant.
type UpdateTenantRequestDTO struct {
	Name          string `json:"name" validate:"required,min=2,max=120"`
	DefaultDomain string `json:"default_domain" validate:"required,fqdn"`
	Active        bool   `json:"active"`
}

// SaveCredentialRequestDTO creates or replaces a tenant credential. Secret
// is optional on update: an empty value keeps the stored secret.
type SaveCredentialRequestDTO struct {
	Public map[string]string `json:"public" validate:"required"`
	Secret string            `json:"secret,omitempty"`
}

// CredentialResponseDTO never carries secret material, only whether a
// secret has been saved.
type CredentialResponseDTO struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"tenant_id"`
	Kind      string            `json:"kind"`
	Public    map[string]string `json:"public"`
	SecretSet bool              `json:"secret_set"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func toCredentialResponse(cred *tenantdomain.Credential) CredentialResponseDTO {
	return CredentialResponseDTO{
		ID:        cred.ID.String(),
		TenantID:  cred.TenantID.String(),
		Kind:      string(cred.Kind),
		Public:    cred.Public,
		SecretSet: cred.SecretSet,
		CreatedAt: cred.CreatedAt,
		UpdatedAt: cred.UpdatedAt,
	}
}
