package domain

import (
	"time"

	"github.com/google/uuid"
)

// CredentialKind identifies which integration a credential belongs to.
type CredentialKind string

const (
	// CredentialPowerShell is the app registration certificate used by the
	// PowerShell bridge to run Teams management cmdlets.
	CredentialPowerShell CredentialKind = "powershell"
	// CredentialConnectWise is the ConnectWise PSA API key pair.
	CredentialConnectWise CredentialKind = "connectwise"
	// CredentialThreeCX is the 3CX management password.
	CredentialThreeCX CredentialKind = "threecx"
)

// ValidCredentialKind reports whether kind names a known integration.
func ValidCredentialKind(kind CredentialKind) bool {
	switch kind {
	case CredentialPowerShell, CredentialConnectWise, CredentialThreeCX:
		return true
	}
	return false
}

// Credential is one tenant-scoped integration credential. The secret field
// is write-only from the client's perspective: once saved it is sealed at
// rest and never returned by read operations in plaintext — responses only
// carry SecretSet. This is a security contract, not incidental behavior.
type Credential struct {
	ID       uuid.UUID         `json:"id"`
	TenantID uuid.UUID         `json:"tenant_id"`
	Kind     CredentialKind    `json:"kind"`
	Public   map[string]string `json:"public"`
	// SealedSecret is the encrypted secret material. Never serialized.
	SealedSecret []byte    `json:"-"`
	SecretSet    bool      `json:"secret_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
