package teams

import (
	"context"

	"github.com/google/uuid"

	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
	provdomain "github.com/voiceops/teamsadmin/internal/provisioning_service/domain"
)

// RoutingPolicy is one assignable online voice routing policy.
type RoutingPolicy struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Directory is the remote Teams directory as consumed by the sync
// orchestrator, the bulk assignment executor and the policy pickers.
type Directory interface {
	// FetchDirectory returns the tenant's voice-enabled users and resource
	// accounts with their line URI and policy assignments.
	FetchDirectory(ctx context.Context, tenantID uuid.UUID) ([]*invdomain.PhoneNumberRecord, error)
	// SubmitBulkAssignment pushes a batch of assignments as one operation.
	// Atomicity is a property of the remote system, not of this client.
	SubmitBulkAssignment(ctx context.Context, tenantID uuid.UUID, requests []provdomain.AssignmentRequest) ([]provdomain.AssignmentResult, error)
	// FetchRoutingPolicies enumerates assignable routing policies.
	FetchRoutingPolicies(ctx context.Context, tenantID uuid.UUID) ([]RoutingPolicy, error)
}
