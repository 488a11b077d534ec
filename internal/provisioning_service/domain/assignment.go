package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
)

// AssignmentRequest is one user/number/policy tuple in a bulk assignment.
type AssignmentRequest struct {
	UserPrincipalName string `json:"user_principal_name"`
	LineURI           string `json:"line_uri"`
	RoutingPolicy     string `json:"routing_policy"`
}

// AssignmentResult is the per-item outcome of a bulk assignment, matched
// back to its request by user principal name. Results keep the order of
// the request list.
type AssignmentResult struct {
	UserPrincipalName string `json:"user_principal_name"`
	Success           bool   `json:"success"`
	Error             string `json:"error,omitempty"`
}

// AssignmentBatch is the persisted audit record of one bulk submission.
type AssignmentBatch struct {
	ID          uuid.UUID          `json:"id"`
	TenantID    uuid.UUID          `json:"tenant_id"`
	SubmittedAt time.Time          `json:"submitted_at"`
	Total       int                `json:"total"`
	Succeeded   int                `json:"succeeded"`
	Failed      int                `json:"failed"`
	Results     []AssignmentResult `json:"results"`
}

// BatchValidationError rejects an entire batch before any network call.
// Batches are never partially validated.
type BatchValidationError struct {
	InvalidCount int
}

func (e *BatchValidationError) Error() string {
	return fmt.Sprintf("bulk assignment rejected: %d invalid phone number(s)", e.InvalidCount)
}

// ValidateBatch applies the line URI rules to every request and returns a
// BatchValidationError naming the invalid count when any fail.
func ValidateBatch(requests []AssignmentRequest) error {
	invalid := 0
	for _, req := range requests {
		if err := invdomain.ValidateLineURI(req.LineURI); err != nil {
			invalid++
		}
	}
	if invalid > 0 {
		return &BatchValidationError{InvalidCount: invalid}
	}
	return nil
}
