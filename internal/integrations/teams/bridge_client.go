package teams

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
	provdomain "github.com/voiceops/teamsadmin/internal/provisioning_service/domain"
	tenantdomain "github.com/voiceops/teamsadmin/internal/tenant_service/domain"
)

// CredentialSource resolves a tenant's stored integration credential for
// outbound calls. Implemented by the tenant application.
type CredentialSource interface {
	SecretFor(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind) (map[string]string, string, error)
}

// BridgeClient talks to the PowerShell bridge service that fronts Teams
// management cmdlets over HTTP. The bridge's session protocol (framing,
// reconnection) is owned by the bridge; this client only consumes its
// documented endpoints.
type BridgeClient struct {
	http   *resty.Client
	creds  CredentialSource
	logger *slog.Logger
}

func NewBridgeClient(baseURL string, creds CredentialSource, logger *slog.Logger) *BridgeClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		// Retries are manual, triggered by the operator.
		SetRetryCount(0)
	return &BridgeClient{
		http:   client,
		creds:  creds,
		logger: logger.With("integration", "teams_bridge"),
	}
}

type bridgeError struct {
	Error string `json:"error"`
}

type bridgeVoiceUser struct {
	LineURI            string `json:"line_uri"`
	DisplayName        string `json:"display_name"`
	UserPrincipalName  string `json:"user_principal_name"`
	VoiceRoutingPolicy string `json:"voice_routing_policy"`
	AccountEnabled     bool   `json:"account_enabled"`
}

func (c *BridgeClient) FetchDirectory(ctx context.Context, tenantID uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
	var users []bridgeVoiceUser
	var apiErr bridgeError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&users).
		SetError(&apiErr).
		Get(fmt.Sprintf("/tenants/%s/voice-users", tenantID))
	if err != nil {
		return nil, fmt.Errorf("bridge fetch directory: %w", err)
	}
	if resp.IsError() {
		return nil, bridgeRespError("fetch directory", resp, apiErr)
	}

	records := make([]*invdomain.PhoneNumberRecord, 0, len(users))
	for _, user := range users {
		records = append(records, &invdomain.PhoneNumberRecord{
			TenantID:          tenantID,
			LineURI:           user.LineURI,
			DisplayName:       user.DisplayName,
			UserPrincipalName: user.UserPrincipalName,
			RoutingPolicy:     user.VoiceRoutingPolicy,
			Active:            user.AccountEnabled,
		})
	}
	c.logger.InfoContext(ctx, "fetched remote directory", "tenant_id", tenantID, "count", len(records))
	return records, nil
}

type bridgeAssignment struct {
	UserPrincipalName  string `json:"user_principal_name"`
	LineURI            string `json:"line_uri"`
	VoiceRoutingPolicy string `json:"voice_routing_policy"`
}

type bridgeAssignmentResult struct {
	UserPrincipalName string `json:"user_principal_name"`
	Success           bool   `json:"success"`
	Error             string `json:"error,omitempty"`
}

func (c *BridgeClient) SubmitBulkAssignment(ctx context.Context, tenantID uuid.UUID, requests []provdomain.AssignmentRequest) ([]provdomain.AssignmentResult, error) {
	assignments := make([]bridgeAssignment, 0, len(requests))
	for _, req := range requests {
		assignments = append(assignments, bridgeAssignment{
			UserPrincipalName:  req.UserPrincipalName,
			LineURI:            req.LineURI,
			VoiceRoutingPolicy: req.RoutingPolicy,
		})
	}

	var results []bridgeAssignmentResult
	var apiErr bridgeError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"assignments": assignments}).
		SetResult(&results).
		SetError(&apiErr).
		Post(fmt.Sprintf("/tenants/%s/assignments", tenantID))
	if err != nil {
		return nil, fmt.Errorf("bridge bulk assignment: %w", err)
	}
	if resp.IsError() {
		return nil, bridgeRespError("bulk assignment", resp, apiErr)
	}

	out := make([]provdomain.AssignmentResult, 0, len(results))
	for _, result := range results {
		out = append(out, provdomain.AssignmentResult{
			UserPrincipalName: result.UserPrincipalName,
			Success:           result.Success,
			Error:             result.Error,
		})
	}
	return out, nil
}

func (c *BridgeClient) FetchRoutingPolicies(ctx context.Context, tenantID uuid.UUID) ([]RoutingPolicy, error) {
	var policies []RoutingPolicy
	var apiErr bridgeError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&policies).
		SetError(&apiErr).
		Get(fmt.Sprintf("/tenants/%s/routing-policies", tenantID))
	if err != nil {
		return nil, fmt.Errorf("bridge fetch routing policies: %w", err)
	}
	if resp.IsError() {
		return nil, bridgeRespError("fetch routing policies", resp, apiErr)
	}
	return policies, nil
}

// TestCredential asks the bridge to validate an app certificate without
// opening a full session. Implements the tenant service's CredentialTester.
func (c *BridgeClient) TestCredential(ctx context.Context, public map[string]string, secret string) error {
	var apiErr bridgeError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"app_id":          public["app_id"],
			"cert_thumbprint": public["cert_thumbprint"],
			"cert_password":   secret,
		}).
		SetError(&apiErr).
		Post("/credentials/validate")
	if err != nil {
		return fmt.Errorf("bridge credential test: %w", err)
	}
	if resp.IsError() {
		return bridgeRespError("credential test", resp, apiErr)
	}
	return nil
}

func bridgeRespError(op string, resp *resty.Response, apiErr bridgeError) error {
	if apiErr.Error != "" {
		return fmt.Errorf("bridge %s failed (%d): %s", op, resp.StatusCode(), apiErr.Error)
	}
	return fmt.Errorf("bridge %s failed with status %d", op, resp.StatusCode())
}
