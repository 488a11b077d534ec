package teams

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	tenantdomain "github.com/voiceops/teamsadmin/internal/tenant_service/domain"
)

// SessionEvent is one message from the bridge's session event stream.
// Exactly which of the fields is set depends on what the bridge emitted.
type SessionEvent struct {
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// SessionStatus mirrors the bridge's session state verbatim. The state
// machine behind it (connecting, awaiting MFA, connected, error) lives in
// the bridge; this client does not reinterpret it.
type SessionStatus struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// Connect opens a PowerShell session for the tenant using its stored
// certificate credential. Depending on the tenant's configuration the
// bridge may answer with an awaiting-MFA state; follow up with SendMfaCode.
func (c *BridgeClient) Connect(ctx context.Context, tenantID uuid.UUID) (*SessionStatus, error) {
	public, secret, err := c.creds.SecretFor(ctx, tenantID, tenantdomain.CredentialPowerShell)
	if err != nil {
		return nil, fmt.Errorf("load powershell credential: %w", err)
	}

	var status SessionStatus
	var apiErr bridgeError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"app_id":          public["app_id"],
			"cert_thumbprint": public["cert_thumbprint"],
			"cert_password":   secret,
		}).
		SetResult(&status).
		SetError(&apiErr).
		Post(fmt.Sprintf("/tenants/%s/session/connect", tenantID))
	if err != nil {
		return nil, fmt.Errorf("bridge session connect: %w", err)
	}
	if resp.IsError() {
		return nil, bridgeRespError("session connect", resp, apiErr)
	}
	c.logger.InfoContext(ctx, "bridge session connect", "tenant_id", tenantID, "state", status.State)
	return &status, nil
}

// SendMfaCode forwards an MFA code to an awaiting session.
func (c *BridgeClient) SendMfaCode(ctx context.Context, tenantID uuid.UUID, code string) (*SessionStatus, error) {
	var status SessionStatus
	var apiErr bridgeError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"code": code}).
		SetResult(&status).
		SetError(&apiErr).
		Post(fmt.Sprintf("/tenants/%s/session/mfa", tenantID))
	if err != nil {
		return nil, fmt.Errorf("bridge session mfa: %w", err)
	}
	if resp.IsError() {
		return nil, bridgeRespError("session mfa", resp, apiErr)
	}
	return &status, nil
}

// Disconnect closes the tenant's session.
func (c *BridgeClient) Disconnect(ctx context.Context, tenantID uuid.UUID) error {
	var apiErr bridgeError
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&apiErr).
		Delete(fmt.Sprintf("/tenants/%s/session", tenantID))
	if err != nil {
		return fmt.Errorf("bridge session disconnect: %w", err)
	}
	if resp.IsError() {
		return bridgeRespError("session disconnect", resp, apiErr)
	}
	return nil
}

// Events drains the session's pending event stream.
func (c *BridgeClient) Events(ctx context.Context, tenantID uuid.UUID) ([]SessionEvent, error) {
	var events []SessionEvent
	var apiErr bridgeError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&events).
		SetError(&apiErr).
		Get(fmt.Sprintf("/tenants/%s/session/events", tenantID))
	if err != nil {
		return nil, fmt.Errorf("bridge session events: %w", err)
	}
	if resp.IsError() {
		return nil, bridgeRespError("session events", resp, apiErr)
	}
	return events, nil
}
