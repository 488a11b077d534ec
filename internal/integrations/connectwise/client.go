package connectwise

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const apiBasePath = "/v4_6_release/apis/3.0"

// Client is a thin ConnectWise PSA REST client. Credentials are passed per
// call because every tenant has its own company/key pair.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(0)
	return &Client{http: client, logger: logger.With("integration", "connectwise")}
}

// authHeader builds the ConnectWise basic auth value:
// base64(companyID+publicKey:privateKey).
func authHeader(public map[string]string, privateKey string) string {
	raw := fmt.Sprintf("%s+%s:%s", public["company_id"], public["public_key"], privateKey)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

type apiError struct {
	Message string `json:"message"`
}

// TestCredential verifies the key pair by fetching system info. Implements
// the tenant service's CredentialTester.
func (c *Client) TestCredential(ctx context.Context, public map[string]string, secret string) error {
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", authHeader(public, secret)).
		SetHeader("clientId", public["client_id"]).
		SetError(&apiErr).
		Get(apiBasePath + "/system/info")
	if err != nil {
		return fmt.Errorf("connectwise credential test: %w", err)
	}
	if resp.IsError() {
		return respError("credential test", resp, apiErr)
	}
	return nil
}

// Ticket is a created service ticket.
type Ticket struct {
	ID      int    `json:"id"`
	Summary string `json:"summary"`
}

// CreateTicket opens a service ticket on the tenant's service board.
func (c *Client) CreateTicket(ctx context.Context, public map[string]string, secret, summary, description string) (*Ticket, error) {
	body := map[string]interface{}{
		"summary": summary,
		"board":   map[string]string{"name": public["service_board"]},
		"company": map[string]string{"identifier": public["company_id"]},
		"initialDescription": description,
	}

	var ticket Ticket
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", authHeader(public, secret)).
		SetHeader("clientId", public["client_id"]).
		SetBody(body).
		SetResult(&ticket).
		SetError(&apiErr).
		Post(apiBasePath + "/service/tickets")
	if err != nil {
		return nil, fmt.Errorf("connectwise create ticket: %w", err)
	}
	if resp.IsError() {
		return nil, respError("create ticket", resp, apiErr)
	}
	c.logger.InfoContext(ctx, "connectwise ticket created", "ticket_id", ticket.ID, "summary", summary)
	return &ticket, nil
}

func respError(op string, resp *resty.Response, apiErr apiError) error {
	if apiErr.Message != "" {
		return fmt.Errorf("connectwise %s failed (%d): %s", op, resp.StatusCode(), apiErr.Message)
	}
	return fmt.Errorf("connectwise %s failed with status %d", op, resp.StatusCode())
}
