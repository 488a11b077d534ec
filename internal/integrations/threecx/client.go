package threecx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is a minimal 3CX management API client. The site URL is part of
// the tenant's credential, so requests use absolute URLs rather than a
// client-wide base URL.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(0)
	return &Client{http: client, logger: logger.With("integration", "threecx")}
}

// TestCredential attempts a management login against the tenant's 3CX
// site. Implements the tenant service's CredentialTester.
func (c *Client) TestCredential(ctx context.Context, public map[string]string, secret string) error {
	siteURL := public["site_url"]
	if siteURL == "" {
		return fmt.Errorf("3cx credential is missing site_url")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"Username": public["username"],
			"Password": secret,
		}).
		Post(siteURL + "/webclient/api/Login/GetAccessToken")
	if err != nil {
		return fmt.Errorf("3cx credential test: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("3cx credential test failed with status %d", resp.StatusCode())
	}
	return nil
}
