package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Status of a tenant's WhatsApp instance.
type Status struct {
	InstanceName string `json:"instanceName"`
	Status       string `json:"status"`
	Connected    bool   `json:"connected"`
}

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetStatus returns the instance status for a tenant. A tenant without an
// instance (404) is reported as not connected.
func (c *Client) GetStatus(ctx context.Context, tenantID string) (Status, error) {
	if c.baseURL == "" {
		return Status{}, errors.New("whatsapp status url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(tenantID), nil)
	if err != nil {
		return Status{}, errors.Wrap(err, "new request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Status{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Status{Status: "not_found"}, nil
	}
	if resp.StatusCode/100 != 2 {
		return Status{}, errors.Errorf("whatsapp status http %d", resp.StatusCode)
	}

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return Status{}, errors.Wrap(err, "decode")
	}
	return st, nil
}
