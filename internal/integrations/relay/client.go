package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Message is the relay contract: one rendered WhatsApp message for one end customer.
type Message struct {
	Customer         Customer `json:"customer"`
	Tracking         Tracking `json:"tracking"`
	Template         Template `json:"template"`
	WhatsAppInstance string   `json:"whatsapp_instance"`
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type Tracking struct {
	ShipmentID       string `json:"shipment_id"`
	TenantID         string `json:"tenant_id"`
	TrackingCode     string `json:"tracking_code"`
	Status           string `json:"status"`
	StatusTitle      string `json:"status_title"`
	NotificationType string `json:"notification_type"`
	EventID          string `json:"event_id,omitempty"`
	Location         string `json:"location,omitempty"`
	CourierName      string `json:"courier_name,omitempty"`
	OccurredAt       string `json:"occurred_at,omitempty"`
}

type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type Client struct {
	url    string
	apiKey string
	httpc  *http.Client
}

func New(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    url,
		apiKey: apiKey,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.url == "" {
		return errors.New("relay url is not configured")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal relay message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("relay http %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
