package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/imrishuroy/shopify-support-api/internal/config"
	"github.com/imrishuroy/shopify-support-api/internal/logger"
)

// Placeholder lines returned instead of a live status.
const (
	NoTrackingNumber = "No tracking number available."
	Unavailable      = "Error retrieving tracking information."
	NoStatus         = "No status information available."
)

// Client asks a ParcelsApp-style endpoint for the latest shipment status.
type Client struct {
	httpClient *http.Client
	apiURL     string
	linkURL    string
}

// NewClient builds a Client. A nil httpClient uses http.DefaultClient.
func NewClient(cfg config.TrackingConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		apiURL:     cfg.APIURL,
		linkURL:    cfg.LinkURL,
	}
}

type statusResponse struct {
	Status json.RawMessage `json:"status"`
}

// Describe returns a human-readable status line for trackingNumber.
// It never fails: errors degrade to the Unavailable placeholder and
// an empty number returns NoTrackingNumber without any network call.
func (c *Client) Describe(ctx context.Context, trackingNumber string) string {
	if trackingNumber == "" {
		return NoTrackingNumber
	}

	status, err := c.fetchStatus(ctx, trackingNumber)
	if err != nil {
		logger.FromContext(ctx).Warn("tracking lookup failed",
			zap.String("tracking_number", trackingNumber), zap.Error(err))
		return Unavailable
	}
	return fmt.Sprintf("Current status: %s - [Tracking link](%s)", status, c.Link(trackingNumber))
}

// Link builds the public tracking page for trackingNumber. The number is appended as is.
func (c *Client) Link(trackingNumber string) string {
	return c.linkURL + trackingNumber
}

func (c *Client) fetchStatus(ctx context.Context, trackingNumber string) (string, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return "", fmt.Errorf("parse tracking url: %w", err)
	}
	q := u.Query()
	q.Set("tracking_number", trackingNumber)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build tracking request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call tracking api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("tracking api returned status %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode tracking response: %w", err)
	}
	return statusText(body.Status), nil
}

// statusText renders the status field: strings unquoted, any other JSON value verbatim.
func statusText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return NoStatus
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return NoStatus
		}
		return s
	}
	return string(raw)
}
