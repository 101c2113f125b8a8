package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"fingerattend/internal/metrics"
)

// Reading is what the sensor service stored for one fingerprint id.
type Reading struct {
	ID   int             `json:"id"`
	Data json.RawMessage `json:"data"`
}

// MatchResult is the outcome of a scan.
type MatchResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// matchRate is the share of stubbed scans that succeed.
const matchRate = 0.8

// Client calls the fingerprint sensor service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool

	rand func() float64
}

// New creates a client. With skip set no request leaves the process.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
		rand: rand.Float64,
	}
}

// Lookup fetches the stored reading for a fingerprint id. An id the sensor
// does not know returns nil without error.
func (c *Client) Lookup(ctx context.Context, id int) (reading *Reading, err error) {
	if c.Skip {
		return &Reading{ID: id, Data: json.RawMessage(`{"mock":true}`)}, nil
	}
	if id <= 0 {
		return nil, fmt.Errorf("fingerprint id must be positive")
	}
	start := time.Now()
	defer func() { metrics.ObserveBackend("GET /api/sensordata", err, time.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/sensordata/%d", c.BaseURL, id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sensor service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sensor service error %s: %s", resp.Status, string(bodyBytes))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("sensor service returned invalid JSON")
	}
	return &Reading{ID: id, Data: raw}, nil
}

// Match is the scan stub: no capture hardware is driven, the result is random.
func (c *Client) Match(ctx context.Context) (MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return MatchResult{}, err
	}
	if c.rand() < matchRate {
		return MatchResult{Success: true, Message: "Fingerprint matched"}, nil
	}
	return MatchResult{Success: false, Message: "Fingerprint not matched"}, nil
}

// Health checks if the sensor service answers. A 404 for the probe id still
// means the service is up.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/sensordata/0", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sensor service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("sensor service unhealthy: %s", resp.Status)
	}

	return nil
}
