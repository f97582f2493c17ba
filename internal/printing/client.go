package printing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client posts documents to the local print helper.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client for the helper at baseURL, e.g. http://localhost:8090.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Print sends the payload to POST {baseURL}/print. Any non-2xx status is an error.
func (c *Client) Print(ctx context.Context, p Payload) error {
	if p.Printers == nil {
		p.Printers = []DriverConfig{}
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal print payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/print", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build print request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post print: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("print helper returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// Printers turns printer names from a job into driver configs the helper resolves by name.
func Printers(names []string) []DriverConfig {
	out := make([]DriverConfig, 0, len(names))
	for _, n := range names {
		out = append(out, DriverConfig{Name: n})
	}
	return out
}
