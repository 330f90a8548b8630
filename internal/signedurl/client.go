package signedurl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// Client mints short-lived signed websocket URLs for the conversational
// agent, so the API key never reaches the caller.
type Client struct {
	APIKey  string
	AgentID string
	// BaseURL overrides the ElevenLabs endpoint, mainly for tests.
	BaseURL string
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

func NewClient(apiKey, agentID string) *Client {
	return &Client{APIKey: apiKey, AgentID: agentID}
}

// Fetch requests a signed conversation URL for the configured agent.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	if c.APIKey == "" || c.AgentID == "" {
		return "", fmt.Errorf("signedurl: api key or agent id missing")
	}
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	u, err := url.Parse(base + "/v1/convai/conversation/get_signed_url")
	if err != nil {
		return "", fmt.Errorf("signedurl: bad base url: %w", err)
	}
	q := u.Query()
	q.Set("agent_id", c.AgentID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.APIKey)

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("signedurl: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("signedurl: status=%d body=%s", resp.StatusCode, string(b))
	}

	var out struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("signedurl: decode response: %w", err)
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("signedurl: empty signed_url in response")
	}
	return out.SignedURL, nil
}
