// Package notifyapi is an HTTP client for a NotificationAPI-style delivery
// provider: basic-auth credentials, one sender endpoint per client id, and a
// JSON payload naming the template type, recipient channels and merge
// parameters.
package notifyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/compound-health-monitor/internal/domain"
)

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
}

func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

// Send delivers one notification. The provider's JSON response body is
// returned as-is so the request surface can echo it to callers.
func (c *Client) Send(ctx context.Context, req domain.SendRequest) (map[string]interface{}, error) {
	if req.Type == "" {
		req.Type = "alert"
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/sender", c.baseURL, c.clientID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(c.clientID, c.clientSecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("notification provider: %w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("provider status %d: %s: %w", resp.StatusCode, raw, domain.ErrUnavailable)
	}

	var data map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			// Some deployments answer with a bare string; keep it.
			data = map[string]interface{}{"raw": string(raw)}
		}
	}
	return data, nil
}
