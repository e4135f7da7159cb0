package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/pushrelay/internal/pushnotification"
	"github.com/kazz187/pushrelay/internal/pushsubscription"
)

// RelayClient talks to a running relay over its JSON API.
type RelayClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRelayClient(baseURL string, httpClient *http.Client) *RelayClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RelayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// APIError is a non-2xx answer from the relay.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("relay answered %d", e.StatusCode)
	}
	return fmt.Sprintf("relay answered %d: [%s] %s", e.StatusCode, e.Code, e.Message)
}

// LoadSubscriptionFile reads a subscription exported from a browser.
// JSON is valid YAML, so both formats are accepted.
func LoadSubscriptionFile(path string) (*pushsubscription.Subscription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription file: %w", err)
	}
	var sub pushsubscription.Subscription
	if err := yaml.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse subscription file %s: %w", path, err)
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *RelayClient) Subscribe(ctx context.Context, sub *pushsubscription.Subscription) (*pushnotification.SubscribeResponse, error) {
	var resp pushnotification.SubscribeResponse
	if err := c.post(ctx, "/subscribe", sub, &resp); err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return &resp, nil
}

// Notify asks the relay to push message. An empty message lets the relay
// pick its default.
func (c *RelayClient) Notify(ctx context.Context, message string) (*pushnotification.NotifyResponse, error) {
	var body any
	if message != "" {
		body = &pushnotification.NotifyRequest{Message: &message}
	}
	var resp pushnotification.NotifyResponse
	if err := c.post(ctx, "/notify", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to notify: %w", err)
	}
	return &resp, nil
}

func (c *RelayClient) post(ctx context.Context, path string, in, out any) error {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return err
	}
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
