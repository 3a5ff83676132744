// Package pushclient triggers dispatches on a pushdispatch server.
package pushclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// ServiceKeyHeader carries the shared service credential.
const ServiceKeyHeader = "X-Service-Key"

type Push struct {
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	ContentID string `json:"content_id,omitempty"`
	Category  string `json:"category,omitempty"`
	URL       string `json:"url,omitempty"`
}

type Result struct {
	Success        bool   `json:"success"`
	NotificationID string `json:"notification_id"`
	Sent           int    `json:"sent"`
	Failed         int    `json:"failed"`
	Error          string `json:"error,omitempty"`
}

type Client struct {
	endpoint   *url.URL
	serviceKey string
	http       *http.Client
}

func New(server, serviceKey string) (*Client, error) {
	endpointURL, err := url.Parse(server)
	if err != nil {
		return nil, errors.Wrap(err, "Parsing push server url")
	}

	endpointURL.Path = "/push/dispatch"
	if endpointURL.Scheme == "" {
		endpointURL.Scheme = "https"
	}

	return &Client{
		endpoint:   endpointURL,
		serviceKey: serviceKey,
		http:       http.DefaultClient,
	}, nil
}

// SendPush dispatches push. A nil error means the server ran the dispatch;
// check Result.Sent and Result.Failed for per-device outcomes.
func (c *Client) SendPush(ctx context.Context, push Push) (Result, error) {
	body, err := json.Marshal(push)
	if err != nil {
		return Result{}, errors.Wrap(err, "marshalling push")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return Result{}, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ServiceKeyHeader, c.serviceKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, errors.Wrap(err, "Failed to read response body")
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Result{}, fmt.Errorf("Failed to send push (%d): %s", resp.StatusCode, string(respBody))
		}
		return Result{}, errors.Wrap(err, "decoding dispatch result")
	}

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("Failed to send push (%d): %s", resp.StatusCode, result.Error)
	}

	return result, nil
}
