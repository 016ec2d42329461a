package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"socialflow/internal/config"
	"socialflow/internal/models"
	"socialflow/internal/platform"
)

// Client talks to the publishing connector service that performs the actual
// per-platform posting. The connector's API is an opaque REST surface: we
// only enforce the request/response shapes below.
type Client struct {
	Config     *config.Config
	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{Config: cfg, HTTPClient: &http.Client{}}
}

type publishRequest struct {
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

type publishResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Publish posts content through one connected channel and returns the public
// URL of the created post.
func (c *Client) Publish(ctx context.Context, p platform.Platform, channel models.Channel, content string) (string, error) {
	if c.Config.ConnectorBaseURL == "" {
		return "", fmt.Errorf("publishing connector not configured")
	}

	url := fmt.Sprintf("%s/v1/%s/publish", c.Config.ConnectorBaseURL, p)
	body := publishRequest{ChannelID: channel.ID, Content: content}

	respBody, err := c.sendRequest(ctx, "POST", url, body)
	if err != nil {
		return "", err
	}

	var resp publishResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) sendRequest(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		// prefer the connector's message so failures stay human readable
		var e errorResponse
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			return respBody, fmt.Errorf("%s", e.Error)
		}
		return respBody, fmt.Errorf("connector error: %s", resp.Status)
	}

	return respBody, nil
}
