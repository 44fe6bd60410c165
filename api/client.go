package api

import (
	"encoding/json"
	"fmt"
	"heartbeat/config"
	"heartbeat/logger"
	"io"
	"net/http"
	"time"
)

// Response is what the api answers to a heartbeat
type Response struct {
	StatusCode      int
	MinAgentVersion string `json:"min_agent_version"`
}

// Retryable responses keep the heartbeat buffered for the next send.
// Non 500 failures are treated as successes so the request is dropped.
func (r *Response) Retryable() bool {
	return r.StatusCode >= 500
}

type Client struct {
	config     config.Config
	httpClient *http.Client
}

func NewClient(config config.Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send posts a gzip compressed heartbeat. An error means the api was not
// reached and the request should be retried.
func (c *Client) Send(request *HeartbeatRequest) (*Response, error) {
	compressed, err := request.ToCompressedJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding heartbeat: %w", err)
	}

	httpRequest, err := http.NewRequest(http.MethodPost, c.config.APIEndpoint, compressed)
	if err != nil {
		return nil, fmt.Errorf("building heartbeat request: %w", err)
	}
	httpRequest.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpRequest.Header.Set("Content-Encoding", "gzip")
	httpRequest.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpRequest.Header.Set("User-Agent", "heartbeat-agent/"+c.config.Version)

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	response := &Response{}
	if httpResponse.StatusCode == http.StatusOK {
		// the body is optional, a bad one is not a failed heartbeat
		body, err := io.ReadAll(io.LimitReader(httpResponse.Body, 64*1024))
		if err == nil && len(body) > 0 {
			if err := json.Unmarshal(body, response); err != nil {
				logger.Debug("Unable to parse heartbeat response", "err", err, "bytes", len(body))
			}
		}
	}
	response.StatusCode = httpResponse.StatusCode

	return response, nil
}
