// Package embed talks to the external embedding provider. Both document
// indexing and query embedding go through the same endpoint so the two are
// always comparable.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Provider generates vector embeddings from text
type Provider interface {
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// Config for the embedding provider client
type Config struct {
	BaseURL string        // Provider base URL
	APIKey  string        // Bearer token, empty for unauthenticated providers
	Timeout time.Duration // HTTP timeout
}

// Client wraps the provider's embeddings HTTP API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an embedding provider client
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.lastwinnersllc.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed generates one embedding for the given text
func (c *Client) Embed(ctx context.Context, model, text string) ([]float32, error) {
	var resp embeddingResponse
	if err := c.doRequest(ctx, "/embeddings", embeddingRequest{Model: model, Input: text}, &resp); err != nil {
		return nil, err
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("provider error: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("provider returned no embedding")
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) doRequest(ctx context.Context, path string, reqBody interface{}, respBody interface{}) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(respBody)
}
