package provider

import (
	"bytes"
	"codegen-relay/pkg/types"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var errNoContent = errors.New("response has no choices[0].message.content")

// OpenAIProvider talks to any OpenAI-compatible chat-completions endpoint
// using a bearer credential.
type OpenAIProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewOpenAIProvider(endpoint, apiKey string, client *http.Client) *OpenAIProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAIProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
	}
}

func (p *OpenAIProvider) Send(ctx context.Context, req types.OpenAIRequest) (*types.OpenAIResponse, error) {
	// 1. Marshal Request
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upstream request: %w", err)
	}

	// 2. Send Request
	upstreamReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	upstreamReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	upstreamReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(upstreamReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	// 3. Handle Response
	var openAIResp types.OpenAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body), Malformed: true, Err: err}
	}
	if _, ok := openAIResp.FirstContent(); !ok {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body), Malformed: true, Err: errNoContent}
	}

	return &openAIResp, nil
}
