package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// LLM is the capability interface the core requires for both the reasoning
// calls (constraint extraction, subquestion generation, analysis, synthesis)
// and the long-form interactive answer. Concrete implementations live
// outside the research-loop core (model routing is an external collaborator
// per spec.md §1); HTTPLLMClient is the default adapter to that service.
type LLM interface {
	GenerateText(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// LLMRequest mirrors the capability contract in spec.md §6.
type LLMRequest struct {
	Model     string
	Prompt    string
	MaxTokens int
}

// LLMResponse carries the generated text plus usage metadata for metrics.
type LLMResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// HTTPLLMClient calls an external LLM service over HTTP/JSON, the same
// shape the teacher's activities use against LLM_SERVICE_URL.
type HTTPLLMClient struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPLLMClient builds a client from LLM_SERVICE_URL (default
// http://llm-service:8000) with a 120s timeout, matching the teacher's
// reasoning-call activities.
func NewHTTPLLMClient() *HTTPLLMClient {
	base := os.Getenv("LLM_SERVICE_URL")
	if base == "" {
		base = "http://llm-service:8000"
	}
	return &HTTPLLMClient{
		BaseURL: base,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type llmHTTPRequest struct {
	Query      string                 `json:"query"`
	MaxTokens  int                    `json:"max_tokens,omitempty"`
	ModelTier  string                 `json:"model_tier,omitempty"`
	AgentID    string                 `json:"agent_id,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

type llmHTTPResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Metadata struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"metadata"`
}

// GenerateText implements LLM by POSTing to <base>/agent/query, the same
// endpoint shape the teacher's analyze/synthesis/subquery activities call.
func (c *HTTPLLMClient) GenerateText(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	body := llmHTTPRequest{
		Query:     req.Prompt,
		MaxTokens: req.MaxTokens,
		ModelTier: "small",
		AgentID:   "research_loop",
		Context:   map[string]interface{}{"model": req.Model},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("marshal llm request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/agent/query", bytes.NewReader(payload))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("build llm request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Agent-ID", "research_loop")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("llm call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return LLMResponse{}, fmt.Errorf("llm service returned status %d", resp.StatusCode)
	}

	var out llmHTTPResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return LLMResponse{}, fmt.Errorf("decode llm response: %w", err)
	}

	return LLMResponse{
		Text:         out.Response,
		InputTokens:  out.Metadata.InputTokens,
		OutputTokens: out.Metadata.OutputTokens,
	}, nil
}
