// Package llm implements the LLM Client (spec.md §4.2): an OpenAI-compatible
// streaming chat-completion leg, grounded on
// original_source/voice_backend/app/agent/llm_client.py for sampling
// parameters and persona prompts, and on the teacher's
// pkg/providers/llm/openai.go for request/response struct shapes and HTTP
// client construction.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/orchestrator"
)

const (
	temperature      = 0.2
	topP             = 1
	maxTokens        = 256
	presencePenalty  = 0
	frequencyPenalty = 0
)

// Client is an orchestrator.LLMClient backed by an OpenAI-compatible
// streaming chat-completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	logger  orchestrator.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New constructs a Client. logger may be nil, in which case NoOpLogger is
// used.
func New(apiKey, baseURL, model string, logger orchestrator.Logger) *Client {
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{},
		logger:  logger,
	}
}

var _ orchestrator.LLMClient = (*Client)(nil)

// StreamReply constructs [system_prompt, history..., user_text], invokes the
// streaming chat completion, and yields each non-empty delta to onToken
// (spec.md §4.2 "stream_reply(user_text, history)").
func (c *Client) StreamReply(ctx context.Context, req orchestrator.LLMRequest, onToken func(token string)) error {
	reqCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.cancel != nil {
			c.cancel = nil
		}
		c.mu.Unlock()
		cancel()
	}()

	messages := make([]chatMessage, 0, len(req.History)+2)
	messages = append(messages, chatMessage{Role: "system", Content: req.Persona.SystemPrompt})
	for _, m := range req.History {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserText})

	body, err := json.Marshal(chatRequest{
		Model:            c.model,
		Messages:         messages,
		Stream:           true,
		Temperature:      temperature,
		TopP:             topP,
		MaxTokens:        maxTokens,
		PresencePenalty:  presencePenalty,
		FrequencyPenalty: frequencyPenalty,
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if reqCtx.Err() != nil {
			return orchestrator.NewError(orchestrator.KindCancellationRequested, err)
		}
		return orchestrator.NewError(orchestrator.KindUpstreamTimeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return orchestrator.NewError(orchestrator.KindAuthFailure, fmt.Errorf("llm endpoint returned %d", resp.StatusCode))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			break
		}
		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			c.logger.Warn("llm: malformed stream chunk", "err", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		tok := chunk.Choices[0].Delta.Content
		if tok != "" && onToken != nil {
			onToken(tok)
		}
	}
	if err := scanner.Err(); err != nil && reqCtx.Err() == nil {
		return orchestrator.NewError(orchestrator.KindUpstreamProtocol, err)
	}
	return nil
}

// Cancel closes any in-flight stream promptly (spec.md §4.2 "On cancel(),
// closes the underlying stream promptly; further yields cease.").
func (c *Client) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
