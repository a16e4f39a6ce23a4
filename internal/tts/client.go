// Package tts implements the TTS Client (spec.md §4.3): an HTTP/2 POST with
// Basic auth and newline-delimited JSON streaming response, grounded on
// original_source/voice_backend/app/agent/inworld_tts.py, with the
// WAV-header-stripping idiom adapted from the teacher's pkg/audio/wav.go
// (there a builder, here its inverse).
package tts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/audio"
	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/orchestrator"
)

const temperature = 0.85

// Client is an orchestrator.TTSClient backed by a pooled HTTP/2 client,
// reused for the session lifetime (spec.md §4.3).
type Client struct {
	authBasicB64 string
	modelID      string
	voiceID      string
	sampleRate   int
	url          string
	http         *http.Client
	logger       orchestrator.Logger

	mu           sync.Mutex
	activeCancel context.CancelFunc
}

// New constructs a Client. logger may be nil, in which case NoOpLogger is
// used.
func New(url, authBasicB64, modelID, voiceID string, sampleRate int, logger orchestrator.Logger) *Client {
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	return &Client{
		authBasicB64: authBasicB64,
		modelID:      modelID,
		voiceID:      voiceID,
		sampleRate:   sampleRate,
		url:          url,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		logger: logger,
	}
}

var _ orchestrator.TTSClient = (*Client)(nil)

// Synthesize posts a text segment and streams decoded PCM blocks to onChunk.
// Empty/whitespace text is a no-op (spec.md §4.3).
func (c *Client) Synthesize(ctx context.Context, text string, onChunk func(pcm []byte)) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	synCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.activeCancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.activeCancel = nil
		c.mu.Unlock()
		cancel()
	}()

	body, err := json.Marshal(synthesizeRequest{
		Text:        text,
		VoiceID:     c.voiceID,
		ModelID:     c.modelID,
		Temperature: temperature,
		AudioConfig: audioConfig{
			AudioEncoding:   "LINEAR16",
			SampleRateHertz: c.sampleRate,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(synCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Basic "+c.authBasicB64)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if synCtx.Err() != nil {
			return nil // aborted: spec.md "stop() ... the generator returns promptly"
		}
		return orchestrator.NewError(orchestrator.KindUpstreamTimeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return orchestrator.NewError(orchestrator.KindUpstreamTimeout, fmt.Errorf("tts endpoint returned %d", resp.StatusCode))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if synCtx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var parsed synthesizeLine
		if err := json.Unmarshal([]byte(line), &parsed); err != nil {
			c.logger.Debug("tts: skip line parse err", "err", err)
			continue
		}
		if parsed.Result.AudioContent == "" {
			continue
		}
		wavBytes, err := base64.StdEncoding.DecodeString(parsed.Result.AudioContent)
		if err != nil {
			c.logger.Debug("tts: skip base64 decode err", "err", err)
			continue
		}
		pcm := audio.StripWavHeader(wavBytes)
		if len(pcm) > 0 && onChunk != nil {
			onChunk(pcm)
		}
	}
	return nil
}

// Abort aborts the active synthesis response, if any (spec.md §4.3
// "stop()").
func (c *Client) Abort() {
	c.mu.Lock()
	cancel := c.activeCancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close releases the client's connection pool (spec.md §4.3 "close()").
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
