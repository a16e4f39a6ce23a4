// Package asr implements the duplex streaming ASR Client (spec.md §4.1),
// grounded on original_source/voice_backend/app/agent/fennec_ws.py's
// handshake and event protocol, using the teacher's coder/websocket
// dependency (pkg/providers/tts/lokutor.go) for the duplex link.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/orchestrator"
)

const (
	connectTimeout = 15 * time.Second
	readyTimeout   = 10 * time.Second
	closeWait      = 1500 * time.Millisecond
)

// Client is an orchestrator.ASRClient backed by a token-authenticated
// websocket duplex link (spec.md §4.1).
type Client struct {
	apiKey   string
	tokenURL string
	wsURL    string
	http     *http.Client
	logger   orchestrator.Logger

	mu    sync.Mutex
	conn  *websocket.Conn
	ready chan struct{}

	recvDone  chan struct{}
	closeOnce sync.Once
}

// New constructs a Client. logger may be nil, in which case NoOpLogger is
// used.
func New(apiKey, tokenURL, wsURL string, logger orchestrator.Logger) *Client {
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	return &Client{
		apiKey:   apiKey,
		tokenURL: tokenURL,
		wsURL:    wsURL,
		http:     &http.Client{Timeout: connectTimeout},
		logger:   logger,
	}
}

var _ orchestrator.ASRClient = (*Client)(nil)

// Open performs the token exchange, opens the streaming connection with the
// token as a query parameter, spawns the receive loop, sends the start
// frame, and waits for readiness (spec.md §4.1 "open(handlers)").
func (c *Client) Open(ctx context.Context, opts orchestrator.ASROpenOptions, handlers orchestrator.ASRHandlers) error {
	token, err := c.fetchToken(ctx)
	if err != nil {
		return orchestrator.NewError(orchestrator.KindAuthFailure, err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	wsURL, err := c.urlWithToken(token)
	if err != nil {
		return orchestrator.NewError(orchestrator.KindAuthFailure, err)
	}

	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return orchestrator.NewError(orchestrator.KindUpstreamTimeout, err)
	}
	conn.SetReadLimit(-1)

	c.mu.Lock()
	c.conn = conn
	c.ready = make(chan struct{})
	c.recvDone = make(chan struct{})
	c.mu.Unlock()

	go c.recvLoop(handlers)

	detect := opts.Thought.Enabled
	frame := startFrame{
		Type:            "start",
		SampleRate:      opts.SampleRate,
		Channels:        opts.Channels,
		SingleUtterance: false,
		VAD:             toVADWire(opts.VAD),
	}
	if opts.Thought.Enabled {
		frame.DetectThoughts = &detect
		frame.EndThoughtEager = opts.Thought.EndThoughtEagerness
		if opts.Thought.ForceCompleteTime != 0 {
			v := opts.Thought.ForceCompleteTime
			frame.ForceCompleteSec = &v
		}
		frame.Context = opts.Thought.Context
	}

	body, err := json.Marshal(frame)
	if err != nil {
		return orchestrator.NewError(orchestrator.KindUpstreamProtocol, err)
	}
	if err := conn.Write(ctx, websocket.MessageText, body); err != nil {
		return orchestrator.NewError(orchestrator.KindUpstreamTimeout, err)
	}

	readyCtx, cancel2 := context.WithTimeout(ctx, readyTimeout)
	defer cancel2()
	select {
	case <-c.ready:
		return nil
	case <-readyCtx.Done():
		return orchestrator.NewError(orchestrator.KindUpstreamTimeout, fmt.Errorf("asr readiness timeout"))
	}
}

func toVADWire(v orchestrator.VADConfig) vadWire {
	return vadWire{
		Threshold:      v.Threshold,
		MinSilenceMs:   v.MinSilenceMs,
		SpeechPadMs:    v.SpeechPadMs,
		FinalSilenceS:  v.FinalSilenceS,
		StartTriggerMs: v.StartTriggerMs,
		MinVoicedMs:    v.MinVoicedMs,
		MinChars:       v.MinChars,
		MinWords:       v.MinWords,
		AmpExtend:      v.AmpExtend,
		ForceDecodeMs:  v.ForceDecodeMs,
		Events:         v.Events,
		EventHz:        v.EventHz,
	}
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.Token == "" {
		return "", fmt.Errorf("token endpoint did not return a token")
	}
	return tr.Token, nil
}

func (c *Client) urlWithToken(token string) (string, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("streaming_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// recvLoop dispatches inbound JSON events by type (spec.md §4.1 "Event
// handling"). Binary messages are ignored; partial transcripts are
// intentionally discarded.
func (c *Client) recvLoop(handlers orchestrator.ASRHandlers) {
	defer close(c.recvDone)
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}
		typ, data, err := conn.Read(context.Background())
		if err != nil {
			return
		}
		if typ == websocket.MessageBinary {
			continue
		}

		var evt inboundEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Warn("asr: malformed event", "err", err)
			continue
		}

		switch evt.Type {
		case "ready":
			c.mu.Lock()
			ready := c.ready
			c.mu.Unlock()
			select {
			case <-ready:
			default:
				close(ready)
			}
		case "error":
			c.logger.Warn("asr: upstream error event", "error", evt.Error)
		case "vad":
			if handlers.OnVAD != nil {
				handlers.OnVAD(orchestrator.VADEvent{Kind: orchestrator.VADKindState, State: evt.State, Raw: json.RawMessage(data)})
			}
		case "utterance":
			if handlers.OnVAD != nil {
				handlers.OnVAD(orchestrator.VADEvent{Kind: orchestrator.VADKindUtterance, Phase: evt.Phase, Raw: json.RawMessage(data)})
			}
		case "complete_thought", "corrected_transcript", "final_transcript", "":
			text := trimSpace(evt.Text)
			if text == "" {
				if evt.Debug != "" {
					c.logger.Debug("asr: empty final", "debug", evt.Debug)
				}
				continue
			}
			if handlers.OnFinal != nil {
				handlers.OnFinal(text)
			}
		case "debug":
			c.logger.Debug("asr: debug event", "debug", evt.Debug)
		default:
			// Unrecognized message types are ignored per spec.md §7
			// (UpstreamProtocol: skipped with a log, connection continues).
			c.logger.Debug("asr: unrecognized event type", "type", evt.Type)
		}
	}
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// SendPCM blocks on readiness, then transmits. Errors after readiness are
// logged and swallowed (spec.md §4.1 "send_pcm(bytes)").
func (c *Client) SendPCM(ctx context.Context, pcm []byte) error {
	c.mu.Lock()
	conn := c.conn
	ready := c.ready
	c.mu.Unlock()
	if conn == nil || ready == nil {
		return orchestrator.ErrNilProvider
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := conn.Write(ctx, websocket.MessageBinary, pcm); err != nil {
		c.logger.Warn("asr: send_pcm failed", "err", err)
	}
	return nil
}

// Close sends an end-of-stream frame, closes the connection, and awaits the
// receive loop up to 1.5s, else forces it closed (spec.md §4.1 "close()").
func (c *Client) Close(ctx context.Context) error {
	var retErr error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		recvDone := c.recvDone
		c.mu.Unlock()
		if conn == nil {
			return
		}

		body, _ := json.Marshal(eosFrame{Type: "eos"})
		_ = conn.Write(ctx, websocket.MessageText, body)
		_ = conn.Close(websocket.StatusNormalClosure, "session closed")

		if recvDone != nil {
			select {
			case <-recvDone:
			case <-time.After(closeWait):
				_ = conn.CloseNow()
			}
		}
	})
	return retErr
}
