// Package transport implements the Transport Adapter (spec.md §4.5): a thin
// bidirectional WebSocket endpoint that forwards binary microphone frames
// into a Session and serializes its SessionEvents back out as JSON,
// replacing the original's FastAPI/Starlette ASGI loop
// (original_source/voice_backend/app/agent/main.py) one for one, on top of
// the teacher's own websocket stack (pkg/providers/tts/lokutor.go).
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/orchestrator"
)

// hangupWatchdogTimeout mirrors orchestrator's own constant of the same
// name: if the client never acknowledges a hangup, done is sent anyway.
const hangupWatchdogTimeout = 6 * time.Second

// Factory builds the three upstream clients for one session. A fresh set is
// created per connection so each caller gets its own ASR socket, LLM HTTP
// client, and TTS HTTP client.
type Factory struct {
	NewASR func() orchestrator.ASRClient
	NewLLM func() orchestrator.LLMClient
	NewTTS func() orchestrator.TTSClient
}

// Handler accepts WebSocket connections and drives one Session per
// connection (spec.md §4.5).
type Handler struct {
	factory   Factory
	personas  *orchestrator.PersonaRegistry
	sessCfg   orchestrator.SessionConfig
	logger    orchestrator.Logger
	metrics   orchestrator.Metrics
	acceptOpt *websocket.AcceptOptions
}

// New constructs a Handler. logger and metrics may be nil.
func New(factory Factory, personas *orchestrator.PersonaRegistry, sessCfg orchestrator.SessionConfig, logger orchestrator.Logger, metrics orchestrator.Metrics) *Handler {
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	if metrics == nil {
		metrics = orchestrator.NoOpMetrics{}
	}
	return &Handler{
		factory:  factory,
		personas: personas,
		sessCfg:  sessCfg,
		logger:   logger,
		metrics:  metrics,
		acceptOpt: &websocket.AcceptOptions{
			InsecureSkipVerify: true,
			OriginPatterns:     []string{"*"},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, h.acceptOpt)
	if err != nil {
		h.logger.Warn("websocket accept failed", "err", err)
		return
	}
	connID := uuid.NewString()
	h.serve(r.Context(), connID, conn)
}

func (h *Handler) serve(ctx context.Context, connID string, conn *websocket.Conn) {
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.logger.Info("connection accepted", "conn_id", connID)
	defer h.logger.Info("connection closed", "conn_id", connID)

	sink := &connEvents{
		conn:   conn,
		logger: h.logger,
	}
	sink.OnStatus("connected")

	var sess *orchestrator.Session
	started := false

readLoop:
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			break
		}

		switch msgType {
		case websocket.MessageBinary:
			if sess != nil {
				sess.PushAudio(data)
			}

		case websocket.MessageText:
			var env inboundEnvelope
			if err := json.Unmarshal(data, &env); err != nil {
				h.logger.Debug("transport: skip malformed inbound message", "err", err)
				continue
			}

			switch env.Type {
			case "start":
				if started {
					continue // idempotent: a second start is a no-op (spec.md §4.5)
				}
				var msg startMessage
				if err := json.Unmarshal(data, &msg); err != nil {
					h.logger.Debug("transport: skip malformed start message", "err", err)
					continue
				}
				persona, ok := h.personas.Get(msg.Persona)
				if !ok {
					sink.OnStatus("unknown persona")
					continue
				}
				sess = orchestrator.NewSession(h.factory.NewASR(), h.factory.NewLLM(), h.factory.NewTTS(), persona, h.sessCfg, h.logger, h.metrics)
				started = true
				go func() {
					if err := sess.Start(ctx, sink); err != nil {
						h.logger.Warn("session start failed", "err", err)
						sink.OnStatus("failed to start")
						sink.sendDone()
						cancel()
					}
				}()

			case "stop":
				cancel()
				sink.sendDone()
				break readLoop

			case "final_audio_complete":
				sink.acknowledgeHangup()
			}
		}
	}

	if sess != nil {
		sess.Close()
	}
	sink.stopWatchdog()
}

// connEvents implements orchestrator.SessionEvents by serializing each
// callback to a JSON text frame, or binary frame for PCM (spec.md §6). The
// Session's segmenter and consumer goroutines call these concurrently, so
// writes are serialized behind mu (spec.md §2 DOMAIN STACK: coder/websocket
// connections are not safe for concurrent writers).
type connEvents struct {
	conn   *websocket.Conn
	logger orchestrator.Logger

	mu sync.Mutex

	watchdogOnce sync.Once
	watchdogStop chan struct{}

	doneOnce sync.Once
}

// sendDone writes the done frame at most once per connection: the hangup
// watchdog and a client's (possibly late) acknowledgment both want to send
// it, and a stop or failed-start path may race either of them.
func (c *connEvents) sendDone() {
	c.doneOnce.Do(func() {
		c.writeJSON(doneEvent{Type: "done"})
	})
}

func (c *connEvents) writeJSON(v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := writeJSON(ctx, c.conn, v); err != nil {
		c.logger.Debug("transport: write failed", "err", err)
	}
}

func (c *connEvents) writeBinary(pcm []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageBinary, pcm); err != nil {
		c.logger.Debug("transport: write failed", "err", err)
	}
}

func (c *connEvents) OnStatus(message string) {
	c.writeJSON(statusEvent{Type: "status", Message: message})
}

func (c *connEvents) OnASRFinal(text string) {
	c.writeJSON(asrFinalEvent{Type: "asr_final", Text: text})
}

func (c *connEvents) OnLLMToken(token string) {
	c.writeJSON(llmTokenEvent{Type: "llm_token", Text: token})
}

func (c *connEvents) OnAudioStart() {
	c.writeJSON(audioStartEvent{Type: "audio_start"})
}

func (c *connEvents) OnAudioChunk(pcm []byte) {
	c.writeBinary(pcm)
}

func (c *connEvents) OnSegmentDone(isFinal bool) {
	c.writeJSON(segmentDoneEvent{Type: "segment_done", IsFinal: isFinal})
}

func (c *connEvents) OnTurnDone() {
	c.writeJSON(turnDoneEvent{Type: "turn_done"})
}

func (c *connEvents) OnVAD(evt orchestrator.VADEvent) {
	if len(evt.Raw) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, evt.Raw); err != nil {
		c.logger.Debug("transport: write failed", "err", err)
	}
}

// OnHangup sends the hangup notice and arms a watchdog: if the client never
// acknowledges with final_audio_complete, done is sent unconditionally after
// hangupWatchdogTimeout elapses (spec.md §4.5).
func (c *connEvents) OnHangup(reason string) {
	c.writeJSON(hangupEvent{Type: "hangup", Reason: reason})
	c.watchdogOnce.Do(func() {
		c.mu.Lock()
		stop := make(chan struct{})
		c.watchdogStop = stop
		c.mu.Unlock()
		go func() {
			select {
			case <-time.After(hangupWatchdogTimeout):
				c.sendDone()
			case <-stop:
			}
		}()
	})
}

func (c *connEvents) acknowledgeHangup() {
	c.mu.Lock()
	stop := c.watchdogStop
	c.mu.Unlock()
	if stop != nil {
		select {
		case <-stop:
		default:
			close(stop)
		}
	}
	c.sendDone()
}

func (c *connEvents) stopWatchdog() {
	c.mu.Lock()
	stop := c.watchdogStop
	c.mu.Unlock()
	if stop != nil {
		select {
		case <-stop:
		default:
			close(stop)
		}
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}
