package orchestrator

import (
	"context"
	"encoding/json"
)

// Logger is the structured logging port every component in this package
// depends on. Concrete adapters (see internal/logging) back it with
// log/slog; NoOpLogger is used where no logger is supplied.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// NoOpLogger discards everything. Used as the default when no Logger is
// configured and in tests that don't care about log output.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, args ...interface{}) {}
func (n *NoOpLogger) Info(msg string, args ...interface{})  {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})  {}
func (n *NoOpLogger) Error(msg string, args ...interface{}) {}

// Role is a history entry's speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one history entry.
type Message struct {
	Role    Role
	Content string
}

// MaxHistoryMessages bounds the conversation history (spec.md §3: N = 64).
const MaxHistoryMessages = 64

// DebounceWindowMillis absorbs a repeated identical final arriving within
// this many milliseconds of the previous one (spec.md §4.4).
const DebounceWindowMillis = 220.0

// InputQueueDepth is the bounded, drop-oldest PCM input queue depth
// (spec.md §3 invariant 4).
const InputQueueDepth = 6

// SegmentCharBudget flushes a segment once its buffer reaches this many
// characters, even absent terminal punctuation (spec.md §4.4).
const SegmentCharBudget = 250

// HangupMarker is the literal trailing token a persona may emit to signal
// end-of-call (spec.md §4.2, §4.5).
const HangupMarker = "[HANGUP]"

// VADKind distinguishes the two tagged shapes of VadEvent (spec.md §3).
type VADKind int

const (
	// VADKindState carries a speech/silence state (`{"type":"vad","state":...}`).
	VADKindState VADKind = iota
	// VADKindUtterance carries an utterance boundary phase
	// (`{"type":"utterance","phase":...}`).
	VADKindUtterance
)

// VADEvent is a voice-activity signal emitted by the ASR Client, consumed
// by the barge-in arbiter and mirrored verbatim to the transport.
type VADEvent struct {
	Kind  VADKind
	State string // "speech" | "silence", meaningful when Kind == VADKindState
	Phase string // "begin" | "end", meaningful when Kind == VADKindUtterance
	Raw   json.RawMessage
}

// IsBargeInTrigger reports whether this event should pre-empt an in-flight
// turn: `utterance{phase:"begin"}` or `vad{state:"speech"}` (spec.md §4.4).
func (e VADEvent) IsBargeInTrigger() bool {
	switch e.Kind {
	case VADKindState:
		return e.State == "speech"
	case VADKindUtterance:
		return e.Phase == "begin"
	default:
		return false
	}
}

// VADConfig carries the recognized VAD tuning options (spec.md §4.1).
type VADConfig struct {
	Threshold      float64
	MinSilenceMs   int
	SpeechPadMs    int
	FinalSilenceS  float64
	StartTriggerMs int
	MinVoicedMs    int
	MinChars       int
	MinWords       int
	AmpExtend      int
	ForceDecodeMs  int
	Events         bool
	EventHz        int
}

// DefaultVADConfig mirrors the upstream recognizer's own defaults
// (original_source/voice_backend/app/agent/fennec_ws.py DEFAULT_VAD).
func DefaultVADConfig() VADConfig {
	return VADConfig{
		Threshold:      0.6,
		MinSilenceMs:   50,
		SpeechPadMs:    350,
		FinalSilenceS:  0.05,
		StartTriggerMs: 150,
		MinVoicedMs:    100,
		MinChars:       1,
		MinWords:       1,
		AmpExtend:      600,
		ForceDecodeMs:  0,
		Events:         true,
		EventHz:        8,
	}
}

// ThoughtDetection carries the optional thought-detection control fields
// (spec.md §6).
type ThoughtDetection struct {
	Enabled             bool
	EndThoughtEagerness string // "low" | "medium" | "high"
	ForceCompleteTime   float64
	Context             string
}

// ASRHandlers are the two callback streams the ASR Client emits
// (spec.md §2): final-text and voice-activity.
type ASRHandlers struct {
	OnFinal func(text string)
	OnVAD   func(evt VADEvent)
}

// ASROpenOptions configures the `start` control frame (spec.md §4.1).
type ASROpenOptions struct {
	SampleRate int
	Channels   int
	VAD        VADConfig
	Thought    ThoughtDetection
}

// ASRClient is a duplex streaming ASR leg: authenticate, open, configure,
// stream PCM, receive events, close (spec.md §4.1).
type ASRClient interface {
	Open(ctx context.Context, opts ASROpenOptions, handlers ASRHandlers) error
	SendPCM(ctx context.Context, pcm []byte) error
	Close(ctx context.Context) error
}

// LLMRequest is one turn's chat-completion request shape (spec.md §4.2).
type LLMRequest struct {
	Persona  Persona
	History  []Message
	UserText string
}

// LLMClient yields a lazy, cancellable token stream for one turn
// (spec.md §4.2).
type LLMClient interface {
	// StreamReply invokes onToken for each non-empty delta as it arrives
	// and returns once the stream ends, is cancelled, or errors.
	StreamReply(ctx context.Context, req LLMRequest, onToken func(token string)) error
	// Cancel closes any in-flight stream promptly; further onToken calls
	// cease. Safe to call when idle.
	Cancel()
}

// TTSClient synthesizes one text segment into a stream of PCM blocks
// (spec.md §4.3).
type TTSClient interface {
	// Synthesize invokes onChunk for each PCM block as it arrives. Empty
	// or whitespace-only text is a no-op.
	Synthesize(ctx context.Context, text string, onChunk func(pcm []byte)) error
	// Abort aborts the active synthesis response, if any, so Synthesize
	// returns promptly. Safe to call when idle.
	Abort()
	// Close releases the client's connection pool.
	Close() error
}

// Persona is an immutable system-prompt variant chosen at session start
// (spec.md §3, §4.2).
type Persona struct {
	ID           string
	SystemPrompt string
}

// PersonaRegistry maps a persona id to its immutable prompt record,
// replacing the source's dynamic string dispatch (spec.md §9 Design Notes).
type PersonaRegistry struct {
	personas map[string]Persona
}

// NewPersonaRegistry builds a registry from the given personas, keyed by ID.
func NewPersonaRegistry(personas ...Persona) *PersonaRegistry {
	r := &PersonaRegistry{personas: make(map[string]Persona, len(personas))}
	for _, p := range personas {
		r.personas[p.ID] = p
	}
	return r
}

// Get returns the persona for id, or false if unknown.
func (r *PersonaRegistry) Get(id string) (Persona, bool) {
	p, ok := r.personas[id]
	return p, ok
}

// SessionConfig bundles the tunables a Session is constructed with.
type SessionConfig struct {
	ASRSampleRate int
	ASRChannels   int
	VAD           VADConfig
	Thought       ThoughtDetection
}

// DefaultSessionConfig mirrors the original's 16kHz mono ASR leg
// (original_source/voice_backend/app/config.py).
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ASRSampleRate: 16000,
		ASRChannels:   1,
		VAD:           DefaultVADConfig(),
	}
}
