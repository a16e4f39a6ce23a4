package orchestrator

import "errors"

// Kind classifies a session-level failure so callers can branch on the
// category without string matching. See Error.
type Kind int

const (
	// KindUnknown is the zero value; plain errors.New values carry this kind.
	KindUnknown Kind = iota

	// KindAuthFailure means upstream credentials were invalid or missing;
	// fatal to the session.
	KindAuthFailure

	// KindUpstreamTimeout means an upstream leg (ASR readiness, HTTP read)
	// did not respond in time; fatal to the turn, not necessarily the session.
	KindUpstreamTimeout

	// KindUpstreamProtocol means a message from an upstream leg was
	// malformed; the offending message is skipped, the connection continues.
	KindUpstreamProtocol

	// KindBackpressure means a bounded queue was full; handled locally by
	// drop-oldest, never surfaced to the user.
	KindBackpressure

	// KindCancellationRequested means a turn was cancelled by barge-in or
	// stop; expected, not an operator-visible failure.
	KindCancellationRequested

	// KindTransportGone means the client connection is gone; terminate
	// silently.
	KindTransportGone
)

func (k Kind) String() string {
	switch k {
	case KindAuthFailure:
		return "auth_failure"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindUpstreamProtocol:
		return "upstream_protocol"
	case KindBackpressure:
		return "backpressure"
	case KindCancellationRequested:
		return "cancellation_requested"
	case KindTransportGone:
		return "transport_gone"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind for classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with kind. A nil err is still wrapped so callers can
// match on Kind alone.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the Kind of err, or KindUnknown if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	// ErrEmptyTranscription is returned when transcription yields empty text.
	ErrEmptyTranscription = errors.New("transcription returned empty text")

	// ErrTranscriptionFailed wraps a failed ASR leg.
	ErrTranscriptionFailed = errors.New("speech-to-text transcription failed")

	// ErrLLMFailed wraps a failed LLM leg.
	ErrLLMFailed = errors.New("language model generation failed")

	// ErrTTSFailed wraps a failed TTS leg.
	ErrTTSFailed = errors.New("text-to-speech synthesis failed")

	// ErrNilProvider is returned when a required client dependency is nil.
	ErrNilProvider = errors.New("required provider is nil")

	// ErrContextCancelled is returned when an operation unwinds due to
	// context cancellation (barge-in or stop).
	ErrContextCancelled = errors.New("operation cancelled by context")

	// ErrSessionClosed is returned by operations invoked after Close.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNotReady is returned when PCM is fed before the ASR leg signals
	// readiness; per invariant 5, such frames are dropped silently by
	// PushAudio, but internal callers that need to distinguish this use
	// this sentinel.
	ErrNotReady = errors.New("session not ready")
)
