package orchestrator

// SessionEvents is the callback-wiring contract a transport implements to
// receive session output (spec.md §9 Design Notes: "prefer a SessionEvents
// interface ... the transport implements it").
type SessionEvents interface {
	OnStatus(message string)
	OnASRFinal(text string)
	OnLLMToken(token string)
	OnAudioStart()
	OnAudioChunk(pcm []byte)
	OnSegmentDone(isFinal bool)
	OnTurnDone()
	OnVAD(evt VADEvent)
	OnHangup(reason string)
}

// noopEvents is used when a Session is constructed without an events sink,
// e.g. in tests that only assert on history/state.
type noopEvents struct{}

func (noopEvents) OnStatus(string)        {}
func (noopEvents) OnASRFinal(string)      {}
func (noopEvents) OnLLMToken(string)      {}
func (noopEvents) OnAudioStart()          {}
func (noopEvents) OnAudioChunk([]byte)    {}
func (noopEvents) OnSegmentDone(bool)     {}
func (noopEvents) OnTurnDone()            {}
func (noopEvents) OnVAD(VADEvent)         {}
func (noopEvents) OnHangup(string)        {}
