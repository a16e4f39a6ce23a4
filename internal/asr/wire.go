package asr

// tokenResponse is the short-lived streaming token handshake response
// (spec.md §4.1, §6: "response `{token}`").
type tokenResponse struct {
	Token string `json:"token"`
}

// startFrame is the first outbound control frame (spec.md §4.1, §6).
type startFrame struct {
	Type             string   `json:"type"`
	SampleRate       int      `json:"sample_rate"`
	Channels         int      `json:"channels"`
	SingleUtterance  bool     `json:"single_utterance"`
	VAD              vadWire  `json:"vad"`
	DetectThoughts   *bool    `json:"detect_thoughts,omitempty"`
	EndThoughtEager  string   `json:"end_thought_eagerness,omitempty"`
	ForceCompleteSec *float64 `json:"force_complete_time,omitempty"`
	Context          string   `json:"context,omitempty"`
}

// vadWire is the wire shape of the VAD configuration block (spec.md §4.1).
type vadWire struct {
	Threshold      float64 `json:"threshold"`
	MinSilenceMs   int     `json:"min_silence_ms"`
	SpeechPadMs    int     `json:"speech_pad_ms"`
	FinalSilenceS  float64 `json:"final_silence_s"`
	StartTriggerMs int     `json:"start_trigger_ms"`
	MinVoicedMs    int     `json:"min_voiced_ms"`
	MinChars       int     `json:"min_chars"`
	MinWords       int     `json:"min_words"`
	AmpExtend      int     `json:"amp_extend"`
	ForceDecodeMs  int     `json:"force_decode_ms"`
	Events         bool    `json:"events"`
	EventHz        int     `json:"event_hz"`
}

// eosFrame announces end-of-stream (spec.md §6: "Close is announced with
// `{type:"eos"}`").
type eosFrame struct {
	Type string `json:"type"`
}

// inboundEvent is the generic shape every JSON event from the recognizer is
// decoded into before being dispatched by Type (spec.md §4.1).
type inboundEvent struct {
	Type               string  `json:"type"`
	Text               string  `json:"text"`
	Debug              string  `json:"debug"`
	State              string  `json:"state"`
	Phase              string  `json:"phase"`
	Error              string  `json:"error"`
}
