package tts

// audioConfig is the nested audio encoding block (spec.md §4.3, resolved
// against original_source/voice_backend/app/agent/inworld_tts.py's exact
// field name `audio_encoding`).
type audioConfig struct {
	AudioEncoding   string `json:"audio_encoding"`
	SampleRateHertz int    `json:"sample_rate_hertz"`
}

// synthesizeRequest is the outbound payload (spec.md §4.3).
type synthesizeRequest struct {
	Text        string      `json:"text"`
	VoiceID     string      `json:"voiceId"`
	ModelID     string      `json:"modelId"`
	Temperature float64     `json:"temperature"`
	AudioConfig audioConfig `json:"audio_config"`
}

// synthesizeLine is one line of the newline-delimited JSON response body
// (spec.md §4.3: "each line may carry `result.audioContent` (base64)").
type synthesizeLine struct {
	Result struct {
		AudioContent string `json:"audioContent"`
	} `json:"result"`
}
