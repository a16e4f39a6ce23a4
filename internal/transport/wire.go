package transport

// Inbound (client -> server) message shapes (spec.md §6).

type inboundEnvelope struct {
	Type string `json:"type"`
}

type startMessage struct {
	Type    string `json:"type"`
	Persona string `json:"persona"`
}

// Outbound (server -> client) message shapes (spec.md §6).

type statusEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type asrFinalEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type llmTokenEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type segmentDoneEvent struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
}

type audioStartEvent struct {
	Type string `json:"type"`
}

type turnDoneEvent struct {
	Type string `json:"type"`
}

type hangupEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

type doneEvent struct {
	Type string `json:"type"`
}
