package orchestrator

import (
	"context"
	"testing"
	"time"
)

func newTestSession(llm *fakeLLMClient, tts *fakeTTSClient, events *recordingEvents) *Session {
	s := NewSession(&fakeASRClient{}, llm, tts, Persona{ID: "A", SystemPrompt: "be terse"}, DefaultSessionConfig(), nil, nil)
	s.events = events
	return s
}

func TestRunTurnEmitsTokensSegmentsAndCompletes(t *testing.T) {
	llm := &fakeLLMClient{tokens: []string{"hello", " there."}}
	tts := &fakeTTSClient{}
	events := &recordingEvents{}
	s := newTestSession(llm, tts, events)

	s.runTurn(context.Background(), "hi")

	events.mu.Lock()
	defer events.mu.Unlock()
	if len(events.llmTokens) != 2 {
		t.Errorf("expected 2 tokens emitted, got %v", events.llmTokens)
	}
	if len(events.segmentsDone) == 0 {
		t.Fatal("expected at least one segment_done event")
	}
	if !events.segmentsDone[len(events.segmentsDone)-1] && len(tts.synthed) == 0 {
		t.Error("expected the buffered segment to reach TTS")
	}
	if events.turnsDone != 1 {
		t.Errorf("expected exactly one turn_done, got %d", events.turnsDone)
	}
	if events.audioStarts != 1 {
		t.Errorf("expected exactly one audio_start per segment with audio, got %d", events.audioStarts)
	}
	if s.hist.len() != 1 {
		t.Errorf("expected the assistant reply appended to history, got %d messages", s.hist.len())
	}
}

func TestRunTurnMarksFinalSegmentOnHangup(t *testing.T) {
	llm := &fakeLLMClient{tokens: []string{"goodbye", HangupMarker}}
	tts := &fakeTTSClient{}
	events := &recordingEvents{}
	s := newTestSession(llm, tts, events)

	s.runTurn(context.Background(), "bye")

	events.mu.Lock()
	defer events.mu.Unlock()
	if len(events.hangups) != 1 {
		t.Fatalf("expected exactly one hangup event, got %d", len(events.hangups))
	}
	if len(events.segmentsDone) == 0 || !events.segmentsDone[len(events.segmentsDone)-1] {
		t.Errorf("expected the last segment to be marked final, got %v", events.segmentsDone)
	}
	for _, text := range tts.synthed {
		if text == HangupMarker {
			t.Errorf("expected the hangup marker stripped before synthesis, got segment %q", text)
		}
	}
}

func TestRunTurnObservesFirstTokenAndFirstChunkLatencies(t *testing.T) {
	llm := &fakeLLMClient{tokens: []string{"hello", " there."}}
	tts := &fakeTTSClient{}
	events := &recordingEvents{}
	metrics := &recordingMetrics{}
	s := newTestSession(llm, tts, events)
	s.metrics = metrics

	s.runTurn(context.Background(), "hi")

	if got := metrics.llmFirstTokenCount(); got != 1 {
		t.Errorf("expected exactly one LLM first-token observation, got %d", got)
	}
	if got := metrics.ttsFirstChunkCount(); got != 1 {
		t.Errorf("expected exactly one TTS first-chunk observation, got %d", got)
	}
}

func TestRunTurnCancelledMidStreamAppendsNoAssistantEntry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	blocked := make(chan struct{})
	llm := &fakeLLMClient{
		tokens: []string{"partial"},
		delay: func() {
			cancel()
			close(blocked)
			time.Sleep(20 * time.Millisecond)
		},
	}
	tts := &fakeTTSClient{}
	events := &recordingEvents{}
	s := newTestSession(llm, tts, events)

	s.runTurn(ctx, "hi")

	<-blocked
	if s.hist.len() != 0 {
		t.Errorf("expected no assistant entry appended on cancellation, got %d messages", s.hist.len())
	}
	events.mu.Lock()
	defer events.mu.Unlock()
	if events.turnsDone != 0 {
		t.Errorf("expected no turn_done on cancellation, got %d", events.turnsDone)
	}
	if s.Metrics().TurnsCancelled != 1 {
		t.Errorf("expected TurnsCancelled == 1, got %d", s.Metrics().TurnsCancelled)
	}
}
