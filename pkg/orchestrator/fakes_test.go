package orchestrator

import (
	"context"
	"sync"
	"time"
)

// fakeASRClient is a controllable ASRClient double: Open captures the
// handlers so a test can drive OnFinal/OnVAD directly, and records sent PCM.
type fakeASRClient struct {
	mu       sync.Mutex
	handlers ASRHandlers
	opened   bool
	sentPCM  [][]byte
	closed   bool
	openErr  error
}

func (f *fakeASRClient) Open(ctx context.Context, opts ASROpenOptions, handlers ASRHandlers) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.mu.Lock()
	f.handlers = handlers
	f.opened = true
	f.mu.Unlock()
	return nil
}

func (f *fakeASRClient) SendPCM(ctx context.Context, pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentPCM = append(f.sentPCM, pcm)
	return nil
}

func (f *fakeASRClient) Close(ctx context.Context) error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeASRClient) fireFinal(text string) {
	f.mu.Lock()
	h := f.handlers
	f.mu.Unlock()
	if h.OnFinal != nil {
		h.OnFinal(text)
	}
}

func (f *fakeASRClient) fireVAD(evt VADEvent) {
	f.mu.Lock()
	h := f.handlers
	f.mu.Unlock()
	if h.OnVAD != nil {
		h.OnVAD(evt)
	}
}

// fakeLLMClient streams a fixed reply, one token at a time, honoring ctx
// cancellation between tokens so barge-in tests can interrupt mid-stream.
type fakeLLMClient struct {
	tokens []string
	delay  func() // optional hook invoked between tokens, e.g. to block until cancelled

	mu        sync.Mutex
	cancelled bool
}

func (f *fakeLLMClient) StreamReply(ctx context.Context, req LLMRequest, onToken func(string)) error {
	for _, tok := range f.tokens {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		onToken(tok)
		if f.delay != nil {
			f.delay()
		}
	}
	return nil
}

func (f *fakeLLMClient) Cancel() {
	f.mu.Lock()
	f.cancelled = true
	f.mu.Unlock()
}

// fakeTTSClient records every synthesized segment and emits one fixed PCM
// chunk per call.
type fakeTTSClient struct {
	mu        sync.Mutex
	synthed   []string
	aborted   bool
	chunkData []byte
}

func (f *fakeTTSClient) Synthesize(ctx context.Context, text string, onChunk func([]byte)) error {
	f.mu.Lock()
	f.synthed = append(f.synthed, text)
	f.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	data := f.chunkData
	if data == nil {
		data = []byte{1, 2, 3}
	}
	onChunk(data)
	return nil
}

func (f *fakeTTSClient) Abort() {
	f.mu.Lock()
	f.aborted = true
	f.mu.Unlock()
}

func (f *fakeTTSClient) Close() error { return nil }

// recordingEvents captures every SessionEvents callback in order, guarded by
// a mutex since the segmenter and TTS-consumer goroutines call concurrently.
type recordingEvents struct {
	mu          sync.Mutex
	statuses    []string
	asrFinals   []string
	llmTokens   []string
	audioStarts int
	audioChunks [][]byte
	segmentsDone []bool
	turnsDone   int
	vadEvents   []VADEvent
	hangups     []string
}

func (r *recordingEvents) OnStatus(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, message)
}

func (r *recordingEvents) OnASRFinal(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asrFinals = append(r.asrFinals, text)
}

func (r *recordingEvents) OnLLMToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmTokens = append(r.llmTokens, token)
}

func (r *recordingEvents) OnAudioStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audioStarts++
}

func (r *recordingEvents) OnAudioChunk(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audioChunks = append(r.audioChunks, pcm)
}

func (r *recordingEvents) OnSegmentDone(isFinal bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segmentsDone = append(r.segmentsDone, isFinal)
}

func (r *recordingEvents) OnTurnDone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turnsDone++
}

func (r *recordingEvents) OnVAD(evt VADEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vadEvents = append(r.vadEvents, evt)
}

func (r *recordingEvents) OnHangup(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hangups = append(r.hangups, reason)
}

func (r *recordingEvents) turnsDoneCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turnsDone
}

func (r *recordingEvents) asrFinalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.asrFinals)
}

// recordingMetrics captures every Metrics call, guarded by a mutex for the
// same reason as recordingEvents.
type recordingMetrics struct {
	mu             sync.Mutex
	turnsStarted   int
	turnsCancelled int
	turnsCompleted int
	bargeIns       int
	asrLatencies   []time.Duration
	llmFirstTokens []time.Duration
	ttsFirstChunks []time.Duration
}

func (m *recordingMetrics) TurnStarted()   { m.mu.Lock(); m.turnsStarted++; m.mu.Unlock() }
func (m *recordingMetrics) TurnCancelled() { m.mu.Lock(); m.turnsCancelled++; m.mu.Unlock() }
func (m *recordingMetrics) TurnCompleted() { m.mu.Lock(); m.turnsCompleted++; m.mu.Unlock() }
func (m *recordingMetrics) BargeIn()       { m.mu.Lock(); m.bargeIns++; m.mu.Unlock() }

func (m *recordingMetrics) ObserveASRLatency(d time.Duration) {
	m.mu.Lock()
	m.asrLatencies = append(m.asrLatencies, d)
	m.mu.Unlock()
}

func (m *recordingMetrics) ObserveLLMFirstToken(d time.Duration) {
	m.mu.Lock()
	m.llmFirstTokens = append(m.llmFirstTokens, d)
	m.mu.Unlock()
}

func (m *recordingMetrics) ObserveTTSFirstChunk(d time.Duration) {
	m.mu.Lock()
	m.ttsFirstChunks = append(m.ttsFirstChunks, d)
	m.mu.Unlock()
}

func (m *recordingMetrics) asrLatencyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.asrLatencies)
}

func (m *recordingMetrics) llmFirstTokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.llmFirstTokens)
}

func (m *recordingMetrics) ttsFirstChunkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ttsFirstChunks)
}
