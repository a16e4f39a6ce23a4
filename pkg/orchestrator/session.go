// Package orchestrator implements the session engine: the per-connection
// concurrent pipeline that couples an ASR client, an LLM client, and a TTS
// client into one low-latency, cancellable turn-taking loop.
package orchestrator

import (
	"context"
	"sync"
	"time"
)

// state is the Session's lifecycle state machine (spec.md §4.4).
type state int32

const (
	stateCreated state = iota
	stateOpening
	stateReady
	stateClosing
	stateClosed
)

// Timeouts per spec.md §5.
const (
	asrOpenConnectTimeout  = 15 * time.Second
	asrOpenReadyTimeout    = 10 * time.Second
	asrCloseWait           = 1500 * time.Millisecond
	stopPumpDrainTimeout   = 2 * time.Second
	stopTurnCancelTimeout  = 5 * time.Second
	bargeInCancelWait      = 500 * time.Millisecond
	hangupWatchdogTimeout  = 6 * time.Second
)

// Session owns one conversation's ASR/LLM/TTS clients, history, queues, and
// tasks (spec.md §3 "Session"). The Transport Adapter holds only a weak
// relation to it: it invokes Session and implements SessionEvents.
type Session struct {
	asr     ASRClient
	llm     LLMClient
	tts     TTSClient
	persona Persona
	cfg     SessionConfig
	logger  Logger
	metrics Metrics
	events  SessionEvents

	hist *history

	ctx    context.Context
	cancel context.CancelFunc

	inQ      chan []byte
	pumpDone chan struct{}

	stateMu sync.RWMutex
	st      state

	turnMu     sync.Mutex
	turnCancel context.CancelFunc
	turnDone   chan struct{}

	bargeMu sync.Mutex // dedicated, non-reentrant (spec.md §5)

	lastFinalMu   sync.Mutex
	lastFinal     string
	lastFinalAtMs float64

	// speechStartMu guards speechStartAt, the timestamp of the most recent
	// speech-onset VAD event: the reference point ObserveASRLatency measures
	// the final transcript's arrival against (mirrors the teacher's
	// ManagedStream sttStartTime).
	speechStartMu sync.Mutex
	speechStartAt time.Time

	turnsStarted, turnsCancelled, turnsCompleted int
	turnCountMu                                  sync.Mutex

	closeOnce sync.Once
}

// NewSession constructs a Session. logger and metrics may be nil, in which
// case NoOpLogger/NoOpMetrics are used.
func NewSession(asr ASRClient, llm LLMClient, tts TTSClient, persona Persona, cfg SessionConfig, logger Logger, metrics Metrics) *Session {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	if metrics == nil {
		metrics = NoOpMetrics{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		asr:      asr,
		llm:      llm,
		tts:      tts,
		persona:  persona,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		events:   noopEvents{},
		hist:     newHistory(),
		ctx:      ctx,
		cancel:   cancel,
		inQ:      make(chan []byte, InputQueueDepth),
		pumpDone: make(chan struct{}),
		st:       stateCreated,
	}
}

func (s *Session) setState(st state) {
	s.stateMu.Lock()
	s.st = st
	s.stateMu.Unlock()
}

func (s *Session) getState() state {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.st
}

// Start spawns the PCM pump and opens the ASR leg with internal VAD/final
// handlers (spec.md §4.4 "start(callbacks)").
func (s *Session) Start(ctx context.Context, events SessionEvents) error {
	if events != nil {
		s.events = events
	}
	s.setState(stateOpening)
	s.events.OnStatus("initializing")

	go s.pumpPCM()

	openCtx, cancel := context.WithTimeout(ctx, asrOpenConnectTimeout+asrOpenReadyTimeout)
	defer cancel()

	opts := ASROpenOptions{
		SampleRate: s.cfg.ASRSampleRate,
		Channels:   s.cfg.ASRChannels,
		VAD:        s.cfg.VAD,
		Thought:    s.cfg.Thought,
	}
	handlers := ASRHandlers{
		OnFinal: s.onFinal,
		OnVAD:   s.onVAD,
	}
	if err := s.asr.Open(openCtx, opts, handlers); err != nil {
		s.setState(stateClosed)
		return err
	}

	s.setState(stateReady)
	s.events.OnStatus("ready")
	return nil
}

// pumpPCM dequeues frames and forwards them via ASR.SendPCM. A nil sentinel
// terminates it (spec.md §4.4 "PCM pump").
func (s *Session) pumpPCM() {
	defer close(s.pumpDone)
	for {
		select {
		case <-s.ctx.Done():
			return
		case chunk, ok := <-s.inQ:
			if !ok || chunk == nil {
				return
			}
			if err := s.asr.SendPCM(s.ctx, chunk); err != nil {
				s.logger.Warn("send_pcm failed", "err", err)
			}
		}
	}
}

// PushAudio enqueues a PCM frame without blocking, dropping the oldest frame
// on overflow (spec.md §4.4 "feed_pcm(bytes)", §3 invariant 4). Frames fed
// before the ASR leg signals readiness are silently dropped (invariant 5).
func (s *Session) PushAudio(pcm []byte) {
	if s.getState() != stateReady {
		return
	}
	pushDropOldest(s.inQ, pcm)
}

// pushDropOldest sends v on ch, dropping the oldest queued value to make
// room when ch is full (spec.md §3 invariant 4).
func pushDropOldest(ch chan []byte, v []byte) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// onFinal handles one ASR final transcript (spec.md §4.4 "Final-transcript
// handling").
func (s *Session) onFinal(text string) {
	now := float64(time.Now().UnixNano()) / 1e6

	s.lastFinalMu.Lock()
	if text == s.lastFinal && (now-s.lastFinalAtMs) < DebounceWindowMillis {
		s.lastFinalAtMs = now
		s.lastFinalMu.Unlock()
		return
	}
	s.lastFinalAtMs = now
	s.lastFinal = text
	s.lastFinalMu.Unlock()

	s.speechStartMu.Lock()
	start := s.speechStartAt
	s.speechStartAt = time.Time{}
	s.speechStartMu.Unlock()
	if !start.IsZero() {
		s.metrics.ObserveASRLatency(time.Since(start))
	}

	s.hist.appendUserFinal(text)
	s.events.OnASRFinal(text)
	s.startTurn(text)
}

// onVAD handles one VAD event: mirror it to the transport, record
// speech-onset for ASR-latency measurement, and trigger barge-in on speech
// onset (spec.md §4.4 "Barge-in arbiter").
func (s *Session) onVAD(evt VADEvent) {
	s.events.OnVAD(evt)
	if evt.Kind == VADKindState && evt.State == "speech" {
		s.speechStartMu.Lock()
		s.speechStartAt = time.Now()
		s.speechStartMu.Unlock()
	}
	if evt.IsBargeInTrigger() {
		go s.BargeIn()
	}
}

// startTurn cancels any live turn and spawns a new one (spec.md §3
// invariant 3, §4.4 step 5-6).
func (s *Session) startTurn(userText string) {
	s.turnMu.Lock()
	if s.turnCancel != nil {
		s.turnCancel()
	}
	turnCtx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	s.turnCancel = cancel
	s.turnDone = done
	s.turnMu.Unlock()

	s.incTurnsStarted()
	s.metrics.TurnStarted()

	go func() {
		defer close(done)
		s.runTurn(turnCtx, userText)
	}()
}

// BargeIn is the barge-in arbiter: a mutex prevents concurrent barge-ins
// (spec.md §4.4 "Barge-in arbiter", §8 "Concurrent barge_in() calls yield
// at most one effective interruption").
func (s *Session) BargeIn() {
	if !s.bargeMu.TryLock() {
		return
	}
	defer s.bargeMu.Unlock()

	s.turnMu.Lock()
	cancel := s.turnCancel
	done := s.turnDone
	s.turnMu.Unlock()

	if cancel == nil {
		return // no turn has ever started: nothing to interrupt
	}
	if done != nil {
		select {
		case <-done:
			return // that turn already finished: a stray VAD onset, not a real interruption
		default:
		}
	}

	s.lastFinalMu.Lock()
	lastFinal := s.lastFinal
	s.lastFinalMu.Unlock()
	s.hist.ensureLastFinal(lastFinal)

	cancel()
	if done != nil {
		select {
		case <-done:
		case <-time.After(bargeInCancelWait):
		}
	}

	s.tts.Abort()
	s.llm.Cancel()
	s.metrics.BargeIn()
}

// Stop signals end-of-input, drains the pump, and cancels any live turn
// (spec.md §4.4 "stop()").
func (s *Session) Stop() {
	s.setState(stateClosing)

	pushDropOldest(s.inQ, nil)

	select {
	case <-s.pumpDone:
	case <-time.After(stopPumpDrainTimeout):
	}

	s.turnMu.Lock()
	cancel := s.turnCancel
	done := s.turnDone
	s.turnMu.Unlock()
	if cancel != nil {
		cancel()
		if done != nil {
			select {
			case <-done:
			case <-time.After(stopTurnCancelTimeout):
			}
		}
	}

	s.setState(stateClosed)
}

// Close stops the session, then closes the ASR and TTS clients
// (spec.md §4.4 "close()").
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.Stop()
		s.cancel()

		closeCtx, cancel := context.WithTimeout(context.Background(), asrCloseWait)
		defer cancel()
		if err := s.asr.Close(closeCtx); err != nil {
			s.logger.Warn("asr close failed", "err", err)
		}
		if err := s.tts.Close(); err != nil {
			s.logger.Warn("tts close failed", "err", err)
		}
	})
}

// History returns a copy of the current conversation history.
func (s *Session) History() []Message {
	return s.hist.snapshot()
}

func (s *Session) incTurnsStarted() {
	s.turnCountMu.Lock()
	s.turnsStarted++
	s.turnCountMu.Unlock()
}

func (s *Session) incTurnsCancelled() {
	s.turnCountMu.Lock()
	s.turnsCancelled++
	s.turnCountMu.Unlock()
}

func (s *Session) incTurnsCompleted() {
	s.turnCountMu.Lock()
	s.turnsCompleted++
	s.turnCountMu.Unlock()
}

// Metrics returns a point-in-time snapshot (spec_full.md §3 supplement).
func (s *Session) Metrics() SessionMetrics {
	s.turnCountMu.Lock()
	started, cancelled, completed := s.turnsStarted, s.turnsCancelled, s.turnsCompleted
	s.turnCountMu.Unlock()
	return SessionMetrics{
		HistoryLength:  s.hist.len(),
		QueueDepth:     len(s.inQ),
		TurnsStarted:   started,
		TurnsCancelled: cancelled,
		TurnsCompleted: completed,
	}
}
