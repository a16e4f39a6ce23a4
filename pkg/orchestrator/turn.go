package orchestrator

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
)

// punctRegex flushes a segment on terminal punctuation or newline
// (spec.md §4.4 "Segmenter").
var punctRegex = regexp.MustCompile(`[.!?…]+|\n`)

// segment is one unit handed from the segmenter to the TTS consumer.
// final is true only for the turn's last segment when the reply ends in a
// hangup marker (spec.md §6: "segment_done{is_final} — is_final marks the
// last segment of a turn ending in hangup").
type segment struct {
	text  string
	final bool
}

// runTurn executes one user-final → assistant-reply cycle: a segmenter and
// a TTS consumer sharing a segment queue (spec.md §4.4 "Turn task").
// On normal completion a non-empty reply is appended to history and
// OnTurnDone fires; a cancelled turn appends nothing.
func (s *Session) runTurn(ctx context.Context, userText string) {
	history := s.hist.snapshotForTurn(userText)
	turnStart := time.Now()

	segQ := make(chan segment)
	var replyBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)

	hangupDetected := false
	var hangupMu sync.Mutex
	var firstTokenOnce, firstChunkOnce sync.Once

	go func() {
		defer wg.Done()
		defer close(segQ)

		var buf strings.Builder
		var pending *string

		flush := func() {
			text := strings.TrimSpace(buf.String())
			buf.Reset()
			if text == "" && pending == nil {
				return
			}
			if pending != nil {
				segQ <- segment{text: *pending, final: false}
			}
			if text == "" {
				pending = nil
				return
			}
			p := text
			pending = &p
		}

		onToken := func(tok string) {
			if tok == "" {
				return
			}
			firstTokenOnce.Do(func() {
				s.metrics.ObserveLLMFirstToken(time.Since(turnStart))
			})
			replyBuf.WriteString(tok)
			s.events.OnLLMToken(tok)
			buf.WriteString(tok)
			if buf.Len() >= SegmentCharBudget || punctRegex.MatchString(buf.String()) {
				flush()
			}
		}

		req := LLMRequest{Persona: s.persona, History: history, UserText: userText}
		if err := s.llm.StreamReply(ctx, req, onToken); err != nil {
			s.logger.Warn("llm stream failed", "err", err)
		}

		// Push any leftover unflushed tail into pending. If buf is already
		// empty (the stream ended right on a punctuation/budget flush),
		// flush() must NOT be called here: it would discharge the existing
		// pending segment as non-final with nothing to replace it, losing
		// the lookahead that lets the block below mark the true last
		// segment final.
		if strings.TrimSpace(buf.String()) != "" {
			flush()
		}

		if pending != nil {
			text := *pending
			if strings.Contains(text, HangupMarker) {
				text = strings.TrimSpace(strings.ReplaceAll(text, HangupMarker, ""))
				hangupMu.Lock()
				hangupDetected = true
				hangupMu.Unlock()
			}
			final := false
			hangupMu.Lock()
			final = hangupDetected
			hangupMu.Unlock()
			segQ <- segment{text: text, final: final}
		}
	}()

	go func() {
		defer wg.Done()
		for seg := range segQ {
			if ctx.Err() != nil {
				continue
			}
			gotAudio := false
			onChunk := func(pcm []byte) {
				if !gotAudio {
					gotAudio = true
					s.events.OnAudioStart()
				}
				firstChunkOnce.Do(func() {
					s.metrics.ObserveTTSFirstChunk(time.Since(turnStart))
				})
				s.events.OnAudioChunk(pcm)
			}
			if err := s.tts.Synthesize(ctx, seg.text, onChunk); err != nil {
				s.logger.Warn("tts synthesis failed", "err", err)
			}
			s.events.OnSegmentDone(seg.final)
			if seg.final {
				hangupMu.Lock()
				isHangup := hangupDetected
				hangupMu.Unlock()
				if isHangup {
					s.events.OnHangup("")
				}
			}
		}
	}()

	wg.Wait()

	if ctx.Err() != nil {
		// Cancelled: no assistant entry appended (spec.md §3 invariant 2,
		// §9 Design Notes (b)).
		s.metrics.TurnCancelled()
		s.incTurnsCancelled()
		return
	}

	reply := strings.TrimSpace(replyBuf.String())
	if reply != "" {
		s.hist.appendAssistant(reply)
	}
	s.events.OnTurnDone()
	s.metrics.TurnCompleted()
	s.incTurnsCompleted()
}
