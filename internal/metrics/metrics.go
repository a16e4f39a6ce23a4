// Package metrics backs orchestrator.Metrics with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/orchestrator"
)

// Collector implements orchestrator.Metrics, registering its collectors on
// the given registerer.
type Collector struct {
	turnsStarted   prometheus.Counter
	turnsCancelled prometheus.Counter
	turnsCompleted prometheus.Counter
	bargeIns       prometheus.Counter
	asrLatency     prometheus.Histogram
	llmFirstToken  prometheus.Histogram
	ttsFirstChunk  prometheus.Histogram
}

// New creates a Collector and registers its collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		turnsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voice_agent_turns_started_total",
			Help: "Number of turns started.",
		}),
		turnsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voice_agent_turns_cancelled_total",
			Help: "Number of turns cancelled by barge-in or stop.",
		}),
		turnsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voice_agent_turns_completed_total",
			Help: "Number of turns completed normally.",
		}),
		bargeIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voice_agent_barge_ins_total",
			Help: "Number of effective barge-in interruptions.",
		}),
		asrLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_agent_asr_final_latency_seconds",
			Help:    "Latency from audio to an ASR final transcript.",
			Buckets: prometheus.DefBuckets,
		}),
		llmFirstToken: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_agent_llm_first_token_latency_seconds",
			Help:    "Latency from turn start to the first LLM token.",
			Buckets: prometheus.DefBuckets,
		}),
		ttsFirstChunk: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_agent_tts_first_chunk_latency_seconds",
			Help:    "Latency from turn start to the turn's first TTS PCM chunk.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		c.turnsStarted, c.turnsCancelled, c.turnsCompleted, c.bargeIns,
		c.asrLatency, c.llmFirstToken, c.ttsFirstChunk,
	)
	return c
}

var _ orchestrator.Metrics = (*Collector)(nil)

func (c *Collector) TurnStarted()   { c.turnsStarted.Inc() }
func (c *Collector) TurnCancelled() { c.turnsCancelled.Inc() }
func (c *Collector) TurnCompleted() { c.turnsCompleted.Inc() }
func (c *Collector) BargeIn()       { c.bargeIns.Inc() }

func (c *Collector) ObserveASRLatency(d time.Duration)    { c.asrLatency.Observe(d.Seconds()) }
func (c *Collector) ObserveLLMFirstToken(d time.Duration) { c.llmFirstToken.Observe(d.Seconds()) }
func (c *Collector) ObserveTTSFirstChunk(d time.Duration) { c.ttsFirstChunk.Observe(d.Seconds()) }
