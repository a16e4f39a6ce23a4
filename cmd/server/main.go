// Command server runs the voice agent mediator: it accepts WebSocket
// connections, opens an ASR leg, streams LLM replies, and synthesizes TTS
// audio back to the browser (spec.md §2). It replaces the teacher's
// cmd/agent, which drove a local microphone/speaker loop instead of a
// network transport.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lokutor-ai/hypercheap-voice-agent/internal/asr"
	"github.com/lokutor-ai/hypercheap-voice-agent/internal/config"
	"github.com/lokutor-ai/hypercheap-voice-agent/internal/llm"
	"github.com/lokutor-ai/hypercheap-voice-agent/internal/logging"
	"github.com/lokutor-ai/hypercheap-voice-agent/internal/metrics"
	"github.com/lokutor-ai/hypercheap-voice-agent/internal/transport"
	"github.com/lokutor-ai/hypercheap-voice-agent/internal/tts"
	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/orchestrator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)

	sessCfg := orchestrator.DefaultSessionConfig()
	sessCfg.ASRSampleRate = cfg.ASRSampleRate
	sessCfg.ASRChannels = cfg.ASRChannels

	factory := transport.Factory{
		NewASR: func() orchestrator.ASRClient {
			return asr.New(cfg.ASRAPIKey, cfg.ASRTokenURL, cfg.ASRWSURL, logger)
		},
		NewLLM: func() orchestrator.LLMClient {
			return llm.New(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, logger)
		},
		NewTTS: func() orchestrator.TTSClient {
			return tts.New(cfg.TTSURL, cfg.TTSAPIKeyBasicB64, cfg.TTSModelID, cfg.TTSVoiceID, cfg.TTSSampleRate, logger)
		},
	}

	handler := transport.New(factory, llm.DefaultPersonaRegistry(), sessCfg, logger, collector)

	mux := http.NewServeMux()
	mux.Handle("/ws/agent", handler)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down", "signal", "received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown error", "err", err)
	}
}
