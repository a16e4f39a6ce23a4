// Package config loads the environment/.env configuration named in
// spec.md §6 "CLI / environment" (field set resolved against
// original_source/voice_backend/app/config.py).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config bundles every credential and tunable the three upstream clients
// and the transport server need.
type Config struct {
	ListenAddr string

	ASRAPIKey    string
	ASRSampleRate int
	ASRChannels   int
	ASRTokenURL   string
	ASRWSURL      string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	TTSAPIKeyBasicB64 string
	TTSModelID        string
	TTSVoiceID        string
	TTSSampleRate     int
	TTSURL            string

	LogLevel string
}

// Load reads .env (if present) then the process environment, applying the
// same defaults as the original implementation's pydantic Settings.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		ASRAPIKey:     os.Getenv("FENNEC_API_KEY"),
		ASRSampleRate: getEnvInt("FENNEC_SAMPLE_RATE", 16000),
		ASRChannels:   getEnvInt("FENNEC_CHANNELS", 1),
		ASRTokenURL:   getEnv("FENNEC_TOKEN_URL", "https://api.fennec.ai/v1/token"),
		ASRWSURL:      getEnv("FENNEC_WS_URL", "wss://api.fennec.ai/v1/stream"),

		LLMAPIKey:  os.Getenv("BASETEN_API_KEY"),
		LLMBaseURL: getEnv("BASETEN_BASE_URL", "https://inference.baseten.co/v1"),
		LLMModel:   getEnv("BASETEN_MODEL", "meta-llama/Llama-4-Scout-17B-16E-Instruct"),

		TTSAPIKeyBasicB64: os.Getenv("INWORLD_API_KEY"),
		TTSModelID:        getEnv("INWORLD_MODEL_ID", "inworld-tts-1"),
		TTSVoiceID:        getEnv("INWORLD_VOICE_ID", "Olivia"),
		TTSSampleRate:     getEnvInt("INWORLD_SAMPLE_RATE", 48000),
		TTSURL:            getEnv("INWORLD_TTS_URL", "https://api.inworld.ai/tts/v1/voice:stream"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.ASRAPIKey == "" {
		return Config{}, fmt.Errorf("FENNEC_API_KEY is required")
	}
	if cfg.LLMAPIKey == "" {
		return Config{}, fmt.Errorf("BASETEN_API_KEY is required")
	}
	if cfg.TTSAPIKeyBasicB64 == "" {
		return Config{}, fmt.Errorf("INWORLD_API_KEY is required")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
