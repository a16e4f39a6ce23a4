package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/audio"
	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/orchestrator"
)

func TestClientSynthesizeStripsWavHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	wav := audio.NewWavBuffer(pcm, 48000)
	b64 := base64.StdEncoding.EncodeToString(wav)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Basic dGVzdA==" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, "{\"result\":{\"audioContent\":%q}}\n", b64)
		fmt.Fprintf(w, "not json, should be skipped\n")
	}))
	defer server.Close()

	c := New(server.URL, "dGVzdA==", "inworld-tts-1", "Olivia", 48000, &orchestrator.NoOpLogger{})

	var got []byte
	err := c.Synthesize(context.Background(), "hello", func(chunk []byte) { got = append(got, chunk...) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(pcm) {
		t.Errorf("expected pcm %v, got %v", pcm, got)
	}
}

func TestClientSynthesizeEmptyTextIsNoop(t *testing.T) {
	c := New("http://unused", "dGVzdA==", "m", "v", 48000, &orchestrator.NoOpLogger{})
	called := false
	err := c.Synthesize(context.Background(), "   ", func([]byte) { called = true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Errorf("expected no chunks for empty text")
	}
}

func TestClientAbortWithoutActiveSynthesisIsSafe(t *testing.T) {
	c := New("http://unused", "dGVzdA==", "m", "v", 48000, &orchestrator.NoOpLogger{})
	c.Abort()
	if err := c.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
