package asr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/orchestrator"
)

func TestClientOpenSendAndClose(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("expected X-API-Key header")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse{Token: "abc123"})
	}))
	defer tokenServer.Close()

	var gotFrame startFrame
	var gotPCM []byte
	pcmReceived := make(chan struct{})

	wsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("streaming_token") != "abc123" {
			t.Errorf("expected streaming_token query param")
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "closing")

		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		_ = json.Unmarshal(data, &gotFrame)

		_ = conn.Write(r.Context(), websocket.MessageText, []byte(`{"type":"ready"}`))

		typ, pcm, err := conn.Read(r.Context())
		if err == nil && typ == websocket.MessageBinary {
			gotPCM = pcm
			close(pcmReceived)
		}

		_ = conn.Write(r.Context(), websocket.MessageText, []byte(`{"type":"final_transcript","text":"hello there"}`))

		for {
			_, _, err := conn.Read(r.Context())
			if err != nil {
				return
			}
		}
	}))
	defer wsServer.Close()

	wsURL := "ws" + strings.TrimPrefix(wsServer.URL, "http")
	client := New("test-key", tokenServer.URL, wsURL, &orchestrator.NoOpLogger{})

	var finals []string
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Open(ctx, orchestrator.ASROpenOptions{
		SampleRate: 16000,
		Channels:   1,
		VAD:        orchestrator.DefaultVADConfig(),
	}, orchestrator.ASRHandlers{
		OnFinal: func(text string) { finals = append(finals, text) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotFrame.Type != "start" || gotFrame.SampleRate != 16000 {
		t.Errorf("unexpected start frame: %+v", gotFrame)
	}

	if err := client.SendPCM(ctx, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("unexpected SendPCM error: %v", err)
	}

	select {
	case <-pcmReceived:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for PCM")
	}
	if string(gotPCM) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("unexpected PCM payload: %v", gotPCM)
	}

	deadline := time.After(2 * time.Second)
	for len(finals) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for final transcript")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if finals[0] != "hello there" {
		t.Errorf("expected final 'hello there', got %q", finals[0])
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second)
	defer closeCancel()
	if err := client.Close(closeCtx); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestClientOpenFailsWithoutToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer tokenServer.Close()

	client := New("bad-key", tokenServer.URL, "ws://unused", &orchestrator.NoOpLogger{})

	err := client.Open(context.Background(), orchestrator.ASROpenOptions{}, orchestrator.ASRHandlers{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if orchestrator.KindOf(err) != orchestrator.KindAuthFailure {
		t.Errorf("expected KindAuthFailure, got %v", orchestrator.KindOf(err))
	}
}
