package llm

import (
	"strings"
	"testing"

	"github.com/lokutor-ai/hypercheap-voice-agent/pkg/orchestrator"
)

func TestDefaultPersonaRegistryCarriesHangupMarker(t *testing.T) {
	registry := DefaultPersonaRegistry()

	for _, id := range []string{"A", "B"} {
		persona, ok := registry.Get(id)
		if !ok {
			t.Fatalf("expected persona %q to be registered", id)
		}
		if !strings.Contains(persona.SystemPrompt, orchestrator.HangupMarker) {
			t.Errorf("persona %q prompt does not mention the hangup marker %q", id, orchestrator.HangupMarker)
		}
	}
}
