package deploy

import (
	"testing"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

func TestParseState(t *testing.T) {
	raw := []byte(`{
  "deployment": "support",
  "resources": [
    {"kind": "agent_runtime", "name": "support_agent", "arn": "arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/support_agent-id", "metadata": {"runtime_id": "support_agent-id"}}
  ],
  "deployed_at": "2026-08-01T12:00:00Z"
}`)
	state, err := ParseState(raw)
	if err != nil {
		t.Fatalf("ParseState: %v", err)
	}
	if state.Deployment != "support" || len(state.Resources) != 1 {
		t.Fatalf("state = %+v", state)
	}
	res := state.Resources[0]
	if res.Kind != agentruntime.KindAgentRuntime {
		t.Errorf("Kind = %q", res.Kind)
	}
	if res.Metadata["runtime_id"] != "support_agent-id" {
		t.Errorf("Metadata = %+v", res.Metadata)
	}
}

func TestParseStateEmpty(t *testing.T) {
	state, err := ParseState(nil)
	if err != nil {
		t.Fatalf("ParseState(nil): %v", err)
	}
	if len(state.Resources) != 0 {
		t.Errorf("empty input produced resources: %+v", state.Resources)
	}
}

func TestParseStateMalformed(t *testing.T) {
	if _, err := ParseState([]byte(`{"resources": "nope"}`)); err == nil {
		t.Error("ParseState accepted malformed JSON")
	}
}
