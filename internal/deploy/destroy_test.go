package deploy

import (
	"context"
	"testing"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

func deployedState(t *testing.T) *DeployState {
	t.Helper()
	client := newSimulatedClient()
	state, err := NewApplier(client, nil).Apply(context.Background(), "support", testGraph(t), nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return state
}

func TestDestroyReverseOrder(t *testing.T) {
	client := newSimulatedClient()
	state := deployedState(t)

	remaining, err := NewDestroyer(client, nil).Destroy(context.Background(), state)
	if err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if len(remaining.Resources) != 0 {
		t.Errorf("%d resources remain after destroy", len(remaining.Resources))
	}

	pos := make(map[string]int)
	for i, key := range client.deleted {
		pos[key] = i
	}
	if pos["runtime_endpoint/support_agent_endpoint"] > pos["agent_runtime/support_agent"] {
		t.Error("endpoint deleted after its runtime")
	}
	if pos["agent_runtime/support_agent"] > pos["role_policy/support_agent_policy"] {
		t.Error("runtime deleted after its role policy")
	}
	if pos["role_policy/support_agent_policy"] > pos["execution_role/support_agent_execution_role"] {
		t.Error("role policy deleted after its role")
	}
}

func TestDestroyHonorsRetain(t *testing.T) {
	client := newSimulatedClient()
	state := deployedState(t)
	for i := range state.Resources {
		if state.Resources[i].Kind == agentruntime.KindAgentRuntime {
			state.Resources[i].RemovalPolicy = agentruntime.RemovalPolicyRetain
		}
	}

	remaining, err := NewDestroyer(client, nil).Destroy(context.Background(), state)
	if err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if len(remaining.Resources) != 1 || remaining.Resources[0].Kind != agentruntime.KindAgentRuntime {
		t.Errorf("remaining = %+v, want only the retained runtime", remaining.Resources)
	}
	for _, key := range client.deleted {
		if key == "agent_runtime/support_agent" {
			t.Error("retained runtime was deleted")
		}
	}
}

func TestDestroyBestEffortOnFailure(t *testing.T) {
	client := newSimulatedClient()
	client.failOn = "agent_runtime/support_agent"
	state := deployedState(t)

	remaining, err := NewDestroyer(client, nil).Destroy(context.Background(), state)
	if err == nil {
		t.Fatal("Destroy did not report the failed deletion")
	}
	// The rest of the teardown still ran.
	deleted := make(map[string]bool)
	for _, key := range client.deleted {
		deleted[key] = true
	}
	if !deleted["execution_role/support_agent_execution_role"] {
		t.Error("teardown stopped at the failed resource")
	}
	if len(remaining.Resources) != 1 {
		t.Errorf("remaining = %+v, want only the failed runtime", remaining.Resources)
	}
}

func TestDestroyEmptyState(t *testing.T) {
	client := newSimulatedClient()
	if _, err := NewDestroyer(client, nil).Destroy(context.Background(), &DeployState{}); err != nil {
		t.Fatalf("Destroy of empty state: %v", err)
	}
	if len(client.deleted) != 0 {
		t.Error("empty state triggered deletions")
	}
}
