package deploy

import (
	"context"
	"strings"
	"testing"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

func testGraph(t *testing.T) *agentruntime.Graph {
	t.Helper()
	rt, err := agentruntime.NewAgentCoreRuntime(&agentruntime.Props{
		Name:      "support_agent",
		Region:    "us-east-1",
		AccountID: "123456789012",
		Type:      agentruntime.RuntimeTypeAgentCore,
		AgentCore: &agentruntime.AgentCoreRuntimeConfig{
			ImageURI: "123456789012.dkr.ecr.us-east-1.amazonaws.com/support-agent:latest",
		},
	})
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}
	rt.GrantInvoke(agentruntime.Principal{ARN: "arn:aws:iam::123456789012:role/chat-gateway"})
	g, err := rt.Synthesize()
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	return g
}

func TestApplyCreatesInDependencyOrder(t *testing.T) {
	client := newSimulatedClient()
	applier := NewApplier(client, nil)

	state, err := applier.Apply(context.Background(), "support", testGraph(t), nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(state.Resources) != 5 {
		t.Fatalf("applied %d resources, want 5", len(state.Resources))
	}

	pos := make(map[string]int)
	for i, key := range client.created {
		pos[key] = i
	}
	policyKey := "role_policy/support_agent_policy"
	runtimeKey := "agent_runtime/support_agent"
	endpointKey := "runtime_endpoint/support_agent_endpoint"
	if pos[policyKey] > pos[runtimeKey] {
		t.Error("role policy applied after runtime")
	}
	if pos[endpointKey] < pos[runtimeKey] {
		t.Error("endpoint applied before runtime")
	}

	for _, r := range state.Resources {
		if r.Status != "created" {
			t.Errorf("%s status = %q, want created", r.key(), r.Status)
		}
		if r.ARN == "" {
			t.Errorf("%s has no ARN", r.key())
		}
	}
}

func TestApplyFailFast(t *testing.T) {
	client := newSimulatedClient()
	client.failOn = "agent_runtime/support_agent"
	applier := NewApplier(client, nil)

	state, err := applier.Apply(context.Background(), "support", testGraph(t), nil)
	if err == nil {
		t.Fatal("Apply did not fail")
	}
	de := IsDeployError(err)
	if de == nil {
		t.Fatalf("err = %v, want *DeployError", err)
	}
	if de.ResourceName != "support_agent" || de.Operation != "create" {
		t.Errorf("DeployError = %+v, want create failure on support_agent", de)
	}

	// Nothing after the failed runtime may have been attempted.
	for _, key := range client.created {
		if strings.HasPrefix(key, "runtime_endpoint/") || strings.HasPrefix(key, "invoke_permission/") {
			t.Errorf("dependent %s created after runtime failure", key)
		}
	}
	// The partial state still records what exists, for destroy.
	if len(state.Resources) == 0 {
		t.Error("partial state is empty")
	}
}

func TestApplyUpdatesExistingResources(t *testing.T) {
	client := newSimulatedClient()
	applier := NewApplier(client, nil)
	ctx := context.Background()
	g := testGraph(t)

	first, err := applier.Apply(ctx, "support", g, nil)
	if err != nil {
		t.Fatalf("first Apply: %v", err)
	}

	second, err := applier.Apply(ctx, "support", g, first)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if len(client.updated) != 5 {
		t.Errorf("second apply updated %d resources, want 5", len(client.updated))
	}
	for _, r := range second.Resources {
		if r.Status != "updated" {
			t.Errorf("%s status = %q, want updated", r.key(), r.Status)
		}
	}
}

func TestApplyCarriesStaleResources(t *testing.T) {
	client := newSimulatedClient()
	applier := NewApplier(client, nil)

	prior := &DeployState{Resources: []ResourceState{
		{Kind: agentruntime.KindLogGroup, Name: "/aws/lambda/old-agent", ARN: "arn:aws:logs:::old"},
	}}

	var warned bool
	applier.emit = func(e Event) {
		if e.Type == EventWarning && strings.Contains(e.Message, "no longer desired") {
			warned = true
		}
	}

	state, err := applier.Apply(context.Background(), "support", testGraph(t), prior)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	found := false
	for _, r := range state.Resources {
		if r.Name == "/aws/lambda/old-agent" {
			found = true
		}
	}
	if !found {
		t.Error("stale prior resource dropped from state")
	}
	if !warned {
		t.Error("no warning for stale prior resource")
	}
}
