package agentruntime

import (
	"strings"
	"testing"
	"time"
)

func agentCoreProps() *Props {
	return &Props{
		Name:      "support_agent",
		Region:    "us-east-1",
		AccountID: "123456789012",
		Type:      RuntimeTypeAgentCore,
		AgentCore: &AgentCoreRuntimeConfig{
			DeploymentMethod: DeploymentMethodContainer,
			ImageURI:         "123456789012.dkr.ecr.us-east-1.amazonaws.com/support-agent:latest",
		},
	}
}

func findStatement(role *ExecutionRole, sid string) *PolicyStatement {
	for _, s := range role.Statements() {
		if s.Sid == sid {
			return &s
		}
	}
	return nil
}

func TestAgentCoreContainerPullPermissions(t *testing.T) {
	r, err := NewAgentCoreRuntime(agentCoreProps())
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}

	auth := findStatement(r.ExecutionRole(), "EcrAuth")
	if auth == nil {
		t.Fatal("no EcrAuth statement")
	}
	if len(auth.Resources) != 1 || auth.Resources[0] != "*" {
		t.Errorf("EcrAuth resources = %v, want [*]", auth.Resources)
	}

	pull := findStatement(r.ExecutionRole(), "PullAgentImage")
	if pull == nil {
		t.Fatal("no PullAgentImage statement")
	}
	want := "arn:aws:ecr:us-east-1:123456789012:repository/support-agent"
	if len(pull.Resources) != 1 || pull.Resources[0] != want {
		t.Errorf("pull resources = %v, want [%s]", pull.Resources, want)
	}
	if len(r.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %v", r.Warnings())
	}
}

func TestAgentCoreUnparseableImageFallsBackToWildcard(t *testing.T) {
	p := agentCoreProps()
	p.AgentCore.ImageURI = "docker.io/library/support-agent:latest"

	r, err := NewAgentCoreRuntime(p)
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}

	pull := findStatement(r.ExecutionRole(), "PullAgentImage")
	if pull == nil {
		t.Fatal("no PullAgentImage statement")
	}
	if len(pull.Resources) != 1 || pull.Resources[0] != "*" {
		t.Errorf("pull resources = %v, want [*]", pull.Resources)
	}

	warnings := r.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if warnings[0].Category != WarnCategoryPermission {
		t.Errorf("warning category = %q, want %q", warnings[0].Category, WarnCategoryPermission)
	}
}

func TestAgentCoreContainerRequiresImage(t *testing.T) {
	p := agentCoreProps()
	p.AgentCore.ImageURI = ""

	_, err := NewAgentCoreRuntime(p)
	ce := IsConfigError(err)
	if ce == nil {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if ce.Variant != "AGENTCORE/CONTAINER" {
		t.Errorf("Variant = %q, want AGENTCORE/CONTAINER", ce.Variant)
	}
}

func TestAgentCoreLocatorExclusivity(t *testing.T) {
	t.Run("container rejects stray code location", func(t *testing.T) {
		p := agentCoreProps()
		p.AgentCore.CodeBucket = "agent-artifacts"
		p.AgentCore.CodeKey = "support/agent.zip"

		_, err := NewAgentCoreRuntime(p)
		ce := IsConfigError(err)
		if ce == nil {
			t.Fatalf("err = %v, want *ConfigError", err)
		}
		if ce.Variant != "AGENTCORE/CONTAINER" {
			t.Errorf("Variant = %q, want AGENTCORE/CONTAINER", ce.Variant)
		}
	})
	t.Run("container rejects stray bucket alone", func(t *testing.T) {
		p := agentCoreProps()
		p.AgentCore.CodeBucket = "agent-artifacts"

		if _, err := NewAgentCoreRuntime(p); IsConfigError(err) == nil {
			t.Fatalf("err = %v, want *ConfigError", err)
		}
	})
	t.Run("direct code rejects stray image URI", func(t *testing.T) {
		p := agentCoreProps()
		p.AgentCore = &AgentCoreRuntimeConfig{
			DeploymentMethod: DeploymentMethodDirectCode,
			ImageURI:         "123456789012.dkr.ecr.us-east-1.amazonaws.com/support-agent:latest",
			CodeBucket:       "agent-artifacts",
			CodeKey:          "support/agent.zip",
		}

		// Misconfiguration, not the feature gate: the caller gets a
		// *ConfigError naming the conflicting field.
		_, err := NewAgentCoreRuntime(p)
		ce := IsConfigError(err)
		if ce == nil {
			t.Fatalf("err = %v, want *ConfigError", err)
		}
		if ce.Variant != "AGENTCORE/DIRECT_CODE" {
			t.Errorf("Variant = %q, want AGENTCORE/DIRECT_CODE", ce.Variant)
		}
	})
}

func TestAgentCoreDirectCodeRejected(t *testing.T) {
	p := agentCoreProps()
	p.AgentCore = &AgentCoreRuntimeConfig{
		DeploymentMethod: DeploymentMethodDirectCode,
		CodeBucket:       "agent-artifacts",
		CodeKey:          "support/agent.zip",
	}

	_, err := NewAgentCoreRuntime(p)
	ue := IsUnsupportedError(err)
	if ue == nil {
		t.Fatalf("err = %v, want *UnsupportedError", err)
	}
	if !strings.Contains(err.Error(), "not yet fully supported") {
		t.Errorf("error %q does not say the feature is not yet fully supported", err)
	}
}

func TestAgentCoreDirectCodeMissingLocationIsConfigError(t *testing.T) {
	p := agentCoreProps()
	p.AgentCore = &AgentCoreRuntimeConfig{DeploymentMethod: DeploymentMethodDirectCode}

	// A missing locator is misconfiguration, reported before the feature
	// gate so the user fixes the config first.
	if _, err := NewAgentCoreRuntime(p); IsConfigError(err) == nil {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
}

func TestAgentCoreUnknownDeploymentMethod(t *testing.T) {
	p := agentCoreProps()
	p.AgentCore.DeploymentMethod = "FTP_UPLOAD"

	if _, err := NewAgentCoreRuntime(p); IsConfigError(err) == nil {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
}

func TestAgentCoreTimeoutCeiling(t *testing.T) {
	p := agentCoreProps()
	p.AgentCore.Timeout = Duration(9 * time.Hour)

	if _, err := NewAgentCoreRuntime(p); IsConfigError(err) == nil {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
}

func TestAgentCoreScalingBounds(t *testing.T) {
	t.Run("negative rejected", func(t *testing.T) {
		p := agentCoreProps()
		p.AgentCore.MinCapacity = -1

		if _, err := NewAgentCoreRuntime(p); IsConfigError(err) == nil {
			t.Fatalf("err = %v, want *ConfigError", err)
		}
	})
	t.Run("max below min rejected", func(t *testing.T) {
		p := agentCoreProps()
		p.AgentCore.MinCapacity = 4
		p.AgentCore.MaxCapacity = 2

		_, err := NewAgentCoreRuntime(p)
		ce := IsConfigError(err)
		if ce == nil {
			t.Fatalf("err = %v, want *ConfigError", err)
		}
		if !strings.Contains(ce.Reason, "below min_capacity") {
			t.Errorf("Reason = %q", ce.Reason)
		}
	})
	t.Run("bounds reach the runtime spec", func(t *testing.T) {
		p := agentCoreProps()
		p.AgentCore.MinCapacity = 1
		p.AgentCore.MaxCapacity = 8

		r, err := NewAgentCoreRuntime(p)
		if err != nil {
			t.Fatalf("NewAgentCoreRuntime: %v", err)
		}
		g, err := r.Synthesize()
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		rt := g.Lookup(ResourceRef{Kind: KindAgentRuntime, Name: r.Name()})
		if rt.Runtime.MinCapacity != 1 || rt.Runtime.MaxCapacity != 8 {
			t.Errorf("spec capacity = %d/%d, want 1/8", rt.Runtime.MinCapacity, rt.Runtime.MaxCapacity)
		}
	})
}

func TestAgentCoreGrantInvokeCoversRuntimeAndEndpoint(t *testing.T) {
	r, err := NewAgentCoreRuntime(agentCoreProps())
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}

	g := r.GrantInvoke(Principal{ARN: "arn:aws:iam::123456789012:role/chat-gateway"})
	if len(g.Resources) != 2 {
		t.Fatalf("grant covers %d resources, want 2 (runtime and endpoint)", len(g.Resources))
	}
	kinds := map[ResourceKind]bool{}
	for _, ref := range g.Resources {
		kinds[ref.Kind] = true
	}
	if !kinds[KindAgentRuntime] || !kinds[KindRuntimeEndpoint] {
		t.Errorf("grant resources = %v, want runtime and endpoint refs", g.Resources)
	}
	if len(g.Actions) != 1 || g.Actions[0] != "bedrock-agentcore:InvokeAgentRuntime" {
		t.Errorf("Actions = %v, want [bedrock-agentcore:InvokeAgentRuntime]", g.Actions)
	}
}

func TestAgentCoreGrantInvokeIdempotent(t *testing.T) {
	r, err := NewAgentCoreRuntime(agentCoreProps())
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}
	caller := Principal{Service: "events.amazonaws.com"}
	if first, second := r.GrantInvoke(caller), r.GrantInvoke(caller); first != second {
		t.Error("repeated GrantInvoke returned a different grant")
	}
}

func TestAgentCoreVPCRequestDegrades(t *testing.T) {
	p := agentCoreProps()
	p.NetworkMode = NetworkModeVPC

	r, err := NewAgentCoreRuntime(p)
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}

	warnings := r.Warnings()
	if len(warnings) != 1 || warnings[0].Category != WarnCategoryNetwork {
		t.Fatalf("warnings = %v, want one network warning", warnings)
	}

	stmt := findStatement(r.ExecutionRole(), "DescribeNetworking")
	if stmt == nil {
		t.Fatal("no DescribeNetworking statement")
	}
	if len(stmt.Actions) != 4 {
		t.Errorf("DescribeNetworking has %d actions, want 4", len(stmt.Actions))
	}
	for _, a := range stmt.Actions {
		if !strings.HasPrefix(a, "ec2:Describe") {
			t.Errorf("action %q is not a read-only ec2:Describe action", a)
		}
	}

	g, err := r.Synthesize()
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	rt := g.Lookup(ResourceRef{Kind: KindAgentRuntime, Name: r.Name()})
	if rt.Runtime.NetworkMode != NetworkModePublic {
		t.Errorf("runtime network mode = %q, want %q", rt.Runtime.NetworkMode, NetworkModePublic)
	}
}

func TestAgentCoreSynthesisOrdering(t *testing.T) {
	r, err := NewAgentCoreRuntime(agentCoreProps())
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}
	r.GrantInvoke(Principal{Service: "events.amazonaws.com"})

	g, err := r.Synthesize()
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	ordered, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}

	pos := make(map[ResourceKind]int)
	for i, res := range ordered {
		pos[res.Kind] = i
	}
	if pos[KindRolePolicy] > pos[KindAgentRuntime] {
		t.Error("role policy ordered after runtime; registry-pull validation would fail")
	}
	if pos[KindRuntimeEndpoint] < pos[KindAgentRuntime] {
		t.Error("endpoint ordered before its runtime")
	}
	if pos[KindInvokePermission] < pos[KindRuntimeEndpoint] {
		t.Error("invoke permission ordered before endpoint")
	}
}

func TestAgentCoreRemovalPolicyExplicit(t *testing.T) {
	t.Run("defaults to destroy", func(t *testing.T) {
		r, err := NewAgentCoreRuntime(agentCoreProps())
		if err != nil {
			t.Fatalf("NewAgentCoreRuntime: %v", err)
		}
		g, err := r.Synthesize()
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		for _, res := range g.Resources {
			if res.RemovalPolicy != RemovalPolicyDestroy {
				t.Errorf("%s removal policy = %q, want destroy", res.Ref().Key(), res.RemovalPolicy)
			}
		}
	})
	t.Run("retain propagates", func(t *testing.T) {
		p := agentCoreProps()
		p.RemovalPolicy = RemovalPolicyRetain
		r, err := NewAgentCoreRuntime(p)
		if err != nil {
			t.Fatalf("NewAgentCoreRuntime: %v", err)
		}
		g, err := r.Synthesize()
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		for _, res := range g.Resources {
			if res.RemovalPolicy != RemovalPolicyRetain {
				t.Errorf("%s removal policy = %q, want retain", res.Ref().Key(), res.RemovalPolicy)
			}
		}
	})
}

func TestAgentCoreEndpointNaming(t *testing.T) {
	p := agentCoreProps()
	p.Name = "support-agent"

	r, err := NewAgentCoreRuntime(p)
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}
	if got := r.EndpointName(); got != "support_agent_endpoint" {
		t.Errorf("EndpointName() = %q, want support_agent_endpoint", got)
	}

	warned := false
	for _, w := range r.Warnings() {
		if w.Category == WarnCategoryNaming {
			warned = true
		}
	}
	if !warned {
		t.Error("no naming warning for sanitized runtime name")
	}
}

func TestAgentCoreLogGroupIsPlatformOwned(t *testing.T) {
	r, err := NewAgentCoreRuntime(agentCoreProps())
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}
	if got := r.LogGroup(); got != "" {
		t.Errorf("LogGroup() = %q, want empty (platform-provisioned)", got)
	}
}

func TestAgentCoreEnvironmentBuffering(t *testing.T) {
	r, err := NewAgentCoreRuntime(agentCoreProps())
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}
	r.AddEnvironment("MODEL_ID", "anthropic.claude-3-5-sonnet-20241022-v2:0")

	g, err := r.Synthesize()
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	rt := g.Lookup(ResourceRef{Kind: KindAgentRuntime, Name: r.Name()})
	if rt.Runtime.Environment["MODEL_ID"] == "" {
		t.Error("buffered environment did not reach the synthesized runtime")
	}

	r.AddEnvironment("LATE", "value")
	if _, ok := r.Environment()["LATE"]; ok {
		t.Error("AddEnvironment after synthesis mutated the environment")
	}
}

func TestAgentCoreObservabilityEnv(t *testing.T) {
	p := agentCoreProps()
	p.ObservabilityEnabled = true
	p.Environment = map[string]string{
		EnvOTELResourceAttrs: "service.name=support-agent",
	}

	r, err := NewAgentCoreRuntime(p)
	if err != nil {
		t.Fatalf("NewAgentCoreRuntime: %v", err)
	}
	env := r.Environment()
	if env[EnvObservabilityEnabled] != "true" {
		t.Errorf("%s = %q, want true", EnvObservabilityEnabled, env[EnvObservabilityEnabled])
	}
	if env[EnvOTELResourceAttrs] != "service.name=support-agent" {
		t.Error("OTEL resource attributes not passed through")
	}
	if findStatement(r.ExecutionRole(), "EmitTelemetry") == nil {
		t.Error("no telemetry statement on execution role")
	}
}
