package agent

import (
	"fmt"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// InteractiveAgent holds multi-turn conversations behind a gateway.
// Sessions persist to S3 so conversations survive across invocations;
// context management is on by default.
type InteractiveAgent struct {
	runtime agentruntime.AgentRuntime
	cfg     Config
}

// InteractiveConfig extends the shared agent settings with
// conversation-mode options.
type InteractiveConfig struct {
	Config

	// Gateway is the principal fronting the agent (an API role or
	// service principal). It receives the invoke grant.
	Gateway agentruntime.Principal
}

// NewInteractiveAgent wires an interactive agent onto the given runtime.
// A session bucket is required: an interactive agent without session
// persistence silently loses conversation state between turns.
func NewInteractiveAgent(rt agentruntime.AgentRuntime, cfg InteractiveConfig) (*InteractiveAgent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.SessionBucket == "" {
		return nil, fmt.Errorf("agent config: interactive agents require a session bucket")
	}
	if !cfg.ContextEnabled {
		cfg.ContextEnabled = true
	}
	cfg.configure(rt)
	rt.AddEnvironment(EnvInvokeType, InvokeTypeInteractive)
	if cfg.Gateway != (agentruntime.Principal{}) {
		rt.GrantInvoke(cfg.Gateway)
	}
	return &InteractiveAgent{runtime: rt, cfg: cfg.Config}, nil
}

// Runtime returns the underlying runtime.
func (a *InteractiveAgent) Runtime() agentruntime.AgentRuntime { return a.runtime }

// GrantInvoke authorizes an additional caller.
func (a *InteractiveAgent) GrantInvoke(p agentruntime.Principal) *agentruntime.Grant {
	return a.runtime.GrantInvoke(p)
}

// Synthesize emits the deployment graph for the agent's runtime.
func (a *InteractiveAgent) Synthesize() (*agentruntime.Graph, error) {
	return a.runtime.Synthesize()
}
