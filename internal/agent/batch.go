package agent

import (
	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// BatchAgent processes one document per invocation, triggered by a
// scheduler or queue consumer. Responses can be constrained to JSON for
// downstream parsing.
type BatchAgent struct {
	runtime agentruntime.AgentRuntime
	cfg     Config
}

// BatchConfig extends the shared agent settings with batch-mode options.
type BatchConfig struct {
	Config

	// ExpectJSON makes the handler parse the model response as JSON and
	// fail the invocation when it is not.
	ExpectJSON bool

	// Trigger is the principal that invokes the agent (a scheduler
	// service principal or a queue-consumer role).
	Trigger agentruntime.Principal
}

// NewBatchAgent wires a batch agent onto the given runtime: handler
// environment, role permissions, and the trigger's invoke grant.
func NewBatchAgent(rt agentruntime.AgentRuntime, cfg BatchConfig) (*BatchAgent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.configure(rt)
	rt.AddEnvironment(EnvInvokeType, InvokeTypeBatch)
	if cfg.ExpectJSON {
		rt.AddEnvironment(EnvExpectJSON, "true")
	}
	if cfg.Trigger != (agentruntime.Principal{}) {
		rt.GrantInvoke(cfg.Trigger)
	}
	return &BatchAgent{runtime: rt, cfg: cfg.Config}, nil
}

// Runtime returns the underlying runtime.
func (a *BatchAgent) Runtime() agentruntime.AgentRuntime { return a.runtime }

// GrantInvoke authorizes an additional caller.
func (a *BatchAgent) GrantInvoke(p agentruntime.Principal) *agentruntime.Grant {
	return a.runtime.GrantInvoke(p)
}

// Synthesize emits the deployment graph for the agent's runtime.
func (a *BatchAgent) Synthesize() (*agentruntime.Graph, error) {
	return a.runtime.Synthesize()
}
