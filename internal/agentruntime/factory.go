package agentruntime

import "fmt"

// NewAgentRuntime dispatches on the runtime type and returns the matching
// concrete runtime behind the AgentRuntime interface. Constructor errors
// propagate unmodified so the caller sees the same *ConfigError or
// *UnsupportedError the constructor produced; an unrecognized type is a
// fatal configuration error of its own.
func NewAgentRuntime(p *Props) (AgentRuntime, error) {
	switch p.Type {
	case RuntimeTypeLambda:
		return NewLambdaRuntime(p)
	case RuntimeTypeAgentCore:
		return NewAgentCoreRuntime(p)
	default:
		return nil, &ConfigError{Field: "type",
			Reason: fmt.Sprintf("%q is not a supported runtime type (expected %s or %s)",
				p.Type, RuntimeTypeLambda, RuntimeTypeAgentCore)}
	}
}
