package agentruntime

import "sort"

// AgentRuntime is the uniform surface over concrete runtime types.
// Consuming constructs hold an AgentRuntime and never branch on the
// concrete type; everything runtime-specific hides behind this interface.
//
// Construction-time mutators (AddEnvironment, AddToRolePolicy,
// GrantInvoke) buffer their effect; Synthesize folds the buffered state
// into a deployment graph and finalizes the runtime. Mutating after
// finalization logs a warning and does nothing.
type AgentRuntime interface {
	// RuntimeType reports the concrete runtime variant.
	RuntimeType() RuntimeType

	// Name returns the logical runtime name (sanitized where the platform
	// requires it).
	Name() string

	// ExecutionRole returns the identity the runtime executes as.
	ExecutionRole() *ExecutionRole

	// InvocationResources returns every logical resource a caller must be
	// authorized against to invoke this runtime. Lambda returns one entry;
	// AgentCore returns the runtime and its endpoint.
	InvocationResources() []ResourceRef

	// LogGroup returns the log group name the runtime writes to, or ""
	// when the platform provisions logging itself and no group exists to
	// reference at synthesis time.
	LogGroup() string

	// GrantInvoke authorizes the principal to invoke this runtime and
	// returns the grant issued. Granting the same principal twice is
	// idempotent: the original grant is returned and no duplicate
	// permission resource is synthesized.
	GrantInvoke(p Principal) *Grant

	// AddEnvironment sets an environment variable on the runtime. The
	// entry is buffered and folded into the graph at synthesis; it never
	// reaches a graph already produced.
	AddEnvironment(key, value string)

	// AddToRolePolicy widens the execution role with a policy statement.
	AddToRolePolicy(s PolicyStatement)

	// Environment returns a copy of the currently buffered environment.
	Environment() map[string]string

	// Warnings returns the non-fatal issues recorded during construction
	// and mutation, in the order they occurred.
	Warnings() []Warning

	// Synthesize produces the deployment graph for this runtime and
	// finalizes it. Repeated calls return an equivalent graph.
	Synthesize() (*Graph, error)
}

// copyEnv returns a defensive copy of an environment map.
func copyEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

// sortedKeys returns the map's keys in sorted order, for deterministic
// iteration wherever ordering is observable.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
