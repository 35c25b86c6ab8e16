package agentruntime

import (
	"encoding/json"
	"sort"
	"strings"
)

// PolicyStatement is a single IAM policy statement. Statements only ever
// widen a role's permissions; nothing in this package narrows or removes
// previously added statements.
type PolicyStatement struct {
	Sid       string   `json:"Sid,omitempty"`
	Effect    string   `json:"Effect"`
	Actions   []string `json:"Action"`
	Resources []string `json:"Resource"`
}

// AllowStatement builds an Allow statement for the given actions and
// resources.
func AllowStatement(sid string, actions, resources []string) PolicyStatement {
	return PolicyStatement{Sid: sid, Effect: "Allow", Actions: actions, Resources: resources}
}

// PolicyDocument is a serializable IAM policy document.
type PolicyDocument struct {
	Version    string            `json:"Version"`
	Statements []PolicyStatement `json:"Statement"`
}

// policyVersion is the IAM policy language version.
const policyVersion = "2012-10-17"

// MarshalPolicy serializes statements as an IAM policy document.
func MarshalPolicy(statements []PolicyStatement) (string, error) {
	doc := PolicyDocument{Version: policyVersion, Statements: statements}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Principal identifies an identity that can be granted invoke permission:
// either an AWS service (by service principal hostname) or an IAM identity
// (by ARN). Exactly one field should be set.
type Principal struct {
	Service string `json:"service,omitempty"`
	ARN     string `json:"arn,omitempty"`
}

// key returns a stable identity for grant deduplication.
func (p Principal) key() string {
	if p.Service != "" {
		return "service:" + p.Service
	}
	return "arn:" + p.ARN
}

// String returns the principal in display form.
func (p Principal) String() string {
	if p.Service != "" {
		return p.Service
	}
	return p.ARN
}

// ExecutionRole is the identity a runtime assumes while executing. When
// CallerManaged is true the role was supplied by the caller, who retains
// ownership: the runtime neither creates nor deletes it, but may still
// attach policy statements.
type ExecutionRole struct {
	Name          string
	ARN           string
	AssumeService string
	CallerManaged bool

	statements []PolicyStatement
}

// newManagedRole creates a role owned by the runtime, assumable only by
// the given execution service.
func newManagedRole(name, service string) *ExecutionRole {
	return &ExecutionRole{Name: name, AssumeService: service}
}

// newCallerRole wraps a caller-supplied role ARN.
func newCallerRole(arn string) *ExecutionRole {
	name := arn
	if i := strings.LastIndex(arn, "/"); i >= 0 {
		name = arn[i+1:]
	}
	return &ExecutionRole{Name: name, ARN: arn, CallerManaged: true}
}

// AddStatement appends a policy statement to the role. Permissions only
// expand; duplicate statements are collapsed.
func (r *ExecutionRole) AddStatement(s PolicyStatement) {
	for _, existing := range r.statements {
		if statementsEqual(existing, s) {
			return
		}
	}
	r.statements = append(r.statements, s)
}

// Statements returns a copy of the role's accumulated policy statements.
func (r *ExecutionRole) Statements() []PolicyStatement {
	out := make([]PolicyStatement, len(r.statements))
	copy(out, r.statements)
	return out
}

// statementsEqual compares two statements field by field, treating action
// and resource lists as unordered sets.
func statementsEqual(a, b PolicyStatement) bool {
	return a.Sid == b.Sid && a.Effect == b.Effect &&
		sameSet(a.Actions, b.Actions) && sameSet(a.Resources, b.Resources)
}

// sameSet reports whether two string slices contain the same elements.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// ResourceKind identifies the kind of a synthesized resource node.
type ResourceKind string

// Resource kinds emitted by runtime synthesis.
const (
	KindExecutionRole    ResourceKind = "execution_role"
	KindRolePolicy       ResourceKind = "role_policy"
	KindLogGroup         ResourceKind = "log_group"
	KindFunction         ResourceKind = "lambda_function"
	KindAgentRuntime     ResourceKind = "agent_runtime"
	KindRuntimeEndpoint  ResourceKind = "runtime_endpoint"
	KindInvokePermission ResourceKind = "invoke_permission"
)

// ResourceRef is a logical reference to a synthesized resource. Physical
// identifiers (ARNs) exist only after deployment; grants and dependency
// edges are expressed against logical references and resolved by the
// applier.
type ResourceRef struct {
	Kind ResourceKind `json:"kind"`
	Name string       `json:"name"`
}

// Key returns the canonical "kind/name" key for the reference.
func (r ResourceRef) Key() string {
	return string(r.Kind) + "/" + r.Name
}

// Grant records an invoke authorization issued via GrantInvoke: the
// principal, the actions, and every resource the principal must be allowed
// to call. For AgentCore runtimes Resources always covers both the runtime
// and the endpoint; granting only one is a latent bug.
type Grant struct {
	Principal Principal
	Actions   []string
	Resources []ResourceRef
}
