package agentruntime

import (
	"fmt"
	"sort"
)

// Resource is one node in a synthesized deployment graph: a logical
// description of a single AWS resource plus the edges that must be
// satisfied before it can be created. The Spec field holds exactly one
// kind-specific payload.
type Resource struct {
	Kind          ResourceKind      `json:"kind"`
	Name          string            `json:"name"`
	DependsOn     []ResourceRef     `json:"depends_on,omitempty"`
	RemovalPolicy RemovalPolicy     `json:"removal_policy,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`

	Role       *RoleSpec       `json:"role,omitempty"`
	RolePolicy *RolePolicySpec `json:"role_policy,omitempty"`
	LogGroup   *LogGroupSpec   `json:"log_group,omitempty"`
	Function   *FunctionSpec   `json:"function,omitempty"`
	Runtime    *RuntimeSpec    `json:"runtime,omitempty"`
	Endpoint   *EndpointSpec   `json:"endpoint,omitempty"`
	Permission *PermissionSpec `json:"permission,omitempty"`
}

// Ref returns the logical reference to this resource.
func (r *Resource) Ref() ResourceRef {
	return ResourceRef{Kind: r.Kind, Name: r.Name}
}

// RoleSpec describes an IAM execution role to create. Caller-managed
// roles never appear as graph nodes; only roles the deployment owns do.
type RoleSpec struct {
	AssumeService string `json:"assume_service"`
}

// RolePolicySpec describes an inline policy attached to a role. The
// policy node depends on the role node and the runtime node depends on
// the policy node, so permissions are always in place before the runtime
// exists. AgentCore validates registry access synchronously at creation,
// which makes this edge load-bearing rather than cosmetic.
type RolePolicySpec struct {
	RoleName   string            `json:"role_name"`
	RoleARN    string            `json:"role_arn,omitempty"`
	Statements []PolicyStatement `json:"statements"`
}

// LogGroupSpec describes a CloudWatch log group.
type LogGroupSpec struct {
	LogGroupName  string `json:"log_group_name"`
	RetentionDays int32  `json:"retention_days,omitempty"`
}

// FunctionSpec describes a Lambda function.
type FunctionSpec struct {
	FunctionName       string            `json:"function_name"`
	Handler            string            `json:"handler"`
	Runtime            string            `json:"runtime"`
	Architecture       Architecture      `json:"architecture"`
	TimeoutSeconds     int32             `json:"timeout_seconds"`
	MemoryMB           int32             `json:"memory_mb"`
	EphemeralStorageMB int32             `json:"ephemeral_storage_mb"`
	CodeBucket         string            `json:"code_bucket"`
	CodeKey            string            `json:"code_key"`
	Layers             []string          `json:"layers,omitempty"`
	Environment        map[string]string `json:"environment,omitempty"`
	RoleRef            ResourceRef       `json:"role_ref"`
	RoleARN            string            `json:"role_arn,omitempty"`
}

// RuntimeSpec describes an AgentCore runtime. The scaling bounds are
// validated at construction and carried here; the control plane has no
// scaling surface yet, so the deploy client does not send them (see
// createRuntime in the deploy package).
type RuntimeSpec struct {
	RuntimeName    string            `json:"runtime_name"`
	ImageURI       string            `json:"image_uri"`
	NetworkMode    NetworkMode       `json:"network_mode"`
	Environment    map[string]string `json:"environment,omitempty"`
	RoleRef        ResourceRef       `json:"role_ref"`
	RoleARN        string            `json:"role_arn,omitempty"`
	TimeoutSeconds int32             `json:"timeout_seconds"`
	MemoryMB       int32             `json:"memory_mb"`
	MinCapacity    int32             `json:"min_capacity,omitempty"`
	MaxCapacity    int32             `json:"max_capacity,omitempty"`
}

// EndpointSpec describes an AgentCore runtime endpoint. The endpoint
// node always depends on its runtime node.
type EndpointSpec struct {
	EndpointName string      `json:"endpoint_name"`
	RuntimeRef   ResourceRef `json:"runtime_ref"`
}

// PermissionSpec describes an invoke authorization for an external
// principal. For AgentCore the resource list covers both the runtime and
// the endpoint.
type PermissionSpec struct {
	Principal Principal     `json:"principal"`
	Actions   []string      `json:"actions"`
	Resources []ResourceRef `json:"resources"`
}

// Graph is the full set of resources a runtime synthesizes, with
// dependency edges. A Graph is immutable once built.
type Graph struct {
	Resources []*Resource
}

// Lookup returns the resource with the given reference, or nil.
func (g *Graph) Lookup(ref ResourceRef) *Resource {
	for _, r := range g.Resources {
		if r.Kind == ref.Kind && r.Name == ref.Name {
			return r
		}
	}
	return nil
}

// TopologicalOrder returns the resources in an order that satisfies every
// DependsOn edge. The order is deterministic: among resources whose
// dependencies are all satisfied, ties break by resource key. A cycle or
// an edge to a node outside the graph is an error.
func (g *Graph) TopologicalOrder() ([]*Resource, error) {
	byKey := make(map[string]*Resource, len(g.Resources))
	indegree := make(map[string]int, len(g.Resources))
	dependents := make(map[string][]string)

	for _, r := range g.Resources {
		key := r.Ref().Key()
		if _, dup := byKey[key]; dup {
			return nil, fmt.Errorf("duplicate resource %s in graph", key)
		}
		byKey[key] = r
		indegree[key] = 0
	}
	for _, r := range g.Resources {
		key := r.Ref().Key()
		for _, dep := range r.DependsOn {
			depKey := dep.Key()
			if _, ok := byKey[depKey]; !ok {
				return nil, fmt.Errorf("resource %s depends on %s, which is not in the graph", key, depKey)
			}
			indegree[key]++
			dependents[depKey] = append(dependents[depKey], key)
		}
	}

	var ready []string
	for key, deg := range indegree {
		if deg == 0 {
			ready = append(ready, key)
		}
	}
	sort.Strings(ready)

	ordered := make([]*Resource, 0, len(g.Resources))
	for len(ready) > 0 {
		key := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byKey[key])

		var unlocked []string
		for _, depKey := range dependents[key] {
			indegree[depKey]--
			if indegree[depKey] == 0 {
				unlocked = append(unlocked, depKey)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}
	if len(ordered) != len(g.Resources) {
		return nil, fmt.Errorf("dependency cycle among %d resource(s)", len(g.Resources)-len(ordered))
	}
	return ordered, nil
}

// ReverseTopologicalOrder returns resources in deletion order: every
// resource appears before the resources it depends on.
func (g *Graph) ReverseTopologicalOrder() ([]*Resource, error) {
	ordered, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	out := make([]*Resource, len(ordered))
	for i, r := range ordered {
		out[len(ordered)-1-i] = r
	}
	return out, nil
}
