// Package deploy applies synthesized runtime graphs to AWS: it creates,
// updates, checks, and destroys the resources a runtime describes, in
// dependency order, and tracks what it did in a serializable state record.
package deploy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// Health status constants returned by resource checks.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusMissing   = "missing"
)

// DeployState holds resource info from previous deploys. It is the
// opaque record exchanged between plan, apply, status, and destroy.
type DeployState struct {
	Deployment string          `json:"deployment"`
	Resources  []ResourceState `json:"resources"`
	DeployedAt string          `json:"deployed_at,omitempty"`
}

// ResourceState describes a single deployed resource.
type ResourceState struct {
	Kind          agentruntime.ResourceKind  `json:"kind"`
	Name          string                     `json:"name"`
	ARN           string                     `json:"arn,omitempty"`
	Status        string                     `json:"status,omitempty"`
	RemovalPolicy agentruntime.RemovalPolicy `json:"removal_policy,omitempty"`
	Metadata      map[string]string          `json:"metadata,omitempty"`
}

// key returns the canonical kind/name key for a state entry.
func (r ResourceState) key() string {
	return string(r.Kind) + "/" + r.Name
}

// ParseState deserializes a prior-state JSON document. An empty input is
// treated as no state.
func ParseState(raw []byte) (*DeployState, error) {
	if len(raw) == 0 {
		return &DeployState{}, nil
	}
	var s DeployState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("invalid state JSON: %w", err)
	}
	return &s, nil
}

// Marshal serializes the state with a refreshed timestamp.
func (s *DeployState) Marshal() ([]byte, error) {
	s.DeployedAt = time.Now().UTC().Format(time.RFC3339)
	return json.MarshalIndent(s, "", "  ")
}

// lookup builds a map of resources keyed by kind/name.
func (s *DeployState) lookup() map[string]ResourceState {
	m := make(map[string]ResourceState, len(s.Resources))
	for _, r := range s.Resources {
		m[r.key()] = r
	}
	return m
}
