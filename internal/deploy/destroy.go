package deploy

import (
	"context"
	"fmt"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// destroyOrder lists resource kinds in teardown order: dependents first.
var destroyOrder = []agentruntime.ResourceKind{
	agentruntime.KindInvokePermission,
	agentruntime.KindRuntimeEndpoint,
	agentruntime.KindAgentRuntime,
	agentruntime.KindFunction,
	agentruntime.KindLogGroup,
	agentruntime.KindRolePolicy,
	agentruntime.KindExecutionRole,
}

// Destroyer tears down deployed resources.
type Destroyer struct {
	client resourceDestroyer
	emit   Callback
}

// NewDestroyer builds a Destroyer. callback may be nil.
func NewDestroyer(client resourceDestroyer, callback Callback) *Destroyer {
	d := &Destroyer{client: client, emit: callback}
	if d.emit == nil {
		d.emit = func(Event) {}
	}
	return d
}

// Destroy deletes the resources recorded in state in reverse dependency
// order, honoring removal policy: retained resources are left in place
// and reported. Teardown is best-effort; a failed deletion is reported
// and the walk continues so as much as possible is cleaned up. The
// returned state holds what survived (retained plus failed deletions).
func (d *Destroyer) Destroy(ctx context.Context, state *DeployState) (*DeployState, error) {
	if state == nil || len(state.Resources) == 0 {
		d.emit(Event{Type: EventComplete, Message: "Destroy complete (nothing to do)"})
		return &DeployState{}, nil
	}

	byKind := make(map[agentruntime.ResourceKind][]ResourceState)
	for _, r := range state.Resources {
		byKind[r.Kind] = append(byKind[r.Kind], r)
	}

	d.emit(Event{Type: EventProgress,
		Message: fmt.Sprintf("Destroying %d resource(s)", len(state.Resources))})

	remaining := &DeployState{Deployment: state.Deployment}
	var firstErr error

	for _, kind := range destroyOrder {
		for _, res := range byKind[kind] {
			if res.RemovalPolicy == agentruntime.RemovalPolicyRetain {
				d.emit(Event{Type: EventResource,
					Message:  fmt.Sprintf("Retained %s %q (removal policy)", res.Kind, res.Name),
					Resource: &res})
				remaining.Resources = append(remaining.Resources, res)
				continue
			}

			if err := d.client.DeleteResource(ctx, res); err != nil {
				de := newDeployError("delete", string(res.Kind), res.Name, err)
				d.emit(Event{Type: EventError, Message: de.Error(), Resource: &res})
				remaining.Resources = append(remaining.Resources, res)
				if firstErr == nil {
					firstErr = de
				}
				continue
			}
			d.emit(Event{Type: EventResource,
				Message:  fmt.Sprintf("Deleted %s %q", res.Kind, res.Name),
				Resource: &res})
		}
		delete(byKind, kind)
	}

	// Kinds outside the standard order (future resource types) are
	// deleted last, best-effort.
	for kind, resources := range byKind {
		for _, res := range resources {
			if err := d.client.DeleteResource(ctx, res); err != nil {
				d.emit(Event{Type: EventError,
					Message: fmt.Sprintf("Failed to delete %s %q: %v", kind, res.Name, err)})
				remaining.Resources = append(remaining.Resources, res)
				continue
			}
			d.emit(Event{Type: EventResource,
				Message: fmt.Sprintf("Deleted %s %q", kind, res.Name)})
		}
	}

	d.emit(Event{Type: EventComplete, Message: "Destroy complete"})
	return remaining, firstErr
}
