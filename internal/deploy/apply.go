package deploy

import (
	"context"
	"fmt"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// Event types streamed by Apply and Destroy.
const (
	EventProgress = "progress"
	EventResource = "resource"
	EventWarning  = "warning"
	EventError    = "error"
	EventComplete = "complete"
)

// Event is a single progress notification.
type Event struct {
	Type     string
	Message  string
	Resource *ResourceState
}

// Callback receives progress events. A nil callback is valid.
type Callback func(Event)

// Applier creates and updates the resources of a synthesized graph.
type Applier struct {
	client resourceCreator
	emit   Callback
}

// NewApplier builds an Applier. callback may be nil.
func NewApplier(client resourceCreator, callback Callback) *Applier {
	a := &Applier{client: client, emit: callback}
	if a.emit == nil {
		a.emit = func(Event) {}
	}
	return a
}

// Apply walks the graph strictly in dependency order, creating resources
// that are new and updating ones present in prior state. The first
// failure aborts the walk: a resource failing to create means its
// dependents cannot be created either, and misconfigurations are never
// retried. The returned state records everything that was applied before
// the failure, so a partial deploy can still be destroyed or resumed.
func (a *Applier) Apply(
	ctx context.Context, deployment string, g *agentruntime.Graph, prior *DeployState,
) (*DeployState, error) {
	ordered, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("deploy: invalid resource graph: %w", err)
	}
	if prior == nil {
		prior = &DeployState{}
	}
	priorMap := prior.lookup()

	// Seed the resolver with prior ARNs so updates can reference
	// resources created in earlier runs.
	refs := resolver{}
	for key, r := range priorMap {
		if r.ARN != "" {
			refs[key] = r.ARN
		}
	}

	state := &DeployState{Deployment: deployment}
	a.emit(Event{Type: EventProgress,
		Message: fmt.Sprintf("Applying %d resource(s) for %s", len(ordered), deployment)})

	for i, res := range ordered {
		key := res.Ref().Key()
		priorRes, exists := priorMap[key]

		verb := "Creating"
		if exists && priorRes.ARN != "" {
			verb = "Updating"
		}
		a.emit(Event{Type: EventProgress,
			Message: fmt.Sprintf("[%d/%d] %s %s %q", i+1, len(ordered), verb, res.Kind, res.Name)})

		var arn string
		var opErr error
		if exists && priorRes.ARN != "" {
			arn, opErr = a.client.UpdateResource(ctx, res, priorRes.ARN, refs)
		} else {
			arn, opErr = a.client.CreateResource(ctx, res, refs)
		}
		if opErr != nil {
			failed := ResourceState{
				Kind: res.Kind, Name: res.Name, Status: "failed",
				RemovalPolicy: res.RemovalPolicy,
			}
			state.Resources = append(state.Resources, failed)
			de := newDeployError(opVerb(verb), string(res.Kind), res.Name, opErr)
			a.emit(Event{Type: EventError, Message: de.Error(), Resource: &failed})
			return state, de
		}

		applied := ResourceState{
			Kind: res.Kind, Name: res.Name, ARN: arn,
			Status:        statusFor(verb),
			RemovalPolicy: res.RemovalPolicy,
		}
		state.Resources = append(state.Resources, applied)
		refs[key] = arn
		a.emit(Event{Type: EventResource,
			Message:  fmt.Sprintf("%s %s %q", applied.Status, res.Kind, res.Name),
			Resource: &applied})
	}

	// Prior resources no longer in the graph stay in state so destroy can
	// still find them; apply never deletes.
	desired := make(map[string]bool, len(ordered))
	for _, res := range ordered {
		desired[res.Ref().Key()] = true
	}
	for _, r := range prior.Resources {
		if !desired[r.key()] {
			state.Resources = append(state.Resources, r)
			a.emit(Event{Type: EventWarning,
				Message: fmt.Sprintf("%s %q is no longer desired; run destroy to remove it", r.Kind, r.Name)})
		}
	}

	a.emit(Event{Type: EventComplete, Message: "Apply complete"})
	return state, nil
}

// opVerb maps a display verb to its error-message form.
func opVerb(verb string) string {
	if verb == "Updating" {
		return "update"
	}
	return "create"
}

// statusFor maps a display verb to the recorded resource status.
func statusFor(verb string) string {
	if verb == "Updating" {
		return "updated"
	}
	return "created"
}
