package deploy

import (
	"context"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// resolver maps logical resource references to the physical ARNs of
// resources already created this run (or carried from prior state).
// Resources are applied in dependency order, so by the time a node is
// created everything it references has an entry.
type resolver map[string]string

// arn returns the physical ARN for a reference, or "".
func (r resolver) arn(ref agentruntime.ResourceRef) string {
	return r[ref.Key()]
}

// resourceCreator abstracts resource creation and update so tests can
// swap in a simulated implementation.
type resourceCreator interface {
	// CreateResource creates the resource and returns its ARN. Blocks
	// until the resource is usable by its dependents.
	CreateResource(ctx context.Context, res *agentruntime.Resource, refs resolver) (string, error)

	// UpdateResource updates an existing resource identified by priorARN
	// and returns the (possibly unchanged) ARN.
	UpdateResource(ctx context.Context, res *agentruntime.Resource, priorARN string, refs resolver) (string, error)
}

// resourceDestroyer abstracts resource deletion.
type resourceDestroyer interface {
	// DeleteResource deletes a single resource. Already-deleted resources
	// return nil.
	DeleteResource(ctx context.Context, res ResourceState) error
}

// resourceChecker abstracts resource health checks.
type resourceChecker interface {
	// CheckResource returns one of "healthy", "unhealthy", or "missing".
	CheckResource(ctx context.Context, res ResourceState) (string, error)
}
