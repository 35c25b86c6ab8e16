package deploy

import "context"

// Aggregate deployment statuses.
const (
	DeploymentDeployed    = "deployed"
	DeploymentDegraded    = "degraded"
	DeploymentNotDeployed = "not_deployed"
)

// ResourceStatus is a single resource's health as seen by Status.
type ResourceStatus struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// StatusResult aggregates per-resource health.
type StatusResult struct {
	Status    string           `json:"status"`
	Resources []ResourceStatus `json:"resources,omitempty"`
}

// Status checks every resource in state and aggregates: all healthy is
// "deployed", anything else degrades the deployment. Check errors count
// as unhealthy rather than failing the whole status call.
func Status(ctx context.Context, checker resourceChecker, state *DeployState) (*StatusResult, error) {
	if state == nil || len(state.Resources) == 0 {
		return &StatusResult{Status: DeploymentNotDeployed}, nil
	}

	result := &StatusResult{Status: DeploymentDeployed}
	for _, res := range state.Resources {
		health, err := checker.CheckResource(ctx, res)
		if err != nil {
			health = StatusUnhealthy
		}
		if health != StatusHealthy {
			result.Status = DeploymentDegraded
		}
		result.Resources = append(result.Resources, ResourceStatus{
			Kind: string(res.Kind), Name: res.Name, Status: health,
		})
	}
	return result, nil
}
