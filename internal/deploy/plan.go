package deploy

import (
	"fmt"
	"sort"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// Plan actions.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionRetain = "RETAIN"
)

// Change describes one planned resource operation.
type Change struct {
	Kind   agentruntime.ResourceKind `json:"kind"`
	Name   string                    `json:"name"`
	Action string                    `json:"action"`
	Detail string                    `json:"detail,omitempty"`
}

// PlanResult is the output of Plan: the ordered change list and a
// one-line summary.
type PlanResult struct {
	Changes []Change `json:"changes"`
	Summary string   `json:"summary"`
}

// Plan diffs the desired graph against prior state. Desired resources
// appear in dependency order; stale prior resources follow, as DELETE
// (or RETAIN when their removal policy forbids deletion).
func Plan(g *agentruntime.Graph, prior *DeployState) (*PlanResult, error) {
	ordered, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("deploy: invalid resource graph: %w", err)
	}
	if prior == nil {
		prior = &DeployState{}
	}
	priorMap := prior.lookup()

	changes := make([]Change, 0, len(ordered))
	desired := make(map[string]bool, len(ordered))
	for _, res := range ordered {
		key := res.Ref().Key()
		desired[key] = true

		if p, exists := priorMap[key]; exists && p.ARN != "" {
			changes = append(changes, Change{
				Kind: res.Kind, Name: res.Name, Action: ActionUpdate,
				Detail: fmt.Sprintf("Update %s %s", res.Kind, res.Name),
			})
			continue
		}
		changes = append(changes, Change{
			Kind: res.Kind, Name: res.Name, Action: ActionCreate,
			Detail: fmt.Sprintf("Create %s %s", res.Kind, res.Name),
		})
	}

	var stale []ResourceState
	for _, r := range prior.Resources {
		if !desired[r.key()] {
			stale = append(stale, r)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].key() < stale[j].key() })
	for _, r := range stale {
		action := ActionDelete
		detail := fmt.Sprintf("Delete %s %s", r.Kind, r.Name)
		if r.RemovalPolicy == agentruntime.RemovalPolicyRetain {
			action = ActionRetain
			detail = fmt.Sprintf("Retain %s %s (removal policy)", r.Kind, r.Name)
		}
		changes = append(changes, Change{Kind: r.Kind, Name: r.Name, Action: action, Detail: detail})
	}

	return &PlanResult{Changes: changes, Summary: buildSummary(changes)}, nil
}

// buildSummary produces a line such as
// "Plan: 3 to create, 1 to update, 0 to delete".
func buildSummary(changes []Change) string {
	var create, update, del int
	for _, c := range changes {
		switch c.Action {
		case ActionCreate:
			create++
		case ActionUpdate:
			update++
		case ActionDelete:
			del++
		case ActionRetain:
			// retained resources are listed but not counted
		}
	}
	return fmt.Sprintf("Plan: %d to create, %d to update, %d to delete", create, update, del)
}
