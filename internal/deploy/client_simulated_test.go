package deploy

import (
	"context"
	"fmt"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// simulatedClient returns mock ARNs for all operations and records the
// order resources were applied in, so tests can assert on ordering
// without AWS credentials.
type simulatedClient struct {
	region    string
	accountID string

	created []string
	updated []string
	deleted []string

	// failOn makes CreateResource fail for the named resource key.
	failOn string

	// health overrides CheckResource per resource key.
	health map[string]string
}

func newSimulatedClient() *simulatedClient {
	return &simulatedClient{
		region:    "us-east-1",
		accountID: "123456789012",
		health:    map[string]string{},
	}
}

func (c *simulatedClient) arnFor(res *agentruntime.Resource) string {
	switch res.Kind {
	case agentruntime.KindExecutionRole:
		return fmt.Sprintf("arn:aws:iam::%s:role/%s", c.accountID, res.Name)
	case agentruntime.KindRolePolicy:
		return fmt.Sprintf("arn:aws:iam::%s:role/%s/policy/%s", c.accountID, res.RolePolicy.RoleName, res.Name)
	case agentruntime.KindLogGroup:
		return fmt.Sprintf("arn:aws:logs:%s:%s:log-group:%s", c.region, c.accountID, res.Name)
	case agentruntime.KindFunction:
		return fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", c.region, c.accountID, res.Name)
	case agentruntime.KindAgentRuntime:
		return fmt.Sprintf("arn:aws:bedrock-agentcore:%s:%s:runtime/%s-id", c.region, c.accountID, res.Name)
	case agentruntime.KindRuntimeEndpoint:
		return fmt.Sprintf("arn:aws:bedrock-agentcore:%s:%s:runtime/%s-id/runtime-endpoint/%s",
			c.region, c.accountID, res.Endpoint.RuntimeRef.Name, res.Name)
	default:
		return fmt.Sprintf("arn:aws:sim:%s:%s:%s/%s", c.region, c.accountID, res.Kind, res.Name)
	}
}

func (c *simulatedClient) CreateResource(
	_ context.Context, res *agentruntime.Resource, _ resolver,
) (string, error) {
	key := res.Ref().Key()
	if key == c.failOn {
		return "", fmt.Errorf("simulated failure creating %s", key)
	}
	c.created = append(c.created, key)
	return c.arnFor(res), nil
}

func (c *simulatedClient) UpdateResource(
	_ context.Context, res *agentruntime.Resource, priorARN string, _ resolver,
) (string, error) {
	c.updated = append(c.updated, res.Ref().Key())
	return priorARN, nil
}

func (c *simulatedClient) DeleteResource(_ context.Context, res ResourceState) error {
	key := res.key()
	if key == c.failOn {
		return fmt.Errorf("simulated failure deleting %s", key)
	}
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *simulatedClient) CheckResource(_ context.Context, res ResourceState) (string, error) {
	if h, ok := c.health[res.key()]; ok {
		return h, nil
	}
	return StatusHealthy, nil
}
