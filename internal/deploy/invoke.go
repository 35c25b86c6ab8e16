package deploy

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/google/uuid"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// Invoker sends a single data-plane request to a deployed runtime. It is
// the end-to-end check that the deployed permissions actually work: an
// AgentCore invocation exercises both the runtime and endpoint ARNs a
// grant must cover.
type Invoker struct {
	agentcore *bedrockagentcore.Client
	lambda    *lambda.Client
}

// NewInvoker builds an Invoker for the given region.
func NewInvoker(ctx context.Context, region string) (*Invoker, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Invoker{
		agentcore: bedrockagentcore.NewFromConfig(cfg),
		lambda:    lambda.NewFromConfig(cfg),
	}, nil
}

// InvokeResult is the response from a smoke invocation.
type InvokeResult struct {
	SessionID string `json:"session_id,omitempty"`
	Payload   []byte `json:"payload"`
}

// Invoke routes the payload to the runtime recorded in state. For
// AgentCore deployments the request addresses the endpoint by qualifier;
// for Lambda it is a synchronous function invocation.
func (i *Invoker) Invoke(ctx context.Context, state *DeployState, payload []byte) (*InvokeResult, error) {
	if state == nil {
		return nil, fmt.Errorf("invoke: no deployment state")
	}
	for _, res := range state.Resources {
		switch res.Kind {
		case agentruntime.KindAgentRuntime:
			return i.invokeAgentCore(ctx, state, res, payload)
		case agentruntime.KindFunction:
			return i.invokeLambda(ctx, res, payload)
		}
	}
	return nil, fmt.Errorf("invoke: state contains no invocable runtime")
}

// invokeAgentCore calls InvokeAgentRuntime against the runtime's
// endpoint with a fresh session ID.
func (i *Invoker) invokeAgentCore(
	ctx context.Context, state *DeployState, res ResourceState, payload []byte,
) (*InvokeResult, error) {
	endpointName := ""
	for _, r := range state.Resources {
		if r.Kind == agentruntime.KindRuntimeEndpoint {
			endpointName = r.Name
		}
	}

	// AgentCore session IDs must be at least 33 characters; two UUIDs
	// joined comfortably clears that.
	sessionID := uuid.NewString() + "-" + uuid.NewString()

	input := &bedrockagentcore.InvokeAgentRuntimeInput{
		AgentRuntimeArn:  aws.String(res.ARN),
		RuntimeSessionId: aws.String(sessionID),
		Payload:          payload,
	}
	if endpointName != "" {
		input.Qualifier = aws.String(endpointName)
	}

	out, err := i.agentcore.InvokeAgentRuntime(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("InvokeAgentRuntime %q: %w", res.Name, err)
	}
	defer out.Response.Close()

	body, err := io.ReadAll(out.Response)
	if err != nil {
		return nil, fmt.Errorf("read runtime response: %w", err)
	}
	return &InvokeResult{SessionID: sessionID, Payload: body}, nil
}

// invokeLambda performs a synchronous function invocation.
func (i *Invoker) invokeLambda(
	ctx context.Context, res ResourceState, payload []byte,
) (*InvokeResult, error) {
	out, err := i.lambda.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(res.Name),
		Payload:        payload,
		InvocationType: lambdatypes.InvocationTypeRequestResponse,
	})
	if err != nil {
		return nil, fmt.Errorf("Invoke %q: %w", res.Name, err)
	}
	if out.FunctionError != nil {
		return nil, fmt.Errorf("function %q returned error: %s (payload: %s)",
			res.Name, aws.ToString(out.FunctionError), string(out.Payload))
	}
	return &InvokeResult{Payload: out.Payload}, nil
}
