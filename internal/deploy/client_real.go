package deploy

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	bacctypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// pollInterval is the delay between status checks when waiting for a
// resource to become ready.
const pollInterval = 5 * time.Second

// maxPollAttempts limits how long we wait for a resource to become ready.
const maxPollAttempts = 60

// iamPropagationDelay gives IAM role and policy writes time to propagate
// before a dependent create references them.
const iamPropagationDelay = 10 * time.Second

// RealClient implements resourceCreator, resourceDestroyer, and
// resourceChecker against the AWS APIs.
type RealClient struct {
	iamClient  *iam.Client
	lambda     *lambda.Client
	control    *bedrockagentcorecontrol.Client
	logsClient *cloudwatchlogs.Client
	s3Client   *s3.Client
	ecrClient  *ecr.Client

	region    string
	accountID string
	tags      map[string]string
}

// NewRealClient builds a RealClient for the given region. Before any
// mutation it verifies the caller's account matches expectedAccount, so
// a wrong credential profile fails here instead of half way through a
// deploy.
func NewRealClient(ctx context.Context, region, expectedAccount string, tags map[string]string) (*RealClient, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	callerAccount := aws.ToString(identity.Account)
	if expectedAccount != "" && callerAccount != expectedAccount {
		return nil, fmt.Errorf(
			"AWS caller account %s does not match configured account %s"+
				"; check your AWS credentials or update the config",
			callerAccount, expectedAccount,
		)
	}

	return &RealClient{
		iamClient:  iam.NewFromConfig(cfg),
		lambda:     lambda.NewFromConfig(cfg),
		control:    bedrockagentcorecontrol.NewFromConfig(cfg),
		logsClient: cloudwatchlogs.NewFromConfig(cfg),
		s3Client:   s3.NewFromConfig(cfg),
		ecrClient:  ecr.NewFromConfig(cfg),
		region:     region,
		accountID:  callerAccount,
		tags:       tags,
	}, nil
}

// CreateResource dispatches on the resource kind.
func (c *RealClient) CreateResource(
	ctx context.Context, res *agentruntime.Resource, refs resolver,
) (string, error) {
	switch res.Kind {
	case agentruntime.KindExecutionRole:
		return c.createRole(ctx, res)
	case agentruntime.KindRolePolicy:
		return c.putRolePolicy(ctx, res)
	case agentruntime.KindLogGroup:
		return c.createLogGroup(ctx, res)
	case agentruntime.KindFunction:
		return c.createFunction(ctx, res, refs)
	case agentruntime.KindAgentRuntime:
		return c.createRuntime(ctx, res, refs)
	case agentruntime.KindRuntimeEndpoint:
		return c.createEndpoint(ctx, res, refs)
	case agentruntime.KindInvokePermission:
		return c.addInvokePermission(ctx, res, refs)
	default:
		return "", fmt.Errorf("unknown resource kind %q", res.Kind)
	}
}

// UpdateResource applies in-place updates where the service supports
// them; immutable or idempotent kinds fall back to re-put or no-op.
func (c *RealClient) UpdateResource(
	ctx context.Context, res *agentruntime.Resource, priorARN string, refs resolver,
) (string, error) {
	switch res.Kind {
	case agentruntime.KindExecutionRole, agentruntime.KindLogGroup:
		// No mutable fields on these kinds; keep the existing resource.
		return priorARN, nil
	case agentruntime.KindRolePolicy:
		// PutRolePolicy overwrites, so update is the same call as create.
		return c.putRolePolicy(ctx, res)
	case agentruntime.KindFunction:
		return c.updateFunction(ctx, res, priorARN, refs)
	case agentruntime.KindAgentRuntime:
		return c.updateRuntime(ctx, res, priorARN, refs)
	case agentruntime.KindRuntimeEndpoint:
		return priorARN, nil
	case agentruntime.KindInvokePermission:
		return c.addInvokePermission(ctx, res, refs)
	default:
		return "", fmt.Errorf("unknown resource kind %q", res.Kind)
	}
}

// ---------- IAM ----------

// assumeRolePolicy renders the trust policy for a service-assumable role.
func assumeRolePolicy(service string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":%q},"Action":"sts:AssumeRole"}]}`, service)
}

func (c *RealClient) createRole(ctx context.Context, res *agentruntime.Resource) (string, error) {
	var tags []iamtypes.Tag
	for _, k := range sortedTagKeys(c.tags) {
		tags = append(tags, iamtypes.Tag{Key: aws.String(k), Value: aws.String(c.tags[k])})
	}
	out, err := c.iamClient.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(res.Name),
		AssumeRolePolicyDocument: aws.String(assumeRolePolicy(res.Role.AssumeService)),
		Tags:                     tags,
	})
	if err != nil {
		if isEntityExists(err) {
			log.Printf("deploy: role %q already exists, adopting", res.Name)
			got, getErr := c.iamClient.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(res.Name)})
			if getErr != nil {
				return "", getErr
			}
			return aws.ToString(got.Role.Arn), nil
		}
		return "", fmt.Errorf("CreateRole %q: %w", res.Name, err)
	}
	return aws.ToString(out.Role.Arn), nil
}

func (c *RealClient) putRolePolicy(ctx context.Context, res *agentruntime.Resource) (string, error) {
	doc, err := agentruntime.MarshalPolicy(res.RolePolicy.Statements)
	if err != nil {
		return "", fmt.Errorf("marshal policy %q: %w", res.Name, err)
	}
	roleName := res.RolePolicy.RoleName
	if res.RolePolicy.RoleARN != "" {
		roleName = roleNameFromARN(res.RolePolicy.RoleARN)
	}
	_, err = c.iamClient.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(roleName),
		PolicyName:     aws.String(res.Name),
		PolicyDocument: aws.String(doc),
	})
	if err != nil {
		return "", fmt.Errorf("PutRolePolicy %q on role %q: %w", res.Name, roleName, err)
	}
	// IAM writes are eventually consistent; a runtime created in the next
	// breath would be validated against the stale policy set.
	time.Sleep(iamPropagationDelay)
	return fmt.Sprintf("arn:aws:iam::%s:role/%s/policy/%s", c.accountID, roleName, res.Name), nil
}

// ---------- CloudWatch Logs ----------

func (c *RealClient) createLogGroup(ctx context.Context, res *agentruntime.Resource) (string, error) {
	_, err := c.logsClient.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(res.LogGroup.LogGroupName),
		Tags:         c.tags,
	})
	if err != nil && !isAlreadyExists(err) {
		return "", fmt.Errorf("CreateLogGroup %q: %w", res.LogGroup.LogGroupName, err)
	}
	return fmt.Sprintf("arn:aws:logs:%s:%s:log-group:%s", c.region, c.accountID, res.LogGroup.LogGroupName), nil
}

// ---------- Lambda ----------

func (c *RealClient) createFunction(
	ctx context.Context, res *agentruntime.Resource, refs resolver,
) (string, error) {
	spec := res.Function

	// Preflight: the code archive must exist, or CreateFunction fails
	// with a less helpful error after the role round-trip.
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(spec.CodeBucket),
		Key:    aws.String(spec.CodeKey),
	})
	if err != nil {
		return "", fmt.Errorf("code archive s3://%s/%s not readable: %w", spec.CodeBucket, spec.CodeKey, err)
	}

	roleARN := spec.RoleARN
	if roleARN == "" {
		roleARN = refs.arn(spec.RoleRef)
	}

	input := &lambda.CreateFunctionInput{
		FunctionName: aws.String(spec.FunctionName),
		Role:         aws.String(roleARN),
		Handler:      aws.String(spec.Handler + ".handler"),
		Runtime:      lambdatypes.Runtime(spec.Runtime),
		Code: &lambdatypes.FunctionCode{
			S3Bucket: aws.String(spec.CodeBucket),
			S3Key:    aws.String(spec.CodeKey),
		},
		Timeout:       aws.Int32(spec.TimeoutSeconds),
		MemorySize:    aws.Int32(spec.MemoryMB),
		Architectures: []lambdatypes.Architecture{lambdatypes.Architecture(spec.Architecture)},
		EphemeralStorage: &lambdatypes.EphemeralStorage{
			Size: aws.Int32(spec.EphemeralStorageMB),
		},
		Tags: c.tags,
	}
	if len(spec.Environment) > 0 {
		input.Environment = &lambdatypes.Environment{Variables: spec.Environment}
	}
	if len(spec.Layers) > 0 {
		input.Layers = spec.Layers
	}

	out, err := c.lambda.CreateFunction(ctx, input)
	if err != nil {
		return "", fmt.Errorf("CreateFunction %q: %w", spec.FunctionName, err)
	}
	arn := aws.ToString(out.FunctionArn)
	if err := c.waitForFunctionActive(ctx, spec.FunctionName); err != nil {
		return arn, fmt.Errorf("function %q created but not active: %w", spec.FunctionName, err)
	}
	return arn, nil
}

func (c *RealClient) updateFunction(
	ctx context.Context, res *agentruntime.Resource, priorARN string, refs resolver,
) (string, error) {
	spec := res.Function
	_, err := c.lambda.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(spec.FunctionName),
		S3Bucket:     aws.String(spec.CodeBucket),
		S3Key:        aws.String(spec.CodeKey),
	})
	if err != nil {
		return priorARN, fmt.Errorf("UpdateFunctionCode %q: %w", spec.FunctionName, err)
	}
	if err := c.waitForFunctionActive(ctx, spec.FunctionName); err != nil {
		return priorARN, err
	}

	cfgInput := &lambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(spec.FunctionName),
		Handler:      aws.String(spec.Handler + ".handler"),
		Timeout:      aws.Int32(spec.TimeoutSeconds),
		MemorySize:   aws.Int32(spec.MemoryMB),
		EphemeralStorage: &lambdatypes.EphemeralStorage{
			Size: aws.Int32(spec.EphemeralStorageMB),
		},
	}
	if len(spec.Environment) > 0 {
		cfgInput.Environment = &lambdatypes.Environment{Variables: spec.Environment}
	}
	if len(spec.Layers) > 0 {
		cfgInput.Layers = spec.Layers
	}
	if _, err := c.lambda.UpdateFunctionConfiguration(ctx, cfgInput); err != nil {
		return priorARN, fmt.Errorf("UpdateFunctionConfiguration %q: %w", spec.FunctionName, err)
	}
	if err := c.waitForFunctionActive(ctx, spec.FunctionName); err != nil {
		return priorARN, err
	}
	return priorARN, nil
}

// waitForFunctionActive polls GetFunction until the function leaves the
// Pending state.
func (c *RealClient) waitForFunctionActive(ctx context.Context, name string) error {
	for range maxPollAttempts {
		out, err := c.lambda.GetFunction(ctx, &lambda.GetFunctionInput{
			FunctionName: aws.String(name),
		})
		if err != nil {
			return fmt.Errorf("polling function %q: %w", name, err)
		}
		state := out.Configuration.State
		lastStatus := out.Configuration.LastUpdateStatus
		switch {
		case state == lambdatypes.StateFailed:
			return fmt.Errorf("function %q entered state Failed: %s", name,
				aws.ToString(out.Configuration.StateReason))
		case lastStatus == lambdatypes.LastUpdateStatusFailed:
			return fmt.Errorf("function %q update failed: %s", name,
				aws.ToString(out.Configuration.LastUpdateStatusReason))
		case state == lambdatypes.StateActive &&
			lastStatus != lambdatypes.LastUpdateStatusInProgress:
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("function %q did not become active after %d attempts", name, maxPollAttempts)
}

// ---------- AgentCore control plane ----------

func (c *RealClient) createRuntime(
	ctx context.Context, res *agentruntime.Resource, refs resolver,
) (string, error) {
	spec := res.Runtime

	// spec.MinCapacity/MaxCapacity are not sent: CreateAgentRuntime has
	// no scaling configuration yet. They ride in the runtime spec so
	// they land here once the API grows a surface.
	c.preflightImageRepository(ctx, spec.ImageURI)

	roleARN := spec.RoleARN
	if roleARN == "" {
		roleARN = refs.arn(spec.RoleRef)
	}

	input := &bedrockagentcorecontrol.CreateAgentRuntimeInput{
		AgentRuntimeName: aws.String(spec.RuntimeName),
		RoleArn:          aws.String(roleARN),
		AgentRuntimeArtifact: &bacctypes.AgentRuntimeArtifactMemberContainerConfiguration{
			Value: bacctypes.ContainerConfiguration{
				ContainerUri: aws.String(spec.ImageURI),
			},
		},
		NetworkConfiguration: &bacctypes.NetworkConfiguration{
			NetworkMode: bacctypes.NetworkModePublic,
		},
	}
	if len(spec.Environment) > 0 {
		input.EnvironmentVariables = spec.Environment
	}
	if len(c.tags) > 0 {
		input.Tags = c.tags
	}

	out, err := c.control.CreateAgentRuntime(ctx, input)
	if err != nil {
		if isConflictError(err) {
			log.Printf("deploy: runtime %q already exists, adopting", spec.RuntimeName)
			return c.findRuntimeByName(ctx, spec.RuntimeName)
		}
		return "", fmt.Errorf("CreateAgentRuntime %q: %w", spec.RuntimeName, err)
	}

	arn := aws.ToString(out.AgentRuntimeArn)
	if err := c.waitForRuntimeReady(ctx, aws.ToString(out.AgentRuntimeId)); err != nil {
		return arn, fmt.Errorf("runtime %q created but not ready: %w", spec.RuntimeName, err)
	}
	return arn, nil
}

func (c *RealClient) updateRuntime(
	ctx context.Context, res *agentruntime.Resource, priorARN string, refs resolver,
) (string, error) {
	spec := res.Runtime
	id := extractResourceID(priorARN, "runtime")
	if id == "" {
		return "", fmt.Errorf("UpdateAgentRuntime %q: could not extract ID from ARN %q", spec.RuntimeName, priorARN)
	}

	roleARN := spec.RoleARN
	if roleARN == "" {
		roleARN = refs.arn(spec.RoleRef)
	}

	input := &bedrockagentcorecontrol.UpdateAgentRuntimeInput{
		AgentRuntimeId: aws.String(id),
		RoleArn:        aws.String(roleARN),
		AgentRuntimeArtifact: &bacctypes.AgentRuntimeArtifactMemberContainerConfiguration{
			Value: bacctypes.ContainerConfiguration{
				ContainerUri: aws.String(spec.ImageURI),
			},
		},
		NetworkConfiguration: &bacctypes.NetworkConfiguration{
			NetworkMode: bacctypes.NetworkModePublic,
		},
	}
	if len(spec.Environment) > 0 {
		input.EnvironmentVariables = spec.Environment
	}
	if _, err := c.control.UpdateAgentRuntime(ctx, input); err != nil {
		return priorARN, fmt.Errorf("UpdateAgentRuntime %q: %w", spec.RuntimeName, err)
	}
	if err := c.waitForRuntimeReady(ctx, id); err != nil {
		return priorARN, fmt.Errorf("runtime %q updated but not ready: %w", spec.RuntimeName, err)
	}
	return priorARN, nil
}

// preflightImageRepository warns when the image's ECR repository cannot
// be described. The deploy proceeds, since the repository may live in
// another account, but a typo'd repository name surfaces here instead of as an
// opaque runtime creation failure.
func (c *RealClient) preflightImageRepository(ctx context.Context, uri string) {
	ref, ok := agentruntime.ParseImageURI(uri)
	if !ok || ref.AccountID != c.accountID {
		return
	}
	_, err := c.ecrClient.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{ref.Repository},
	})
	if err != nil {
		log.Printf("deploy: ECR repository %q not describable: %v", ref.Repository, err)
	}
}

func (c *RealClient) createEndpoint(
	ctx context.Context, res *agentruntime.Resource, refs resolver,
) (string, error) {
	spec := res.Endpoint
	runtimeARN := refs.arn(spec.RuntimeRef)
	id := extractResourceID(runtimeARN, "runtime")
	if id == "" {
		return "", fmt.Errorf("CreateAgentRuntimeEndpoint %q: could not extract runtime ID from ARN %q",
			spec.EndpointName, runtimeARN)
	}

	out, err := c.control.CreateAgentRuntimeEndpoint(ctx, &bedrockagentcorecontrol.CreateAgentRuntimeEndpointInput{
		AgentRuntimeId: aws.String(id),
		Name:           aws.String(spec.EndpointName),
	})
	if err != nil {
		if isConflictError(err) {
			log.Printf("deploy: endpoint %q already exists, adopting", spec.EndpointName)
			return c.findEndpointARN(ctx, id, spec.EndpointName)
		}
		return "", fmt.Errorf("CreateAgentRuntimeEndpoint %q: %w", spec.EndpointName, err)
	}

	arn := aws.ToString(out.AgentRuntimeEndpointArn)
	if err := c.waitForEndpointReady(ctx, id, spec.EndpointName); err != nil {
		return arn, fmt.Errorf("endpoint %q created but not ready: %w", spec.EndpointName, err)
	}
	return arn, nil
}

func (c *RealClient) addInvokePermission(
	ctx context.Context, res *agentruntime.Resource, refs resolver,
) (string, error) {
	spec := res.Permission

	arns := make([]string, 0, len(spec.Resources))
	for _, ref := range spec.Resources {
		if arn := refs.arn(ref); arn != "" {
			arns = append(arns, arn)
		}
	}

	// Service principals on Lambda functions use the function resource
	// policy; IAM identities get an inline policy on their own role.
	if spec.Principal.Service != "" {
		return c.addServicePermission(ctx, res.Name, spec, arns)
	}
	return c.addIdentityPermission(ctx, res.Name, spec, arns)
}

func (c *RealClient) addServicePermission(
	ctx context.Context, name string, spec *agentruntime.PermissionSpec, arns []string,
) (string, error) {
	for _, ref := range spec.Resources {
		if ref.Kind != agentruntime.KindFunction {
			continue
		}
		_, err := c.lambda.AddPermission(ctx, &lambda.AddPermissionInput{
			FunctionName: aws.String(ref.Name),
			StatementId:  aws.String(name),
			Action:       aws.String("lambda:InvokeFunction"),
			Principal:    aws.String(spec.Principal.Service),
		})
		if err != nil && !isConflictError(err) {
			return "", fmt.Errorf("AddPermission %q on %q: %w", name, ref.Name, err)
		}
	}
	// AgentCore has no resource policy surface; service-principal access
	// to runtimes is governed by the service's own integration role.
	return fmt.Sprintf("permission/%s", name), nil
}

func (c *RealClient) addIdentityPermission(
	ctx context.Context, name string, spec *agentruntime.PermissionSpec, arns []string,
) (string, error) {
	roleName := roleNameFromARN(spec.Principal.ARN)
	doc, err := agentruntime.MarshalPolicy([]agentruntime.PolicyStatement{
		agentruntime.AllowStatement("", spec.Actions, arns),
	})
	if err != nil {
		return "", fmt.Errorf("marshal invoke policy %q: %w", name, err)
	}
	_, err = c.iamClient.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(roleName),
		PolicyName:     aws.String(name),
		PolicyDocument: aws.String(doc),
	})
	if err != nil {
		return "", fmt.Errorf("PutRolePolicy %q on caller role %q: %w", name, roleName, err)
	}
	return fmt.Sprintf("arn:aws:iam::%s:role/%s/policy/%s", c.accountID, roleName, name), nil
}

// ---------- polling ----------

// waitForRuntimeReady polls GetAgentRuntime until the status is READY or
// a terminal failure state.
func (c *RealClient) waitForRuntimeReady(ctx context.Context, id string) error {
	for range maxPollAttempts {
		out, err := c.control.GetAgentRuntime(ctx, &bedrockagentcorecontrol.GetAgentRuntimeInput{
			AgentRuntimeId: aws.String(id),
		})
		if err != nil {
			return fmt.Errorf("polling runtime %q: %w", id, err)
		}
		switch out.Status {
		case bacctypes.AgentRuntimeStatusReady:
			return nil
		case bacctypes.AgentRuntimeStatusCreateFailed, bacctypes.AgentRuntimeStatusUpdateFailed:
			reason := ""
			if out.FailureReason != nil {
				reason = ": " + *out.FailureReason
			}
			return fmt.Errorf("runtime %q entered status %s%s", id, out.Status, reason)
		case bacctypes.AgentRuntimeStatusCreating,
			bacctypes.AgentRuntimeStatusUpdating,
			bacctypes.AgentRuntimeStatusDeleting:
			// Transitional states, keep polling.
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("runtime %q did not become ready after %d attempts", id, maxPollAttempts)
}

// waitForEndpointReady polls GetAgentRuntimeEndpoint until the status is
// READY or a terminal failure state.
func (c *RealClient) waitForEndpointReady(ctx context.Context, runtimeID, name string) error {
	for range maxPollAttempts {
		out, err := c.control.GetAgentRuntimeEndpoint(ctx, &bedrockagentcorecontrol.GetAgentRuntimeEndpointInput{
			AgentRuntimeId: aws.String(runtimeID),
			EndpointName:   aws.String(name),
		})
		if err != nil {
			return fmt.Errorf("polling endpoint %q: %w", name, err)
		}
		switch out.Status {
		case bacctypes.AgentRuntimeEndpointStatusReady:
			return nil
		case bacctypes.AgentRuntimeEndpointStatusCreateFailed,
			bacctypes.AgentRuntimeEndpointStatusUpdateFailed:
			reason := ""
			if out.FailureReason != nil {
				reason = ": " + *out.FailureReason
			}
			return fmt.Errorf("endpoint %q entered status %s%s", name, out.Status, reason)
		case bacctypes.AgentRuntimeEndpointStatusCreating,
			bacctypes.AgentRuntimeEndpointStatusUpdating,
			bacctypes.AgentRuntimeEndpointStatusDeleting:
			// Transitional states, keep polling.
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("endpoint %q did not become ready after %d attempts", name, maxPollAttempts)
}

// findRuntimeByName lists runtimes and returns the ARN of one matching
// name.
func (c *RealClient) findRuntimeByName(ctx context.Context, name string) (string, error) {
	out, err := c.control.ListAgentRuntimes(ctx, &bedrockagentcorecontrol.ListAgentRuntimesInput{
		MaxResults: aws.Int32(100),
	})
	if err != nil {
		return "", err
	}
	for _, rt := range out.AgentRuntimes {
		if aws.ToString(rt.AgentRuntimeName) == name {
			return aws.ToString(rt.AgentRuntimeArn), nil
		}
	}
	return "", fmt.Errorf("runtime %q not found", name)
}

// findEndpointARN returns the ARN of an existing endpoint.
func (c *RealClient) findEndpointARN(ctx context.Context, runtimeID, name string) (string, error) {
	out, err := c.control.GetAgentRuntimeEndpoint(ctx, &bedrockagentcorecontrol.GetAgentRuntimeEndpointInput{
		AgentRuntimeId: aws.String(runtimeID),
		EndpointName:   aws.String(name),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.AgentRuntimeEndpointArn), nil
}

// ---------- resourceDestroyer ----------

// DeleteResource deletes a single resource. Missing resources are
// treated as already deleted.
func (c *RealClient) DeleteResource(ctx context.Context, res ResourceState) error {
	var err error
	switch res.Kind {
	case agentruntime.KindExecutionRole:
		_, err = c.iamClient.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(res.Name)})
	case agentruntime.KindRolePolicy:
		err = c.deleteRolePolicy(ctx, res)
	case agentruntime.KindLogGroup:
		_, err = c.logsClient.DeleteLogGroup(ctx, &cloudwatchlogs.DeleteLogGroupInput{
			LogGroupName: aws.String(res.Name),
		})
	case agentruntime.KindFunction:
		_, err = c.lambda.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
			FunctionName: aws.String(res.Name),
		})
	case agentruntime.KindAgentRuntime:
		id := extractResourceID(res.ARN, "runtime")
		if id == "" {
			return fmt.Errorf("delete runtime %q: no runtime ID in ARN %q", res.Name, res.ARN)
		}
		_, err = c.control.DeleteAgentRuntime(ctx, &bedrockagentcorecontrol.DeleteAgentRuntimeInput{
			AgentRuntimeId: aws.String(id),
		})
	case agentruntime.KindRuntimeEndpoint:
		err = c.deleteEndpoint(ctx, res)
	case agentruntime.KindInvokePermission:
		// Inline grants on caller roles and Lambda permission statements
		// are cheap to leave and ambiguous to reverse without the grant
		// record; skip.
		return nil
	default:
		return fmt.Errorf("unknown resource kind %q", res.Kind)
	}
	if err != nil && (isNotFound(err) || isIAMNotFound(err) || isLogsNotFound(err) || isLambdaNotFound(err)) {
		return nil
	}
	return err
}

func (c *RealClient) deleteRolePolicy(ctx context.Context, res ResourceState) error {
	roleName := res.Metadata["role"]
	if roleName == "" {
		// The policy ARN recorded at apply time encodes the role name.
		roleName = extractResourceID(res.ARN, "role")
		if j := strings.IndexByte(roleName, '/'); j >= 0 {
			roleName = roleName[:j]
		}
	}
	if roleName == "" {
		return fmt.Errorf("delete role policy %q: cannot determine owning role", res.Name)
	}
	_, err := c.iamClient.DeleteRolePolicy(ctx, &iam.DeleteRolePolicyInput{
		RoleName:   aws.String(roleName),
		PolicyName: aws.String(res.Name),
	})
	return err
}

func (c *RealClient) deleteEndpoint(ctx context.Context, res ResourceState) error {
	runtimeID := res.Metadata["runtime_id"]
	if runtimeID == "" {
		runtimeID = extractResourceID(res.ARN, "runtime")
		if j := strings.IndexByte(runtimeID, '/'); j >= 0 {
			runtimeID = runtimeID[:j]
		}
	}
	if runtimeID == "" {
		return fmt.Errorf("delete endpoint %q: cannot determine owning runtime", res.Name)
	}
	_, err := c.control.DeleteAgentRuntimeEndpoint(ctx, &bedrockagentcorecontrol.DeleteAgentRuntimeEndpointInput{
		AgentRuntimeId: aws.String(runtimeID),
		EndpointName:   aws.String(res.Name),
	})
	return err
}

// ---------- resourceChecker ----------

// CheckResource returns the health status of a single resource.
func (c *RealClient) CheckResource(ctx context.Context, res ResourceState) (string, error) {
	switch res.Kind {
	case agentruntime.KindExecutionRole:
		_, err := c.iamClient.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(res.Name)})
		return missingOrHealthy(err, isIAMNotFound)
	case agentruntime.KindRolePolicy, agentruntime.KindInvokePermission:
		// Policies have no independent health; presence of the role
		// covers them.
		return StatusHealthy, nil
	case agentruntime.KindLogGroup:
		return c.checkLogGroup(ctx, res.Name)
	case agentruntime.KindFunction:
		return c.checkFunction(ctx, res.Name)
	case agentruntime.KindAgentRuntime:
		return c.checkRuntime(ctx, res)
	case agentruntime.KindRuntimeEndpoint:
		return c.checkEndpoint(ctx, res)
	default:
		return StatusUnhealthy, fmt.Errorf("unknown resource kind %q", res.Kind)
	}
}

func (c *RealClient) checkLogGroup(ctx context.Context, name string) (string, error) {
	out, err := c.logsClient.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(name),
	})
	if err != nil {
		return StatusUnhealthy, err
	}
	for _, lg := range out.LogGroups {
		if aws.ToString(lg.LogGroupName) == name {
			return StatusHealthy, nil
		}
	}
	return StatusMissing, nil
}

func (c *RealClient) checkFunction(ctx context.Context, name string) (string, error) {
	out, err := c.lambda.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(name),
	})
	if err != nil {
		if isLambdaNotFound(err) {
			return StatusMissing, nil
		}
		return StatusUnhealthy, err
	}
	if out.Configuration.State == lambdatypes.StateActive {
		return StatusHealthy, nil
	}
	return StatusUnhealthy, nil
}

func (c *RealClient) checkRuntime(ctx context.Context, res ResourceState) (string, error) {
	id := extractResourceID(res.ARN, "runtime")
	out, err := c.control.GetAgentRuntime(ctx, &bedrockagentcorecontrol.GetAgentRuntimeInput{
		AgentRuntimeId: aws.String(id),
	})
	if err != nil {
		if isNotFound(err) {
			return StatusMissing, nil
		}
		return StatusUnhealthy, err
	}
	if out.Status == bacctypes.AgentRuntimeStatusReady {
		return StatusHealthy, nil
	}
	return StatusUnhealthy, nil
}

func (c *RealClient) checkEndpoint(ctx context.Context, res ResourceState) (string, error) {
	runtimeID := res.Metadata["runtime_id"]
	if runtimeID == "" {
		runtimeID = extractResourceID(res.ARN, "runtime")
		if j := strings.IndexByte(runtimeID, '/'); j >= 0 {
			runtimeID = runtimeID[:j]
		}
	}
	out, err := c.control.GetAgentRuntimeEndpoint(ctx, &bedrockagentcorecontrol.GetAgentRuntimeEndpointInput{
		AgentRuntimeId: aws.String(runtimeID),
		EndpointName:   aws.String(res.Name),
	})
	if err != nil {
		if isNotFound(err) {
			return StatusMissing, nil
		}
		return StatusUnhealthy, err
	}
	if out.Status == bacctypes.AgentRuntimeEndpointStatusReady {
		return StatusHealthy, nil
	}
	return StatusUnhealthy, nil
}

// missingOrHealthy maps a get error to a health status.
func missingOrHealthy(err error, notFound func(error) bool) (string, error) {
	if err == nil {
		return StatusHealthy, nil
	}
	if notFound(err) {
		return StatusMissing, nil
	}
	return StatusUnhealthy, err
}
