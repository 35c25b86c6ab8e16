package agentruntime

import (
	"fmt"
	"log"
	"time"
)

// agentCoreInvokeAction is the data-plane action granted by GrantInvoke.
const agentCoreInvokeAction = "bedrock-agentcore:InvokeAgentRuntime"

// agentCoreServicePrincipal is the service allowed to assume a
// deployment-managed AgentCore execution role.
const agentCoreServicePrincipal = "bedrock-agentcore.amazonaws.com"

// Environment keys wired for the observability pass-through.
const (
	EnvObservabilityEnabled = "AGENT_OBSERVABILITY_ENABLED"
	EnvOTELResourceAttrs    = "OTEL_RESOURCE_ATTRIBUTES"
	EnvOTELLogsHeaders      = "OTEL_EXPORTER_OTLP_LOGS_HEADERS"
)

// ecrPullActions are the repository-scoped actions needed to pull a
// container image.
var ecrPullActions = []string{
	"ecr:BatchGetImage",
	"ecr:GetDownloadUrlForLayer",
	"ecr:BatchCheckLayerAvailability",
}

// ec2DescribeActions are the read-only network-introspection actions
// granted when a VPC placement request is degraded to public networking,
// so a later move into a VPC does not require a role change.
var ec2DescribeActions = []string{
	"ec2:DescribeVpcs",
	"ec2:DescribeSubnets",
	"ec2:DescribeSecurityGroups",
	"ec2:DescribeNetworkInterfaces",
}

// AgentCoreRuntime is the long-running, session-oriented runtime: a
// Bedrock AgentCore runtime plus a named endpoint. Suited to executions
// up to eight hours.
//
// Logging is platform-owned: AgentCore provisions its own log group
// (".../runtimes/{id}-{endpoint}/runtime-logs") after deployment, so
// LogGroup reports no group at synthesis time.
type AgentCoreRuntime struct {
	props *Props
	cfg   AgentCoreRuntimeConfig

	name         string
	endpointName string
	imageURI     string
	role         *ExecutionRole
	env          map[string]string
	grants       map[string]*Grant
	grantKeys    []string
	warnings     []Warning
	finalized    bool
}

// NewAgentCoreRuntime validates props and constructs an AgentCore-backed
// runtime. CONTAINER is the only deployment method supported end-to-end;
// DIRECT_CODE is validated and then rejected with *UnsupportedError so
// callers can tell a feature gate apart from misconfiguration.
func NewAgentCoreRuntime(p *Props) (*AgentCoreRuntime, error) {
	if err := p.validateCommon("AGENTCORE"); err != nil {
		return nil, err
	}

	cfg := AgentCoreRuntimeConfig{}
	if p.AgentCore != nil {
		cfg = *p.AgentCore
	}
	cfg.applyDefaults()
	if time.Duration(cfg.Timeout) > MaxAgentCoreTimeout {
		return nil, &ConfigError{Field: "timeout", Variant: "AGENTCORE",
			Reason: fmt.Sprintf("%s exceeds the AgentCore maximum of %s", cfg.Timeout, MaxAgentCoreTimeout)}
	}
	if cfg.MinCapacity < 0 || cfg.MaxCapacity < 0 {
		return nil, &ConfigError{Field: "agentcore.min_capacity/max_capacity", Variant: "AGENTCORE",
			Reason: "scaling bounds must be non-negative"}
	}
	if cfg.MaxCapacity != 0 && cfg.MaxCapacity < cfg.MinCapacity {
		return nil, &ConfigError{Field: "agentcore.max_capacity", Variant: "AGENTCORE",
			Reason: fmt.Sprintf("max_capacity %d is below min_capacity %d", cfg.MaxCapacity, cfg.MinCapacity)}
	}

	r := &AgentCoreRuntime{
		props:        p,
		cfg:          cfg,
		name:         SanitizeName(p.Name),
		endpointName: EndpointName(p.Name),
		env:          copyEnv(p.Environment),
		grants:       make(map[string]*Grant),
	}
	if r.name != p.Name {
		r.warnings = append(r.warnings, Warning{
			Category: WarnCategoryNaming,
			Message:  fmt.Sprintf("runtime name %q sanitized to %q to satisfy %s", p.Name, r.name, awsNamePattern),
		})
	}

	if p.ExecutionRoleARN != "" {
		r.role = newCallerRole(p.ExecutionRoleARN)
	} else {
		r.role = newManagedRole(r.name+"_execution_role", agentCoreServicePrincipal)
	}

	switch cfg.DeploymentMethod {
	// Exactly one locator pair may be populated, and it must match the
	// deployment method. A stray second locator means the config says two
	// different things about where the code lives; refusing is safer than
	// guessing which one the author meant.
	case DeploymentMethodContainer:
		if cfg.ImageURI == "" {
			return nil, &ConfigError{Field: "agentcore.image_uri", Variant: "AGENTCORE/CONTAINER",
				Reason: "a container image URI is required"}
		}
		if cfg.CodeBucket != "" || cfg.CodeKey != "" {
			return nil, &ConfigError{Field: "agentcore.code_bucket/code_key", Variant: "AGENTCORE/CONTAINER",
				Reason: "an S3 code location conflicts with the CONTAINER deployment method; set exactly one code locator"}
		}
		r.imageURI = cfg.ImageURI
		r.addImagePullPermissions(cfg.ImageURI)

	case DeploymentMethodDirectCode:
		if cfg.CodeBucket == "" || cfg.CodeKey == "" {
			return nil, &ConfigError{Field: "agentcore.code_bucket/code_key", Variant: "AGENTCORE/DIRECT_CODE",
				Reason: "an S3 code location (bucket and key) is required"}
		}
		if cfg.ImageURI != "" {
			return nil, &ConfigError{Field: "agentcore.image_uri", Variant: "AGENTCORE/DIRECT_CODE",
				Reason: "a container image URI conflicts with the DIRECT_CODE deployment method; set exactly one code locator"}
		}
		// The archive permission is staged so the gate below is the only
		// thing standing between this configuration and a working deploy.
		r.role.AddStatement(AllowStatement("ReadCodeArchive",
			[]string{"s3:GetObject"},
			[]string{fmt.Sprintf("arn:aws:s3:::%s/%s", cfg.CodeBucket, cfg.CodeKey)},
		))
		return nil, &UnsupportedError{
			Feature: "DIRECT_CODE deployment",
			Hint:    "package the agent as a container image and use the CONTAINER deployment method",
		}

	default:
		return nil, &ConfigError{Field: "agentcore.deployment_method", Variant: "AGENTCORE",
			Reason: fmt.Sprintf("%q is not a recognized deployment method", cfg.DeploymentMethod)}
	}

	// AgentCore only exposes public networking today. A VPC request is
	// degraded, loudly, and the role gets read-only network introspection
	// so the eventual move into a VPC is a config change, not a role change.
	if p.NetworkMode == NetworkModeVPC {
		r.warnings = append(r.warnings, Warning{
			Category: WarnCategoryNetwork,
			Message:  fmt.Sprintf("runtime %q requested VPC placement; AgentCore runtimes currently deploy with public networking", r.name),
			Hint:     "VPC placement will be honored once the platform supports it",
		})
		r.role.AddStatement(AllowStatement("DescribeNetworking", ec2DescribeActions, []string{"*"}))
	}

	if p.ObservabilityEnabled {
		r.env[EnvObservabilityEnabled] = "true"
		r.role.AddStatement(AllowStatement("EmitTelemetry",
			[]string{
				"logs:CreateLogGroup", "logs:CreateLogStream", "logs:PutLogEvents",
				"logs:DescribeLogStreams", "logs:DescribeLogGroups",
				"xray:PutTraceSegments", "xray:PutTelemetryRecords",
				"cloudwatch:PutMetricData",
			},
			[]string{"*"},
		))
	}

	return r, nil
}

// addImagePullPermissions derives the narrowest pull permission the image
// URI allows. GetAuthorizationToken is account-scoped by the service and
// only accepts "*"; the layer-pull actions are scoped to the single
// repository when the URI parses, and widened with a recorded warning
// when it does not.
func (r *AgentCoreRuntime) addImagePullPermissions(uri string) {
	r.role.AddStatement(AllowStatement("EcrAuth",
		[]string{"ecr:GetAuthorizationToken"}, []string{"*"}))

	if ref, ok := ParseImageURI(uri); ok {
		r.role.AddStatement(AllowStatement("PullAgentImage", ecrPullActions,
			[]string{ref.RepositoryARN()}))
		return
	}
	r.warnings = append(r.warnings, Warning{
		Category: WarnCategoryPermission,
		Message:  fmt.Sprintf("image URI %q does not match the ECR URI format; granting image pull on all repositories", uri),
		Hint:     "use a private ECR image ({account}.dkr.ecr.{region}.amazonaws.com/{repo}:{tag}) to scope pull permissions",
	})
	r.role.AddStatement(AllowStatement("PullAgentImage", ecrPullActions, []string{"*"}))
}

// RuntimeType reports AGENTCORE.
func (r *AgentCoreRuntime) RuntimeType() RuntimeType { return RuntimeTypeAgentCore }

// Name returns the sanitized runtime name.
func (r *AgentCoreRuntime) Name() string { return r.name }

// EndpointName returns the derived endpoint name.
func (r *AgentCoreRuntime) EndpointName() string { return r.endpointName }

// ExecutionRole returns the runtime's execution identity.
func (r *AgentCoreRuntime) ExecutionRole() *ExecutionRole { return r.role }

// InvocationResources returns both resources a caller must be authorized
// against: the runtime and its endpoint. Invocations address the
// endpoint, and the service authorizes against the runtime as well, so a
// grant covering only one of the two fails at request time.
func (r *AgentCoreRuntime) InvocationResources() []ResourceRef {
	return []ResourceRef{
		{Kind: KindAgentRuntime, Name: r.name},
		{Kind: KindRuntimeEndpoint, Name: r.endpointName},
	}
}

// LogGroup reports no log group: the platform provisions one per
// runtime/endpoint pair after deployment.
func (r *AgentCoreRuntime) LogGroup() string { return "" }

// GrantInvoke authorizes the principal against the runtime and endpoint
// pair. Repeat grants for the same principal return the original grant.
func (r *AgentCoreRuntime) GrantInvoke(p Principal) *Grant {
	if g, ok := r.grants[p.key()]; ok {
		return g
	}
	if r.finalized {
		log.Printf("agentruntime: ignoring GrantInvoke(%s) on finalized runtime %q", p, r.name)
		return nil
	}
	g := &Grant{
		Principal: p,
		Actions:   []string{agentCoreInvokeAction},
		Resources: r.InvocationResources(),
	}
	r.grants[p.key()] = g
	r.grantKeys = append(r.grantKeys, p.key())
	return g
}

// AddEnvironment buffers an environment variable. AgentCore has no
// post-deployment environment mutation path, so unlike a live Lambda
// update this only ever lands via synthesis.
func (r *AgentCoreRuntime) AddEnvironment(key, value string) {
	if r.finalized {
		log.Printf("agentruntime: ignoring AddEnvironment(%q) on finalized runtime %q", key, r.name)
		return
	}
	r.env[key] = value
}

// AddToRolePolicy widens the execution role.
func (r *AgentCoreRuntime) AddToRolePolicy(s PolicyStatement) {
	if r.finalized {
		log.Printf("agentruntime: ignoring AddToRolePolicy on finalized runtime %q", r.name)
		return
	}
	r.role.AddStatement(s)
}

// Environment returns a copy of the buffered environment.
func (r *AgentCoreRuntime) Environment() map[string]string { return copyEnv(r.env) }

// Warnings returns construction warnings in order.
func (r *AgentCoreRuntime) Warnings() []Warning {
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Synthesize emits the deployment graph: role (when deployment-managed),
// role policy, runtime, endpoint, and one permission node per grant.
//
// Two edges are load-bearing. The runtime depends on the role policy
// because AgentCore validates registry access synchronously at creation;
// a runtime created before its pull permissions exist fails immediately.
// The endpoint depends on the runtime because endpoints reference their
// runtime by ID.
func (r *AgentCoreRuntime) Synthesize() (*Graph, error) {
	r.finalized = true

	removal := r.props.RemovalPolicy
	if removal == "" {
		removal = RemovalPolicyDestroy
	}

	var resources []*Resource
	policyDeps := []ResourceRef{}

	if !r.role.CallerManaged {
		roleNode := &Resource{
			Kind:          KindExecutionRole,
			Name:          r.role.Name,
			RemovalPolicy: removal,
			Tags:          r.props.Tags,
			Role:          &RoleSpec{AssumeService: r.role.AssumeService},
		}
		resources = append(resources, roleNode)
		policyDeps = append(policyDeps, roleNode.Ref())
	}

	policyNode := &Resource{
		Kind:          KindRolePolicy,
		Name:          r.name + "_policy",
		DependsOn:     policyDeps,
		RemovalPolicy: removal,
		RolePolicy: &RolePolicySpec{
			RoleName:   r.role.Name,
			RoleARN:    r.role.ARN,
			Statements: r.role.Statements(),
		},
	}
	resources = append(resources, policyNode)

	roleRef := ResourceRef{Kind: KindExecutionRole, Name: r.role.Name}
	runtimeNode := &Resource{
		Kind:          KindAgentRuntime,
		Name:          r.name,
		DependsOn:     []ResourceRef{policyNode.Ref()},
		RemovalPolicy: removal,
		Tags:          r.props.Tags,
		Runtime: &RuntimeSpec{
			RuntimeName:    r.name,
			ImageURI:       r.imageURI,
			NetworkMode:    NetworkModePublic,
			Environment:    copyEnv(r.env),
			RoleRef:        roleRef,
			RoleARN:        r.role.ARN,
			TimeoutSeconds: int32(time.Duration(r.cfg.Timeout).Seconds()),
			MemoryMB:       r.cfg.MemoryMB,
			MinCapacity:    r.cfg.MinCapacity,
			MaxCapacity:    r.cfg.MaxCapacity,
		},
	}
	resources = append(resources, runtimeNode)

	endpointNode := &Resource{
		Kind:          KindRuntimeEndpoint,
		Name:          r.endpointName,
		DependsOn:     []ResourceRef{runtimeNode.Ref()},
		RemovalPolicy: removal,
		Tags:          r.props.Tags,
		Endpoint: &EndpointSpec{
			EndpointName: r.endpointName,
			RuntimeRef:   runtimeNode.Ref(),
		},
	}
	resources = append(resources, endpointNode)

	for _, key := range r.grantKeys {
		g := r.grants[key]
		resources = append(resources, &Resource{
			Kind:          KindInvokePermission,
			Name:          r.name + "_invoke_" + SanitizeName(g.Principal.String()),
			DependsOn:     []ResourceRef{runtimeNode.Ref(), endpointNode.Ref()},
			RemovalPolicy: removal,
			Permission: &PermissionSpec{
				Principal: g.Principal,
				Actions:   g.Actions,
				Resources: g.Resources,
			},
		})
	}

	return &Graph{Resources: resources}, nil
}
