package agentruntime

import (
	"fmt"
	"log"
	"time"
)

// DefaultLambdaRuntimeVersion is the Lambda runtime identifier used for
// agent handlers.
const DefaultLambdaRuntimeVersion = "python3.12"

// lambdaInvokeAction is the action granted by LambdaRuntime.GrantInvoke.
const lambdaInvokeAction = "lambda:InvokeFunction"

// LambdaRuntime is the short-lived, event-driven runtime: a Lambda
// function with a dedicated log group. Suited to executions that finish
// within the 15-minute Lambda ceiling.
type LambdaRuntime struct {
	props *Props
	cfg   LambdaRuntimeConfig

	name      string
	handler   string
	role      *ExecutionRole
	env       map[string]string
	grants    map[string]*Grant
	grantKeys []string
	warnings  []Warning
	finalized bool
}

// NewLambdaRuntime validates props and constructs a Lambda-backed
// runtime. Validation failures are fatal and return *ConfigError.
func NewLambdaRuntime(p *Props) (*LambdaRuntime, error) {
	if err := p.validateCommon("LAMBDA"); err != nil {
		return nil, err
	}
	if p.Code == nil || p.Code.Bucket == "" || p.Code.Key == "" {
		return nil, &ConfigError{Field: "code", Variant: "LAMBDA",
			Reason: "a code archive location (bucket and key) is required"}
	}
	for _, layer := range p.Layers {
		if !layerARNRE.MatchString(layer) {
			return nil, &ConfigError{Field: "layers", Variant: "LAMBDA",
				Reason: fmt.Sprintf("%q is not a Lambda layer ARN", layer)}
		}
	}

	cfg := LambdaRuntimeConfig{}
	if p.Lambda != nil {
		cfg = *p.Lambda
	}
	cfg.applyDefaults()
	if time.Duration(cfg.Timeout) > MaxLambdaTimeout {
		return nil, &ConfigError{Field: "timeout", Variant: "LAMBDA",
			Reason: fmt.Sprintf("%s exceeds the Lambda maximum of %s", cfg.Timeout, MaxLambdaTimeout)}
	}
	if cfg.Architecture != ArchitectureX8664 && cfg.Architecture != ArchitectureARM64 {
		return nil, &ConfigError{Field: "architecture", Variant: "LAMBDA",
			Reason: fmt.Sprintf("%q is not a supported architecture", cfg.Architecture)}
	}

	handler := p.Handler
	if handler == "" {
		handler = DefaultHandler
	}

	r := &LambdaRuntime{
		props:   p,
		cfg:     cfg,
		name:    p.Name,
		handler: handler,
		env:     copyEnv(p.Environment),
		grants:  make(map[string]*Grant),
	}

	if p.ExecutionRoleARN != "" {
		r.role = newCallerRole(p.ExecutionRoleARN)
	} else {
		r.role = newManagedRole(p.Name+"-execution-role", "lambda.amazonaws.com")
	}
	r.role.AddStatement(AllowStatement("WriteRuntimeLogs",
		[]string{"logs:CreateLogStream", "logs:PutLogEvents"},
		[]string{fmt.Sprintf("arn:aws:logs:%s:%s:log-group:%s:*", p.Region, p.AccountID, r.LogGroup())},
	))

	// Lambda functions here run with public egress only. A VPC request is
	// honored in name but not in placement.
	if p.NetworkMode == NetworkModeVPC {
		r.warnings = append(r.warnings, Warning{
			Category: WarnCategoryNetwork,
			Message:  fmt.Sprintf("runtime %q requested VPC placement; Lambda agent runtimes deploy with public networking", p.Name),
			Hint:     "remove network_mode or set it to PUBLIC",
		})
	}
	return r, nil
}

// RuntimeType reports LAMBDA.
func (r *LambdaRuntime) RuntimeType() RuntimeType { return RuntimeTypeLambda }

// Name returns the function name.
func (r *LambdaRuntime) Name() string { return r.name }

// ExecutionRole returns the function's execution identity.
func (r *LambdaRuntime) ExecutionRole() *ExecutionRole { return r.role }

// InvocationResources returns the single function reference a caller must
// be authorized against.
func (r *LambdaRuntime) InvocationResources() []ResourceRef {
	return []ResourceRef{{Kind: KindFunction, Name: r.name}}
}

// LogGroup returns the function's log group name. Lambda owns a
// dedicated, deployment-managed group.
func (r *LambdaRuntime) LogGroup() string {
	return "/aws/lambda/" + r.name
}

// GrantInvoke authorizes the principal to invoke the function. Repeat
// grants for the same principal return the original grant.
func (r *LambdaRuntime) GrantInvoke(p Principal) *Grant {
	if g, ok := r.grants[p.key()]; ok {
		return g
	}
	if r.finalized {
		log.Printf("agentruntime: ignoring GrantInvoke(%s) on finalized runtime %q", p, r.name)
		return nil
	}
	g := &Grant{
		Principal: p,
		Actions:   []string{lambdaInvokeAction},
		Resources: r.InvocationResources(),
	}
	r.grants[p.key()] = g
	r.grantKeys = append(r.grantKeys, p.key())
	return g
}

// AddEnvironment buffers an environment variable for synthesis.
func (r *LambdaRuntime) AddEnvironment(key, value string) {
	if r.finalized {
		log.Printf("agentruntime: ignoring AddEnvironment(%q) on finalized runtime %q", key, r.name)
		return
	}
	r.env[key] = value
}

// AddToRolePolicy widens the execution role.
func (r *LambdaRuntime) AddToRolePolicy(s PolicyStatement) {
	if r.finalized {
		log.Printf("agentruntime: ignoring AddToRolePolicy on finalized runtime %q", r.name)
		return
	}
	r.role.AddStatement(s)
}

// Environment returns a copy of the buffered environment.
func (r *LambdaRuntime) Environment() map[string]string { return copyEnv(r.env) }

// Warnings returns construction warnings in order.
func (r *LambdaRuntime) Warnings() []Warning {
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Synthesize emits the deployment graph: role (when deployment-managed),
// role policy, log group, function, and one permission node per grant.
// The function depends on the role policy so permissions exist before
// first execution, and on the log group so nothing races group creation.
func (r *LambdaRuntime) Synthesize() (*Graph, error) {
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
		Name:          r.name + "-policy",
		DependsOn:     policyDeps,
		RemovalPolicy: removal,
		RolePolicy: &RolePolicySpec{
			RoleName:   r.role.Name,
			RoleARN:    r.role.ARN,
			Statements: r.role.Statements(),
		},
	}
	resources = append(resources, policyNode)

	logNode := &Resource{
		Kind:          KindLogGroup,
		Name:          r.LogGroup(),
		RemovalPolicy: removal,
		Tags:          r.props.Tags,
		LogGroup:      &LogGroupSpec{LogGroupName: r.LogGroup()},
	}
	resources = append(resources, logNode)

	roleRef := ResourceRef{Kind: KindExecutionRole, Name: r.role.Name}
	fnNode := &Resource{
		Kind:          KindFunction,
		Name:          r.name,
		DependsOn:     []ResourceRef{policyNode.Ref(), logNode.Ref()},
		RemovalPolicy: removal,
		Tags:          r.props.Tags,
		Function: &FunctionSpec{
			FunctionName:       r.name,
			Handler:            r.handler,
			Runtime:            DefaultLambdaRuntimeVersion,
			Architecture:       r.cfg.Architecture,
			TimeoutSeconds:     int32(time.Duration(r.cfg.Timeout).Seconds()),
			MemoryMB:           r.cfg.MemoryMB,
			EphemeralStorageMB: r.cfg.EphemeralStorageMB,
			CodeBucket:         r.props.Code.Bucket,
			CodeKey:            r.props.Code.Key,
			Layers:             r.props.Layers,
			Environment:        copyEnv(r.env),
			RoleRef:            roleRef,
			RoleARN:            r.role.ARN,
		},
	}
	resources = append(resources, fnNode)

	for _, key := range r.grantKeys {
		g := r.grants[key]
		resources = append(resources, &Resource{
			Kind:          KindInvokePermission,
			Name:          r.name + "-invoke-" + SanitizeName(g.Principal.String()),
			DependsOn:     []ResourceRef{fnNode.Ref()},
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
