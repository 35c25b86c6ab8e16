// Package agentruntime implements the runtime abstraction layer for agent
// execution environments. An agent targets either a short-lived,
// event-driven Lambda runtime (executions up to 15 minutes) or a
// long-running, session-oriented Bedrock AgentCore runtime (executions up
// to 8 hours). Consuming constructs work against the AgentRuntime
// interface and never branch on the concrete runtime type.
package agentruntime

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// RuntimeType selects which concrete runtime a configuration describes.
// The values are case-sensitive and appear in serialized configuration.
type RuntimeType string

// Supported runtime types.
const (
	RuntimeTypeLambda    RuntimeType = "LAMBDA"
	RuntimeTypeAgentCore RuntimeType = "AGENTCORE"
)

// DeploymentMethod describes how agent code reaches an AgentCore runtime.
type DeploymentMethod string

// Supported deployment methods. DIRECT_CODE is a recognized value but is
// rejected at construction time; see NewAgentCoreRuntime.
const (
	DeploymentMethodContainer  DeploymentMethod = "CONTAINER"
	DeploymentMethodDirectCode DeploymentMethod = "DIRECT_CODE"
)

// Architecture is the instruction set architecture for Lambda runtimes.
type Architecture string

// Supported Lambda architectures.
const (
	ArchitectureX8664 Architecture = "x86_64"
	ArchitectureARM64 Architecture = "arm64"
)

// NetworkMode is the requested network placement for a runtime.
type NetworkMode string

// Supported network modes. AgentCore currently only exposes PUBLIC;
// a VPC request degrades to public mode with a warning.
const (
	NetworkModePublic NetworkMode = "PUBLIC"
	NetworkModeVPC    NetworkMode = "VPC"
)

// RemovalPolicy controls what happens to a deployed resource when the
// deployment that owns it is destroyed.
type RemovalPolicy string

// Supported removal policies.
const (
	RemovalPolicyDestroy RemovalPolicy = "destroy"
	RemovalPolicyRetain  RemovalPolicy = "retain"
)

// Default configuration values shared by both runtime types. These are the
// single source of truth: constructors, validation, and tests all
// reference these constants rather than repeating the numbers inline.
const (
	DefaultTimeout            = 10 * time.Minute
	DefaultMemoryMB           = 1024
	DefaultEphemeralStorageMB = 512
	DefaultHandler            = "index"
)

// Hard execution-time ceilings enforced at construction. The underlying
// platforms enforce them again at deploy time; failing early here gives a
// better error.
const (
	MaxLambdaTimeout    = 15 * time.Minute
	MaxAgentCoreTimeout = 8 * time.Hour
)

// Duration is a time.Duration that unmarshals from either a Go duration
// string ("10m", "1h30m") or an integer number of seconds, so config
// files never deal in nanoseconds.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON serializes as a duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "10m" style strings or integer seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var secs int64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("invalid duration %s: want a duration string or seconds", data)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

// RuntimeConfig holds the settings common to both runtime types. Zero
// values mean "use the default".
type RuntimeConfig struct {
	Timeout  Duration `json:"timeout,omitempty"`
	MemoryMB int32    `json:"memory_mb,omitempty"`
}

// applyDefaults fills in zero-valued common fields.
func (c *RuntimeConfig) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = Duration(DefaultTimeout)
	}
	if c.MemoryMB == 0 {
		c.MemoryMB = DefaultMemoryMB
	}
}

// LambdaRuntimeConfig holds Lambda-specific settings.
type LambdaRuntimeConfig struct {
	RuntimeConfig
	Architecture       Architecture `json:"architecture,omitempty"`
	EphemeralStorageMB int32        `json:"ephemeral_storage_mb,omitempty"`
}

// applyDefaults fills in zero-valued fields.
func (c *LambdaRuntimeConfig) applyDefaults() {
	c.RuntimeConfig.applyDefaults()
	if c.Architecture == "" {
		c.Architecture = ArchitectureX8664
	}
	if c.EphemeralStorageMB == 0 {
		c.EphemeralStorageMB = DefaultEphemeralStorageMB
	}
}

// AgentCoreRuntimeConfig holds AgentCore-specific settings. Exactly one of
// the two locator pairs must be populated, matching DeploymentMethod:
// ImageURI for CONTAINER, CodeBucket+CodeKey for DIRECT_CODE.
type AgentCoreRuntimeConfig struct {
	RuntimeConfig
	DeploymentMethod DeploymentMethod `json:"deployment_method"`
	ImageURI         string           `json:"image_uri,omitempty"`
	CodeBucket       string           `json:"code_bucket,omitempty"`
	CodeKey          string           `json:"code_key,omitempty"`
	// MinCapacity and MaxCapacity bound runtime scaling. Zero means
	// platform default. Validated at construction (non-negative,
	// min <= max) and carried through synthesis into the runtime spec.
	MinCapacity int32 `json:"min_capacity,omitempty"`
	MaxCapacity int32 `json:"max_capacity,omitempty"`
}

// applyDefaults fills in zero-valued fields. The deployment method
// defaults to CONTAINER, the only method supported end-to-end.
func (c *AgentCoreRuntimeConfig) applyDefaults() {
	c.RuntimeConfig.applyDefaults()
	if c.DeploymentMethod == "" {
		c.DeploymentMethod = DeploymentMethodContainer
	}
}

// CodeLocation is an S3 object holding a packaged code archive.
type CodeLocation struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Props is the full construction input for an agent runtime. Type selects
// the concrete runtime; the matching config subtype carries the
// variant-specific settings. Validation happens in the constructors, not
// here; Props is pure data.
type Props struct {
	// Name identifies the runtime. Must satisfy the AWS resource name
	// pattern after sanitization (see naming.go).
	Name string `json:"name"`

	// Region and AccountID place the runtime. Both are required; permission
	// scoping (repository ARNs, invoke ARNs) is derived from them.
	Region    string `json:"region"`
	AccountID string `json:"account_id"`

	// Type is the runtime discriminator.
	Type RuntimeType `json:"type"`

	// Lambda is consulted when Type is LAMBDA; AgentCore when AGENTCORE.
	Lambda    *LambdaRuntimeConfig    `json:"lambda,omitempty"`
	AgentCore *AgentCoreRuntimeConfig `json:"agentcore,omitempty"`

	// Code is the Lambda deployment archive location. Required for LAMBDA.
	Code *CodeLocation `json:"code,omitempty"`

	// Handler is the Lambda entry point. Defaults to "index".
	Handler string `json:"handler,omitempty"`

	// Layers are ARNs of shared code modules attached to a Lambda runtime.
	Layers []string `json:"layers,omitempty"`

	// ExecutionRoleARN, when set, is a caller-supplied execution identity.
	// The caller retains ownership; the runtime will not create a role and
	// will not delete this one on destroy. When empty a dedicated role is
	// created, assumable only by the runtime's execution service.
	ExecutionRoleARN string `json:"execution_role_arn,omitempty"`

	// Environment is the initial environment variable map. Further entries
	// can be added via AddEnvironment until synthesis.
	Environment map[string]string `json:"environment,omitempty"`

	// NetworkMode is the requested network placement. Defaults to PUBLIC.
	NetworkMode NetworkMode `json:"network_mode,omitempty"`

	// ObservabilityEnabled turns on the AgentCore observability env flag
	// and OTEL pass-through wiring.
	ObservabilityEnabled bool `json:"observability_enabled,omitempty"`

	// RemovalPolicy defaults to destroy. Orphaned long-running runtimes
	// are costly, so AgentCore resources always carry an explicit policy.
	RemovalPolicy RemovalPolicy `json:"removal_policy,omitempty"`

	// Tags are applied to every created resource.
	Tags map[string]string `json:"tags,omitempty"`
}

var (
	regionRE    = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d+$`)
	accountRE   = regexp.MustCompile(`^\d{12}$`)
	roleARNRE   = regexp.MustCompile(`^arn:aws:iam::\d{12}:role/.+$`)
	layerARNRE  = regexp.MustCompile(`^arn:aws:lambda:[a-z0-9-]+:\d{12}:layer:.+$`)
	principalRE = regexp.MustCompile(`^(arn:aws:(iam|sts)::\d{12}:.+|[a-z0-9.-]+\.amazonaws\.com)$`)
)

// ParseProps unmarshals a JSON document into Props.
func ParseProps(raw []byte) (*Props, error) {
	var p Props
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid runtime props JSON: %w", err)
	}
	return &p, nil
}

// validateCommon checks the fields shared by both runtime constructors.
// Returned errors are *ConfigError so callers can distinguish
// misconfiguration from feature gaps.
func (p *Props) validateCommon(variant string) error {
	if p.Name == "" {
		return &ConfigError{Field: "name", Variant: variant, Reason: "a runtime name is required"}
	}
	if p.Region == "" {
		return &ConfigError{Field: "region", Variant: variant, Reason: "an AWS region is required"}
	}
	if !regionRE.MatchString(p.Region) {
		return &ConfigError{Field: "region", Variant: variant,
			Reason: fmt.Sprintf("%q does not match the expected region format (e.g. us-east-1)", p.Region)}
	}
	if p.AccountID == "" {
		return &ConfigError{Field: "account_id", Variant: variant, Reason: "a 12-digit AWS account ID is required"}
	}
	if !accountRE.MatchString(p.AccountID) {
		return &ConfigError{Field: "account_id", Variant: variant,
			Reason: fmt.Sprintf("%q is not a 12-digit AWS account ID", p.AccountID)}
	}
	if p.ExecutionRoleARN != "" && !roleARNRE.MatchString(p.ExecutionRoleARN) {
		return &ConfigError{Field: "execution_role_arn", Variant: variant,
			Reason: fmt.Sprintf("%q is not a valid IAM role ARN", p.ExecutionRoleARN)}
	}
	return nil
}
