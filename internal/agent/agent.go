// Package agent provides the consuming constructs that sit on top of the
// runtime abstraction: a batch agent fed by a scheduler or queue and an
// interactive agent fed by a gateway. Both work purely against the
// agentruntime.AgentRuntime interface; nothing in this package branches
// on the concrete runtime type.
package agent

import (
	"fmt"
	"strconv"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// Environment keys consumed by the agent handlers. These are the handler
// contract: renaming one here breaks deployed agents.
const (
	EnvModelID            = "MODEL_ID"
	EnvSystemPromptBucket = "SYSTEM_PROMPT_S3_BUCKET_NAME"
	EnvSystemPromptKey    = "SYSTEM_PROMPT_S3_KEY"
	EnvToolsConfig        = "TOOLS_CONFIG"
	EnvSessionBucket      = "SESSION_BUCKET"
	EnvContextEnabled     = "CONTEXT_ENABLED"
	EnvContextStrategy    = "CONTEXT_STRATEGY"
	EnvContextWindowSize  = "CONTEXT_WINDOW_SIZE"
	EnvExpectJSON         = "EXPECT_JSON"
	EnvInvokeType         = "INVOKE_TYPE"
	EnvEnableMetrics      = "ENABLE_METRICS"
)

// Invocation modes understood by the handlers.
const (
	InvokeTypeBatch       = "batch"
	InvokeTypeInteractive = "interactive"
)

// Config carries the settings shared by both agent shapes.
type Config struct {
	// ModelID is the Bedrock model the agent invokes.
	ModelID string

	// SystemPromptBucket/SystemPromptKey locate the agent's system prompt.
	SystemPromptBucket string
	SystemPromptKey    string

	// ToolsConfig is the serialized tool manifest, "[]" when absent.
	ToolsConfig string

	// SessionBucket stores conversation sessions. Optional for batch
	// agents, required for interactive ones.
	SessionBucket string

	// Context management settings for multi-turn conversations.
	ContextEnabled    bool
	ContextStrategy   string
	ContextWindowSize int

	EnableMetrics bool
}

// validate checks the fields every agent needs.
func (c *Config) validate() error {
	if c.ModelID == "" {
		return fmt.Errorf("agent config: a model ID is required")
	}
	if c.SystemPromptBucket == "" || c.SystemPromptKey == "" {
		return fmt.Errorf("agent config: a system prompt location (bucket and key) is required")
	}
	return nil
}

// configure injects the shared environment contract and widens the
// runtime's role to read the prompt and session data the handlers need.
func (c *Config) configure(rt agentruntime.AgentRuntime) {
	rt.AddEnvironment(EnvModelID, c.ModelID)
	rt.AddEnvironment(EnvSystemPromptBucket, c.SystemPromptBucket)
	rt.AddEnvironment(EnvSystemPromptKey, c.SystemPromptKey)

	tools := c.ToolsConfig
	if tools == "" {
		tools = "[]"
	}
	rt.AddEnvironment(EnvToolsConfig, tools)

	if c.EnableMetrics {
		rt.AddEnvironment(EnvEnableMetrics, "true")
	}

	rt.AddToRolePolicy(agentruntime.AllowStatement("ReadSystemPrompt",
		[]string{"s3:GetObject"},
		[]string{fmt.Sprintf("arn:aws:s3:::%s/%s", c.SystemPromptBucket, c.SystemPromptKey)},
	))
	rt.AddToRolePolicy(agentruntime.AllowStatement("InvokeModel",
		[]string{"bedrock:InvokeModel", "bedrock:InvokeModelWithResponseStream"},
		[]string{"*"},
	))

	if c.SessionBucket != "" {
		rt.AddEnvironment(EnvSessionBucket, c.SessionBucket)
		rt.AddToRolePolicy(agentruntime.AllowStatement("ReadWriteSessions",
			[]string{"s3:GetObject", "s3:PutObject", "s3:DeleteObject"},
			[]string{fmt.Sprintf("arn:aws:s3:::%s/*", c.SessionBucket)},
		))
	}

	if c.ContextEnabled {
		rt.AddEnvironment(EnvContextEnabled, "true")
		strategy := c.ContextStrategy
		if strategy == "" {
			strategy = "SlidingWindow"
		}
		rt.AddEnvironment(EnvContextStrategy, strategy)
		window := c.ContextWindowSize
		if window == 0 {
			window = 20
		}
		rt.AddEnvironment(EnvContextWindowSize, strconv.Itoa(window))
	}
}
