package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// configSchema is the JSON Schema for the deployment config file. It is
// documentation, not enforced at runtime; the constructors perform the
// authoritative validation.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["deployment", "runtime"],
  "properties": {
    "deployment": {
      "type": "string",
      "description": "Logical deployment name, used for tagging and state"
    },
    "runtime": {
      "type": "object",
      "required": ["name", "region", "account_id", "type"],
      "properties": {
        "name": {
          "type": "string",
          "description": "Runtime name; sanitized to ^[A-Za-z][A-Za-z0-9_]{0,47}$ for AgentCore"
        },
        "region": { "type": "string", "pattern": "^[a-z]{2}-[a-z]+-\\d+$" },
        "account_id": { "type": "string", "pattern": "^\\d{12}$" },
        "type": { "type": "string", "enum": ["LAMBDA", "AGENTCORE"] },
        "lambda": {
          "type": "object",
          "properties": {
            "timeout": { "type": "string", "description": "Go duration, max 15m" },
            "memory_mb": { "type": "integer" },
            "architecture": { "type": "string", "enum": ["x86_64", "arm64"] },
            "ephemeral_storage_mb": { "type": "integer" }
          }
        },
        "agentcore": {
          "type": "object",
          "properties": {
            "timeout": { "type": "string", "description": "Go duration, max 8h" },
            "memory_mb": { "type": "integer" },
            "deployment_method": { "type": "string", "enum": ["CONTAINER", "DIRECT_CODE"] },
            "image_uri": { "type": "string", "description": "ECR image URI for CONTAINER" },
            "code_bucket": { "type": "string" },
            "code_key": { "type": "string" },
            "min_capacity": { "type": "integer", "minimum": 0 },
            "max_capacity": { "type": "integer", "minimum": 0 }
          }
        },
        "code": {
          "type": "object",
          "required": ["bucket", "key"],
          "properties": {
            "bucket": { "type": "string" },
            "key": { "type": "string" }
          }
        },
        "handler": { "type": "string" },
        "layers": { "type": "array", "items": { "type": "string" } },
        "execution_role_arn": {
          "type": "string",
          "pattern": "^arn:aws:iam::\\d{12}:role/.+$"
        },
        "environment": { "type": "object", "additionalProperties": { "type": "string" } },
        "network_mode": { "type": "string", "enum": ["PUBLIC", "VPC"] },
        "observability_enabled": { "type": "boolean" },
        "removal_policy": { "type": "string", "enum": ["destroy", "retain"] },
        "tags": { "type": "object", "additionalProperties": { "type": "string" } }
      }
    }
  },
  "additionalProperties": false
}`

// deployConfig is the top-level deployment config file.
type deployConfig struct {
	Deployment string          `json:"deployment"`
	Runtime    json.RawMessage `json:"runtime"`
}

// loadDeployConfig reads and parses the config file. Runtime props are
// parsed but not validated; validation happens when the runtime is
// constructed.
func loadDeployConfig(path string) (*deployConfig, *agentruntime.Props, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg deployConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Deployment == "" {
		return nil, nil, fmt.Errorf("config %s: deployment name is required", path)
	}
	if len(cfg.Runtime) == 0 {
		return nil, nil, fmt.Errorf("config %s: runtime section is required", path)
	}

	props, err := agentruntime.ParseProps(cfg.Runtime)
	if err != nil {
		return nil, nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, props, nil
}

// statePath resolves the state file location: the --state flag if set,
// otherwise derived from the config path.
func statePath() string {
	if flagState != "" {
		return flagState
	}
	base := strings.TrimSuffix(flagConfig, ".json")
	return base + ".state.json"
}

// buildRuntime loads the config and constructs the runtime. Construction
// errors are fatal: nothing touches AWS when the config is invalid.
func buildRuntime() (*deployConfig, *agentruntime.Props, agentruntime.AgentRuntime, error) {
	cfg, props, err := loadDeployConfig(flagConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	rt, err := agentruntime.NewAgentRuntime(props)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, props, rt, nil
}
