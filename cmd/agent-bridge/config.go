package main

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names.
const (
	envBridgePort      = "BRIDGE_PORT"
	envAgentPort       = "AGENT_PORT"
	envAgentHost       = "AGENT_HOST"
	envAgentInvokePath = "AGENT_INVOKE_PATH"
	envAgentStreamPath = "AGENT_STREAM_PATH"
)

// Defaults. Port 8080 is the AgentCore HTTP contract; 9000 is where the
// agent process listens inside the container.
const (
	defaultBridgePort = 8080
	defaultAgentPort  = 9000
	defaultAgentHost  = "127.0.0.1"
	defaultInvoke     = "/invoke"
	defaultStream     = "/invoke/stream"
)

// bridgeConfig holds configuration parsed from environment variables.
type bridgeConfig struct {
	Port       int
	AgentHost  string
	AgentPort  int
	InvokePath string
	StreamPath string
}

// loadConfig reads configuration from environment variables. Everything
// has a default; nothing is required.
func loadConfig() (*bridgeConfig, error) {
	cfg := &bridgeConfig{
		Port:       defaultBridgePort,
		AgentHost:  defaultAgentHost,
		AgentPort:  defaultAgentPort,
		InvokePath: defaultInvoke,
		StreamPath: defaultStream,
	}

	if host := os.Getenv(envAgentHost); host != "" {
		cfg.AgentHost = host
	}
	if path := os.Getenv(envAgentInvokePath); path != "" {
		cfg.InvokePath = path
	}
	if path := os.Getenv(envAgentStreamPath); path != "" {
		cfg.StreamPath = path
	}

	for _, p := range []struct {
		env    string
		target *int
	}{
		{envBridgePort, &cfg.Port},
		{envAgentPort, &cfg.AgentPort},
	} {
		raw := os.Getenv(p.env)
		if raw == "" {
			continue
		}
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", p.env, raw, err)
		}
		*p.target = port
	}

	return cfg, nil
}

// agentBaseURL is the loopback base URL of the agent process.
func (c *bridgeConfig) agentBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.AgentHost, c.AgentPort)
}
