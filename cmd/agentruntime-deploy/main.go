// Package main implements the agentruntime-deploy binary, a CLI for
// deploying agent runtimes (Lambda or Bedrock AgentCore) from a JSON
// deployment config.
package main

import "os"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
