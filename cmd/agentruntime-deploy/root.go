package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentruntime-deploy",
	Short: "Deploy agent runtimes to AWS Lambda or Bedrock AgentCore",
	Long: `agentruntime-deploy provisions agent execution environments from a
JSON deployment config: an execution role, its inline policy, and either
a Lambda function with its log group or a Bedrock AgentCore runtime with
its endpoint. Deployed resources are tracked in a local state file so
they can be updated, checked, and destroyed later.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Persistent flags shared by all subcommands.
var (
	flagConfig string
	flagState  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c",
		"agentruntime.json", "Path to the deployment config file")
	rootCmd.PersistentFlags().StringVar(&flagState, "state", "",
		"Path to the state file (default: <config>.state.json)")
	rootCmd.Version = version

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(invokeCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
