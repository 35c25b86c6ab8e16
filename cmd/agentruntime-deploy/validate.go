package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
	"github.com/cdklabs/agentruntime-deploy/internal/deploy"
)

var validateShowSchema bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the deployment config without touching AWS",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateShowSchema, "schema", false,
		"Print the config JSON Schema and exit")
}

func runValidate(_ *cobra.Command, _ []string) error {
	if validateShowSchema {
		fmt.Println(configSchema)
		return nil
	}

	cfg, props, rt, err := buildRuntime()
	if err != nil {
		return err
	}

	if warnings := rt.Warnings(); len(warnings) > 0 {
		fmt.Fprint(os.Stderr, agentruntime.FormatWarnings(warnings))
	}
	if diags := deploy.DiagnoseProps(props); len(diags) > 0 {
		fmt.Fprint(os.Stderr, deploy.FormatDiagnostics(diags))
	}

	fmt.Printf("Configuration valid: %s runtime %q (deployment %q)\n",
		rt.RuntimeType(), rt.Name(), cfg.Deployment)
	return nil
}
