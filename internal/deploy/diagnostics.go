package deploy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cdklabs/agentruntime-deploy/internal/agentruntime"
)

// DiagnosticWarning represents a non-fatal issue detected during
// pre-deploy diagnostics.
type DiagnosticWarning struct {
	Category string
	Message  string
	Hint     string
}

// String formats the warning for display.
func (w DiagnosticWarning) String() string {
	if w.Hint != "" {
		return fmt.Sprintf("[%s] %s (hint: %s)", w.Category, w.Message, w.Hint)
	}
	return fmt.Sprintf("[%s] %s", w.Category, w.Message)
}

// agentcoreRegions lists AWS regions where Bedrock AgentCore is
// available.
var agentcoreRegions = map[string]bool{
	"us-east-1":      true,
	"us-west-2":      true,
	"eu-central-1":   true,
	"ap-southeast-2": true,
}

// DiagnoseProps checks runtime props for common misconfigurations and
// returns warnings. Unlike constructor validation these are non-fatal;
// they highlight values that are likely to cause deploy failures.
func DiagnoseProps(p *agentruntime.Props) []DiagnosticWarning {
	var warnings []DiagnosticWarning
	warnings = append(warnings, diagnoseRegion(p)...)
	warnings = append(warnings, diagnoseAccount(p)...)
	warnings = append(warnings, diagnoseRoleARN(p)...)
	return warnings
}

// diagnoseRegion flags AgentCore deployments in regions where the
// service may not be available.
func diagnoseRegion(p *agentruntime.Props) []DiagnosticWarning {
	if p.Type != agentruntime.RuntimeTypeAgentCore || p.Region == "" {
		return nil
	}
	if !agentcoreRegions[p.Region] {
		return []DiagnosticWarning{{
			Category: ErrCategoryConfiguration,
			Message:  fmt.Sprintf("region %q may not support Bedrock AgentCore", p.Region),
			Hint:     fmt.Sprintf("supported regions: %s", joinMapKeys(agentcoreRegions)),
		}}
	}
	return nil
}

// diagnoseAccount flags the documentation placeholder account ID.
func diagnoseAccount(p *agentruntime.Props) []DiagnosticWarning {
	if p.AccountID == "123456789012" {
		return []DiagnosticWarning{{
			Category: ErrCategoryConfiguration,
			Message:  "account_id uses the placeholder value 123456789012",
			Hint:     "replace with your real AWS account ID",
		}}
	}
	return nil
}

// diagnoseRoleARN checks for common IAM role ARN mistakes.
func diagnoseRoleARN(p *agentruntime.Props) []DiagnosticWarning {
	if p.ExecutionRoleARN == "" {
		return nil
	}
	var warnings []DiagnosticWarning
	if strings.Contains(p.ExecutionRoleARN, ":user/") {
		warnings = append(warnings, DiagnosticWarning{
			Category: ErrCategoryPermission,
			Message:  "execution_role_arn appears to be an IAM user, not a role",
			Hint:     "use an IAM role ARN (arn:aws:iam::<account>:role/<name>)",
		})
	}
	if strings.Contains(p.ExecutionRoleARN, ":root") {
		warnings = append(warnings, DiagnosticWarning{
			Category: ErrCategoryPermission,
			Message:  "execution_role_arn references the root account",
			Hint:     "create a dedicated IAM role with least-privilege permissions",
		})
	}
	if acct := extractAccountFromARN(p.ExecutionRoleARN); acct != "" && p.AccountID != "" && acct != p.AccountID {
		warnings = append(warnings, DiagnosticWarning{
			Category: ErrCategoryConfiguration,
			Message:  fmt.Sprintf("execution_role_arn account %s does not match account_id %s", acct, p.AccountID),
			Hint:     "the execution role must live in the deployment account",
		})
	}
	return warnings
}

// joinMapKeys returns sorted, comma-separated keys of a map.
func joinMapKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// FormatDiagnostics returns a multi-line string from a list of warnings,
// suitable for display to the user.
func FormatDiagnostics(warnings []DiagnosticWarning) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d diagnostic warning(s):\n", len(warnings))
	for i, w := range warnings {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, w.String())
	}
	return b.String()
}
