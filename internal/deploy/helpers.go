package deploy

import (
	"errors"
	"sort"
	"strings"

	bacctypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// isNotFound returns true if the error is an AgentCore
// ResourceNotFoundException.
func isNotFound(err error) bool {
	var nf *bacctypes.ResourceNotFoundException
	return errors.As(err, &nf)
}

// isIAMNotFound returns true for IAM NoSuchEntityException.
func isIAMNotFound(err error) bool {
	var nf *iamtypes.NoSuchEntityException
	return errors.As(err, &nf)
}

// isLogsNotFound returns true for CloudWatch Logs ResourceNotFoundException.
func isLogsNotFound(err error) bool {
	var nf *logstypes.ResourceNotFoundException
	return errors.As(err, &nf)
}

// isLambdaNotFound returns true for Lambda ResourceNotFoundException.
func isLambdaNotFound(err error) bool {
	var nf *lambdatypes.ResourceNotFoundException
	return errors.As(err, &nf)
}

// isEntityExists returns true for IAM EntityAlreadyExistsException.
func isEntityExists(err error) bool {
	var ee *iamtypes.EntityAlreadyExistsException
	return errors.As(err, &ee)
}

// isAlreadyExists returns true for CloudWatch Logs
// ResourceAlreadyExistsException.
func isAlreadyExists(err error) bool {
	var ae *logstypes.ResourceAlreadyExistsException
	return errors.As(err, &ae)
}

// sortedTagKeys returns the tag map's keys in sorted order so tag lists
// sent to AWS are deterministic.
func sortedTagKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// isConflictError returns true if the error indicates a 409 Conflict
// (resource already exists).
func isConflictError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ConflictException")
}

// extractResourceID attempts to extract the resource ID from an ARN.
// Given "arn:aws:bedrock-agentcore:us-west-2:123:runtime/abc123" and
// prefix "runtime", it returns "abc123".
func extractResourceID(arn, prefix string) string {
	search := prefix + "/"
	if i := strings.Index(arn, search); i >= 0 {
		return arn[i+len(search):]
	}
	return ""
}

// extractAccountFromARN returns the account ID field of an ARN, or "".
func extractAccountFromARN(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) < 6 || parts[0] != "arn" {
		return ""
	}
	return parts[4]
}

// roleNameFromARN returns the role name portion of an IAM role ARN.
func roleNameFromARN(arn string) string {
	if i := strings.LastIndex(arn, "/"); i >= 0 {
		return arn[i+1:]
	}
	return arn
}
