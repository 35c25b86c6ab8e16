package deploy

// Tag key constants for deployment metadata applied to all created AWS
// resources.
const (
	TagKeyDeployment = "agentruntime:deployment"
	TagKeyRuntime    = "agentruntime:runtime"
	TagKeyManagedBy  = "agentruntime:managed-by"
)

// managedByValue identifies resources created by this tool.
const managedByValue = "agentruntime-deploy"

// ResourceTags merges default deployment metadata tags with
// user-defined tags. User-defined tags take precedence over defaults
// when keys overlap.
func ResourceTags(deployment, runtimeName string, userTags map[string]string) map[string]string {
	tags := make(map[string]string, len(userTags)+3)

	tags[TagKeyDeployment] = deployment
	tags[TagKeyManagedBy] = managedByValue
	if runtimeName != "" {
		tags[TagKeyRuntime] = runtimeName
	}

	for k, v := range userTags {
		tags[k] = v
	}
	return tags
}
