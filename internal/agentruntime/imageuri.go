package agentruntime

import (
	"fmt"
	"regexp"
)

// ecrImageURIRe matches a private ECR image URI of the shape
// {account-id}.dkr.ecr.{region}.amazonaws.com/{repository}[:{tag}][@digest].
// Repository names may contain namespaces separated by slashes.
var ecrImageURIRe = regexp.MustCompile(
	`^(\d{12})\.dkr\.ecr\.([a-z0-9-]+)\.amazonaws\.com/` +
		`([a-z0-9][a-z0-9._/-]*?)(?::([A-Za-z0-9_][A-Za-z0-9._-]*))?(?:@sha256:[a-f0-9]{64})?$`)

// ImageRef is the parsed form of an ECR container image URI. It carries
// exactly the pieces permission scoping needs.
type ImageRef struct {
	AccountID  string
	Region     string
	Repository string
	Tag        string
}

// ParseImageURI parses an ECR image URI into its components. The second
// return value reports whether the URI matched the expected shape; a false
// result drives the caller's fallback-to-wildcard permission branch rather
// than an error, so the decision point stays explicit.
func ParseImageURI(uri string) (*ImageRef, bool) {
	m := ecrImageURIRe.FindStringSubmatch(uri)
	if m == nil {
		return nil, false
	}
	return &ImageRef{
		AccountID:  m[1],
		Region:     m[2],
		Repository: m[3],
		Tag:        m[4],
	}, true
}

// RepositoryARN returns the ARN of the repository this image lives in,
// used to scope image-pull permissions to that single repository.
func (r *ImageRef) RepositoryARN() string {
	return fmt.Sprintf("arn:aws:ecr:%s:%s:repository/%s", r.Region, r.AccountID, r.Repository)
}
