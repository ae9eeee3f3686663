package provider

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseRepositoryPath extracts the provider-side project path from a git
// repository URL, for both SSH (git@host:path.git) and HTTPS
// (https://host/path.git) forms. The returned path has no leading slash and
// no .git suffix.
func ParseRepositoryPath(repository string) (string, error) {
	repository = strings.TrimSpace(repository)
	if repository == "" {
		return "", fmt.Errorf("empty repository url")
	}

	var path string
	switch {
	case strings.HasPrefix(repository, "git@"):
		// git@host:owner/repo.git
		_, after, found := strings.Cut(repository, ":")
		if !found || after == "" {
			return "", fmt.Errorf("unparsable ssh repository url %q", repository)
		}
		path = after
	case strings.Contains(repository, "://"):
		u, err := url.Parse(repository)
		if err != nil {
			return "", fmt.Errorf("unparsable repository url %q: %w", repository, err)
		}
		path = u.Path
	default:
		return "", fmt.Errorf("unparsable repository url %q", repository)
	}

	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")
	if path == "" {
		return "", fmt.Errorf("repository url %q has no project path", repository)
	}
	return path, nil
}

// ParseGitHubRepo splits a repository URL into owner and repo name.
func ParseGitHubRepo(repository string) (string, string, error) {
	path, err := ParseRepositoryPath(repository)
	if err != nil {
		return "", "", err
	}
	owner, name, found := strings.Cut(path, "/")
	if !found || owner == "" || name == "" {
		return "", "", fmt.Errorf("repository url %q is not an owner/repo path", repository)
	}
	return owner, name, nil
}

// ParseGitLabProject returns the URL-encoded project path used in GitLab
// API routes, e.g. "group%2Fsubgroup%2Fproject".
func ParseGitLabProject(repository string) (string, error) {
	path, err := ParseRepositoryPath(repository)
	if err != nil {
		return "", err
	}
	return url.PathEscape(path), nil
}
