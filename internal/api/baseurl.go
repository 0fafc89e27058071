package api

import "strings"

// defaultLocalBaseURL is where a local-network deployment expects the
// backend to listen.
const defaultLocalBaseURL = "http://localhost:8000/api/v1"

// defaultRelativeBaseURL assumes same-origin routing through a reverse
// proxy when no production URL is configured.
const defaultRelativeBaseURL = "/api/v1"

// ResolveBaseURL resolves the backend base address. Precedence:
// explicit override, then hostname-based defaulting (local-network
// hostnames map to the fixed local endpoint), then the configured
// production URL, then a relative path.
func ResolveBaseURL(override, prodURL, hostname string) string {
	if override != "" {
		return override
	}

	if isLocalHostname(hostname) {
		return defaultLocalBaseURL
	}

	if prodURL != "" {
		return prodURL
	}

	return defaultRelativeBaseURL
}

// isLocalHostname reports whether the hostname looks like a local or
// private-network deployment.
func isLocalHostname(hostname string) bool {
	if hostname == "localhost" || hostname == "127.0.0.1" {
		return true
	}
	return strings.Contains(hostname, "192.168.") ||
		strings.Contains(hostname, "10.") ||
		strings.Contains(hostname, "172.")
}
