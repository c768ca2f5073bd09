// Package invite trims a full invite URL down to the bare code the REST
// core's invite-lookup route expects.
package invite

import (
	"net/url"
	"strings"
)

// Code extracts the invite code from either a bare code or a full invite
// URL in any of the platform's documented shapes
// (https://platform.invalid/invite-code or https://platform.invalid/invite/invite-code).
func Code(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.Trim(raw, "/")
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	return segments[len(segments)-1]
}
