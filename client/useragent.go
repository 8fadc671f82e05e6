package client

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

var userAgentWhitespace = regexp.MustCompile(`\s+`)

// sanitizeAppID replaces whitespace runs in id with a single underscore
// (spec.md §6 "User-agent": "the application id is sanitized by replacing
// whitespace with underscore").
func sanitizeAppID(id string) string {
	return userAgentWhitespace.ReplaceAllString(strings.TrimSpace(id), "_")
}

// BuildUserAgent renders the pipeline's user-agent string:
// "smithy-<core>/<version> lang/go#<go-version> [app/<sanitized-id>] [m/<feature-csv>]"
// (spec.md §6 "User-agent"). appID and featureIDs are both optional; when
// both are empty only the first two segments are rendered. Each feature id
// is rendered as-is (a caller wanting an override renders the override
// string itself before passing it in, per spec.md §6 "Feature ids render as
// their default string or an override").
func BuildUserAgent(core, version, appID string, featureIDs []string) string {
	segments := []string{
		fmt.Sprintf("smithy-%s/%s", core, version),
		fmt.Sprintf("lang/go#%s", strings.TrimPrefix(runtime.Version(), "go")),
	}
	if appID != "" {
		segments = append(segments, "app/"+sanitizeAppID(appID))
	}
	if len(featureIDs) > 0 {
		segments = append(segments, "m/"+strings.Join(featureIDs, ","))
	}
	return strings.Join(segments, " ")
}
