package render

import "strings"

// ResolveAssetPath re-roots a project-relative asset path against the page
// described by ctx. Absolute http(s) and data: references pass through.
// Blank input and the literal "false" mean no asset and yield "".
func ResolveAssetPath(ctx Context, path string) string {
	p := strings.TrimSpace(path)
	if p == "" || p == "false" {
		return ""
	}

	if strings.HasPrefix(p, "http") || strings.HasPrefix(p, "data:") {
		return p
	}

	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "src/")

	return ctx.AssetPrefix() + "/" + p
}
