// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// StashSurf is the canonical application identifier used for filesystem paths and CLI branding.
	StashSurf = "stashsurf"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent is the default HTTP User-Agent string used for requests to the media server.
	UserAgent = "stashsurf/" + Version
)

// Build metadata injected at link time via -ldflags.
var (
	Revision = "unknown"
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
)
