// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Media Server Connection - these keys describe how to reach the Stash server.
const (
	ServerAddress    = "server.address"
	ServerAPIKey     = "server.api_key"
	ServerUseKeyring = "server.use_keyring"
)

// Adaptive Streaming - these keys govern stream URL synthesis.
const (
	StreamResolution = "stream.resolution"
)

// Navigation Engine - these keys configure advance behavior and candidate selection.
const (
	NavExcludeTags   = "nav.exclude_tags"
	NavQueuePageSize = "nav.queue_page_size"
	NavSeekRetries   = "nav.seek_retries"
)

// History Tracking - these keys configure the persistence of playback state.
const (
	HistorySaveOnWatch = "history.save_on_watch"
)

// Search Interaction - these keys define the UX parameters for filter discovery.
const (
	SearchShowQuerySuggestions = "search.show_query_suggestions"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Media Playback - these keys maintain the state and configuration for external video players.
const (
	Player                     = "player.default"
	PlayerCompletionPercentage = "player.completion_percentage"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-interactive application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
