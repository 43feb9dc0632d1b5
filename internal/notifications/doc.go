// Package notifications delivers job and preview events via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The Service methods cover the lifecycle milestones (upload done,
// analysis complete/failed/timed out, fetch exhaustion, camera offline) so
// daemon components emit consistent messages without duplicating HTTP glue.
//
// Extend this package if you need alternative transports; all daemon code
// depends only on the simple Service interface.
package notifications
