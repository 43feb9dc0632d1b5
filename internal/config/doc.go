// Package config loads, normalizes, and validates vigil's TOML configuration.
// Every timing constant the controllers depend on (poll tick, poll ceiling,
// preview refresh cadence, retry policy, upload allow list) lives here so
// deployments can tune them without code changes.
package config
