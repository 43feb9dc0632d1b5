// Package ipc connects the vigil CLI to the vigild daemon over a Unix
// domain socket using JSON-RPC. The server wraps the daemon's
// operations; the client mirrors them one call per method.
package ipc
