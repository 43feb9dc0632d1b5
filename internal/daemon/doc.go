// Package daemon wires the session store, lifecycle controller, and
// preview manager into the long-running vigild process. A file lock
// keeps a machine to one daemon instance; all control flows in over the
// IPC socket.
package daemon
