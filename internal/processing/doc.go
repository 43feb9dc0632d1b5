// Package processing drives the session's upload-then-analyze lifecycle.
//
// The Controller admits one upload and one analysis at a time, enforced by
// compare-and-swap flight guards rather than a queue. A submitted job moves
// through submitting and polling before one of three terminal states:
// complete, failed, or timed out. While polling, the controller advances a
// synthetic progress estimate on every tick; the estimate never reaches 100,
// which is reserved for a confirmed artifact, and is left untouched by the
// timeout transition.
package processing
