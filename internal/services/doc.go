// Package services provides cross-cutting helpers shared by the vigil
// controllers: error classification markers with wrap helpers, and context
// annotation utilities used for structured logging correlation.
package services
