package services

import (
	"errors"
	"fmt"
	"strings"

	"vigil/internal/jobs"
)

var (
	// ErrBusy marks a benign duplicate request: the slot is occupied and
	// the request is ignored rather than failed.
	ErrBusy          = errors.New("busy")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrBackend       = errors.New("backend error")
)

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a controller error to the terminal job status the
// orchestrator should record after the operation fails.
func FailureStatus(err error) jobs.Status {
	if errors.Is(err, ErrTimeout) {
		return jobs.StatusTimedOut
	}
	return jobs.StatusFailed
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
