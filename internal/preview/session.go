package preview

import (
	"strings"
	"time"
)

// Mode is the transport tier a camera preview currently runs on.
type Mode string

const (
	// ModeStream means the direct stream transport answered the probe.
	ModeStream Mode = "stream"
	// ModeSnapshot means the stream failed and stills stand in for it.
	ModeSnapshot Mode = "snapshot"
	// ModeOffline means neither transport produced anything this cycle.
	ModeOffline Mode = "offline"
)

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeStream:
		return ModeStream, true
	case ModeSnapshot:
		return ModeSnapshot, true
	case ModeOffline:
		return ModeOffline, true
	default:
		return "", false
	}
}

// Session is one camera's live preview state. Sessions exist from the
// first preview request for a camera until the preview is dismissed.
type Session struct {
	CameraID   int64
	CameraName string
	StreamURL  string

	Mode         Mode
	Snapshot     []byte
	SnapshotType string
	LastError    string
	UpdatedAt    time.Time
}

// HasSnapshot reports whether the session holds a usable still image.
func (s *Session) HasSnapshot() bool {
	return s != nil && len(s.Snapshot) > 0
}

// clone returns a copy safe to hand out of the manager's lock. The
// snapshot bytes are shared; callers must not mutate them.
func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
