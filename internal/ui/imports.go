package ui

import "github.com/bamsammich/cloudmig/internal/event"

// Event is the engine's progress event.
type Event = event.Event

// Re-export the event types presenters switch on. Stage events are
// recognized through Type.Stage instead.
const (
	FileCompleted   = event.FileCompleted
	FileSkipped     = event.FileSkipped
	FileFailed      = event.FileFailed
	DehydrateFailed = event.DehydrateFailed
)
