package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	RunStarted Type = iota + 1
	ScanComplete
	FileStarted
	FileHydrating
	FileCopying
	FileVerifying
	FileDehydrating
	FileCompleted
	FileSkipped
	FileFailed
	DehydrateFailed
	RunComplete
)

var typeNames = [...]string{
	RunStarted:      "RunStarted",
	ScanComplete:    "ScanComplete",
	FileStarted:     "FileStarted",
	FileHydrating:   "FileHydrating",
	FileCopying:     "FileCopying",
	FileVerifying:   "FileVerifying",
	FileDehydrating: "FileDehydrating",
	FileCompleted:   "FileCompleted",
	FileSkipped:     "FileSkipped",
	FileFailed:      "FileFailed",
	DehydrateFailed: "DehydrateFailed",
	RunComplete:     "RunComplete",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Stage returns the short task label shown next to the file currently in
// flight, or "" for events that do not describe a stage.
func (t Type) Stage() string {
	switch t {
	case FileStarted:
		return "checking"
	case FileHydrating:
		return "hydrating"
	case FileCopying:
		return "copying"
	case FileVerifying:
		return "verifying"
	case FileDehydrating:
		return "dehydrating"
	default:
		return ""
	}
}

// Event represents a single progress event from the engine.
type Event struct {
	Type          Type
	Timestamp     time.Time
	Path          string // relative path
	LastCompleted string // relative path of the last file that finished
	Index         int    // 1-based position in the run
	Total         int    // total files in the run
	Size          int64  // file size, or total bytes for ScanComplete
	Error         error
}

// Label renders the task label for a stage event, e.g. "copying docs/a.txt".
func (e Event) Label() string {
	stage := e.Type.Stage()
	if stage == "" {
		return e.Path
	}
	return stage + " " + e.Path
}
