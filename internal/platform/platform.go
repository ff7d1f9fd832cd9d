// Package platform talks to the operating system on behalf of the engine:
// cloud placeholder attributes, copy buffers and disk preallocation.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// State is the hydration state of a file as observed at a point in time.
type State int

const (
	// Local means the file content is fully present on disk.
	Local State = iota
	// CloudOnly means the file is a placeholder whose content lives in the cloud.
	CloudOnly
)

func (s State) String() string {
	switch s {
	case Local:
		return "local"
	case CloudOnly:
		return "cloud-only"
	default:
		return "unknown"
	}
}

// ErrUnsupported is returned when a placeholder backend is not available on
// this operating system.
var ErrUnsupported = errors.New("placeholder backend not supported on this platform")

// Placeholders observes and requests changes to the cloud state of files
// managed by a sync client. Requests are asynchronous: the sync client acts
// on them in its own time and callers must poll State to observe the effect.
type Placeholders interface {
	// Name identifies the backend in logs.
	Name() string
	// State reads the current hydration state from file metadata.
	State(path string) (State, error)
	// RequestHydration asks the sync client to download the file content.
	RequestHydration(path string) error
	// Pin marks the file as "always keep on this device" so the client
	// does not evict it while it is being read.
	Pin(path string) error
	// Dehydrate unpins the file and asks the client to free its local content.
	Dehydrate(path string) error
}

// Backend selects a Placeholders implementation.
type Backend string

const (
	BackendAuto    Backend = "auto"
	BackendWindows Backend = "windows"
	BackendXattr   Backend = "xattr"
	BackendNone    Backend = "none"
)

// String implements pflag.Value.
func (b *Backend) String() string { return string(*b) }

// Type implements pflag.Value.
func (*Backend) Type() string { return "backend" }

// Set implements pflag.Value.
func (b *Backend) Set(v string) error {
	switch Backend(strings.ToLower(strings.TrimSpace(v))) {
	case BackendAuto, BackendWindows, BackendXattr, BackendNone:
		*b = Backend(strings.ToLower(strings.TrimSpace(v)))
		return nil
	default:
		return fmt.Errorf("unknown placeholder backend %q (want auto, windows, xattr or none)", v)
	}
}

// NewPlaceholders returns the backend for b. BackendAuto resolves to the
// Windows cloud-files attributes on Windows and to BackendNone elsewhere.
//
//nolint:ireturn // factory returns interface by design
func NewPlaceholders(b Backend) (Placeholders, error) {
	switch b {
	case BackendAuto, "":
		if runtime.GOOS == "windows" {
			return newWindowsPlaceholders()
		}
		return LocalOnly{}, nil
	case BackendWindows:
		return newWindowsPlaceholders()
	case BackendXattr:
		return newXattrPlaceholders()
	case BackendNone:
		return LocalOnly{}, nil
	default:
		return nil, fmt.Errorf("unknown placeholder backend %q", b)
	}
}

// LocalOnly is the backend for plain filesystems: every file is already
// local and all requests are no-ops.
type LocalOnly struct{}

func (LocalOnly) Name() string                 { return string(BackendNone) }
func (LocalOnly) State(string) (State, error)  { return Local, nil }
func (LocalOnly) RequestHydration(string) error { return nil }
func (LocalOnly) Pin(string) error              { return nil }
func (LocalOnly) Dehydrate(string) error        { return nil }
