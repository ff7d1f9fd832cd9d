//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Cloud Files API attribute bits (winnt.h).
const (
	attrOffline            = 0x00001000
	attrRecallOnOpen       = 0x00040000
	attrPinned             = 0x00080000
	attrUnpinned           = 0x00100000
	attrRecallOnDataAccess = 0x00400000

	cloudOnlyMask = attrOffline | attrRecallOnOpen | attrRecallOnDataAccess
)

// windowsPlaceholders drives OneDrive-style placeholders through the pinned
// and unpinned attributes, the same switch Explorer's "Always keep on this
// device" / "Free up space" commands flip.
type windowsPlaceholders struct{}

func newWindowsPlaceholders() (Placeholders, error) { //nolint:ireturn,unparam // mirrors the xattr constructor
	return windowsPlaceholders{}, nil
}

func (windowsPlaceholders) Name() string { return string(BackendWindows) }

func (windowsPlaceholders) State(path string) (State, error) {
	attrs, err := getAttrs(path)
	if err != nil {
		return Local, err
	}
	if attrs&cloudOnlyMask != 0 {
		return CloudOnly, nil
	}
	return Local, nil
}

func (w windowsPlaceholders) RequestHydration(path string) error {
	return updateAttrs(path, attrPinned, attrUnpinned)
}

func (windowsPlaceholders) Pin(path string) error {
	return updateAttrs(path, attrPinned, attrUnpinned)
}

func (windowsPlaceholders) Dehydrate(path string) error {
	return updateAttrs(path, attrUnpinned, attrPinned)
}

func getAttrs(path string) (uint32, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", path, err)
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return 0, fmt.Errorf("get attributes %s: %w", path, err)
	}
	return attrs, nil
}

func updateAttrs(path string, set, clear uint32) error {
	attrs, err := getAttrs(path)
	if err != nil {
		return err
	}
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := windows.SetFileAttributes(p, (attrs&^clear)|set); err != nil {
		return fmt.Errorf("set attributes %s: %w", path, err)
	}
	return nil
}
