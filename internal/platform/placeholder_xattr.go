//go:build linux || darwin

package platform

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Extended attributes published by FUSE-based sync clients. The client owns
// XattrState; this tool only writes the pin and request attributes.
const (
	XattrState   = "user.cloud.state"
	XattrPin     = "user.cloud.pin"
	XattrRequest = "user.cloud.request"

	stateCloudOnly = "cloud-only"
	pinPinned      = "pinned"
	pinUnpinned    = "unpinned"
	requestHydrate = "hydrate"
	requestFree    = "dehydrate"
)

type xattrPlaceholders struct{}

func newXattrPlaceholders() (Placeholders, error) { //nolint:ireturn,unparam // mirrors the windows constructor
	return xattrPlaceholders{}, nil
}

func (xattrPlaceholders) Name() string { return string(BackendXattr) }

func (xattrPlaceholders) State(path string) (State, error) {
	buf := make([]byte, 64)
	n, err := unix.Getxattr(path, XattrState, buf)
	if err != nil {
		// No attribute, or a filesystem without xattrs: nothing there can be
		// a placeholder.
		if isNoAttr(err) {
			return Local, nil
		}
		return Local, fmt.Errorf("getxattr %s: %w", path, err)
	}
	if string(buf[:n]) == stateCloudOnly {
		return CloudOnly, nil
	}
	return Local, nil
}

func (x xattrPlaceholders) RequestHydration(path string) error {
	return setXattr(path, XattrRequest, requestHydrate)
}

func (xattrPlaceholders) Pin(path string) error {
	return setXattr(path, XattrPin, pinPinned)
}

func (xattrPlaceholders) Dehydrate(path string) error {
	if err := setXattr(path, XattrPin, pinUnpinned); err != nil {
		return err
	}
	return setXattr(path, XattrRequest, requestFree)
}

func setXattr(path, name, value string) error {
	if err := unix.Setxattr(path, name, []byte(value), 0); err != nil {
		return fmt.Errorf("setxattr %s %s: %w", path, name, err)
	}
	return nil
}

// isNoAttr reports an attribute that is absent, or a filesystem without
// user xattrs. Both read as a plain local file.
func isNoAttr(err error) bool {
	return errors.Is(err, errNoAttr) || errors.Is(err, unix.ENOTSUP) ||
		errors.Is(err, unix.EOPNOTSUPP)
}
