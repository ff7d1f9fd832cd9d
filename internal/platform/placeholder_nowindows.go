//go:build !windows

package platform

func newWindowsPlaceholders() (Placeholders, error) { //nolint:ireturn // factory
	return nil, ErrUnsupported
}
