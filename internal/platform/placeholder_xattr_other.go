//go:build !linux && !darwin

package platform

func newXattrPlaceholders() (Placeholders, error) { //nolint:ireturn // factory
	return nil, ErrUnsupported
}
