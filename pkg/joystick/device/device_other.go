//go:build !linux

package device

// Open always fails off linux.
func Open(index int) (Device, error) {
	return nil, ErrUnsupported
}

// DetectAndOpen always fails off linux.
func DetectAndOpen(startIndex int) (Device, error) {
	return nil, ErrUnsupported
}
