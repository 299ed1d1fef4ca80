//go:build !linux

package tty

import (
	"fmt"
	"runtime"
)

// OpenRaw is only supported on linux; use a BaudRate to select the
// UART backend elsewhere.
func OpenRaw(path string, opts Options) (Port, error) {
	return nil, fmt.Errorf("%w: %s: raw tty unsupported on %s", ErrOpenFailed, path, runtime.GOOS)
}
