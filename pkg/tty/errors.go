package tty

import "errors"

var (
	// ErrDeviceMissing indicates the device path doesn't exist.
	ErrDeviceMissing = errors.New("device does not exist")
	// ErrOpenFailed indicates the device exists but can't be opened
	// or configured.
	ErrOpenFailed = errors.New("file failed to open")
	// ErrIOFailed indicates a read or write on an open channel failed,
	// including a read timeout and a short write.
	ErrIOFailed = errors.New("i/o failed")
	// ErrClosed is wrapped in ErrIOFailed for operations on a closed channel.
	ErrClosed = errors.New("channel closed")
)
