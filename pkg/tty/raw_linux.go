//go:build linux

package tty

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// rawFile is a Port over a character device switched to raw mode,
// keeping whatever line speed the device already has.
type rawFile struct {
	*os.File
	timeout time.Duration
}

// OpenRaw opens path read/write and puts it in raw mode: break
// processing, signal generation, canonical mode, echo and output
// post-processing are all disabled.
func OpenRaw(path string, opts Options) (Port, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	if err := makeRaw(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: termios: %v", ErrOpenFailed, path, err)
	}
	return &rawFile{File: f}, nil
}

// makeRaw goes through SyscallConn rather than Fd so the file stays
// in non-blocking mode and read deadlines keep working.
func makeRaw(f *os.File) error {
	conn, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var termErr error
	err = conn.Control(func(fd uintptr) {
		var tio *unix.Termios
		if tio, termErr = unix.IoctlGetTermios(int(fd), unix.TCGETS); termErr != nil {
			return
		}
		tio.Iflag &^= unix.IGNBRK
		tio.Lflag = 0
		tio.Oflag = 0
		termErr = unix.IoctlSetTermios(int(fd), unix.TCSETS, tio)
	})
	if err != nil {
		return err
	}
	return termErr
}

// SetReadTimeout implements Port.
func (f *rawFile) SetReadTimeout(d time.Duration) error {
	f.timeout = d
	if d <= 0 {
		return f.File.SetReadDeadline(time.Time{})
	}
	return nil
}

// Read implements io.Reader.
func (f *rawFile) Read(p []byte) (int, error) {
	if f.timeout > 0 {
		if err := f.File.SetReadDeadline(time.Now().Add(f.timeout)); err != nil {
			return 0, err
		}
	}
	return f.File.Read(p)
}

// ResetInput implements Port.
func (f *rawFile) ResetInput() error {
	conn, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var flushErr error
	err = conn.Control(func(fd uintptr) {
		flushErr = unix.IoctlSetInt(int(fd), unix.TCFLSH, unix.TCIFLUSH)
	})
	if err != nil {
		return err
	}
	return flushErr
}
