// Package tty provides a line-oriented channel over a raw character
// device, e.g. the rpmsg tty exposed by the robot co-processor.
package tty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultMaxLineLen is the read buffer bound used by ReadLine when
// the caller passes 0.
const DefaultMaxLineLen = 64

// Port is the byte stream a Channel drives.
type Port interface {
	io.ReadWriteCloser
	// SetReadTimeout bounds a single Read. 0 blocks indefinitely.
	SetReadTimeout(time.Duration) error
	// ResetInput discards input received but not read yet.
	ResetInput() error
}

// Options configures Open.
type Options struct {
	// BaudRate selects the UART backend when > 0, otherwise the device
	// keeps its current speed and is only switched to raw mode.
	BaudRate int
	// ReadTimeout bounds each ReadLine, 0 to block.
	ReadTimeout time.Duration
}

// Opener opens a Port on a path. It's replaceable for tests.
type Opener func(path string, opts Options) (Port, error)

// Channel is a bidirectional line channel. It's not safe for concurrent
// reads or writes, but Close may be called from any goroutine to abort
// a blocked ReadLine.
type Channel struct {
	path string
	port Port

	lock   sync.Mutex
	closed bool
}

// Open opens the device at path in raw mode.
func Open(path string, opts Options) (*Channel, error) {
	return OpenWith(DefaultOpener, path, opts)
}

// DefaultOpener chooses the backend from opts.
func DefaultOpener(path string, opts Options) (Port, error) {
	if opts.BaudRate > 0 {
		return OpenSerial(path, opts)
	}
	return OpenRaw(path, opts)
}

// OpenWith opens a channel using a specific Opener.
func OpenWith(opener Opener, path string, opts Options) (*Channel, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceMissing, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}
	port, err := opener(path, opts)
	if err != nil {
		if errors.Is(err, ErrOpenFailed) || errors.Is(err, ErrDeviceMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}
	if opts.ReadTimeout > 0 {
		if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("%w: %s: set read timeout: %v", ErrOpenFailed, path, err)
		}
	}
	glog.V(1).Infof("tty %s opened", path)
	return NewChannel(path, port), nil
}

// NewChannel wraps an already opened Port.
func NewChannel(path string, port Port) *Channel {
	return &Channel{path: path, port: port}
}

// Path returns the device path.
func (c *Channel) Path() string {
	return c.path
}

// IsOpen indicates the channel hasn't been closed.
func (c *Channel) IsOpen() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return !c.closed
}

// WriteLine writes line followed by a newline in a single write.
func (c *Channel) WriteLine(line []byte) error {
	if !c.IsOpen() {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailed, c.path, ErrClosed)
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	n, err := c.port.Write(buf)
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailed, c.path, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: write %s: short write %d/%d", ErrIOFailed, c.path, n, len(buf))
	}
	if glog.V(3) {
		glog.Infof("tty %s > %q", c.path, buf)
	}
	return nil
}

// ReadLine reads up to and including the first newline, or maxLen
// bytes, whichever comes first. maxLen 0 means DefaultMaxLineLen.
// The device is read one byte at a time so nothing past the line is
// consumed.
func (c *Channel) ReadLine(maxLen int) ([]byte, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLen
	}
	if !c.IsOpen() {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIOFailed, c.path, ErrClosed)
	}
	line := make([]byte, 0, maxLen)
	var b [1]byte
	for len(line) < maxLen {
		n, err := c.port.Read(b[:])
		if err != nil {
			if !c.IsOpen() {
				err = ErrClosed
			}
			return line, fmt.Errorf("%w: read %s: %v", ErrIOFailed, c.path, err)
		}
		if n == 0 {
			// backends report an expired read timeout as an empty read.
			return line, fmt.Errorf("%w: read %s: timeout", ErrIOFailed, c.path)
		}
		line = append(line, b[0])
		if b[0] == '\n' {
			break
		}
	}
	if glog.V(3) {
		glog.Infof("tty %s < %q", c.path, line)
	}
	return line, nil
}

// ResetInput discards everything the device sent that hasn't been read,
// e.g. a reply arriving after its read timed out.
func (c *Channel) ResetInput() error {
	if !c.IsOpen() {
		return fmt.Errorf("%w: flush %s: %v", ErrIOFailed, c.path, ErrClosed)
	}
	if err := c.port.ResetInput(); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrIOFailed, c.path, err)
	}
	glog.V(2).Infof("tty %s input flushed", c.path)
	return nil
}

// Close implements io.Closer. It's idempotent and never fails.
func (c *Channel) Close() error {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return nil
	}
	c.closed = true
	c.lock.Unlock()
	if err := c.port.Close(); err != nil {
		glog.Warningf("tty %s close: %v", c.path, err)
	}
	glog.V(1).Infof("tty %s closed", c.path)
	return nil
}
