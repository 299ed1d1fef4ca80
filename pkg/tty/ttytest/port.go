// Package ttytest provides an in-memory tty.Port for tests.
package ttytest

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrNoReply is returned by Read when nothing is queued to be read.
var ErrNoReply = errors.New("no reply queued")

// Port is a scripted tty.Port. Each line written is answered by
// Responder (or the next queued reply) and the answer becomes
// readable.
type Port struct {
	// Responder computes the reply to a written line (without the
	// newline). It's consulted when no scripted reply is queued.
	Responder func(line string) string
	// ReadErr, if set, fails every Read.
	ReadErr error
	// WriteErr, if set, fails every Write.
	WriteErr error
	// ShortWrite makes Write report one byte less than given.
	ShortWrite bool

	lock        sync.Mutex
	script      []string
	readBuf     bytes.Buffer
	late        string
	delayNext   int
	flushes     int
	lines       []string
	dirtyWrites int
	closed      bool
	timeout     time.Duration
}

// New creates a Port answering with the replies in order.
func New(replies ...string) *Port {
	return &Port{script: replies}
}

// Queue appends scripted replies.
func (p *Port) Queue(replies ...string) {
	p.lock.Lock()
	p.script = append(p.script, replies...)
	p.lock.Unlock()
}

// DelayNext makes the replies to the next n lines written arrive late:
// they only become readable once a Read has timed out.
func (p *Port) DelayNext(n int) {
	p.lock.Lock()
	p.delayNext = n
	p.lock.Unlock()
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}
	if p.readBuf.Len() > 0 {
		p.dirtyWrites++
	}
	for _, line := range bytes.SplitAfter(b, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		text := string(bytes.TrimSuffix(line, []byte{'\n'}))
		p.lines = append(p.lines, text)
		reply := p.replyTo(text)
		if p.delayNext > 0 {
			p.delayNext--
			p.late += reply
			continue
		}
		p.readBuf.WriteString(reply)
	}
	if p.ShortWrite {
		return len(b) - 1, nil
	}
	return len(b), nil
}

func (p *Port) replyTo(line string) string {
	if len(p.script) > 0 {
		reply := p.script[0]
		p.script = p.script[1:]
		return reply
	}
	if p.Responder != nil {
		return p.Responder(line)
	}
	return ""
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if p.ReadErr != nil {
		return 0, p.ReadErr
	}
	if p.readBuf.Len() == 0 {
		if p.late != "" {
			// the read times out, then the late replies show up.
			p.readBuf.WriteString(p.late)
			p.late = ""
			return 0, nil
		}
		return 0, ErrNoReply
	}
	return p.readBuf.Read(b)
}

// Close implements io.Closer.
func (p *Port) Close() error {
	p.lock.Lock()
	p.closed = true
	p.lock.Unlock()
	return nil
}

// ResetInput implements tty.Port. Replies still delayed are kept.
func (p *Port) ResetInput() error {
	p.lock.Lock()
	p.readBuf.Reset()
	p.flushes++
	p.lock.Unlock()
	return nil
}

// Flushes counts ResetInput calls.
func (p *Port) Flushes() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.flushes
}

// SetReadTimeout implements tty.Port.
func (p *Port) SetReadTimeout(d time.Duration) error {
	p.lock.Lock()
	p.timeout = d
	p.lock.Unlock()
	return nil
}

// Lines returns all lines written so far.
func (p *Port) Lines() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]string(nil), p.lines...)
}

// Reset forgets written lines and unread replies.
func (p *Port) Reset() {
	p.lock.Lock()
	p.lines, p.dirtyWrites = nil, 0
	p.late, p.delayNext = "", 0
	p.readBuf.Reset()
	p.lock.Unlock()
}

// Unread returns the number of reply bytes not consumed yet.
func (p *Port) Unread() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.readBuf.Len()
}

// DirtyWrites counts writes issued while a previous reply was still
// unread, i.e. lockstep violations.
func (p *Port) DirtyWrites() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.dirtyWrites
}

// IsClosed indicates Close was called.
func (p *Port) IsClosed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.closed
}

// ReadTimeout returns the last timeout set.
func (p *Port) ReadTimeout() time.Duration {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.timeout
}
