package protocol

import (
	"bytes"
	"fmt"
	"strconv"
)

// Reply is a parsed telemetry reply.
type Reply struct {
	Name  string
	Value int
}

// Encode returns the wire form without the line terminator.
func (r Reply) Encode() []byte {
	b := make([]byte, 0, len(r.Name)+8)
	b = append(append(b, '?'), r.Name...)
	return strconv.AppendInt(append(b, ':'), int64(r.Value), 10)
}

// DecodeReply parses a line of form ?<name>:<int>.
func DecodeReply(line []byte) (Reply, error) {
	line = trimEOL(line)
	if len(line) < 2 || line[0] != '?' {
		return Reply{}, fmt.Errorf("%w: %q", ErrParseFailed, line)
	}
	pos := bytes.IndexByte(line, ':')
	if pos < 2 {
		return Reply{}, fmt.Errorf("%w: %q", ErrParseFailed, line)
	}
	val, err := strconv.Atoi(string(line[pos+1:]))
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %q: %v", ErrParseFailed, line, err)
	}
	return Reply{Name: string(line[1:pos]), Value: val}, nil
}

// ParseReply parses the reply to the query name.
func ParseReply(name string, line []byte) (int, error) {
	r, err := DecodeReply(line)
	if err != nil {
		return 0, err
	}
	if r.Name != name {
		return 0, fmt.Errorf("%w: sent %q, got %q", ErrProtocolMismatch, name, r.Name)
	}
	return r.Value, nil
}
