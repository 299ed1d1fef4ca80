package protocol

import (
	"errors"
)

var (
	// ErrProtocolMismatch indicates the reply names a different query
	// than the one sent.
	ErrProtocolMismatch = errors.New("protocol mismatch")
	// ErrParseFailed indicates a line isn't in the expected form.
	ErrParseFailed = errors.New("parse failed")
	// ErrInvalidCommand indicates a command with out of range arguments.
	ErrInvalidCommand = errors.New("invalid command")
)
