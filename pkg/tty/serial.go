package tty

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// serialPort adapts go.bug.st/serial to Port.
type serialPort struct {
	serial.Port
}

// OpenSerial opens path as a UART at opts.BaudRate, 8-N-1, without
// flow control.
func OpenSerial(path string, opts Options) (Port, error) {
	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: %s: reset input: %v", ErrOpenFailed, path, err)
	}
	return &serialPort{Port: port}, nil
}

// ResetInput implements Port.
func (p *serialPort) ResetInput() error {
	return p.Port.ResetInputBuffer()
}

// SetReadTimeout implements Port. An expired read returns 0 bytes
// without an error.
func (p *serialPort) SetReadTimeout(d time.Duration) error {
	if d <= 0 {
		return p.Port.SetReadTimeout(serial.NoTimeout)
	}
	return p.Port.SetReadTimeout(d)
}
