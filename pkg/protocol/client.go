package protocol

import (
	"github.com/golang/glog"
)

// LineConn is the line transport a Client drives, e.g. *tty.Channel.
type LineConn interface {
	WriteLine(line []byte) error
	ReadLine(maxLen int) ([]byte, error)
	// ResetInput discards unread input.
	ResetInput() error
}

// Client performs lockstep exchanges: every line written is followed by
// reading exactly one line before anything else is written. After a
// failed or truncated exchange, pending input is discarded before the
// next line is written. It's not safe for concurrent use.
type Client struct {
	conn LineConn
	// MaxLineLen bounds each reply, 0 for the transport default.
	MaxLineLen int

	desync bool
}

// NewClient wraps a transport.
func NewClient(conn LineConn) *Client {
	return &Client{conn: conn}
}

// Exchange writes line and reads the reply. Nothing is read if the
// write fails.
func (c *Client) Exchange(line []byte) ([]byte, error) {
	if c.desync {
		if err := c.conn.ResetInput(); err != nil {
			return nil, err
		}
		c.desync = false
	}
	if err := c.conn.WriteLine(line); err != nil {
		c.desync = true
		return nil, err
	}
	reply, err := c.conn.ReadLine(c.MaxLineLen)
	if err != nil {
		c.desync = true
		return nil, err
	}
	if len(reply) == 0 || reply[len(reply)-1] != '\n' {
		// truncated, the rest of the line is still pending.
		c.desync = true
	}
	if glog.V(2) {
		glog.Infof("exchange %q -> %q", line, trimEOL(reply))
	}
	return reply, nil
}

// Query sends a telemetry query and parses the value. The reply is
// consumed even when it doesn't parse.
func (c *Client) Query(name string) (int, error) {
	cmd := Query(name)
	if err := cmd.Validate(); err != nil {
		return 0, err
	}
	reply, err := c.Exchange(cmd.Encode())
	if err != nil {
		return 0, err
	}
	val, err := ParseReply(name, reply)
	if err != nil {
		c.desync = true
	}
	return val, err
}

// Do sends a command and discards its acknowledgement. Queries go
// through Query instead.
func (c *Client) Do(cmd Command) error {
	if cmd.IsQuery() {
		_, err := c.Query(cmd.Name)
		return err
	}
	if err := cmd.Validate(); err != nil {
		return err
	}
	_, err := c.Exchange(cmd.Encode())
	return err
}
