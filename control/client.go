package control

import (
	"context"
	"net"

	"github.com/pkg/errors"

	"go.viam.com/colorblob/vision/blob"
)

// Client sends control messages to a Server. The server reads one message per read, so callers
// sending several messages should give the server time to consume each one.
type Client struct {
	conn net.Conn
}

// Dial connects to the control server at address.
func Dial(ctx context.Context, address string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to control server at %q", address)
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// Send writes msg in a single write.
func (c *Client) Send(msg []byte) error {
	if len(msg) > MaxMessageSize {
		return errors.Errorf("message of %d bytes exceeds %d", len(msg), MaxMessageSize)
	}
	_, err := c.conn.Write(msg)
	return err
}

// SetThresholds sends new detection thresholds.
func (c *Client) SetThresholds(t blob.Thresholds) error {
	return c.Send(EncodeThresholds(t))
}

// SetFlag turns one of the enable flags on or off.
func (c *Client) SetFlag(op Opcode, on bool) error {
	return c.Send(EncodeBool(op, on))
}

// Quit asks the server to end the session and closes the connection.
func (c *Client) Quit() error {
	err := c.Send([]byte{byte(OpQuit)})
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close closes the connection without sending QUIT.
func (c *Client) Close() error {
	return c.conn.Close()
}
