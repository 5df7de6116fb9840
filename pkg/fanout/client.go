package fanout

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
)

// Client is a connected UDP handle to one strip controller. A single Client
// is shared by every in-flight frame; concurrent writes are safe.
type Client struct {
	Target ClientTarget

	conn   *net.UDPConn
	sent   atomic.Uint64
	failed atomic.Uint64
}

// Dial resolves the target and connects a UDP socket to it.
func Dial(ctx context.Context, target ClientTarget) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", target.Address)
	if err != nil {
		return nil, fmt.Errorf("dial client %s: %w", target, err)
	}
	return &Client{Target: target, conn: conn.(*net.UDPConn)}, nil
}

// Write sends one datagram.
func (c *Client) Write(b []byte) error {
	if _, err := c.conn.Write(b); err != nil {
		c.failed.Add(1)
		return err
	}
	c.sent.Add(1)
	return nil
}

// LocalAddr returns the local socket address.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Close closes the socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ClientStats counts datagrams for one client.
type ClientStats struct {
	Target ClientTarget
	Sent   uint64
	Failed uint64
}

// Stats returns the client's counters.
func (c *Client) Stats() ClientStats {
	return ClientStats{Target: c.Target, Sent: c.sent.Load(), Failed: c.failed.Load()}
}
