package continuity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"
)

const (
	// RFC6762 Section 8.3: The Multicast DNS responder MUST send at least two unsolicited
	// responses
	announceCount = 2

	writeTimeout = 10 * time.Millisecond
)

// A Client sends mDNS packets on all multicast-capable interfaces. It never reads from the
// network.
type Client struct {
	conn   *dualConn
	logger *slog.Logger
}

func newClient(opts *Options) (*Client, error) {
	conn, err := newDualConn(opts.ifacesFn, opts.network)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, logger: opts.logger}, nil
}

// The interfaces in use, ordered by index.
func (c *Client) Interfaces() []*Interface {
	keys := slices.Sorted(maps.Keys(c.conn.ifaces))
	ifaces := make([]*Interface, len(keys))
	for i, k := range keys {
		ifaces[i] = c.conn.ifaces[k]
	}
	return ifaces
}

// Pack the packet once and send it on all interfaces.
func (c *Client) Send(out *Outgoing) error {
	buf, err := out.Pack()
	if err != nil {
		return err
	}
	var errs []error
	for _, iface := range c.Interfaces() {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMulticast(buf, iface.Index); err != nil {
			errs = append(errs, fmt.Errorf("%v %w", iface.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Send a packet built for each interface, e.g. to include the addresses of that interface.
// Build and pack errors abort, while write errors are collected in writeErr.
func (c *Client) sendPerIface(build func(iface *Interface) (*Outgoing, error)) (writeErr, err error) {
	var errs []error
	for _, iface := range c.Interfaces() {
		out, err := build(iface)
		if err != nil {
			return nil, err
		}
		buf, err := out.Pack()
		if err != nil {
			return nil, err
		}
		c.logger.Debug("sending", "iface", iface.Name, "bytes", len(buf))
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMulticast(buf, iface.Index); err != nil {
			errs = append(errs, fmt.Errorf("%v %w", iface.Name, err))
		}
	}
	return errors.Join(errs...), nil
}

// Announce the packets returned by build. Errors from build or packing are returned
// immediately, while failed writes are only logged.
//
// From RFC6762
//
//	The Multicast DNS responder MUST send at least two unsolicited
//	responses, one second apart. To provide increased robustness against
//	packet loss, a responder MAY send up to eight unsolicited responses,
//	provided that the interval between unsolicited responses increases by
//	at least a factor of two with every response sent.
func (c *Client) Announce(ctx context.Context, build func(iface *Interface) (*Outgoing, error)) error {
	timeout := time.Second
	for i := 0; i < announceCount; i++ {
		if i > 0 {
			if err := sleepContext(ctx, timeout); err != nil {
				return err
			}
			timeout *= 2
		}
		writeErr, err := c.sendPerIface(build)
		if err != nil {
			return err
		}
		if writeErr != nil {
			c.logger.Debug("announcement failed", "err", writeErr)
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
