package continuity

import (
	"context"
	"net"
	"runtime"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const mdnsPort = 5353

var (
	// Multicast groups used by mDNS
	mdnsGroupIPv4 = net.IPv4(224, 0, 0, 251)
	mdnsGroupIPv6 = net.ParseIP("ff02::fb")

	// mDNS wildcard addresses
	mdnsWildcardAddrIPv4 = &net.UDPAddr{
		IP:   net.ParseIP("224.0.0.0"),
		Port: mdnsPort,
	}
	mdnsWildcardAddrIPv6 = &net.UDPAddr{
		IP:   net.ParseIP("ff02::"),
		Port: mdnsPort,
	}

	// mDNS endpoint addresses
	ipv4Addr = &net.UDPAddr{
		IP:   mdnsGroupIPv4,
		Port: mdnsPort,
	}
	ipv6Addr = &net.UDPAddr{
		IP:   mdnsGroupIPv6,
		Port: mdnsPort,
	}
)

// Shared ipv4 and ipv6 multicast ops.
type conn interface {
	JoinMulticast(net.Interface) error
	WriteMulticast(buf []byte, iface net.Interface) (n int, err error)
	SetWriteDeadline(time.Time) error
	Close() error
}

// RFC 6762 Section 11: All Multicast DNS responses [...] MUST be sent with UDP source port 5353,
// so the socket is bound to it. Other responders on the host share the port (Section 15.1).
func listenMulticast(network string, addr *net.UDPAddr) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: reusePort}
	pc, err := lc.ListenPacket(context.Background(), network, addr.String())
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

type conn4 struct {
	*ipv4.PacketConn
}

var _ conn = &conn4{}

func newConn4() (c *conn4, err error) {
	udpConn, err := listenMulticast("udp4", mdnsWildcardAddrIPv4)
	if err != nil {
		return nil, err
	}
	pc := ipv4.NewPacketConn(udpConn)
	_ = pc.SetMulticastTTL(255)
	_ = pc.SetMulticastLoopback(true)
	return &conn4{pc}, nil
}

func (c *conn4) JoinMulticast(iface net.Interface) (err error) {
	return c.JoinGroup(&iface, &net.UDPAddr{IP: mdnsGroupIPv4})
}

func (c *conn4) WriteMulticast(buf []byte, iface net.Interface) (int, error) {
	// See https://pkg.go.dev/golang.org/x/net/ipv4#pkg-note-BUG
	// On Windows, the ControlMessage for ReadFrom and WriteTo methods of PacketConn is not implemented.
	var wcm ipv4.ControlMessage
	switch runtime.GOOS {
	case "darwin", "ios", "linux":
		wcm.IfIndex = iface.Index
	default:
		if err := c.SetMulticastInterface(&iface); err != nil {
			return 0, err
		}
	}
	return c.WriteTo(buf, &wcm, ipv4Addr)
}

type conn6 struct {
	*ipv6.PacketConn
}

var _ conn = &conn6{}

func newConn6() (c *conn6, err error) {
	udpConn, err := listenMulticast("udp6", mdnsWildcardAddrIPv6)
	if err != nil {
		return nil, err
	}
	pc := ipv6.NewPacketConn(udpConn)
	_ = pc.SetMulticastHopLimit(255)
	_ = pc.SetMulticastLoopback(true)
	return &conn6{pc}, nil
}

func (c *conn6) JoinMulticast(iface net.Interface) (err error) {
	return c.JoinGroup(&iface, &net.UDPAddr{IP: mdnsGroupIPv6})
}

func (c *conn6) WriteMulticast(buf []byte, iface net.Interface) (int, error) {
	var wcm ipv6.ControlMessage
	switch runtime.GOOS {
	case "darwin", "ios", "linux":
		wcm.IfIndex = iface.Index
	default:
		if err := c.SetMulticastInterface(&iface); err != nil {
			return 0, err
		}
	}
	return c.WriteTo(buf, &wcm, ipv6Addr)
}

func isMulticastInterface(iface net.Interface) bool {
	return (iface.Flags&net.FlagUp) > 0 && (iface.Flags&net.FlagMulticast) > 0
}
