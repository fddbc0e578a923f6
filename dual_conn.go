package continuity

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"slices"
	"time"
)

// A network interface used for sending, with its mDNS-suitable unicast addresses.
type Interface struct {
	net.Interface
	v4, v6 []netip.Addr // If no addr, the iface is ignored while communicating
}

func (i *Interface) String() string {
	return fmt.Sprintf("%v %v %v", i.Name, i.v4, i.v6)
}

// IPv4 addresses of the interface, at most one.
func (i *Interface) V4() []netip.Addr {
	return slices.Clone(i.v4)
}

// IPv6 addresses of the interface: at most one global and one link-local.
func (i *Interface) V6() []netip.Addr {
	return slices.Clone(i.v6)
}

// Encapsulates both IPv4/IPv6 UDP connections.
type dualConn struct {
	c4     *conn4
	c6     *conn6
	ifaces map[int]*Interface // key: iface.Index

	// Used to filter interfaces to use, default = net.Interfaces
	ifacesFn func() ([]net.Interface, error)
}

func newDualConn(ifacesFn func() ([]net.Interface, error), network string) (*dualConn, error) {

	c := &dualConn{
		ifaces:   make(map[int]*Interface),
		ifacesFn: ifacesFn,
	}

	var err4, err6 error
	switch network {
	case "udp":
		c.c4, err4 = newConn4()
		c.c6, err6 = newConn6()
		// One family is enough when the host lacks the other one.
		if c.c4 != nil || c.c6 != nil {
			err4, err6 = nil, nil
		}
	case "udp4":
		c.c4, err4 = newConn4()
	case "udp6":
		c.c6, err6 = newConn6()
	default:
		return nil, errors.New("invalid network")
	}
	if err := errors.Join(err4, err6); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.loadIfaces(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *dualConn) loadIfaces() error {
	ifaces := make(map[int]*Interface)
	netIfaces, err := c.ifacesFn()
	if err != nil {
		return err
	}
	for _, netIface := range netIfaces {
		if !isMulticastInterface(netIface) {
			continue
		}
		v4, v6, err := netIfaceAddrs(netIface)
		if err != nil {
			return err
		}
		iface := &Interface{Interface: netIface}
		// Join will fail if called multiple times, just attempt for now
		if c.c4 != nil && len(v4) > 0 {
			c.c4.JoinMulticast(netIface)
			iface.v4 = v4
		}
		if c.c6 != nil && len(v6) > 0 {
			c.c6.JoinMulticast(netIface)
			iface.v6 = v6
		}
		if len(iface.v4) > 0 || len(iface.v6) > 0 {
			ifaces[iface.Index] = iface
		}
	}
	c.ifaces = ifaces
	return nil
}

func (c *dualConn) conns() (conns []conn) {
	if c.c4 != nil {
		conns = append(conns, c.c4)
	}
	if c.c6 != nil {
		conns = append(conns, c.c6)
	}
	return
}

// Writes a packed message on the interface, using each IP family the interface has addresses for.
func (c *dualConn) WriteMulticast(buf []byte, ifIndex int) error {
	iface := c.ifaces[ifIndex]
	if iface == nil {
		return fmt.Errorf("iface with idx %v not found", ifIndex)
	}
	var err4, err6 error
	if len(iface.v4) > 0 {
		_, err4 = c.c4.WriteMulticast(buf, iface.Interface)
	}
	if len(iface.v6) > 0 {
		_, err6 = c.c6.WriteMulticast(buf, iface.Interface)
	}
	return errors.Join(err4, err6)
}

func (c *dualConn) SetWriteDeadline(dl time.Time) error {
	var errs []error
	for _, conn := range c.conns() {
		errs = append(errs, conn.SetWriteDeadline(dl))
	}
	return errors.Join(errs...)
}

func (c *dualConn) Close() error {
	var errs []error
	for _, conn := range c.conns() {
		errs = append(errs, conn.Close())
	}
	return errors.Join(errs...)
}

// Returns mDNS-suitable unicast addresses for a net.Interface
func netIfaceAddrs(iface net.Interface) (v4, v6 []netip.Addr, err error) {
	var v6local []netip.Addr
	ifaceAddrs, err := iface.Addrs()
	if err != nil {
		return nil, nil, err
	}
	for _, address := range ifaceAddrs {
		ipnet, ok := address.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipnet.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		if ip.Is4() {
			v4 = append(v4, ip)
		} else if ip.Is6() {
			if ip.IsGlobalUnicast() {
				v6 = append(v6, ip)
			} else if ip.IsLinkLocalUnicast() {
				v6local = append(v6local, ip)
			}
		}
	}
	// 1 ip of each type is enough
	v4, v6 = max1(v4), append(max1(v6), max1(v6local)...)
	return
}

func max1[T any](slice []T) []T {
	if len(slice) > 1 {
		return slice[:1]
	}
	return slice
}
