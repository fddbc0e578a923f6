package continuity

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// Any routable address works, since no packets are sent when "dialing" UDP.
var routeProbeAddr = "10.254.254.254:1"

// The interface used for the default route, whose MAC identifies the machine in the
// Owner option.
type PrimaryInfo struct {
	Index int
	Name  string
	Addr  netip.Addr
	MAC   net.HardwareAddr
}

func (p *PrimaryInfo) String() string {
	return fmt.Sprintf("%v %v %v", p.Name, p.Addr, p.MAC)
}

// Determine the primary interface: the outbound IPv4 address is found by dialing UDP, and the
// interface holding that address is looked up for its hardware address.
func PrimaryInterface(ctx context.Context) (*PrimaryInfo, error) {
	addr := outboundAddr(ctx)
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return primaryFromStats(addr, ifaces)
}

// Falls back to the loopback address when there is no route.
func outboundAddr(ctx context.Context) netip.Addr {
	var d net.Dialer
	c, err := d.DialContext(ctx, "udp4", routeProbeAddr)
	if err != nil {
		return netip.AddrFrom4([4]byte{127, 0, 0, 1})
	}
	defer c.Close()
	return c.LocalAddr().(*net.UDPAddr).AddrPort().Addr().Unmap()
}

func primaryFromStats(addr netip.Addr, ifaces psnet.InterfaceStatList) (*PrimaryInfo, error) {
	for _, iface := range ifaces {
		if !hasAddr(iface, addr) {
			continue
		}
		info := &PrimaryInfo{Index: iface.Index, Name: iface.Name, Addr: addr}
		// Windows reports the address with dashes
		mac, err := net.ParseMAC(strings.ReplaceAll(iface.HardwareAddr, "-", ":"))
		if err != nil || len(mac) != 6 {
			return info, fmt.Errorf("%w: %v [%v]", ErrNoPrimaryMAC, iface.Name, iface.HardwareAddr)
		}
		info.MAC = mac
		return info, nil
	}
	return nil, fmt.Errorf("%w: no interface has %v", ErrNoPrimaryMAC, addr)
}

func hasAddr(iface psnet.InterfaceStat, addr netip.Addr) bool {
	for _, a := range iface.Addrs {
		prefix, err := netip.ParsePrefix(a.Addr)
		if err == nil && prefix.Addr().Unmap() == addr {
			return true
		}
		if ip, err := netip.ParseAddr(a.Addr); err == nil && ip.Unmap() == addr {
			return true
		}
	}
	return false
}
