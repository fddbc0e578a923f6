package main

import (
	"bytes"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/betamos/continuity"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOwner(t *testing.T) continuity.OwnerOption {
	t.Helper()
	owner, err := continuity.NewOwnerOption(1, net.HardwareAddr{0x11, 0x22, 0x33, 0x44, 0x55, 0x66})
	require.NoError(t, err)
	return owner
}

func unpackAnnouncement(t *testing.T, svc *Service, addrs ...netip.Addr) ([]byte, *dns.Msg) {
	t.Helper()
	out, err := announcement(svc, testOwner(t), addrs, time.Now())
	require.NoError(t, err)
	buf, err := out.Pack()
	require.NoError(t, err)

	msg := new(dns.Msg)
	require.NoError(t, msg.Unpack(buf))
	return buf, msg
}

func TestAnnouncement(t *testing.T) {
	svc := testService()
	svc.Name = "OfficeMac"
	svc.Text = continuity.MustDNSString("model=MacBookPro11,1", "osxvers=20")
	svc.Rapport = continuity.MustDNSString("rpFl=0x20000", "rpVr=230.1")

	buf, msg := unpackAnnouncement(t, svc,
		netip.MustParseAddr("192.168.1.10"), netip.MustParseAddr("fe80::1"))
	assert.True(t, bytes.HasSuffix(buf, testOwner(t).Pack()))
	assert.True(t, msg.Response)
	assert.True(t, msg.Authoritative)

	require.Len(t, msg.Answer, 2)
	txt := msg.Answer[0].(*dns.TXT)
	assert.Equal(t, "OfficeMac._companion-link._tcp.local.", txt.Hdr.Name)
	assert.Equal(t, []string{"model=MacBookPro11,1", "osxvers=20"}, txt.Txt)
	assert.Equal(t, uint16(continuity.UniqueRecordClass), txt.Hdr.Class)
	ptr := msg.Answer[1].(*dns.PTR)
	assert.Equal(t, "_companion-link._tcp.local.", ptr.Hdr.Name)
	assert.Equal(t, txt.Hdr.Name, ptr.Ptr)
	assert.Equal(t, uint16(continuity.SharedRecordClass), ptr.Hdr.Class)

	var types []uint16
	for _, rr := range msg.Extra {
		types = append(types, rr.Header().Rrtype)
	}
	assert.Equal(t, []uint16{
		dns.TypeTXT, dns.TypeSRV, dns.TypeA, dns.TypeAAAA, dns.TypeNSEC, dns.TypeNSEC, dns.TypeOPT,
	}, types)

	srv := msg.Extra[1].(*dns.SRV)
	assert.Equal(t, uint16(58645), srv.Port)
	assert.Equal(t, "office-mac.local.", srv.Target)
	assert.Equal(t, uint32(120), srv.Hdr.Ttl)

	hostNsec := msg.Extra[5].(*dns.NSEC)
	assert.Equal(t, "office-mac.local.", hostNsec.NextDomain)
	assert.Equal(t, []uint16{dns.TypeA, dns.TypeAAAA}, hostNsec.TypeBitMap)

	opt := msg.IsEdns0()
	require.NotNil(t, opt)
	require.Len(t, opt.Option, 1)
	assert.Equal(t, uint16(continuity.OwnerOptionCode), opt.Option[0].Option())
}

func TestAnnouncementMinimal(t *testing.T) {
	svc := testService()
	svc.Name = "OfficeMac"

	_, msg := unpackAnnouncement(t, svc)
	require.Len(t, msg.Answer, 2)
	// Empty TXT records hold a single empty string
	assert.Equal(t, []string{""}, msg.Answer[0].(*dns.TXT).Txt)

	var types []uint16
	for _, rr := range msg.Extra {
		types = append(types, rr.Header().Rrtype)
	}
	assert.Equal(t, []uint16{dns.TypeSRV, dns.TypeNSEC, dns.TypeOPT}, types)
	nsec := msg.Extra[1].(*dns.NSEC)
	assert.Equal(t, []uint16{dns.TypeTXT, dns.TypeSRV}, nsec.TypeBitMap)
}

func TestAppendType(t *testing.T) {
	var types []uint16
	types = appendType(types, dns.TypeAAAA)
	types = appendType(types, dns.TypeA)
	types = appendType(types, dns.TypeAAAA)
	assert.Equal(t, []uint16{dns.TypeA, dns.TypeAAAA}, types)
}
