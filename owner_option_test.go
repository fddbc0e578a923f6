package continuity

import (
	"bytes"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMAC = net.HardwareAddr{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}

func TestOwnerOptionPack(t *testing.T) {
	o, err := NewOwnerOption(0, testMAC)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x04, 0x00, 0x08, 0x00, 0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}, o.Pack())
}

func TestOwnerOptionInvalidMAC(t *testing.T) {
	for _, n := range []int{0, 1, 5, 7, 8, 20} {
		_, err := NewOwnerOption(0, make(net.HardwareAddr, n))
		assert.ErrorIs(t, err, ErrInvalidMAC, "mac of %d bytes", n)
		assert.ErrorIs(t, err, ErrValidation)
	}
	_, err := NewOwnerOption(0, nil)
	assert.ErrorIs(t, err, ErrInvalidMAC)
}

func TestOwnerOptionLayout(t *testing.T) {
	for seq := 0; seq <= 255; seq++ {
		o, err := NewOwnerOption(uint8(seq), testMAC)
		require.NoError(t, err)
		b := o.Pack()
		require.Len(t, b, OwnerOptionSize)
		assert.Equal(t, byte(0), b[4], "version")
		assert.Equal(t, byte(seq), b[5], "sequence")

		parsed, err := ParseOwnerOption(b)
		require.NoError(t, err)
		assert.Equal(t, uint8(seq), parsed.Sequence())
		assert.Equal(t, testMAC, parsed.PrimaryMAC())
	}
}

func TestOwnerOptionCopiesMAC(t *testing.T) {
	mac := net.HardwareAddr{1, 2, 3, 4, 5, 6}
	o, err := NewOwnerOption(1, mac)
	require.NoError(t, err)
	mac[0] = 0xff
	o.PrimaryMAC()[1] = 0xff
	assert.Equal(t, net.HardwareAddr{1, 2, 3, 4, 5, 6}, o.PrimaryMAC())
}

func TestOwnerOptionWake(t *testing.T) {
	o, err := NewOwnerOption(0, testMAC)
	require.NoError(t, err)
	woke := o.Wake()
	assert.Equal(t, uint8(0), o.Sequence())
	assert.Equal(t, uint8(1), woke.Sequence())

	o, err = NewOwnerOption(255, testMAC)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), o.Wake().Sequence())
}

func TestParseOwnerOptionInvalid(t *testing.T) {
	valid := testOwnerOption(t).Pack()
	tests := []struct {
		name string
		mod  func(b []byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:10] }},
		{"long", func(b []byte) []byte { return append(b, 0) }},
		{"code", func(b []byte) []byte { b[1] = 5; return b }},
		{"length", func(b []byte) []byte { b[3] = 24; return b }},
		{"version", func(b []byte) []byte { b[4] = 1; return b }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOwnerOption(tt.mod(bytes.Clone(valid)))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

// Packing through the dns package yields the same option bytes.
func TestOwnerOptionEDNS0(t *testing.T) {
	o := testOwnerOption(t)
	msg := new(dns.Msg)
	msg.Extra = []dns.RR{&dns.OPT{
		Hdr:    dns.RR_Header{Name: ".", Rrtype: dns.TypeOPT, Class: dns.ClassINET},
		Option: []dns.EDNS0{o.EDNS0()},
	}}
	buf, err := msg.Pack()
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(buf, o.Pack()), "expected suffix %x in %x", o.Pack(), buf)
}

func testOwnerOption(t *testing.T) OwnerOption {
	t.Helper()
	o, err := NewOwnerOption(7, testMAC)
	require.NoError(t, err)
	return o
}
