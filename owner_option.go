package continuity

import (
	"encoding/binary"
	"fmt"
	"net"
	"slices"

	"github.com/miekg/dns"
)

// This file implements the compact form of the EDNS0 Owner option:
// https://www.ietf.org/archive/id/draft-cheshire-edns0-owner-option-01.txt
//
//	+-----+-----+-----+-----+-----+-----+-----+-----+-----+-----+-----+-----+
//	|    Opt    |    Len    |  V  |  S  |          Primary MAC              |
//	+-----+-----+-----+-----+-----+-----+-----+-----+-----+-----+-----+-----+

const (
	// The EDNS0 option code of the Owner option.
	OwnerOptionCode = 4

	// The Len field of the compact variant. The full variant with wakeup MAC and password is
	// up to 24 bytes; only the compact one is supported.
	OwnerOptionCompactLen = 8

	// Senders MUST set the version to zero, and receivers MUST ignore the option otherwise.
	OwnerOptionVersion = 0

	// Size of the packed option, including code and length.
	OwnerOptionSize = 4 + OwnerOptionCompactLen
)

// An OwnerOption identifies the machine that owns the records in a packet, so that a sleep
// proxy can act on its behalf.
type OwnerOption struct {
	seq uint8
	mac [6]byte
}

// Create a new Owner option. The sequence number is zero the first time the option is used after
// boot, and incremented each time the machine wakes from sleep (see Wake). The primary MAC is
// typically the address of the interface used for the default route.
func NewOwnerOption(seq uint8, mac net.HardwareAddr) (OwnerOption, error) {
	if len(mac) != 6 {
		return OwnerOption{}, fmt.Errorf("%w: got %d bytes", ErrInvalidMAC, len(mac))
	}
	o := OwnerOption{seq: seq}
	copy(o.mac[:], mac)
	return o, nil
}

// Decode a packed compact Owner option, including option code and length.
func ParseOwnerOption(b []byte) (OwnerOption, error) {
	if len(b) != OwnerOptionSize {
		return OwnerOption{}, fmt.Errorf("%w: owner option is %d bytes, expected %d", ErrValidation, len(b), OwnerOptionSize)
	}
	if code := binary.BigEndian.Uint16(b[0:]); code != OwnerOptionCode {
		return OwnerOption{}, fmt.Errorf("%w: option code %d", ErrValidation, code)
	}
	if l := binary.BigEndian.Uint16(b[2:]); l != OwnerOptionCompactLen {
		return OwnerOption{}, fmt.Errorf("%w: option length %d", ErrValidation, l)
	}
	if b[4] != OwnerOptionVersion {
		return OwnerOption{}, fmt.Errorf("%w: owner option version %d", ErrValidation, b[4])
	}
	return NewOwnerOption(b[5], net.HardwareAddr(b[6:12]))
}

func (o OwnerOption) Sequence() uint8 {
	return o.seq
}

func (o OwnerOption) PrimaryMAC() net.HardwareAddr {
	return slices.Clone(o.mac[:])
}

// Returns the option to use after waking from sleep. The sequence number wraps around.
func (o OwnerOption) Wake() OwnerOption {
	o.seq++
	return o
}

// Returns the 12 byte wire form, in network byte order.
func (o OwnerOption) Pack() []byte {
	b := make([]byte, 4, OwnerOptionSize)
	binary.BigEndian.PutUint16(b[0:], OwnerOptionCode)
	binary.BigEndian.PutUint16(b[2:], OwnerOptionCompactLen)
	return append(b, o.data()...)
}

// Option data without code and length.
func (o OwnerOption) data() []byte {
	b := make([]byte, 0, OwnerOptionCompactLen)
	b = append(b, OwnerOptionVersion, o.seq)
	return append(b, o.mac[:]...)
}

// Returns the option as a generic EDNS0 option, for use within a dns.OPT record.
func (o OwnerOption) EDNS0() *dns.EDNS0_LOCAL {
	return &dns.EDNS0_LOCAL{Code: OwnerOptionCode, Data: o.data()}
}

func (o OwnerOption) String() string {
	return fmt.Sprintf("owner v%d seq=%d mac=%v", OwnerOptionVersion, o.seq, net.HardwareAddr(o.mac[:]))
}
