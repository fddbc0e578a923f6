package continuity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/miekg/dns"
)

// Maximum encoded length of a single character-string segment.
const maxSegmentLen = 255

// A DNSString is an ordered list of DNS character-strings (RFC 1035 Section 3.3), as used in
// TXT record data. Each segment is encoded as one length byte followed by its UTF-8 bytes, e.g.
// `model=X` and `osxvers=20` become `\x07model=X\x0aosxvers=20`.
//
// A DNSString is an immutable value. The zero value is an empty list.
type DNSString struct {
	segments []string
}

// Create a new DNSString from one or more segments. Segments longer than 255 bytes after UTF-8
// encoding are rejected, since a truncated length byte would corrupt the rest of the packet.
func NewDNSString(segments ...string) (DNSString, error) {
	for _, s := range segments {
		if err := checkSegment(s); err != nil {
			return DNSString{}, err
		}
	}
	return DNSString{segments: slices.Clone(segments)}, nil
}

// Like NewDNSString, but panics on error. Intended for constants.
func MustDNSString(segments ...string) DNSString {
	s, err := NewDNSString(segments...)
	if err != nil {
		panic(err)
	}
	return s
}

func checkSegment(s string) error {
	if len(s) > maxSegmentLen {
		return fmt.Errorf("%w: %d bytes in [%.16s...]", ErrSegmentTooLong, len(s), s)
	}
	return nil
}

// Returns the wire encoding: each segment prefixed by its byte length, without terminator.
func (s DNSString) Bytes() []byte {
	b := make([]byte, 0, s.Len())
	for _, seg := range s.segments {
		b = append(b, byte(len(seg)))
		b = append(b, seg...)
	}
	return b
}

// Encoded length in bytes.
func (s DNSString) Len() (n int) {
	for _, seg := range s.segments {
		n += 1 + len(seg)
	}
	return
}

// Returns a copy of the segments.
func (s DNSString) Segments() []string {
	return slices.Clone(s.segments)
}

// Returns a new DNSString with the segments of o appended. Neither s nor o is modified.
func (s DNSString) Concat(o DNSString) DNSString {
	return DNSString{segments: slices.Concat(s.segments, o.segments)}
}

// Returns a new DNSString with seg appended as a separate segment.
func (s DNSString) Append(seg string) (DNSString, error) {
	if err := checkSegment(seg); err != nil {
		return DNSString{}, err
	}
	return DNSString{segments: slices.Concat(s.segments, []string{seg})}, nil
}

func (s DNSString) String() string {
	return fmt.Sprintf("%q", s.segments)
}

// Returns a TXT record with the segments as text. Backslashes are escaped so that the record
// data packs to exactly Bytes().
func (s DNSString) TXT(hdr dns.RR_Header) *dns.TXT {
	hdr.Rrtype = dns.TypeTXT
	txt := make([]string, len(s.segments))
	for i, seg := range s.segments {
		txt[i] = strings.ReplaceAll(seg, `\`, `\\`)
	}
	return &dns.TXT{Hdr: hdr, Txt: txt}
}
