package continuity

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/miekg/dns"
)

const (
	// RFC 6762 Section 17: [...] a Multicast DNS packet, including IP and UDP headers, MUST NOT
	// exceed 9000 bytes.
	MaxPacketSize = 9000

	headerSize = 12
)

// A NameWriter writes a domain name at the current position of the packet.
type NameWriter func(p *Outgoing, name string) error

// Writes a name using the label encoding of the dns package, compressing suffixes that were
// previously written to the same packet. Non-empty names are made fully qualified first.
//
// Note that an empty name is written as nothing at all, which leaves the packet malformed. Use
// AllowZeroLengthNames for records attached to the root, such as OPT.
func DefaultNameWriter(p *Outgoing, name string) error {
	if name != "" {
		name = dns.Fqdn(name)
	}
	off, err := dns.PackDomainName(name, p.buf, p.size, p.compression, p.compress)
	if errors.Is(err, dns.ErrBuf) {
		return fmt.Errorf("%w: writing name [%v]", ErrPacketTooLarge, name)
	} else if err != nil {
		return err
	}
	p.size = off
	return nil
}

// Returns a NameWriter that writes an empty name as a single zero-length label, and passes any
// other name to next unchanged.
func AllowZeroLengthNames(next NameWriter) NameWriter {
	return func(p *Outgoing, name string) error {
		if len(name) == 0 {
			return p.WriteByte(0)
		}
		return next(p, name)
	}
}

// Outgoing builds a DNS packet from records. It has no questions, which is what mDNS responses
// look like (RFC 6762 Section 6).
//
// An Outgoing must not be used from multiple goroutines.
type Outgoing struct {
	hdr        dns.MsgHdr
	writeName  NameWriter
	compress   bool
	answers    []Record
	authority  []Record
	additional []Record

	// Write state, reset by Pack
	buf         []byte
	size        int
	compression map[string]int
}

// Create a new packet with the given header flags. The id and counts are ignored.
func NewOutgoing(hdr dns.MsgHdr) *Outgoing {
	p := &Outgoing{
		hdr:       hdr,
		writeName: DefaultNameWriter,
		compress:  true,
	}
	p.reset()
	return p
}

// Create a new authoritative response packet, as used for mDNS announcements.
func NewResponse() *Outgoing {
	return NewOutgoing(dns.MsgHdr{Response: true, Authoritative: true})
}

// Replace the policy used to write record names.
func (p *Outgoing) WithNameWriter(w NameWriter) *Outgoing {
	p.writeName = w
	return p
}

// Enable or disable name compression, enabled by default.
func (p *Outgoing) WithCompression(compress bool) *Outgoing {
	p.compress = compress
	return p
}

func (p *Outgoing) AddAnswer(r Record) *Outgoing {
	p.answers = addRecord(p.answers, r)
	return p
}

func (p *Outgoing) AddAuthority(r Record) *Outgoing {
	p.authority = addRecord(p.authority, r)
	return p
}

func (p *Outgoing) AddAdditional(r Record) *Outgoing {
	p.additional = addRecord(p.additional, r)
	return p
}

func (p *Outgoing) Answers() []Record    { return p.answers }
func (p *Outgoing) Authority() []Record  { return p.authority }
func (p *Outgoing) Additional() []Record { return p.additional }

// Appends r unless an equal record is already present.
func addRecord(records []Record, r Record) []Record {
	for _, existing := range records {
		if existing.Hash() == r.Hash() && existing.Equal(r) {
			return records
		}
	}
	return append(records, r)
}

// Number of bytes written so far, including the header.
func (p *Outgoing) Size() int {
	return p.size
}

// Returns the bytes written so far. The first 12 bytes are reserved for the header, which is
// only filled in by Pack.
func (p *Outgoing) Bytes() []byte {
	return p.buf[:p.size:p.size]
}

func (p *Outgoing) reset() {
	p.buf = make([]byte, MaxPacketSize)
	p.size = headerSize
	p.compression = make(map[string]int)
}

func (p *Outgoing) grow(n int) error {
	if p.size+n > len(p.buf) {
		return fmt.Errorf("%w: exceeds %d bytes", ErrPacketTooLarge, MaxPacketSize)
	}
	return nil
}

func (p *Outgoing) WriteByte(c byte) error {
	if err := p.grow(1); err != nil {
		return err
	}
	p.buf[p.size] = c
	p.size++
	return nil
}

// Writes b as is, without a length prefix.
func (p *Outgoing) WriteOpaque(b []byte) error {
	if err := p.grow(len(b)); err != nil {
		return err
	}
	p.size += copy(p.buf[p.size:], b)
	return nil
}

func (p *Outgoing) WriteUint16(v uint16) error {
	return p.WriteOpaque(binary.BigEndian.AppendUint16(nil, v))
}

func (p *Outgoing) WriteUint32(v uint32) error {
	return p.WriteOpaque(binary.BigEndian.AppendUint32(nil, v))
}

// Writes a domain name using the configured NameWriter.
func (p *Outgoing) WriteName(name string) error {
	return p.writeName(p, name)
}

// Serialize the packet. Pack may be called multiple times.
func (p *Outgoing) Pack() ([]byte, error) {
	hdr, err := p.packHeader()
	if err != nil {
		return nil, err
	}
	p.reset()
	copy(p.buf, hdr)

	for _, section := range [][]Record{p.answers, p.authority, p.additional} {
		for _, r := range section {
			if err := p.writeRecord(r); err != nil {
				return nil, err
			}
		}
	}
	return p.buf[:p.size:p.size], nil
}

func (p *Outgoing) packHeader() ([]byte, error) {
	msg := dns.Msg{MsgHdr: p.hdr}
	b, err := msg.Pack()
	if err != nil {
		return nil, err
	}
	if len(b) != headerSize {
		return nil, fmt.Errorf("%w: header is %d bytes", ErrInvariant, len(b))
	}
	binary.BigEndian.PutUint16(b[6:], uint16(len(p.answers)))
	binary.BigEndian.PutUint16(b[8:], uint16(len(p.authority)))
	binary.BigEndian.PutUint16(b[10:], uint16(len(p.additional)))
	return b, nil
}

// Writes the name, type, class, ttl and rdlength, and lets the record write its data.
func (p *Outgoing) writeRecord(r Record) error {
	hdr := r.Header()
	if err := p.WriteName(hdr.Name); err != nil {
		return err
	}
	if err := p.WriteUint16(hdr.Rrtype); err != nil {
		return err
	}
	if err := p.WriteUint16(hdr.Class); err != nil {
		return err
	}
	if err := p.WriteUint32(hdr.Ttl); err != nil {
		return err
	}
	lenOff := p.size
	if err := p.WriteUint16(0); err != nil {
		return err
	}
	if err := r.Write(p); err != nil {
		return fmt.Errorf("failed to write %v: %w", r, err)
	}
	rdlen := p.size - lenOff - 2
	if rdlen > 0xFFFF {
		return fmt.Errorf("%w: %d bytes of data in %v", ErrInvariant, rdlen, r)
	}
	binary.BigEndian.PutUint16(p.buf[lenOff:], uint16(rdlen))
	return nil
}
