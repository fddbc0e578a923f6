package continuity

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/miekg/dns"
)

const (
	// RFC 6762 Section 10.2: [...] the host sets the most significant bit of the rrclass
	// field of the resource record.  This bit, the cache-flush bit, tells neighboring hosts that
	// this is not a shared record type.
	classCacheFlush = 1 << 15

	// RFC6762 Section 10: PTR service records are shared, while others (SRV/TXT/A/AAAA) are unique.
	UniqueRecordClass = dns.ClassINET | classCacheFlush
	SharedRecordClass = dns.ClassINET
)

// A Record is a resource record that can be added to an Outgoing packet.
//
// The packet writes the name, type, class and TTL from Header, while Write emits the record data
// only. Equal and Hash identify a record by name, type, class (without the cache-flush bit) and
// data; the TTL is not part of the identity. Records that are Equal must have the same Hash.
type Record interface {
	Header() dns.RR_Header
	Write(p *Outgoing) error
	Equal(other Record) bool
	Hash() uint64
	String() string
}

// Shared identity of records, mirroring the mDNS notion of the same record:
// case-insensitive name, type and class.
func headerMatches(a, b dns.RR_Header) bool {
	return strings.EqualFold(a.Name, b.Name) &&
		a.Rrtype == b.Rrtype &&
		a.Class&^classCacheFlush == b.Class&^classCacheFlush
}

func recordHash(hdr dns.RR_Header, data []byte) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(hdr.Name)))
	h.Write([]byte{0})
	h.Write(binary.BigEndian.AppendUint16(nil, hdr.Rrtype))
	h.Write(binary.BigEndian.AppendUint16(nil, hdr.Class&^classCacheFlush))
	h.Write(data)
	return h.Sum64()
}

// A standard record from the dns package.
type rrRecord struct {
	rr    dns.RR
	rdata []byte
	hash  uint64
}

var _ Record = &rrRecord{}

// Adapts a record from the dns package (TXT, PTR, SRV, A, AAAA, NSEC, ...). The record is
// copied and its data packed immediately, so later changes to rr have no effect.
// Names within the record data are written uncompressed.
func FromRR(rr dns.RR) (Record, error) {
	rr = dns.Copy(rr)
	rdata, err := packRdata(rr)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %v: %w", rr.Header().Name, err)
	}
	return &rrRecord{
		rr:    rr,
		rdata: rdata,
		hash:  recordHash(*rr.Header(), rdata),
	}, nil
}

// Like FromRR, but panics on error.
func MustFromRR(rr dns.RR) Record {
	r, err := FromRR(rr)
	if err != nil {
		panic(err)
	}
	return r
}

// Packs the record with a root owner name, and returns everything after the fixed header.
func packRdata(rr dns.RR) ([]byte, error) {
	rr = dns.Copy(rr)
	rr.Header().Name = "."
	buf := make([]byte, dns.Len(rr))
	off, err := dns.PackRR(rr, buf, 0, nil, false)
	if err != nil {
		return nil, err
	}
	// root name (1) + type, class, ttl, rdlength (10)
	return buf[11:off], nil
}

func (r *rrRecord) Header() dns.RR_Header {
	return *r.rr.Header()
}

func (r *rrRecord) Write(p *Outgoing) error {
	return p.WriteOpaque(r.rdata)
}

func (r *rrRecord) Equal(other Record) bool {
	o, ok := other.(*rrRecord)
	return ok && bytes.Equal(r.rdata, o.rdata) && headerMatches(r.Header(), o.Header())
}

func (r *rrRecord) Hash() uint64 {
	return r.hash
}

func (r *rrRecord) String() string {
	return r.rr.String()
}
