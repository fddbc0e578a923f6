package continuity

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	"github.com/miekg/dns"
)

// Payloads longer than this are abbreviated in String.
const maxShownPayload = 10

// An OptionsRecord is an OPT (type 41) record with an opaque payload, typically a packed EDNS0
// option such as the OwnerOption. It is always attached to the root, so its name is empty and
// must be written with AllowZeroLengthNames.
type OptionsRecord struct {
	hdr     dns.RR_Header
	payload []byte
	created time.Time
	hash    uint64
}

var _ Record = &OptionsRecord{}

// Create an OPT record. The payload is copied and may be empty.
func NewOptionsRecord(class uint16, ttl uint32, payload []byte, created time.Time) *OptionsRecord {
	r := &OptionsRecord{
		hdr: dns.RR_Header{
			Name:   "",
			Rrtype: dns.TypeOPT,
			Class:  class,
			Ttl:    ttl,
		},
		payload: slices.Clone(payload),
		created: created,
	}
	r.hash = recordHash(r.hdr, r.payload)
	return r
}

func (r *OptionsRecord) Header() dns.RR_Header {
	return r.hdr
}

func (r *OptionsRecord) Payload() []byte {
	return slices.Clone(r.payload)
}

func (r *OptionsRecord) Created() time.Time {
	return r.created
}

// Writes the payload as record data.
func (r *OptionsRecord) Write(p *Outgoing) error {
	if r.hdr.Rrtype != dns.TypeOPT {
		panic(fmt.Errorf("%w: options record has type %d, use NewOptionsRecord", ErrInvariant, r.hdr.Rrtype))
	}
	return p.WriteOpaque(r.payload)
}

// Records are equal if they have the same payload, name, type and class. TTL is ignored.
func (r *OptionsRecord) Equal(other Record) bool {
	o, ok := other.(*OptionsRecord)
	return ok && bytes.Equal(r.payload, o.payload) && headerMatches(r.hdr, o.hdr)
}

func (r *OptionsRecord) Hash() uint64 {
	return r.hash
}

func (r *OptionsRecord) String() string {
	shown, ellipsis := r.payload, ""
	if len(shown) > maxShownPayload {
		shown, ellipsis = shown[:7], "..."
	}
	var unique string
	if r.hdr.Class&classCacheFlush != 0 {
		unique = "-unique"
	}
	return fmt.Sprintf("record[%v,%v%v,%q]=%d,%x%v",
		dns.Type(r.hdr.Rrtype), dns.Class(r.hdr.Class&^classCacheFlush), unique, r.hdr.Name, r.hdr.Ttl, shown, ellipsis)
}
