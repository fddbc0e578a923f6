package main

import (
	"net/netip"
	"slices"
	"time"

	"github.com/betamos/continuity"
	"github.com/miekg/dns"
)

// The companion-link announcement:
//
// Answers:
//
//	TXT <target>: model, osxvers
//	PTR <query>  ->  <target>
//
// Additional:
//
//	TXT <target>: rapport values (rpBA, rpAD, rpFl, rpHN, rpMac, rpVr)
//	SRV <target>: <hostname>, <port>
//	A/AAAA <hostname>
//	NSEC <target>: TXT, SRV
//	NSEC <hostname>: A, AAAA
//	OPT: EDNS0 Owner option
//
// RFC6762 Section 6.1: the NSEC records assert that no other record types exist for the
// names, and their Next Domain Name is the record's own name.

// Returns the announcement for a set of addresses, e.g. those of a single interface.
func announcement(svc *Service, owner continuity.OwnerOption, addrs []netip.Addr, now time.Time) (*continuity.Outgoing, error) {
	target := svc.target()
	hostname := svc.hostname()

	rrs := make([]dns.RR, 0, len(addrs)+6)
	add := func(rr dns.RR) { rrs = append(rrs, rr) }

	// RFC 6763 Section 6.1: An empty TXT record MUST contain a single zero byte.
	text := svc.Text
	if text.Len() == 0 {
		text = continuity.MustDNSString("")
	}
	add(text.TXT(dns.RR_Header{
		Name:  target,
		Class: continuity.UniqueRecordClass,
		Ttl:   svc.TTL,
	}))
	add(&dns.PTR{
		Hdr: dns.RR_Header{
			Name:   svc.queryName(),
			Rrtype: dns.TypePTR,
			Class:  continuity.SharedRecordClass,
			Ttl:    svc.TTL,
		},
		Ptr: target,
	})
	answerCount := len(rrs)

	if svc.Rapport.Len() > 0 {
		add(svc.Rapport.TXT(dns.RR_Header{
			Name:  target,
			Class: continuity.UniqueRecordClass,
			Ttl:   svc.TTL,
		}))
	}
	add(&dns.SRV{
		Hdr: dns.RR_Header{
			Name:   target,
			Rrtype: dns.TypeSRV,
			Class:  continuity.UniqueRecordClass,
			Ttl:    svc.HostTTL,
		},
		Port:   svc.Port,
		Target: hostname,
	})

	var hostTypes []uint16
	for _, addr := range addrs {
		if addr.Is4() {
			add(&dns.A{
				Hdr: dns.RR_Header{
					Name:   hostname,
					Rrtype: dns.TypeA,
					Class:  continuity.UniqueRecordClass,
					Ttl:    svc.HostTTL,
				},
				A: addr.AsSlice(),
			})
			hostTypes = appendType(hostTypes, dns.TypeA)
		} else if addr.Is6() {
			add(&dns.AAAA{
				Hdr: dns.RR_Header{
					Name:   hostname,
					Rrtype: dns.TypeAAAA,
					Class:  continuity.UniqueRecordClass,
					Ttl:    svc.HostTTL,
				},
				AAAA: addr.AsSlice(),
			})
			hostTypes = appendType(hostTypes, dns.TypeAAAA)
		}
	}

	add(&dns.NSEC{
		Hdr: dns.RR_Header{
			Name:   target,
			Rrtype: dns.TypeNSEC,
			Class:  continuity.UniqueRecordClass,
			Ttl:    svc.TTL,
		},
		NextDomain: target,
		TypeBitMap: []uint16{dns.TypeTXT, dns.TypeSRV},
	})
	if len(hostTypes) > 0 {
		add(&dns.NSEC{
			Hdr: dns.RR_Header{
				Name:   hostname,
				Rrtype: dns.TypeNSEC,
				Class:  continuity.UniqueRecordClass,
				Ttl:    svc.HostTTL,
			},
			NextDomain: hostname,
			TypeBitMap: hostTypes,
		})
	}

	out := continuity.NewResponse().
		WithNameWriter(continuity.AllowZeroLengthNames(continuity.DefaultNameWriter))
	for i, rr := range rrs {
		record, err := continuity.FromRR(rr)
		if err != nil {
			return nil, err
		}
		if i < answerCount {
			out.AddAnswer(record)
		} else {
			out.AddAdditional(record)
		}
	}
	out.AddAdditional(continuity.NewOptionsRecord(dns.ClassINET, svc.TTL, owner.Pack(), now))
	return out, nil
}

// The dns package requires type bit maps in ascending order.
func appendType(types []uint16, t uint16) []uint16 {
	if slices.Contains(types, t) {
		return types
	}
	types = append(types, t)
	slices.Sort(types)
	return types
}
