// Continuity is a pure Golang library for advertising a device on the local network the way
// Apple devices announce their companion-link service.
//
// It provides the wire encoding of the records that the dns package lacks:
//
// - DNS character-strings for TXT data (RFC 1035 Section 3.3)
// - The compact EDNS0 Owner option (draft-cheshire-edns0-owner-option)
// - OPT records with an opaque payload, attached to the zero-length root name
//
// Packets are built with Outgoing, and sent on all interfaces over multicast (RFC 6762) by a
// Client. Standard records (PTR, SRV, TXT, A, AAAA, NSEC) come from github.com/miekg/dns and are
// added through FromRR.
package continuity
