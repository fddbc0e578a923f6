package main

import (
	"fmt"
	"strings"

	"github.com/betamos/continuity"
	"github.com/miekg/dns"
)

// A service type which identifies an application or protocol, e.g. `_companion-link._tcp`.
type Type struct {

	// Service type name, on the form `_my-service._tcp` or `_my-service._udp`
	Name string `json:"type"`

	// Domain should be `local`
	Domain string `json:"domain"`
}

func (s *Type) String() string {
	return fmt.Sprintf("%s.%s", s.Name, s.Domain)
}

// Returns a type based on a string on the form `_my-service._tcp` or `_my-service._udp`.
// The domain is `local` by default, but can be specified explicitly, e.g.
// `_my-service._tcp.custom.domain`.
func NewType(typeStr string) *Type {
	pathParts := strings.Split(strings.ToLower(typeStr), ".")
	i := min(2, len(pathParts))
	ty := &Type{
		Name:   strings.Join(pathParts[0:i], "."),
		Domain: strings.Join(pathParts[i:], "."),
	}
	if ty.Domain == "" {
		ty.Domain = "local"
	}
	return ty
}

func (s *Type) Validate() error {
	if labels, ok := dns.IsDomainName(s.Name); !ok || labels != 2 {
		return fmt.Errorf("invalid service [%s] needs to be dot-separated", s.Name)
	}
	if !strings.HasSuffix(s.Name, "._tcp") && !strings.HasSuffix(s.Name, "._udp") {
		return fmt.Errorf("invalid service [%s] needs to end with _tcp or _udp", s.Name)
	}
	if _, ok := dns.IsDomainName(s.Domain); !ok {
		return fmt.Errorf("invalid domain [%s]", s.Domain)
	}
	return nil
}

// The advertised service instance.
type Service struct {
	Type *Type

	// A name that identifies the instance, typically the host name of the machine
	Name string

	// A non-zero port number
	Port uint16

	// Hostname, e.g. `Bryans-Mac.local`
	Hostname string

	// TXT data, e.g. `model=MacBookPro11,1`
	Text continuity.DNSString

	// Second TXT record carrying the rapport values (rpBA, rpAD, rpFl, ...)
	Rapport continuity.DNSString

	// Record TTLs, in seconds. Records referencing the hostname use hostTTL.
	TTL, HostTTL uint32
}

func (s *Service) String() string {
	return fmt.Sprintf("%v (%v)", s.Name, s.Hostname)
}

func (s *Service) Validate() error {
	if err := s.Type.Validate(); err != nil {
		return err
	}
	if s.Name == "" {
		return fmt.Errorf("no name specified")
	}
	if _, ok := dns.IsDomainName(s.Hostname); !ok || s.Hostname == "" {
		return fmt.Errorf("invalid hostname [%s]", s.Hostname)
	}
	if s.Port == 0 {
		return fmt.Errorf("port is 0")
	}
	return nil
}

// Returns the query name, e.g. `_companion-link._tcp.local.`
func (s *Service) queryName() string {
	return fmt.Sprintf("%v.%v.", s.Type.Name, s.Type.Domain)
}

// Returns the instance name, e.g. `My\ Mac._companion-link._tcp.local.`
func (s *Service) target() string {
	return fmt.Sprintf("%v.%v", escapeLabel(s.Name), s.queryName())
}

func (s *Service) hostname() string {
	return dns.Fqdn(s.Hostname)
}

// Escapes a single label for use with the dns package, which treats dots and backslashes
// as presentation format.
func escapeLabel(label string) string {
	label = strings.ReplaceAll(label, `\`, `\\`)
	return strings.ReplaceAll(label, `.`, `\.`)
}
