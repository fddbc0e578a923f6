package continuity

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is wrapped by every error caused by malformed caller input.
	ErrValidation = errors.New("validation failed")

	// The Owner option carries exactly one 6-byte (EUI-48) primary MAC address.
	ErrInvalidMAC = fmt.Errorf("%w: mac address must be 6 bytes", ErrValidation)

	// A DNS character-string has a single length byte.
	ErrSegmentTooLong = fmt.Errorf("%w: character-string longer than 255 bytes", ErrValidation)

	// ErrInvariant indicates a programming fault, e.g. a record that was not built by its
	// constructor. It is never caused by input.
	ErrInvariant = errors.New("serialization invariant violated")

	// Returned when an outgoing packet would exceed MaxPacketSize.
	ErrPacketTooLarge = errors.New("packet too large")

	ErrNoPrimaryMAC = errors.New("no hardware address for primary interface")
)
