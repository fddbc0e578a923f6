package continuity

import (
	"fmt"
	"log/slog"
	"net"
	"slices"
)

// Options for a Client
type Options struct {
	logger *slog.Logger

	ifacesFn func() ([]net.Interface, error)
	network  string
}

// Returns a new options with default values. Remember to call `Open` at the end to create a client.
func New() *Options {
	return &Options{
		logger:   slog.Default(),
		network:  "udp",
		ifacesFn: net.Interfaces,
	}
}

// Checks that the options are sound.
func (o *Options) Validate() error {
	if !slices.Contains([]string{"udp", "udp4", "udp6"}, o.network) {
		return fmt.Errorf("%w: invalid network [%s]", ErrValidation, o.network)
	}
	if o.ifacesFn == nil {
		return fmt.Errorf("%w: no interfaces function", ErrValidation)
	}
	return nil
}

// Change the network to use "udp" (default), "udp4" or "udp6".
func (o *Options) Network(network string) *Options {
	o.network = network
	return o
}

// Attach a custom logger. The default is `slog.Default()`.
func (o *Options) Logger(l *slog.Logger) *Options {
	o.logger = l
	return o
}

// Use custom network interfaces. The default is `net.Interfaces`.
func (o *Options) Interfaces(fn func() ([]net.Interface, error)) *Options {
	o.ifacesFn = fn
	return o
}

// Open a client with the current options. An error is returned if the options are invalid or
// there's an issue opening the socket.
func (o *Options) Open() (*Client, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return newClient(o)
}
