package continuity

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A client without sockets. Interfaces have no addresses, so writes are no-ops.
func testClient(indices ...int) *Client {
	ifaces := make(map[int]*Interface)
	for _, idx := range indices {
		ifaces[idx] = &Interface{Interface: net.Interface{Index: idx, Name: "test"}}
	}
	return &Client{conn: &dualConn{ifaces: ifaces}, logger: slog.Default()}
}

func TestClientInterfaces(t *testing.T) {
	c := testClient(5, 1, 3)
	var indices []int
	for _, iface := range c.Interfaces() {
		indices = append(indices, iface.Index)
	}
	assert.Equal(t, []int{1, 3, 5}, indices)
	assert.Empty(t, testClient().Interfaces())
}

func TestClientSend(t *testing.T) {
	p, _ := testPacket(t)
	assert.NoError(t, testClient().Send(p))
	assert.NoError(t, testClient(1, 2).Send(p))

	tooLarge := NewResponse().AddAnswer(bigRecord())
	assert.ErrorIs(t, testClient(1).Send(tooLarge), ErrPacketTooLarge)
}

func TestClientAnnounceBuildError(t *testing.T) {
	errBuild := errors.New("build failed")
	var calls int
	err := testClient(1, 2).Announce(context.Background(), func(iface *Interface) (*Outgoing, error) {
		calls++
		return nil, errBuild
	})
	assert.ErrorIs(t, err, errBuild)
	assert.Equal(t, 1, calls)
}

func TestClientAnnounceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var seen []int
	err := testClient(1, 2).Announce(ctx, func(iface *Interface) (*Outgoing, error) {
		seen = append(seen, iface.Index)
		cancel()
		p, _ := testPacket(t)
		return p, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	// The first round is sent before waiting
	assert.Equal(t, []int{1, 2}, seen)
}

func TestInterfaceAddrs(t *testing.T) {
	v4 := netip.MustParseAddr("192.168.1.10")
	iface := &Interface{Interface: net.Interface{Index: 1, Name: "en0"}, v4: []netip.Addr{v4}}
	assert.Equal(t, []netip.Addr{v4}, iface.V4())
	assert.Empty(t, iface.V6())

	iface.V4()[0] = netip.Addr{}
	assert.Equal(t, v4, iface.v4[0])
	assert.Equal(t, "en0 [192.168.1.10] []", iface.String())
}

func TestMax1(t *testing.T) {
	assert.Equal(t, []int{1}, max1([]int{1, 2, 3}))
	assert.Equal(t, []int{}, max1([]int{}))
	assert.Nil(t, max1[int](nil))
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, New().Validate())
	for _, network := range []string{"udp4", "udp6"} {
		assert.NoError(t, New().Network(network).Validate())
	}
	assert.ErrorIs(t, New().Network("tcp").Validate(), ErrValidation)
	assert.ErrorIs(t, New().Interfaces(nil).Validate(), ErrValidation)

	_, err := New().Network("ip").Open()
	assert.ErrorIs(t, err, ErrValidation)
}
