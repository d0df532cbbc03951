package wake

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUDPReceiver_PollIdle(t *testing.T) {
	r, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	packet, ok, err := r.Poll()

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, packet)
}

func TestUDPReceiver_PollReceives(t *testing.T) {
	r, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	conn, err := net.Dial("udp", r.Addr().String())
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	want := magicPacket(t, testTarget(t))
	_, err = conn.Write(want)
	require.NoError(t, err)

	var got []byte
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		packet, ok, err := r.Poll()
		require.NoError(t, err)
		if ok {
			got = packet
			break
		}
	}

	assert.Equal(t, want, got)
}

func TestListen_InvalidAddress(t *testing.T) {
	_, err := Listen("not-an-address")

	assert.Error(t, err)
}
