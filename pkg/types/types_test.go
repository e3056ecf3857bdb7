package types

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestType(t *testing.T) {
	t.Run("once", func(t *testing.T) {
		r := Once()
		assert.Equal(t, RequestOnce, r.Kind())
		assert.Equal(t, 0, r.Count())
		assert.Equal(t, "once", r.String())
	})

	t.Run("repeat", func(t *testing.T) {
		r := Repeat(3)
		assert.Equal(t, RequestRepeat, r.Kind())
		assert.Equal(t, 3, r.Count())
		assert.Equal(t, "repeat(3)", r.String())
	})

	t.Run("keep-alive", func(t *testing.T) {
		r := KeepAlive()
		assert.Equal(t, RequestKeepAlive, r.Kind())
		assert.Equal(t, "keep-alive", r.String())
	})
}

func TestProtocol_String(t *testing.T) {
	assert.Equal(t, "tcp", ProtocolTCP.String())
	assert.Equal(t, "udp", ProtocolUDP.String())
	assert.Equal(t, "unknown", Protocol(1).String())
}

func TestMapDescriptors(t *testing.T) {
	inbound := &InboundMap{
		Protocol:     ProtocolTCP,
		InternalPort: 8080,
		Lifetime:     time.Hour,
	}
	assert.Equal(t, ProtocolTCP, inbound.Proto())
	assert.Equal(t, uint16(8080), inbound.Port())
	assert.Equal(t, time.Hour, inbound.MapLifetime())

	outbound := &OutboundMap{
		Protocol:     ProtocolUDP,
		InternalPort: 5000,
		RemoteAddr:   netip.MustParseAddr("203.0.113.7"),
		RemotePort:   443,
		Lifetime:     30 * time.Minute,
	}
	assert.Equal(t, ProtocolUDP, outbound.Proto())
	assert.Equal(t, uint16(5000), outbound.Port())
	assert.Equal(t, 30*time.Minute, outbound.MapLifetime())

	// 两个描述符都满足封闭接口
	var _ Map = inbound
	var _ Map = outbound
}

func TestMappingID(t *testing.T) {
	t.Run("uniqueness", func(t *testing.T) {
		a := NewMappingID()
		b := NewMappingID()
		assert.NotEqual(t, a, b)
		assert.False(t, a.IsZero())
	})

	t.Run("zero value", func(t *testing.T) {
		var id MappingID
		assert.True(t, id.IsZero())
	})

	t.Run("nonce derivation is stable", func(t *testing.T) {
		id := NewMappingID()
		assert.Equal(t, id.Nonce(), id.Nonce())

		n := id.Nonce()
		assert.Equal(t, id[:12], n[:])
	})
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "inbound-map", EventInboundMap.String())
	assert.Equal(t, "outbound-map", EventOutboundMap.String())
	assert.Equal(t, "release", EventRelease.String())
	assert.Equal(t, "shutdown", EventShutdown.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}
