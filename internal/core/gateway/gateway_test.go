package gateway

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("no default route")
		err := &DiscoveryError{Message: "discover gateway", Cause: cause}
		assert.Equal(t, "gateway: discover gateway: no default route", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("without cause", func(t *testing.T) {
		err := &DiscoveryError{Message: "resolve local address"}
		assert.Equal(t, "gateway: resolve local address", err.Error())
	})
}

func TestLocalAddrFor(t *testing.T) {
	// 到环回网关的源地址必然是环回地址本身
	addr, err := LocalAddrFor(netip.MustParseAddr("127.0.0.1"))
	require.NoError(t, err)
	assert.True(t, addr.IsLoopback())
	assert.True(t, addr.Is4())
}

func TestDiscover(t *testing.T) {
	// 取决于测试环境是否有默认路由：成功时地址必须有效，
	// 失败时错误必须是 DiscoveryError
	addr, err := Discover(DefaultTimeout)
	if err != nil {
		var derr *DiscoveryError
		assert.True(t, errors.As(err, &derr))
		return
	}
	assert.True(t, addr.IsValid())
}
