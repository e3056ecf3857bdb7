// Package compat 提供 NAT-PMP (版本 0) 回退映射
//
// 网关对 PCP 请求应答 UNSUPP_VERSION 时说明它只讲 NAT-PMP。
// 两个协议同源同端口，入站映射语义可以一一对应；出站映射（PEER）
// 在 NAT-PMP 中不存在，由调用方上报错误。
package compat

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	natpmp "github.com/jackpal/go-nat-pmp"

	"github.com/dep2p/go-pcp/internal/util/logger"
	"github.com/dep2p/go-pcp/pkg/types"
)

var log = logger.Logger("compat")

// ErrOutboundUnsupported NAT-PMP 不支持出站映射
var ErrOutboundUnsupported = errors.New("compat: outbound mapping not supported by NAT-PMP")

// MappingError NAT-PMP 映射错误
type MappingError struct {
	Protocol types.Protocol
	Port     uint16
	Cause    error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("compat: NAT-PMP mapping %s port %d failed: %v", e.Protocol, e.Port, e.Cause)
}

func (e *MappingError) Unwrap() error {
	return e.Cause
}

// Mapper NAT-PMP 回退映射器
//
// 无内部状态机：续期由 worker 的统一定时器驱动，这里只做单次往返。
type Mapper struct {
	client *natpmp.Client
}

// NewMapper 创建指向网关的 NAT-PMP 映射器
func NewMapper(gw netip.Addr, timeout time.Duration) *Mapper {
	return &Mapper{
		client: natpmp.NewClientWithTimeout(gw.AsSlice(), timeout),
	}
}

// Map 建立或续期入站映射
//
// 返回网关分配的外部端口与实际授予的租期。
func (m *Mapper) Map(proto types.Protocol, internalPort, externalPort uint16, lifetime time.Duration) (uint16, time.Duration, error) {
	resp, err := m.client.AddPortMapping(proto.String(), int(internalPort), int(externalPort), int(lifetime.Seconds()))
	if err != nil {
		return 0, 0, &MappingError{Protocol: proto, Port: internalPort, Cause: err}
	}

	granted := time.Duration(resp.PortMappingLifetimeInSeconds) * time.Second
	log.Debug("NAT-PMP 映射成功",
		"proto", proto.String(),
		"internalPort", internalPort,
		"externalPort", resp.MappedExternalPort,
		"lifetime", granted)

	return resp.MappedExternalPort, granted, nil
}

// Unmap 删除入站映射（租期置 0）
func (m *Mapper) Unmap(proto types.Protocol, internalPort uint16) error {
	_, err := m.client.AddPortMapping(proto.String(), int(internalPort), 0, 0)
	if err != nil {
		return &MappingError{Protocol: proto, Port: internalPort, Cause: err}
	}
	return nil
}

// ExternalAddr 查询网关的外部地址
func (m *Mapper) ExternalAddr() (netip.Addr, error) {
	resp, err := m.client.GetExternalAddress()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("compat: get external address: %w", err)
	}
	return netip.AddrFrom4(resp.ExternalIPAddress), nil
}
