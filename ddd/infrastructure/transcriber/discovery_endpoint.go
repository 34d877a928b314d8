package transcriber

import (
	"context"
	"fmt"
	"strings"
)

// addressSource 服务发现中用到的方法
type addressSource interface {
	GetServiceAddress(ctx context.Context, serviceName string) (string, error)
}

// DiscoveryEndpoint 通过 etcd 服务发现选择实例
type DiscoveryEndpoint struct {
	discovery   addressSource
	serviceName string
}

// NewDiscoveryEndpoint 创建基于服务发现的地址解析器
func NewDiscoveryEndpoint(discovery addressSource, serviceName string) *DiscoveryEndpoint {
	return &DiscoveryEndpoint{discovery: discovery, serviceName: serviceName}
}

func (d *DiscoveryEndpoint) Resolve(ctx context.Context) (string, error) {
	addr, err := d.discovery.GetServiceAddress(ctx, d.serviceName)
	if err != nil {
		return "", err
	}
	if addr == "" {
		return "", fmt.Errorf("empty address for service %s", d.serviceName)
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return strings.TrimRight(addr, "/"), nil
}
