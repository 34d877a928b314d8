package registry

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"transcription-service/pkg/config"
	"transcription-service/pkg/logger"
)

// ServiceRegistry 把本实例的地址注册到 etcd，租约到期自动摘除
type ServiceRegistry struct {
	client      *clientv3.Client
	serviceName string
	serviceID   string
	serviceAddr string
	ttl         int64
	leaseID     clientv3.LeaseID
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewServiceRegistry creates a new ServiceRegistry instance.
func NewServiceRegistry(registryConfig config.RegistryConfig, serviceConfig config.ServiceRegistryConfig, serviceAddr string) (*ServiceRegistry, error) {
	client, err := newEtcdClient(registryConfig)
	if err != nil {
		return nil, err
	}

	ttl := int64(serviceConfig.TTL / time.Second)
	if ttl <= 0 {
		ttl = 30
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceRegistry{
		client:      client,
		serviceName: serviceConfig.ServiceName,
		serviceID:   serviceConfig.ServiceID,
		serviceAddr: serviceAddr,
		ttl:         ttl,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

func newEtcdClient(cfg config.RegistryConfig) (*clientv3.Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return client, nil
}

// ServiceKey 返回实例在 etcd 中的键
func ServiceKey(serviceName, serviceID string) string {
	return servicePrefix(serviceName) + serviceID
}

func servicePrefix(serviceName string) string {
	return fmt.Sprintf("/services/%s/", serviceName)
}

// Register registers service instance.
func (r *ServiceRegistry) Register() error {
	leaseResp, err := r.client.Grant(r.ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	r.leaseID = leaseResp.ID

	key := ServiceKey(r.serviceName, r.serviceID)
	if _, err := r.client.Put(r.ctx, key, r.serviceAddr, clientv3.WithLease(r.leaseID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	go r.keepAlive()

	logger.Info("Service registered", map[string]interface{}{"key": key, "addr": r.serviceAddr})
	return nil
}

func (r *ServiceRegistry) keepAlive() {
	ch, err := r.client.KeepAlive(r.ctx, r.leaseID)
	if err != nil {
		logger.Warnf("Failed to keep alive lease: %v", err)
		return
	}
	for {
		select {
		case <-r.ctx.Done():
			return
		case ka := <-ch:
			if ka == nil {
				logger.Warn("Keep alive channel closed", map[string]interface{}{"service_id": r.serviceID})
				return
			}
		}
	}
}

// Deregister removes service registration.
func (r *ServiceRegistry) Deregister() error {
	r.cancel()
	if r.leaseID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
			logger.Warnf("Failed to revoke lease: %v", err)
		}
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close etcd client: %w", err)
	}
	logger.Info("Service deregistered", map[string]interface{}{"service_id": r.serviceID})
	return nil
}
