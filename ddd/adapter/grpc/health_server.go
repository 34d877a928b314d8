package grpc

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"transcription-service/pkg/logger"
)

// ServiceName 健康检查中使用的服务名
const ServiceName = "transcription.v1.VideoService"

// HealthCheck 单个依赖的探测函数
type HealthCheck func(ctx context.Context) error

// HealthServer 基于 grpc.health.v1 的健康检查，定期探测依赖并刷新状态
type HealthServer struct {
	srv     *health.Server
	checks  map[string]HealthCheck
	timeout time.Duration

	mu      sync.Mutex
	serving bool
}

func NewHealthServer(checks map[string]HealthCheck, timeout time.Duration) *HealthServer {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	h := &HealthServer{srv: health.NewServer(), checks: checks, timeout: timeout, serving: true}
	h.set(healthpb.HealthCheckResponse_SERVING)
	return h
}

// Register 注册到 gRPC 服务器
func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Refresh 执行一次探测，任意依赖失败则为 NOT_SERVING
func (h *HealthServer) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthy = false
			logger.Warn("依赖健康检查失败", map[string]interface{}{
				"dependency": name,
				"error":      err.Error(),
			})
		}
	}

	h.mu.Lock()
	changed := h.serving != healthy
	h.serving = healthy
	h.mu.Unlock()

	if healthy {
		h.set(healthpb.HealthCheckResponse_SERVING)
	} else {
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	if changed {
		logger.Info("健康状态变更", map[string]interface{}{"serving": healthy})
	}
	return nil
}

// Shutdown 停机时把所有服务标记为 NOT_SERVING
func (h *HealthServer) Shutdown() {
	h.srv.Shutdown()
}

func (h *HealthServer) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}
