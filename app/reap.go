package app

import (
	"context"
	"fmt"
	"time"

	"transcription-service/pkg/config"
	"transcription-service/pkg/logger"
	"transcription-service/pkg/manager"
)

// ReapOnce 执行一次过期转写回收，供定时任务调用
func ReapOnce(timeout time.Duration) (int, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return 0, fmt.Errorf("load config: %w", err)
	}
	config.SetGlobalConfig(cfg)
	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	defer logService.Close()

	manager.MustInitResources()
	defer manager.CloseResources()

	in, err := openInfra(cfg)
	if err != nil {
		return 0, err
	}
	if in.discovery != nil {
		defer in.discovery.Close()
	}
	c, err := assemble(cfg, in)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.service.ReapStale(ctx)
}
