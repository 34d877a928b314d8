package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"transcription-service/pkg/logger"
)

// PeriodicTask 按固定间隔执行 fn，直到被停止
type PeriodicTask struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewPeriodicTask 创建周期任务
func NewPeriodicTask(name string, interval time.Duration, fn func(ctx context.Context) error) *PeriodicTask {
	return &PeriodicTask{name: name, interval: interval, fn: fn}
}

func (p *PeriodicTask) Name() string { return p.name }

func (p *PeriodicTask) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return errors.New("periodic task interval must be positive")
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx)
	return nil
}

func (p *PeriodicTask) loop(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *PeriodicTask) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("periodic task panicked", map[string]interface{}{"task": p.name, "panic": r})
		}
	}()
	if err := p.fn(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("periodic task failed", map[string]interface{}{"task": p.name, "error": err.Error()})
	}
}

// Stop 取消并等待当前一轮结束
func (p *PeriodicTask) Stop() error {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
			<-p.done
		}
	})
	return nil
}
