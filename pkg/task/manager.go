package task

import (
	"context"
	"sync"

	"transcription-service/pkg/logger"
)

// BackgroundTask 长期运行的后台任务，如消费者与定时任务
type BackgroundTask interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

// Manager 后台任务管理器，按注册顺序启动，逆序停止
type Manager struct {
	tasks  []BackgroundTask
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager 创建独立的任务管理器
func NewManager() *Manager {
	return &Manager{tasks: make([]BackgroundTask, 0)}
}

var defaultManager = NewManager()

// Register 注册后台任务，需在 StartAll 之前调用
func Register(task BackgroundTask) { defaultManager.Register(task) }

// StartAll 启动全部已注册任务，只生效一次
func StartAll(ctx context.Context) error { return defaultManager.StartAll(ctx) }

// StopAll 停止全部运行中的任务
func StopAll() { defaultManager.StopAll() }

func (m *Manager) Register(task BackgroundTask) {
	if task == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return nil
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	for _, t := range m.tasks {
		if err := t.Start(m.ctx); err != nil {
			return err
		}
		logger.Infof("background task started name=%s", t.Name())
	}
	return nil
}

func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	for i := len(m.tasks) - 1; i >= 0; i-- {
		if err := m.tasks[i].Stop(); err != nil {
			logger.Warnf("background task stop failed name=%s error=%v", m.tasks[i].Name(), err)
		}
	}
	m.cancel = nil
}
