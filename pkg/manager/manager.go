package manager

import (
	"fmt"
	"sync"

	"transcription-service/pkg/logger"
)

// Resource is a long lived connection (database, object store, broker).
type Resource interface {
	MustOpen()
	Close()
}

// ResourcePlugin creates a resource; registered from package init.
type ResourcePlugin interface {
	Name() string
	MustCreateResource() Resource
}

type registry struct {
	mu      sync.Mutex
	plugins []ResourcePlugin
	names   map[string]struct{}
	opened  []namedResource
}

type namedResource struct {
	name string
	res  Resource
}

var defaultRegistry = newRegistry()

func newRegistry() *registry {
	return &registry{names: make(map[string]struct{})}
}

// RegisterResourcePlugin 注册资源插件，重名视为编程错误
func RegisterResourcePlugin(p ResourcePlugin) {
	defaultRegistry.register(p)
}

// MustInitResources 按注册顺序打开所有资源
func MustInitResources() {
	defaultRegistry.mustInit()
}

// CloseResources 逆序关闭已打开的资源
func CloseResources() {
	defaultRegistry.close()
}

func (r *registry) register(p ResourcePlugin) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.names[p.Name()]; dup {
		panic(fmt.Sprintf("resource plugin %q registered twice", p.Name()))
	}
	r.names[p.Name()] = struct{}{}
	r.plugins = append(r.plugins, p)
}

func (r *registry) mustInit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plugins {
		res := p.MustCreateResource()
		if res == nil {
			continue
		}
		res.MustOpen()
		r.opened = append(r.opened, namedResource{name: p.Name(), res: res})
		logger.Infof("resource opened name=%s", p.Name())
	}
}

func (r *registry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.opened) - 1; i >= 0; i-- {
		r.opened[i].res.Close()
		logger.Infof("resource closed name=%s", r.opened[i].name)
	}
	r.opened = nil
}
