package collector

import (
	"sync"

	"github.com/playok/resmon/internal/model"
)

// Registry holds one sampler per resource type.
type Registry struct {
	mu       sync.RWMutex
	samplers map[model.ResourceType]Sampler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{samplers: make(map[model.ResourceType]Sampler)}
}

// NewDefaultRegistry registers the memory, disk and cpu samplers backed
// by src.
func NewDefaultRegistry(src HostSource, memoryLimit, diskPath string) *Registry {
	r := NewRegistry()
	r.Register(NewMemorySampler(src, memoryLimit))
	r.Register(NewDiskSampler(src, diskPath))
	r.Register(NewCPUSampler(src))
	return r
}

// Register adds or replaces the sampler for s.Type().
func (r *Registry) Register(s Sampler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samplers[s.Type()] = s
}

// Get returns the sampler for t.
func (r *Registry) Get(t model.ResourceType) (Sampler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.samplers[t]
	return s, ok
}
