package collector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playok/resmon/internal/model"
)

// SupportTTL is how long a support probe result is reused.
const SupportTTL = time.Hour

// SupportProbe determines which resource types can be measured on this
// host by attempting one read of each.
type SupportProbe struct {
	registry *Registry
	logger   *zap.Logger

	mu      sync.Mutex
	support map[model.ResourceType]bool
	expires time.Time
	now     func() time.Time
}

// NewSupportProbe creates a probe over the samplers in registry.
func NewSupportProbe(registry *Registry, logger *zap.Logger) *SupportProbe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupportProbe{registry: registry, logger: logger, now: time.Now}
}

// Probe returns the support map, re-probing once the cached result is
// older than SupportTTL. Any failure marks the type unsupported.
func (p *SupportProbe) Probe(ctx context.Context) map[model.ResourceType]bool {
	p.mu.Lock()
	if p.support != nil && p.now().Before(p.expires) {
		out := copySupport(p.support)
		p.mu.Unlock()
		return out
	}
	p.mu.Unlock()

	support := make(map[model.ResourceType]bool, len(model.ResourceTypes))
	for _, t := range model.ResourceTypes {
		s, ok := p.registry.Get(t)
		if !ok {
			support[t] = false
			continue
		}
		if _, err := safeSample(ctx, s); err != nil {
			p.logger.Warn("resource unsupported on this host",
				zap.String("resource", string(t)), zap.Error(model.NewUnsupportedError(t, err)))
			support[t] = false
			continue
		}
		support[t] = true
	}

	p.mu.Lock()
	p.support = support
	p.expires = p.now().Add(SupportTTL)
	p.mu.Unlock()
	return copySupport(support)
}

// Reset forces the next Probe to re-read every resource. A forced snapshot
// refresh resets the probe.
func (p *SupportProbe) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.support = nil
}

func copySupport(m map[model.ResourceType]bool) map[model.ResourceType]bool {
	out := make(map[model.ResourceType]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
