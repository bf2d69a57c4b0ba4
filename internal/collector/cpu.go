package collector

import (
	"context"

	"github.com/playok/resmon/internal/model"
)

type cpuSampler struct {
	src HostSource
}

// NewCPUSampler returns a sampler for the 1-minute load average. CPU levels
// are absolute load values, not percentages.
func NewCPUSampler(src HostSource) Sampler { return &cpuSampler{src: src} }

func (s *cpuSampler) Type() model.ResourceType { return model.ResourceCPU }

func (s *cpuSampler) Sample(ctx context.Context) (model.Reading, error) {
	avg, err := s.src.LoadAverage(ctx)
	if err != nil {
		return model.Reading{}, model.NewSampleError(model.ResourceCPU, "load average", err)
	}
	if avg < 0 {
		avg = 0
	}
	return model.Reading{
		Type:      model.ResourceCPU,
		Supported: true,
		Raw:       avg,
		Value:     FormatLoad(avg),
		Level:     round2(avg),
	}, nil
}
