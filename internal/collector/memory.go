package collector

import (
	"context"
	"errors"

	"github.com/playok/resmon/internal/model"
)

type memorySampler struct {
	src HostSource
	// limit is the configured ceiling in bytes; 0 means the host total.
	limit int64
}

// NewMemorySampler returns a sampler for memory usage. An empty limit
// measures against the host's total memory; otherwise limit is parsed with
// ParseMemoryLimit.
func NewMemorySampler(src HostSource, limit string) Sampler {
	s := &memorySampler{src: src}
	if limit != "" {
		s.limit = ParseMemoryLimit(limit)
	}
	return s
}

func (s *memorySampler) Type() model.ResourceType { return model.ResourceMemory }

func (s *memorySampler) Sample(ctx context.Context) (model.Reading, error) {
	used, total, err := s.src.Memory(ctx)
	if err != nil {
		return model.Reading{}, model.NewSampleError(model.ResourceMemory, "memory", err)
	}
	if total == 0 {
		return model.Reading{}, model.NewSampleError(model.ResourceMemory, "memory", errors.New("total memory is zero"))
	}

	limit := float64(total)
	limitValue := FormatBytes(limit)
	if s.limit > 0 {
		limit = float64(s.limit)
		limitValue = FormatBytes(limit)
		if s.limit == MemoryLimitUnbounded {
			limitValue = "unlimited"
		}
	}

	return model.Reading{
		Type:       model.ResourceMemory,
		Supported:  true,
		Raw:        float64(used),
		Limit:      limit,
		Value:      FormatBytes(float64(used)),
		LimitValue: limitValue,
		Level:      round2(float64(used) / limit * 100),
	}, nil
}
