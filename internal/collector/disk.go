package collector

import (
	"context"
	"errors"

	"github.com/playok/resmon/internal/model"
)

// DefaultDiskPath is the filesystem measured when none is configured.
const DefaultDiskPath = "/"

type diskSampler struct {
	src  HostSource
	path string
}

// NewDiskSampler returns a sampler for the filesystem holding path.
func NewDiskSampler(src HostSource, path string) Sampler {
	if path == "" {
		path = DefaultDiskPath
	}
	return &diskSampler{src: src, path: path}
}

func (s *diskSampler) Type() model.ResourceType { return model.ResourceDisk }

func (s *diskSampler) Sample(ctx context.Context) (model.Reading, error) {
	free, total, err := s.src.DiskUsage(ctx, s.path)
	if err != nil {
		return model.Reading{}, model.NewSampleError(model.ResourceDisk, "usage "+s.path, err)
	}
	if total == 0 {
		return model.Reading{}, model.NewSampleError(model.ResourceDisk, "usage "+s.path, errors.New("total space is zero"))
	}
	if free > total {
		free = total
	}
	used := float64(total - free)

	return model.Reading{
		Type:       model.ResourceDisk,
		Supported:  true,
		Raw:        used,
		Limit:      float64(total),
		Value:      FormatBytes(used),
		LimitValue: FormatBytes(float64(total)),
		Free:       FormatBytes(float64(free)),
		Level:      round2(used / float64(total) * 100),
	}, nil
}
