package collector

import (
	"context"
	"fmt"

	"github.com/playok/resmon/internal/model"
)

// Sampler reads the current usage of one resource type.
type Sampler interface {
	// Type returns the resource this sampler measures.
	Type() model.ResourceType
	// Sample returns a reading with Raw, Limit, the formatted values and
	// Level filled in. Errors are *model.Error of kind KindSample.
	Sample(ctx context.Context) (model.Reading, error)
}

// safeSample calls s.Sample and turns a panic into a SampleError.
func safeSample(ctx context.Context, s Sampler) (r model.Reading, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = model.NewSampleError(s.Type(), "sample", fmt.Errorf("panic: %v", p))
		}
	}()
	return s.Sample(ctx)
}
