package tuner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		resources SystemResources
		workers   int
		queue     int
	}{
		{
			name:      "single core",
			resources: SystemResources{CPUCores: 1, AvailableRAM: 0},
			workers:   minWorkers,
			queue:     minQueueSize,
		},
		{
			name:      "eight cores",
			resources: SystemResources{CPUCores: 8, AvailableRAM: 1 << 28},
			workers:   16,
			queue:     2621,
		},
		{
			name:      "capped",
			resources: SystemResources{CPUCores: 128, AvailableRAM: 1 << 40},
			workers:   maxWorkers,
			queue:     maxQueueSize,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := Calculate(tt.resources)
			assert.Equal(t, tt.workers, p.Workers)
			assert.Equal(t, tt.queue, p.QueueSize)
		})
	}
}

func TestCalculateWithOverride(t *testing.T) {
	t.Parallel()

	r := SystemResources{CPUCores: 4}
	assert.Equal(t, 8, CalculateWithOverride(r, 0).Workers)
	assert.Equal(t, 8, CalculateWithOverride(r, -1).Workers)
	assert.Equal(t, 3, CalculateWithOverride(r, 3).Workers)
	assert.Equal(t, maxWorkers, CalculateWithOverride(r, 1000).Workers)
}

func TestDetect(t *testing.T) {
	t.Parallel()

	r, err := Detect()
	require.NoError(t, err)
	assert.Positive(t, r.CPUCores)
	assert.Positive(t, r.TotalRAM)

	p := Auto(0)
	assert.GreaterOrEqual(t, p.Workers, minWorkers)
	assert.LessOrEqual(t, p.Workers, maxWorkers)
}
