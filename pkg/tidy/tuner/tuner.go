// Package tuner sizes the worker pools used when hashing files. It detects
// CPU cores and memory and derives a worker count and queue depth from them.
package tuner

// Pool limits.
const (
	maxWorkers   = 32
	minWorkers   = 2
	minQueueSize = 64
	maxQueueSize = 4096
)

// Memory-based queue sizing.
const (
	// bytesPerQueueEntry approximates a queued path plus its record.
	bytesPerQueueEntry = 1024

	// queueMemoryFraction is the share of available RAM given to queues.
	queueMemoryFraction = 0.01
)

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the free RAM in bytes, possibly estimated.
	AvailableRAM int64
}

// Pool is a tuned worker configuration.
type Pool struct {
	// Workers is the number of concurrent hashing goroutines.
	Workers int

	// QueueSize is the buffer size of the job channel.
	QueueSize int
}

// Calculate derives a pool from resources.
//
// Hashing reads whole files, so it is disk bound: two workers per core,
// clamped to [2, 32]. The queue is sized from available memory.
func Calculate(resources SystemResources) Pool {
	workers := resources.CPUCores * 2
	workers = max(workers, minWorkers)
	workers = min(workers, maxWorkers)

	return Pool{
		Workers:   workers,
		QueueSize: queueSize(resources.AvailableRAM),
	}
}

// CalculateWithOverride applies a configured worker count. Values of zero
// or less keep the calculated count; larger values are capped.
func CalculateWithOverride(resources SystemResources, workers int) Pool {
	p := Calculate(resources)
	if workers > 0 {
		p.Workers = min(workers, maxWorkers)
	}
	return p
}

// Auto detects resources and calculates a pool with the given override.
// Detection failures fall back to the partial result Detect returned.
func Auto(workers int) Pool {
	resources, _ := Detect()
	return CalculateWithOverride(resources, workers)
}

func queueSize(availableRAM int64) int {
	entries := int(float64(availableRAM) * queueMemoryFraction / bytesPerQueueEntry)
	entries = max(entries, minQueueSize)
	return min(entries, maxQueueSize)
}
