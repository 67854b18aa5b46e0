//go:build !darwin && !linux

package tuner

import "runtime"

// defaultTotalRAM is assumed where memory cannot be queried.
const defaultTotalRAM = 8 * 1024 * 1024 * 1024

// Detect reports the CPU count and a fixed memory estimate.
func Detect() (SystemResources, error) {
	return SystemResources{
		CPUCores:     runtime.NumCPU(),
		TotalRAM:     defaultTotalRAM,
		AvailableRAM: defaultTotalRAM / 2,
	}, nil
}
