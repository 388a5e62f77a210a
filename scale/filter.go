package scale

import (
	"fmt"
	"slices"

	"pawnshop/config"
)

// Filter reduces a run of stable samples to one weight.
// Implementations must not modify samples.
type Filter func(samples []float64) float64

// Median returns the middle element of the sorted run (the upper middle for
// even lengths)
func Median(samples []float64) float64 {
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}

// TrimmedMean drops the lowest and highest quarter of the sorted run and
// averages the rest
func TrimmedMean(samples []float64) float64 {
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	offset := len(sorted) / 4
	central := sorted[offset : len(sorted)-offset]

	var sum float64
	for _, v := range central {
		sum += v
	}
	return sum / float64(len(central))
}

// FilterByName resolves a configured filter name
func FilterByName(name string) (Filter, error) {
	switch name {
	case "", config.FilterMedian:
		return Median, nil
	case config.FilterTrimmedMean:
		return TrimmedMean, nil
	default:
		return nil, fmt.Errorf("unknown weight filter %q", name)
	}
}
