package resampler

import (
	"fmt"
	"strings"
)

// Method selects a resampling algorithm.
type Method string

const (
	// MethodNearest is nearest-neighbour selection (default).
	MethodNearest Method = "nearest"
	// MethodSoxr is band-limited resampling.
	MethodSoxr Method = "soxr"
)

// ParseMethod parses a method name. The empty string selects MethodNearest.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodNearest, "":
		return MethodNearest, nil
	case MethodSoxr:
		return MethodSoxr, nil
	}
	return "", fmt.Errorf("resampler: unknown method %q (want nearest or soxr)", s)
}

// Apply resamples normalized samples with the selected method.
func (m Method) Apply(samples []float32, from, to int) ([]float32, error) {
	switch m {
	case MethodSoxr:
		return HighQuality(samples, from, to)
	case MethodNearest, "":
		return Resample(samples, from, to)
	}
	return nil, fmt.Errorf("resampler: unknown method %q", string(m))
}
