package main

import (
	"fmt"
	"image"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// parseROI parses "x,y,w,h". An empty string selects the decoder default.
func parseROI(s string) (image.Rectangle, error) {
	if strings.TrimSpace(s) == "" {
		return image.Rectangle{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("expected x,y,w,h, got %q", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid value %q: %w", p, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("width and height must be positive")
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// TimingSummary describes per-frame decode times in milliseconds.
type TimingSummary struct {
	Frames int
	Mean   float64
	StdDev float64
	Median float64
	P95    float64
	Max    float64
}

func summarize(ms []float64) TimingSummary {
	if len(ms) == 0 {
		return TimingSummary{}
	}
	sorted := append([]float64(nil), ms...)
	sort.Float64s(sorted)

	s := TimingSummary{
		Frames: len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}

func printTimings(ms []float64) {
	s := summarize(ms)
	if s.Frames == 0 {
		return
	}
	fmt.Printf("\nDecode time over %d frames: mean %.2fms (sd %.2f) median %.2fms p95 %.2fms max %.2fms\n",
		s.Frames, s.Mean, s.StdDev, s.Median, s.P95, s.Max)
}
