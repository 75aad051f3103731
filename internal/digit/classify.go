package digit

import (
	"smarter-scale/pkg/geometry"
)

// Classification is the output of ClassifySegments.
type Classification struct {
	Segments []geometry.RectInt // Accepted bars, expanded for clustering
	Ignored  []geometry.RectInt // Rejected by ratio or fill ratio, unexpanded
}

// ClassifySegments filters candidate rectangles into plausible bar segments.
// Rectangles below the minimum size are dropped without being reported;
// rectangles failing the aspect ratio or fill ratio checks are reported as
// ignored. Accepted rectangles are grown along their long axis so that
// neighbouring segments of one digit overlap.
func ClassifySegments(rects []geometry.RectInt, sat *SummedArea, params Params) Classification {
	var out Classification
	for _, r := range rects {
		if r.Width < params.MinSegmentPixels || r.Height < params.MinSegmentPixels {
			continue
		}

		if !acceptRatio(r, params) {
			out.Ignored = append(out.Ignored, r)
			continue
		}

		if FillRatio(r, sat) < params.MinFillRatio {
			out.Ignored = append(out.Ignored, r)
			continue
		}

		out.Segments = append(out.Segments, r.ExpandLong(params.ExpandRatio))
	}
	return out
}

// acceptRatio checks the long/short side ratio against the window for the
// rectangle's orientation.
func acceptRatio(r geometry.RectInt, params Params) bool {
	ratio := r.AspectRatio()
	if r.Wide() {
		return ratio >= params.MinWideRatio && ratio <= params.MaxWideRatio
	}
	return ratio >= params.MinTallRatio && ratio <= params.MaxTallRatio
}

// FillRatio returns the fraction of r covered by foreground (255) pixels.
func FillRatio(r geometry.RectInt, sat *SummedArea) float64 {
	area := r.Area()
	if area <= 0 {
		return 0
	}
	return float64(sat.Sum(r)) / (float64(area) * 255)
}
