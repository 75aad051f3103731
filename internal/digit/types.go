// Package digit decodes seven-segment numeric displays from binarized camera frames.
package digit

import (
	"smarter-scale/pkg/geometry"
)

// Tag classifies a rectangle drawn on the debug overlay.
type Tag int

const (
	// TagIgnored marks a region rejected by ratio or fill ratio.
	TagIgnored Tag = iota
	// TagSegment marks an accepted, expanded bar segment.
	TagSegment
	// TagCluster marks the union rectangle of a cluster.
	TagCluster
	// TagGuide marks the user guide bands for expected digit height.
	TagGuide
	// TagContour marks the bounding box of every extracted contour, before
	// any filtering.
	TagContour
)

func (t Tag) String() string {
	switch t {
	case TagIgnored:
		return "Ignored"
	case TagSegment:
		return "Segment"
	case TagCluster:
		return "Cluster"
	case TagGuide:
		return "Guide"
	case TagContour:
		return "Contour"
	default:
		return "Unknown"
	}
}

// Cluster is a group of overlapping segments believed to form one digit.
type Cluster struct {
	Segments  []geometry.RectInt `json:"segments"`  // Member segments, expanded, in arena order
	Union     geometry.RectInt   `json:"union"`     // Smallest rectangle covering all members
	Signature Signature          `json:"signature"` // 7-bit slot pattern, valid only if Valid
	Valid     bool               `json:"valid"`     // False if a member fell outside the seven slots
	Digit     rune               `json:"digit"`     // Decoded character, 0 if unrecognized
}

// Decoded reports whether the cluster mapped to a digit.
func (c Cluster) Decoded() bool {
	return c.Digit != 0
}

// OverlayRect is a tagged rectangle in full-frame coordinates.
type OverlayRect struct {
	Rect geometry.RectInt `json:"rect"`
	Tag  Tag              `json:"tag"`
}

// Overlay holds debug drawing instructions for one frame.
type Overlay struct {
	Rects      []OverlayRect     `json:"rects"`
	Text       string            `json:"text"`        // Parsed reading for this frame
	TextOrigin geometry.PointInt `json:"text_origin"` // Bottom-left of the text baseline
}

// Frame is the result of decoding one camera frame.
type Frame struct {
	Reading  string    // Digits ordered left to right, possibly empty
	Clusters []Cluster // All clusters found, decoded or not
	Overlay  *Overlay  // Nil unless the decoder runs in debug mode
}

// Params holds the heuristic thresholds for the decoding pipeline.
// See params.go for defaults and width-based calculation.
type Params struct {
	// Binarizer, kernel sizes as a fraction of the uncropped frame width
	MedianBlurFraction        float64
	AdaptiveThresholdFraction float64
	AdaptiveThresholdC        float64
	OpenKernelRadius          int  // Structuring element is (2r+1)x(2r+1)
	OpenIterations            int  // Erosions, then as many dilations
	InvertPolarity            bool // Dark digits on a light background

	// Calculated by ForWidth
	FrameWidth     int
	MedianBlurSize int
	BlockSize      int

	// Region extractor
	NestedContours bool // Also report components enclosed by other components

	// Segment classifier
	MinSegmentPixels   int     // Both sides must be at least this long
	MinSegmentFraction float64 // Fraction of frame width, 0 keeps MinSegmentPixels fixed
	MinSegmentFloor    int     // Lower bound when scaling from frame width
	MinWideRatio       float64
	MaxWideRatio       float64
	MinTallRatio       float64
	MaxTallRatio       float64
	MinFillRatio       float64 // Rejected strictly below
	ExpandRatio        float64 // Long-axis growth, in short-side lengths

	// Framing
	MinAssumedHeight float64 // Guide band, fraction of frame height
	MaxAssumedHeight float64
	ROIFraction      float64 // Default ROI side, fraction of the smaller frame side

	// Stability
	HistorySize      int
	ConfirmThreshold int // A reading must be seen more than this many times
}
