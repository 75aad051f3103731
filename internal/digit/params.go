package digit

// DefaultParams returns default decoding parameters.
// These are tuned for LED bathroom-scale readouts filmed at roughly 1000px width.
func DefaultParams() Params {
	return Params{
		// Kernel sizes as a fraction of the uncropped frame width
		MedianBlurFraction:        0.002, // ~5px for 1000px input
		AdaptiveThresholdFraction: 0.03,  // ~30px for 1000px input
		AdaptiveThresholdC:        1,
		OpenKernelRadius:          3, // 7x7 diagonal cross
		OpenIterations:            2,

		MinSegmentPixels:   10,
		MinSegmentFraction: 0.01,
		MinSegmentFloor:    4,

		// Wide bars (w > h)
		MinWideRatio: 1.67,
		MaxWideRatio: 2.67,
		// Tall bars (w <= h)
		MinTallRatio: 3.0,
		MaxTallRatio: 4.5,

		MinFillRatio: 0.7, // Unlikely a segment below this
		ExpandRatio:  1.0,

		// Digits are expected to take 20-35% of the frame height
		MinAssumedHeight: 0.20,
		MaxAssumedHeight: 0.35,
		ROIFraction:      0.66,

		HistorySize:      30,
		ConfirmThreshold: 10,
	}
}

// ForWidth returns a copy of params with pixel sizes calculated from the
// width of the uncropped frame.
func (p Params) ForWidth(width int) Params {
	p.FrameWidth = width
	if width <= 0 {
		return p
	}
	p.MedianBlurSize = oddAtLeast(int(p.MedianBlurFraction*float64(width)), 1)
	p.BlockSize = oddAtLeast(int(p.AdaptiveThresholdFraction*float64(width)), 3)
	if p.MinSegmentFraction > 0 {
		p.MinSegmentPixels = max(p.MinSegmentFloor, int(p.MinSegmentFraction*float64(width)+0.5))
	}
	return p
}

// WithRatios returns a copy of params with custom segment aspect ratio windows.
func (p Params) WithRatios(minWide, maxWide, minTall, maxTall float64) Params {
	p.MinWideRatio = minWide
	p.MaxWideRatio = maxWide
	p.MinTallRatio = minTall
	p.MaxTallRatio = maxTall
	return p
}

// WithMinFillRatio returns a copy of params with a custom fill ratio floor.
func (p Params) WithMinFillRatio(ratio float64) Params {
	p.MinFillRatio = ratio
	return p
}

// WithMinSegmentPixels returns a copy of params with a fixed minimum segment
// side length. Scaling from the frame width is disabled.
func (p Params) WithMinSegmentPixels(px int) Params {
	p.MinSegmentPixels = px
	p.MinSegmentFraction = 0
	return p
}

// WithHistory returns a copy of params with a custom stability window.
func (p Params) WithHistory(size, threshold int) Params {
	p.HistorySize = size
	p.ConfirmThreshold = threshold
	return p
}

// oddAtLeast rounds n up to the next odd number, never below floor.
func oddAtLeast(n, floor int) int {
	if n < floor {
		n = floor
	}
	if n%2 == 0 {
		n++
	}
	return n
}
