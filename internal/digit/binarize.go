package digit

import (
	"gocv.io/x/gocv"
)

// Binarize turns a grayscale crop into a foreground mask (255 = candidate ink).
// frameWidth is the width of the frame before cropping, so kernel sizes do not
// depend on the crop. A non-positive frameWidth uses the crop width.
// The caller owns the returned Mat.
func Binarize(gray gocv.Mat, frameWidth int, params Params) gocv.Mat {
	if gray.Empty() || gray.Rows() == 0 || gray.Cols() == 0 {
		return gocv.NewMat()
	}
	if frameWidth <= 0 {
		frameWidth = gray.Cols()
	}
	p := params.ForWidth(frameWidth)

	src := gray
	if gray.Channels() != 1 {
		src = gocv.NewMat()
		defer src.Close()
		code := gocv.ColorBGRToGray
		if gray.Channels() == 4 {
			code = gocv.ColorBGRAToGray
		}
		gocv.CvtColor(gray, &src, code)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(src, &blurred, p.MedianBlurSize)

	thresholdType := gocv.ThresholdBinary
	if p.InvertPolarity {
		thresholdType = gocv.ThresholdBinaryInv
	}
	mask := gocv.NewMat()
	gocv.AdaptiveThreshold(blurred, &mask, 255,
		gocv.AdaptiveThresholdMean, thresholdType, p.BlockSize, float32(p.AdaptiveThresholdC))

	// Opening: erode n times, then dilate n times
	kernel := diagonalCross(p.OpenKernelRadius)
	defer kernel.Close()
	for i := 0; i < p.OpenIterations; i++ {
		gocv.Erode(mask, &mask, kernel)
	}
	for i := 0; i < p.OpenIterations; i++ {
		gocv.Dilate(mask, &mask, kernel)
	}

	return mask
}

// diagonalCross builds a (2r+1)x(2r+1) structuring element with both
// diagonals set, which keeps bar ends while dropping speckle.
func diagonalCross(r int) gocv.Mat {
	size := 2*r + 1
	kernel := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), size, size, gocv.MatTypeCV8U)
	for i := 0; i < size; i++ {
		kernel.SetUCharAt(i, i, 1)
		kernel.SetUCharAt(size-i-1, i, 1)
	}
	return kernel
}
