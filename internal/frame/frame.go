// Package frame loads camera captures from disk and converts them into the
// grayscale Mats the decoder consumes.
package frame

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"smarter-scale/pkg/colorutil"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff"
)

// Load decodes an image file (TIFF, PNG or JPEG).
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// LoadGray decodes an image file straight into a grayscale Mat.
func LoadGray(path string) (gocv.Mat, error) {
	img, err := Load(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	return ToGray(img)
}

// ToGray converts an image to a single-channel 8-bit Mat. *image.Gray is
// copied row by row; other images go through BT.601 luma.
func ToGray(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}

	pix := make([]byte, w*h)
	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(pix[y*w:(y+1)*w], src.Pix[off:off+w])
		}
	case *image.RGBA:
		for y := 0; y < h; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			for x := 0; x < w; x++ {
				p := src.Pix[off+x*4 : off+x*4+3]
				pix[y*w+x] = colorutil.Gray(p[0], p[1], p[2])
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				// 16-bit to 8-bit
				pix[y*w+x] = colorutil.Gray(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			}
		}
	}

	m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create Mat: %w", err)
	}
	defer m.Close()
	return m.Clone(), nil
}

// ToImage copies a single-channel Mat into an *image.Gray.
func ToImage(gray gocv.Mat) (*image.Gray, error) {
	if gray.Empty() {
		return nil, fmt.Errorf("empty Mat")
	}
	if gray.Channels() != 1 || gray.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("expected 8-bit single-channel Mat, got type %v", gray.Type())
	}
	w, h := gray.Cols(), gray.Rows()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x] = gray.GetUCharAt(y, x)
		}
	}
	return out, nil
}

// SupportedFormats returns the file extensions Load understands.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// Collect expands directories into their supported image files, sorted by
// name, so a capture sequence replays in order. Plain file arguments are
// kept as given.
func Collect(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() && IsSupportedFormat(e.Name()) {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out, nil
}
