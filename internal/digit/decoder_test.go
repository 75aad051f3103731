package digit

import (
	"image"
	"testing"

	"smarter-scale/internal/digit/digittest"
	"smarter-scale/pkg/geometry"

	"gocv.io/x/gocv"
)

func TestDecodeRegionsZeroOne(t *testing.T) {
	raw, rows, cols := zeroOne()
	sat := NewSummedArea(rows, cols, digittest.Mask(rows, cols, raw))

	d := NewDecoder(DefaultParams(), WithDebug(true))
	frame := d.DecodeRegions(raw, sat)
	if frame.Reading != "01" {
		t.Fatalf("reading: got %q, want 01", frame.Reading)
	}
	if len(frame.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(frame.Clusters))
	}
	if frame.Overlay == nil {
		t.Fatalf("expected overlay in debug mode")
	}

	counts := map[Tag]int{}
	for _, r := range frame.Overlay.Rects {
		counts[r.Tag]++
	}
	want := map[Tag]int{TagContour: len(raw), TagIgnored: 0, TagSegment: 8, TagCluster: 2, TagGuide: 2}
	for tag, n := range want {
		if counts[tag] != n {
			t.Fatalf("%s rects: got %d, want %d", tag, counts[tag], n)
		}
	}
	if frame.Overlay.Text != "01" {
		t.Fatalf("overlay text: got %q", frame.Overlay.Text)
	}
	if frame.Overlay.TextOrigin != (geometry.PointInt{X: 0, Y: rows}) {
		t.Fatalf("overlay text origin: got %v", frame.Overlay.TextOrigin)
	}
}

func TestDecodeRegionsWithoutDebugHasNoOverlay(t *testing.T) {
	raw, rows, cols := zeroOne()
	sat := NewSummedArea(rows, cols, digittest.Mask(rows, cols, raw))
	frame := NewDecoder(DefaultParams()).DecodeRegions(raw, sat)
	if frame.Overlay != nil {
		t.Fatalf("unexpected overlay")
	}
}

func TestDecodeRegionsReportsIgnored(t *testing.T) {
	raw, rows, cols := zeroOne()
	blob := geometry.NewRectInt(0, 100, 10, 10) // square, wrong ratio
	sat := NewSummedArea(rows, cols, digittest.Mask(rows, cols, append(raw, blob)))

	frame := NewDecoder(DefaultParams(), WithDebug(true)).DecodeRegions(append(raw, blob), sat)
	if frame.Reading != "01" {
		t.Fatalf("reading: got %q, want 01", frame.Reading)
	}
	var ignored []geometry.RectInt
	for _, r := range frame.Overlay.Rects {
		if r.Tag == TagIgnored {
			ignored = append(ignored, r.Rect)
		}
	}
	if len(ignored) != 1 || ignored[0] != blob {
		t.Fatalf("ignored rects: got %v, want [%v]", ignored, blob)
	}

	// The blob is still reported among the raw contours, ahead of the
	// filtered tags
	var contours []geometry.RectInt
	for i, r := range frame.Overlay.Rects {
		if r.Tag != TagContour {
			continue
		}
		if i >= len(raw)+1 {
			t.Fatalf("contour rect at index %d after filtered rects", i)
		}
		contours = append(contours, r.Rect)
	}
	if len(contours) != len(raw)+1 || contours[len(contours)-1] != blob {
		t.Fatalf("contour rects: got %v", contours)
	}
}

func TestDecoderConfirmsAndResets(t *testing.T) {
	raw, rows, cols := zeroOne()
	sat := NewSummedArea(rows, cols, digittest.Mask(rows, cols, raw))
	d := NewDecoder(DefaultParams())

	for i := 0; i < 10; i++ {
		d.DecodeRegions(raw, sat)
		if got, ok := d.Confirmed(); ok {
			t.Fatalf("frame %d: confirmed %q too early", i, got)
		}
	}
	d.DecodeRegions(raw, sat)
	got, ok := d.Confirmed()
	if !ok || got != "01" {
		t.Fatalf("expected confirmed 01, got %q ok=%v", got, ok)
	}
	if n := len(d.History()); n != 11 {
		t.Fatalf("history length: got %d, want 11", n)
	}

	d.Reset()
	if got, ok := d.Confirmed(); ok {
		t.Fatalf("confirmed %q after reset", got)
	}
	if n := len(d.History()); n != 0 {
		t.Fatalf("history length after reset: got %d", n)
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	d := NewDecoder(DefaultParams(), WithDebug(true))
	frame := d.DecodeRegions(nil, nil)
	if frame.Reading != "" || len(frame.Clusters) != 0 {
		t.Fatalf("expected empty frame, got %+v", frame)
	}
	if len(d.History()) != 1 {
		t.Fatalf("empty reading must still be recorded")
	}
}

func TestCenterROI(t *testing.T) {
	got := CenterROI(image.Pt(1000, 600), 0.5)
	want := image.Rect(350, 150, 650, 450)
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := CenterROI(image.Pt(0, 0), 0.66); !got.Empty() {
		t.Fatalf("expected empty roi for empty frame, got %v", got)
	}
}

func TestGuideBandsAreCentered(t *testing.T) {
	raw, rows, cols := zeroOne()
	sat := NewSummedArea(rows, cols, digittest.Mask(rows, cols, raw))
	frame := NewDecoder(DefaultParams(), WithDebug(true)).DecodeRegions(raw, sat)

	var guides []geometry.RectInt
	for _, r := range frame.Overlay.Rects {
		if r.Tag == TagGuide {
			guides = append(guides, r.Rect)
		}
	}
	want := []geometry.RectInt{
		geometry.NewRectInt(0, 44, cols, 22),
		geometry.NewRectInt(0, 36, cols, 38),
	}
	for i := range want {
		if guides[i] != want[i] {
			t.Fatalf("guide %d: got %v, want %v", i, guides[i], want[i])
		}
	}
}

// matFromPix wraps a row-major 8-bit buffer as a single-channel Mat.
func matFromPix(t *testing.T, rows, cols int, pix []uint8) gocv.Mat {
	t.Helper()
	m, err := digittest.Mat(rows, cols, pix)
	if err != nil {
		t.Fatalf("%v", err)
	}
	return m
}

func TestExtractRegions(t *testing.T) {
	raw, rows, cols := zeroOne()
	pix := digittest.Mask(rows, cols, raw)
	mask := matFromPix(t, rows, cols, pix)
	defer mask.Close()

	rects, sat := ExtractRegions(mask, false)
	if len(rects) != len(raw) {
		t.Fatalf("got %d regions, want %d", len(rects), len(raw))
	}
	found := map[geometry.RectInt]bool{}
	for _, r := range rects {
		found[r] = true
	}
	for _, r := range raw {
		if !found[r] {
			t.Fatalf("missing region %v in %v", r, rects)
		}
	}

	ref := NewSummedArea(rows, cols, pix)
	for _, r := range append(raw, geometry.NewRectInt(0, 0, cols, rows), geometry.NewRectInt(5, 7, 40, 33)) {
		if got, want := sat.Sum(r), ref.Sum(r); got != want {
			t.Fatalf("sum %v: got %d, want %d", r, got, want)
		}
	}
}

func TestExtractRegionsNested(t *testing.T) {
	// A hollow frame with a bar inside it
	const rows, cols = 60, 60
	pix := digittest.Mask(rows, cols, []geometry.RectInt{geometry.NewRectInt(5, 5, 50, 50)})
	digittest.Paint(pix, cols, []geometry.RectInt{geometry.NewRectInt(10, 10, 40, 40)}, 0)
	digittest.Paint(pix, cols, []geometry.RectInt{geometry.NewRectInt(25, 15, 10, 30)}, 255)
	mask := matFromPix(t, rows, cols, pix)
	defer mask.Close()

	outer, _ := ExtractRegions(mask, false)
	if len(outer) != 1 {
		t.Fatalf("external retrieval: got %d regions, want 1", len(outer))
	}
	all, _ := ExtractRegions(mask, true)
	found := false
	for _, r := range all {
		if r == geometry.NewRectInt(25, 15, 10, 30) {
			found = true
		}
	}
	if !found {
		t.Fatalf("nested retrieval did not report the inner bar: %v", all)
	}
}

func TestExtractRegionsEmptyMask(t *testing.T) {
	mask := gocv.NewMat()
	defer mask.Close()
	rects, sat := ExtractRegions(mask, false)
	if len(rects) != 0 || sat.Rows() != 0 || sat.Cols() != 0 {
		t.Fatalf("expected no regions for empty mask")
	}
}

func TestDecodeMaskZeroOne(t *testing.T) {
	raw, rows, cols := zeroOne()
	mask := matFromPix(t, rows, cols, digittest.Mask(rows, cols, raw))
	defer mask.Close()

	frame := NewDecoder(DefaultParams()).DecodeMask(mask)
	if frame.Reading != "01" {
		t.Fatalf("reading: got %q, want 01", frame.Reading)
	}
}

func TestBinarize(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	if out := Binarize(empty, 100, DefaultParams()); !out.Empty() {
		out.Close()
		t.Fatalf("expected empty mask for empty input")
	}

	const rows, cols = 260, 300
	rects := digittest.Digit('8', geometry.PointInt{X: 20, Y: 20}, 2)
	gray := matFromPix(t, rows, cols, digittest.Striped(rows, cols, rects))
	defer gray.Close()

	mask := Binarize(gray, cols, DefaultParams())
	defer mask.Close()
	if mask.Rows() != rows || mask.Cols() != cols || mask.Type() != gocv.MatTypeCV8UC1 {
		t.Fatalf("unexpected mask shape %dx%d type %v", mask.Cols(), mask.Rows(), mask.Type())
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if v := mask.GetUCharAt(y, x); v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) = %d, want 0 or 255", x, y, v)
			}
		}
	}
	// Background stripes do not survive the opening
	if v := mask.GetUCharAt(rows-5, cols-5); v != 0 {
		t.Fatalf("background pixel = %d, want 0", v)
	}
	// Bar interiors do
	c := rects[0]
	if v := mask.GetUCharAt(c.Y+c.Height/2, c.X+c.Width/2); v != 255 {
		t.Fatalf("bar pixel = %d, want 255", v)
	}
}

func TestBinarizeWithoutFrameWidth(t *testing.T) {
	const rows, cols = 260, 300
	rects := digittest.Digit('8', geometry.PointInt{X: 20, Y: 20}, 2)
	gray := matFromPix(t, rows, cols, digittest.Striped(rows, cols, rects))
	defer gray.Close()

	want := Binarize(gray, cols, DefaultParams())
	defer want.Close()
	for _, width := range []int{0, -1} {
		got := Binarize(gray, width, DefaultParams())
		if got.Rows() != rows || got.Cols() != cols {
			got.Close()
			t.Fatalf("width %d: unexpected mask shape %dx%d", width, got.Cols(), got.Rows())
		}
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				if got.GetUCharAt(y, x) != want.GetUCharAt(y, x) {
					got.Close()
					t.Fatalf("width %d: pixel (%d,%d) differs from crop-width mask", width, x, y)
				}
			}
		}
		got.Close()
	}
}

func TestDecodeFrameGray(t *testing.T) {
	const rows, cols = 260, 300
	var rects []geometry.RectInt
	rects = append(rects, digittest.Digit('0', geometry.PointInt{X: 20, Y: 20}, 2)...)
	rects = append(rects, digittest.Digit('1', geometry.PointInt{X: 160, Y: 20}, 2)...)
	gray := matFromPix(t, rows, cols, digittest.Striped(rows, cols, rects))
	defer gray.Close()

	d := NewDecoder(DefaultParams(), WithDebug(true))
	frame := d.DecodeFrame(gray, image.Rect(0, 0, cols, rows))
	if frame.Reading != "01" {
		t.Fatalf("reading: got %q, want 01", frame.Reading)
	}
	if frame.Overlay == nil || frame.Overlay.Text != "01" {
		t.Fatalf("expected overlay with reading")
	}
}

func TestDecodeFrameOffsetROI(t *testing.T) {
	const rows, cols = 260, 300
	rects := digittest.Digit('7', geometry.PointInt{X: 100, Y: 20}, 2)
	gray := matFromPix(t, rows, cols, digittest.Striped(rows, cols, rects))
	defer gray.Close()

	roi := image.Rect(80, 0, 220, rows)
	frame := NewDecoder(DefaultParams(), WithDebug(true)).DecodeFrame(gray, roi)
	if frame.Reading != "7" {
		t.Fatalf("reading: got %q, want 7", frame.Reading)
	}
	// Overlay rects are in frame coordinates
	for _, r := range frame.Overlay.Rects {
		if r.Tag == TagCluster && r.Rect.X < roi.Min.X {
			t.Fatalf("cluster rect %v not translated into frame space", r.Rect)
		}
	}
}

func TestDecodeFrameDegenerate(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	d := NewDecoder(DefaultParams())
	if frame := d.DecodeFrame(empty, image.Rectangle{}); frame.Reading != "" {
		t.Fatalf("got %q for empty frame", frame.Reading)
	}

	gray := matFromPix(t, 20, 20, make([]uint8, 400))
	defer gray.Close()
	if frame := d.DecodeFrame(gray, image.Rect(50, 50, 60, 60)); frame.Reading != "" {
		t.Fatalf("got %q for roi outside frame", frame.Reading)
	}
	if n := len(d.History()); n != 2 {
		t.Fatalf("history length: got %d, want 2", n)
	}
}
