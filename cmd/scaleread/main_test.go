package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"smarter-scale/internal/digit"
	"smarter-scale/internal/digit/digittest"
	"smarter-scale/internal/frame"
	"smarter-scale/internal/overlay"
	"smarter-scale/pkg/geometry"

	"gocv.io/x/gocv"
)

func TestParseROI(t *testing.T) {
	tests := []struct {
		in      string
		want    image.Rectangle
		wantErr bool
	}{
		{"", image.Rectangle{}, false},
		{"10,20,30,40", image.Rect(10, 20, 40, 60), false},
		{" 0, 0 ,5,5", image.Rect(0, 0, 5, 5), false},
		{"1,2,3", image.Rectangle{}, true},
		{"a,b,c,d", image.Rectangle{}, true},
		{"0,0,0,10", image.Rectangle{}, true},
	}
	for _, tt := range tests {
		got, err := parseROI(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: err=%v, wantErr=%v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("%q: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := summarize([]float64{4, 1, 3, 2, 5})
	if s.Frames != 5 || s.Mean != 3 || s.Median != 3 || s.Max != 5 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.StdDev <= 0 {
		t.Fatalf("expected positive spread, got %v", s.StdDev)
	}
	if got := summarize(nil); got.Frames != 0 {
		t.Fatalf("expected empty summary, got %+v", got)
	}
	if got := summarize([]float64{2}); got.StdDev != 0 || got.Mean != 2 {
		t.Fatalf("single sample: %+v", got)
	}
}

func writeFrame(t *testing.T, dir, name, text string) string {
	t.Helper()
	m, err := digittest.StripedMat(text, geometry.PointInt{X: 20, Y: 20}, 2)
	if err != nil {
		t.Fatalf("%v", err)
	}
	defer m.Close()
	path := filepath.Join(dir, name)
	if !gocv.IMWrite(path, m) {
		t.Fatalf("failed to write %s", path)
	}
	return path
}

func TestLoadFramesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFrame(t, dir, "a.png", "1"),
		writeFrame(t, dir, "b.png", "11"),
		writeFrame(t, dir, "c.png", "111"),
	}
	frames, err := loadFrames(paths)
	if err != nil {
		t.Fatalf("loadFrames: %v", err)
	}
	defer func() {
		for _, f := range frames {
			f.Close()
		}
	}()
	for i, f := range frames {
		_, cols := digittest.Size(string([]rune("111")[:i+1]), geometry.PointInt{X: 20, Y: 20}, 2)
		if f.Cols() != cols {
			t.Fatalf("frame %d: got width %d, want %d", i, f.Cols(), cols)
		}
	}

	if _, err := loadFrames(append(paths, filepath.Join(dir, "missing.png"))); err == nil {
		t.Fatalf("expected error for missing frame")
	}
}

func TestWriteOverlay(t *testing.T) {
	dir := t.TempDir()
	gray, err := frame.LoadGray(writeFrame(t, dir, "in.png", "72"))
	if err != nil {
		t.Fatalf("LoadGray: %v", err)
	}
	defer gray.Close()

	d := digit.NewDecoder(digit.DefaultParams(), digit.WithDebug(true))
	res := d.DecodeFrame(gray, image.Rect(0, 0, gray.Cols(), gray.Rows()))
	if res.Reading != "72" {
		t.Fatalf("reading: got %q, want 72", res.Reading)
	}

	style := overlay.DefaultStyle(gray.Cols())
	for _, pure := range []bool{false, true} {
		out := filepath.Join(dir, "out.png")
		if pure {
			out = filepath.Join(dir, "out-pure.png")
		}
		if err := writeOverlay(out, gray, res.Overlay, "72", style, pure); err != nil {
			t.Fatalf("pure=%v: %v", pure, err)
		}
		info, err := os.Stat(out)
		if err != nil || info.Size() == 0 {
			t.Fatalf("pure=%v: overlay file missing: %v", pure, err)
		}
	}
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	path := writeFrame(t, dir, "frame.png", "723")
	rows, cols := digittest.Size("723", geometry.PointInt{X: 20, Y: 20}, 2)
	roi := fmt.Sprintf("0,0,%d,%d", cols, rows)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no frames", nil, 1},
		{"version", []string{"-version"}, 0},
		{"unknown flag", []string{"-bogus"}, 1},
		{"bad roi", []string{"-roi", "1,2", path}, 1},
		{"missing file", []string{filepath.Join(dir, "missing.png")}, 1},
		{"too few frames", []string{"-roi", roi, path}, 2},
		{"confirmed", []string{"-roi", roi, "-repeat", "12", path}, 0},
	}
	for _, tt := range tests {
		if got := run(tt.args); got != tt.want {
			t.Errorf("%s: exit code %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestRunWritesDebugOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeFrame(t, dir, "frame.png", "723")
	rows, cols := digittest.Size("723", geometry.PointInt{X: 20, Y: 20}, 2)

	overlays := filepath.Join(dir, "overlays")
	grids := filepath.Join(dir, "grids")
	args := []string{
		"-roi", fmt.Sprintf("0,0,%d,%d", cols, rows),
		"-repeat", "12",
		"-overlay", overlays,
		"-grid", grids,
		"-json",
		path,
	}
	if code := run(args); code != 0 {
		t.Fatalf("exit code %d, want 0", code)
	}

	written, err := os.ReadDir(overlays)
	if err != nil {
		t.Fatalf("reading overlay dir: %v", err)
	}
	if len(written) != 11 {
		t.Fatalf("expected one overlay per processed frame, got %d", len(written))
	}
	grid, err := filepath.Glob(filepath.Join(grids, "*.jpg"))
	if err != nil || len(grid) != 1 {
		t.Fatalf("expected one debug grid, got %v (%v)", grid, err)
	}
}
