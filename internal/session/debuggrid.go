package session

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"
)

// ErrNoDebugFrames is returned when there is nothing to export.
var ErrNoDebugFrames = errors.New("no debug frames captured")

// gridShape returns columns and rows for n tiles: round(sqrt(n)) columns.
func gridShape(n int) (cols, rows int) {
	cols = int(math.Round(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	rows = (n + cols - 1) / cols
	return cols, rows
}

// DebugGrid tiles the captured frames, oldest first, into one image sized
// for the configured capture count. Unused tiles stay black. All frames
// must share one size. The caller owns the returned Mat.
func (s *Session) DebugGrid() (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.debug) == 0 {
		return gocv.NewMat(), ErrNoDebugFrames
	}
	first := s.debug[0]
	w, h := first.Cols(), first.Rows()
	if w == 0 || h == 0 {
		return gocv.NewMat(), ErrNoDebugFrames
	}

	cols, rows := gridShape(max(s.opts.DebugFrames, len(s.debug)))
	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h*rows, w*cols, first.Type())
	for i, m := range s.debug {
		if m.Cols() != w || m.Rows() != h || m.Type() != first.Type() {
			out.Close()
			return gocv.NewMat(), fmt.Errorf("debug frame %d is %dx%d, want %dx%d", i, m.Cols(), m.Rows(), w, h)
		}
		x, y := i%cols, i/cols
		tile := out.Region(image.Rect(x*w, y*h, (x+1)*w, (y+1)*h))
		m.CopyTo(&tile)
		tile.Close()
	}
	return out, nil
}

// SaveDebugGrid writes the debug grid as a JPEG into dir and releases the
// captured frames. It returns the written path.
func (s *Session) SaveDebugGrid(dir string) (string, error) {
	grid, err := s.DebugGrid()
	defer grid.Close()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	name := fmt.Sprintf("smarterscale-%s.jpg", time.Now().Format("20060102150405"))
	path := filepath.Join(dir, name)
	if !gocv.IMWrite(path, grid) {
		return "", fmt.Errorf("failed to write debug grid %s", path)
	}

	s.mu.Lock()
	s.releaseDebugLocked()
	s.mu.Unlock()

	s.log.Info().Str("path", path).Msg("debug grid saved")
	return path, nil
}
