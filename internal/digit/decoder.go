package digit

import (
	"image"
	"sync"

	"smarter-scale/internal/stability"
	"smarter-scale/pkg/geometry"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Decoder runs the per-frame pipeline and keeps the stability history of
// one measurement session. Calls are serialized internally, so a Reset can
// never interleave with a frame's push.
type Decoder struct {
	mu      sync.Mutex
	params  Params
	history *stability.Buffer
	debug   bool
	log     zerolog.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithDebug enables overlay generation for every decoded frame.
func WithDebug(debug bool) Option {
	return func(d *Decoder) { d.debug = debug }
}

// WithLogger sets the logger used for per-frame debug events.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Decoder) { d.log = log.With().Str("component", "digit").Logger() }
}

// NewDecoder creates a decoder with an empty history.
func NewDecoder(params Params, opts ...Option) *Decoder {
	d := &Decoder{
		params:  params,
		history: stability.New(params.HistorySize, params.ConfirmThreshold),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CenterROI returns a centered square whose side is fraction of the smaller
// frame dimension.
func CenterROI(size image.Point, fraction float64) image.Rectangle {
	side := int(float64(min(size.X, size.Y)) * fraction)
	if side <= 0 {
		return image.Rectangle{}
	}
	x := (size.X - side) / 2
	y := (size.Y - side) / 2
	return image.Rect(x, y, x+side, y+side)
}

// view places a crop within its frame, for overlay coordinates.
type view struct {
	crop  image.Rectangle
	frame image.Point
}

// DecodeFrame decodes the region of interest of a grayscale frame.
// An empty roi selects the default centered ROI. Degenerate input yields an
// empty reading, which is still recorded in the history.
func (d *Decoder) DecodeFrame(gray gocv.Mat, roi image.Rectangle) Frame {
	d.mu.Lock()
	defer d.mu.Unlock()

	frameSize := image.Point{X: gray.Cols(), Y: gray.Rows()}
	if roi.Empty() {
		roi = CenterROI(frameSize, d.params.ROIFraction)
	}
	roi = roi.Intersect(image.Rectangle{Max: frameSize})
	v := view{crop: roi, frame: frameSize}

	if gray.Empty() || roi.Empty() {
		return d.decode(nil, nil, d.params, v)
	}

	crop := gray.Region(roi)
	defer crop.Close()

	mask := Binarize(crop, frameSize.X, d.params)
	defer mask.Close()

	rects, sat := ExtractRegions(mask, d.params.NestedContours)
	return d.decode(rects, sat, d.params.ForWidth(frameSize.X), v)
}

// DecodeMask decodes an already binarized mask, skipping the binarizer.
func (d *Decoder) DecodeMask(mask gocv.Mat) Frame {
	d.mu.Lock()
	defer d.mu.Unlock()

	size := image.Point{X: mask.Cols(), Y: mask.Rows()}
	rects, sat := ExtractRegions(mask, d.params.NestedContours)
	return d.decode(rects, sat, d.params, view{crop: image.Rectangle{Max: size}, frame: size})
}

// DecodeRegions decodes precomputed candidate rectangles against the
// summed-area table of their mask.
func (d *Decoder) DecodeRegions(rects []geometry.RectInt, sat *SummedArea) Frame {
	d.mu.Lock()
	defer d.mu.Unlock()

	var size image.Point
	if sat != nil {
		size = image.Point{X: sat.Cols(), Y: sat.Rows()}
	}
	return d.decode(rects, sat, d.params, view{crop: image.Rectangle{Max: size}, frame: size})
}

func (d *Decoder) decode(rects []geometry.RectInt, sat *SummedArea, params Params, v view) Frame {
	cls := ClassifySegments(rects, sat, params)
	clusters := ClusterSegments(cls.Segments)
	Decode(clusters)

	for _, c := range clusters {
		ev := d.log.Debug().
			Str("union", c.Union.String()).
			Int("segments", len(c.Segments)).
			Bool("valid", c.Valid)
		if c.Valid {
			ev = ev.Str("signature", c.Signature.String())
		}
		if c.Decoded() {
			ev = ev.Str("digit", string(c.Digit))
		}
		ev.Msg("cluster")
	}

	reading := Assemble(clusters)
	d.log.Debug().
		Str("reading", reading).
		Int("candidates", len(rects)).
		Int("segments", len(cls.Segments)).
		Int("ignored", len(cls.Ignored)).
		Msg("parsed")

	d.history.Push(reading)

	frame := Frame{Reading: reading, Clusters: clusters}
	if d.debug {
		frame.Overlay = buildOverlay(rects, cls, clusters, reading, params, v)
	}
	return frame
}

// buildOverlay translates crop-space results into frame coordinates.
// Raw contours come first so the filtered tags draw over them.
func buildOverlay(raw []geometry.RectInt, cls Classification, clusters []Cluster, reading string, params Params, v view) *Overlay {
	offset := geometry.PointInt{X: v.crop.Min.X, Y: v.crop.Min.Y}
	o := &Overlay{
		Text:       reading,
		TextOrigin: geometry.PointInt{X: v.crop.Min.X, Y: v.crop.Max.Y},
	}
	for _, r := range raw {
		o.Rects = append(o.Rects, OverlayRect{Rect: r.Translate(offset), Tag: TagContour})
	}
	for _, r := range cls.Ignored {
		o.Rects = append(o.Rects, OverlayRect{Rect: r.Translate(offset), Tag: TagIgnored})
	}
	for _, r := range cls.Segments {
		o.Rects = append(o.Rects, OverlayRect{Rect: r.Translate(offset), Tag: TagSegment})
	}
	for _, c := range clusters {
		o.Rects = append(o.Rects, OverlayRect{Rect: c.Union.Translate(offset), Tag: TagCluster})
	}

	if v.frame.Y > 0 && !v.crop.Empty() {
		for _, frac := range []float64{params.MinAssumedHeight, params.MaxAssumedHeight} {
			h := int(float64(v.frame.Y) * frac)
			if h <= 0 {
				continue
			}
			o.Rects = append(o.Rects, OverlayRect{
				Rect: geometry.NewRectInt(v.crop.Min.X, (v.frame.Y-h)/2, v.crop.Dx(), h),
				Tag:  TagGuide,
			})
		}
	}
	return o
}

// Confirmed returns the stabilized reading, if any.
func (d *Decoder) Confirmed() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.Confirmed()
}

// Reset clears the history, starting a new measurement.
func (d *Decoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history.Reset()
	d.log.Debug().Msg("history reset")
}

// History returns the recent readings, newest first.
func (d *Decoder) History() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.Entries()
}
