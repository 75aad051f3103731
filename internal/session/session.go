// Package session runs one weight measurement: frames are fed to a digit
// decoder until a reading is confirmed, which ends the session.
package session

import (
	"errors"
	"image"
	"math"
	"sync"
	"time"

	"smarter-scale/internal/digit"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// DefaultDebugFrames is the number of recent input frames kept for export.
const DefaultDebugFrames = 9

// ErrNotRunning is returned when a frame arrives outside a session.
var ErrNotRunning = errors.New("session not running")

// Options configures a session.
type Options struct {
	DecimalPlaces int  `json:"decimal_places"`
	Unit          Unit `json:"unit"`
	DebugFrames   int  `json:"debug_frames"` // 0 disables capture
}

// DefaultOptions returns one decimal place in kilograms with frame capture.
func DefaultOptions() Options {
	return Options{
		DecimalPlaces: 1,
		Unit:          UnitKilograms,
		DebugFrames:   DefaultDebugFrames,
	}
}

// Result is what ProcessFrame returns for each frame.
type Result struct {
	Frame       digit.Frame
	Measurement *Measurement // Set on the frame that confirmed a reading
}

// Session wraps a decoder with start/stop state.
type Session struct {
	mu      sync.Mutex
	decoder *digit.Decoder
	opts    Options
	log     zerolog.Logger

	id      uuid.UUID
	running bool
	started time.Time
	frames  int
	last    *Measurement
	debug   []gocv.Mat // Oldest first
}

// New creates an idle session around decoder.
func New(decoder *digit.Decoder, opts Options, log zerolog.Logger) *Session {
	if opts.DebugFrames < 0 {
		opts.DebugFrames = 0
	}
	if opts.Unit == "" {
		opts.Unit = UnitKilograms
	}
	return &Session{
		decoder: decoder,
		opts:    opts,
		log:     log.With().Str("component", "session").Logger(),
	}
}

// Start begins a new measurement. The decoder history, the captured debug
// frames and the previous measurement are discarded.
func (s *Session) Start() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = uuid.New()
	s.running = true
	s.started = time.Now()
	s.frames = 0
	s.last = nil
	s.decoder.Reset()
	s.releaseDebugLocked()

	s.log.Info().Str("session", s.id.String()).Msg("started")
	return s.id.String()
}

// Stop ends the measurement without a result. Stopping an idle session is a
// no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.log.Info().Str("session", s.id.String()).Int("frames", s.frames).Msg("stopped")
}

// Running reports whether frames are being accepted.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ID returns the current or last session ID, empty before the first Start.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == uuid.Nil {
		return ""
	}
	return s.id.String()
}

// Measurement returns the result of the last confirmed session.
func (s *Session) Measurement() (Measurement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Measurement{}, false
	}
	return *s.last, true
}

// ProcessFrame decodes one grayscale frame. When the decoder confirms a
// reading, the weight is parsed, the session stops and the measurement is
// returned in the result.
func (s *Session) ProcessFrame(gray gocv.Mat, roi image.Rectangle) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return Result{}, ErrNotRunning
	}
	s.frames++
	s.captureLocked(gray)

	frame := s.decoder.DecodeFrame(gray, roi)
	res := Result{Frame: frame}

	reading, ok := s.decoder.Confirmed()
	if !ok {
		return res, nil
	}

	m := &Measurement{
		SessionID: s.id.String(),
		Reading:   reading,
		Unit:      s.opts.Unit,
		Frames:    s.frames,
		Started:   s.started,
		Confirmed: time.Now(),
	}
	w, err := ParseWeight(reading, s.opts.DecimalPlaces)
	if err != nil {
		m.Weight = math.NaN()
		m.Bad = true
		s.log.Warn().Err(err).Str("session", s.id.String()).Msg("bad reading")
	} else {
		m.Weight = w
		s.log.Info().
			Str("session", s.id.String()).
			Str("reading", reading).
			Float64("weight", w).
			Str("unit", string(m.Unit)).
			Int("frames", s.frames).
			Msg("confirmed")
	}

	s.last = m
	s.running = false
	res.Measurement = m
	return res, nil
}

// captureLocked keeps a copy of the frame, evicting the oldest.
func (s *Session) captureLocked(gray gocv.Mat) {
	if s.opts.DebugFrames == 0 || gray.Empty() {
		return
	}
	for len(s.debug) >= s.opts.DebugFrames {
		s.debug[0].Close()
		s.debug = s.debug[1:]
	}
	s.debug = append(s.debug, gray.Clone())
}

func (s *Session) releaseDebugLocked() {
	for _, m := range s.debug {
		m.Close()
	}
	s.debug = nil
}

// DebugFrameCount returns the number of captured frames.
func (s *Session) DebugFrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.debug)
}

// Close releases captured frames.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseDebugLocked()
}
