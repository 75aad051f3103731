// Command scaleread replays captured scale frames through a measurement
// session and prints the readings and the confirmed weight.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"smarter-scale/internal/config"
	"smarter-scale/internal/digit"
	"smarter-scale/internal/frame"
	"smarter-scale/internal/logging"
	"smarter-scale/internal/overlay"
	"smarter-scale/internal/session"
	"smarter-scale/internal/version"

	"gocv.io/x/gocv"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run does the work of main and returns the exit code, so deferred cleanup
// runs before the process exits.
func run(args []string) int {
	fs := flag.NewFlagSet("scaleread", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file (JSON, YAML or TOML)")
	roiFlag := fs.String("roi", "", "Region of interest as x,y,w,h (default: centered square)")
	debug := fs.Bool("debug", false, "Generate overlays and capture debug frames")
	overlayDir := fs.String("overlay", "", "Write per-frame overlay images to this directory")
	pureOverlay := fs.Bool("pure", false, "Draw overlays with the built-in bitmap font instead of OpenCV")
	gridDir := fs.String("grid", "", "Write the debug frame grid to this directory")
	repeat := fs.Int("repeat", 1, "Replay the frame sequence this many times")
	jsonOut := fs.Bool("json", false, "Print the measurement as JSON")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if *showVersion {
		fmt.Println(version.String("scaleread"))
		return 0
	}
	if fs.NArg() == 0 {
		fmt.Println("Usage: scaleread [-config file] [-roi x,y,w,h] [-debug] [-overlay dir] [-grid dir] <frames or directories...>")
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *debug || *overlayDir != "" || *gridDir != "" {
		cfg.Debug = true
	}
	if !cfg.Debug {
		cfg.Session.DebugFrames = 0
	}

	log, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}

	roi, err := parseROI(*roiFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -roi: %v\n", err)
		return 1
	}

	paths, err := frame.Collect(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list frames: %v\n", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "No frames found\n")
		return 1
	}

	frames, err := loadFrames(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer func() {
		for _, f := range frames {
			f.Close()
		}
	}()
	fmt.Printf("Loaded %d frames (%dx%d)\n", len(frames), frames[0].Cols(), frames[0].Rows())

	decoder := digit.NewDecoder(cfg.Decoder, digit.WithDebug(cfg.Debug), digit.WithLogger(log))
	sess := session.New(decoder, cfg.Session, log)
	defer sess.Close()
	id := sess.Start()
	fmt.Printf("Session %s\n", id)

	if *overlayDir != "" {
		if err := os.MkdirAll(*overlayDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create overlay directory: %v\n", err)
			return 1
		}
	}

	var timings []float64
	var measurement *session.Measurement
	style := overlay.DefaultStyle(frames[0].Cols())

replay:
	for pass := 0; pass < max(1, *repeat); pass++ {
		for i, f := range frames {
			start := time.Now()
			res, err := sess.ProcessFrame(f, roi)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Frame %s: %v\n", paths[i], err)
				return 1
			}
			timings = append(timings, float64(time.Since(start).Microseconds())/1000)

			fmt.Printf("%-40s %q\n", filepath.Base(paths[i]), res.Frame.Reading)

			if *overlayDir != "" && res.Frame.Overlay != nil {
				confirmed := ""
				if res.Measurement != nil {
					confirmed = res.Measurement.Reading
				}
				name := fmt.Sprintf("%03d-%s.png", pass*len(frames)+i, strings.TrimSuffix(filepath.Base(paths[i]), filepath.Ext(paths[i])))
				out := filepath.Join(*overlayDir, name)
				if err := writeOverlay(out, f, res.Frame.Overlay, confirmed, style, *pureOverlay); err != nil {
					log.Warn().Err(err).Str("path", out).Msg("overlay not written")
				}
			}

			if res.Measurement != nil {
				measurement = res.Measurement
				break replay
			}
		}
	}

	printTimings(timings)

	if *gridDir != "" {
		if path, err := sess.SaveDebugGrid(*gridDir); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save debug grid: %v\n", err)
		} else {
			fmt.Printf("Debug grid: %s\n", path)
		}
	}

	if measurement == nil {
		sess.Stop()
		fmt.Println("No stable reading")
		return 2
	}
	if *jsonOut {
		data, err := json.MarshalIndent(measurement, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode measurement: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	} else {
		fmt.Printf("Weight: %s (reading %q after %d frames)\n", measurement, measurement.Reading, measurement.Frames)
	}
	if measurement.Bad {
		return 3
	}
	return 0
}

// loadFrames decodes all files concurrently, keeping their order.
func loadFrames(paths []string) ([]gocv.Mat, error) {
	frames := make([]gocv.Mat, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup

	for i := range paths {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			frames[idx], errs[idx] = frame.LoadGray(paths[idx])
		}(i)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		for _, f := range frames {
			f.Close()
		}
		return nil, fmt.Errorf("failed to load frames: %w", err)
	}
	return frames, nil
}

// writeOverlay saves the frame with its overlay drawn on it.
func writeOverlay(path string, gray gocv.Mat, o *digit.Overlay, confirmed string, style overlay.Style, pure bool) error {
	if pure {
		img, err := frame.ToImage(gray)
		if err != nil {
			return err
		}
		rgba := image.NewRGBA(img.Bounds())
		for i, v := range img.Pix {
			rgba.Pix[i*4], rgba.Pix[i*4+1], rgba.Pix[i*4+2], rgba.Pix[i*4+3] = v, v, v, 255
		}
		overlay.DrawRGBA(rgba, o, style)

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		if err := png.Encode(f, rgba); err != nil {
			return fmt.Errorf("failed to encode %s: %w", path, err)
		}
		return nil
	}

	out := overlay.Render(gray, o, style)
	defer out.Close()
	overlay.DrawConfirmed(&out, confirmed, style)
	if !gocv.IMWrite(path, out) {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}
