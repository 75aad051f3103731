// Package config loads decoder, session and logging settings from an
// optional config file and SMARTERSCALE_* environment variables.
package config

import (
	"fmt"
	"strings"

	"smarter-scale/internal/digit"
	"smarter-scale/internal/logging"
	"smarter-scale/internal/session"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, with dots in keys
// replaced by underscores: decoder.min_fill_ratio is
// SMARTERSCALE_DECODER_MIN_FILL_RATIO.
const EnvPrefix = "SMARTERSCALE"

// Config is the full runtime configuration.
type Config struct {
	Decoder digit.Params
	Session session.Options
	Log     logging.Options
	Debug   bool // Overlay generation and debug frame capture
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Decoder: digit.DefaultParams(),
		Session: session.DefaultOptions(),
		Log:     logging.DefaultOptions(),
	}
}

// New returns a viper instance with every key defaulted, so environment
// overrides resolve even for keys absent from the config file.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	p := d.Decoder
	v.SetDefault("debug", d.Debug)

	v.SetDefault("decoder.median_blur_fraction", p.MedianBlurFraction)
	v.SetDefault("decoder.adaptive_threshold_fraction", p.AdaptiveThresholdFraction)
	v.SetDefault("decoder.adaptive_threshold_c", p.AdaptiveThresholdC)
	v.SetDefault("decoder.open_kernel_radius", p.OpenKernelRadius)
	v.SetDefault("decoder.open_iterations", p.OpenIterations)
	v.SetDefault("decoder.invert_polarity", p.InvertPolarity)
	v.SetDefault("decoder.nested_contours", p.NestedContours)
	v.SetDefault("decoder.min_segment_pixels", p.MinSegmentPixels)
	v.SetDefault("decoder.min_segment_fraction", p.MinSegmentFraction)
	v.SetDefault("decoder.min_segment_floor", p.MinSegmentFloor)
	v.SetDefault("decoder.min_wide_ratio", p.MinWideRatio)
	v.SetDefault("decoder.max_wide_ratio", p.MaxWideRatio)
	v.SetDefault("decoder.min_tall_ratio", p.MinTallRatio)
	v.SetDefault("decoder.max_tall_ratio", p.MaxTallRatio)
	v.SetDefault("decoder.min_fill_ratio", p.MinFillRatio)
	v.SetDefault("decoder.expand_ratio", p.ExpandRatio)
	v.SetDefault("decoder.min_assumed_height", p.MinAssumedHeight)
	v.SetDefault("decoder.max_assumed_height", p.MaxAssumedHeight)
	v.SetDefault("decoder.roi_fraction", p.ROIFraction)
	v.SetDefault("decoder.history_size", p.HistorySize)
	v.SetDefault("decoder.confirm_threshold", p.ConfirmThreshold)

	v.SetDefault("session.decimal_places", d.Session.DecimalPlaces)
	v.SetDefault("session.unit", string(d.Session.Unit))
	v.SetDefault("session.debug_frames", d.Session.DebugFrames)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", string(d.Log.Format))
	return v
}

// Load reads path (JSON, YAML or TOML by extension) when it is not empty,
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	var c Config
	c.Debug = v.GetBool("debug")

	c.Decoder = digit.Params{
		MedianBlurFraction:        v.GetFloat64("decoder.median_blur_fraction"),
		AdaptiveThresholdFraction: v.GetFloat64("decoder.adaptive_threshold_fraction"),
		AdaptiveThresholdC:        v.GetFloat64("decoder.adaptive_threshold_c"),
		OpenKernelRadius:          v.GetInt("decoder.open_kernel_radius"),
		OpenIterations:            v.GetInt("decoder.open_iterations"),
		InvertPolarity:            v.GetBool("decoder.invert_polarity"),
		NestedContours:            v.GetBool("decoder.nested_contours"),
		MinSegmentPixels:          v.GetInt("decoder.min_segment_pixels"),
		MinSegmentFraction:        v.GetFloat64("decoder.min_segment_fraction"),
		MinSegmentFloor:           v.GetInt("decoder.min_segment_floor"),
		MinWideRatio:              v.GetFloat64("decoder.min_wide_ratio"),
		MaxWideRatio:              v.GetFloat64("decoder.max_wide_ratio"),
		MinTallRatio:              v.GetFloat64("decoder.min_tall_ratio"),
		MaxTallRatio:              v.GetFloat64("decoder.max_tall_ratio"),
		MinFillRatio:              v.GetFloat64("decoder.min_fill_ratio"),
		ExpandRatio:               v.GetFloat64("decoder.expand_ratio"),
		MinAssumedHeight:          v.GetFloat64("decoder.min_assumed_height"),
		MaxAssumedHeight:          v.GetFloat64("decoder.max_assumed_height"),
		ROIFraction:               v.GetFloat64("decoder.roi_fraction"),
		HistorySize:               v.GetInt("decoder.history_size"),
		ConfirmThreshold:          v.GetInt("decoder.confirm_threshold"),
	}

	unit, err := session.ParseUnit(v.GetString("session.unit"))
	if err != nil {
		return Config{}, fmt.Errorf("session.unit: %w", err)
	}
	c.Session = session.Options{
		DecimalPlaces: v.GetInt("session.decimal_places"),
		Unit:          unit,
		DebugFrames:   v.GetInt("session.debug_frames"),
	}

	c.Log = logging.Options{
		Level:  v.GetString("log.level"),
		Format: logging.Format(strings.ToLower(v.GetString("log.format"))),
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the decoder cannot run with.
func (c Config) Validate() error {
	p := c.Decoder
	switch {
	case p.MinWideRatio <= 0 || p.MaxWideRatio < p.MinWideRatio:
		return fmt.Errorf("decoder: invalid wide ratio window [%g, %g]", p.MinWideRatio, p.MaxWideRatio)
	case p.MinTallRatio <= 0 || p.MaxTallRatio < p.MinTallRatio:
		return fmt.Errorf("decoder: invalid tall ratio window [%g, %g]", p.MinTallRatio, p.MaxTallRatio)
	case p.MinFillRatio < 0 || p.MinFillRatio > 1:
		return fmt.Errorf("decoder: min_fill_ratio %g outside [0, 1]", p.MinFillRatio)
	case p.ROIFraction <= 0 || p.ROIFraction > 1:
		return fmt.Errorf("decoder: roi_fraction %g outside (0, 1]", p.ROIFraction)
	case p.OpenKernelRadius < 0 || p.OpenIterations < 0:
		return fmt.Errorf("decoder: negative opening kernel")
	case p.HistorySize <= 0:
		return fmt.Errorf("decoder: history_size must be positive, got %d", p.HistorySize)
	case p.ConfirmThreshold < 0 || p.ConfirmThreshold >= p.HistorySize:
		return fmt.Errorf("decoder: confirm_threshold %d must be below history_size %d", p.ConfirmThreshold, p.HistorySize)
	case c.Session.DecimalPlaces < 0:
		return fmt.Errorf("session: decimal_places must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.Log.Format != logging.FormatConsole && c.Log.Format != logging.FormatJSON {
		return fmt.Errorf("log: invalid format %q", c.Log.Format)
	}
	return nil
}
