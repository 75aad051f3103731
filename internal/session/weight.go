package session

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Unit is the weight unit shown by the scale.
type Unit string

const (
	UnitKilograms Unit = "kg"
	UnitPounds    Unit = "lb"
)

// ParseUnit converts "kg" or "lb" to a Unit.
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case UnitKilograms:
		return UnitKilograms, nil
	case UnitPounds:
		return UnitPounds, nil
	default:
		return "", fmt.Errorf("invalid weight unit %q", s)
	}
}

// ParseWeight converts a confirmed digit string into a weight by placing the
// decimal point before the last decimals digits, so "723" with one decimal
// is 72.3. Scales do not display the point as a segment.
func ParseWeight(reading string, decimals int) (float64, error) {
	if reading == "" {
		return math.NaN(), fmt.Errorf("empty reading")
	}
	if decimals < 0 {
		return math.NaN(), fmt.Errorf("invalid decimal places %d", decimals)
	}
	text := reading
	if decimals > 0 {
		if pad := decimals - len(reading); pad > 0 {
			text = strings.Repeat("0", pad) + text
		}
		split := len(text) - decimals
		text = text[:split] + "." + text[split:]
	}
	w, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("parse reading %q: %w", reading, err)
	}
	return w, nil
}

// Measurement is the outcome of one session.
type Measurement struct {
	SessionID string    `json:"session_id"`
	Reading   string    `json:"reading"`
	Weight    float64   `json:"weight"` // NaN if Bad
	Unit      Unit      `json:"unit"`
	Bad       bool      `json:"bad"`
	Frames    int       `json:"frames"`
	Started   time.Time `json:"started"`
	Confirmed time.Time `json:"confirmed"`
}

// String renders the weight the way the scale shows it, or BAD.
func (m Measurement) String() string {
	if m.Bad {
		return "BAD"
	}
	return strconv.FormatFloat(m.Weight, 'f', -1, 64) + " " + string(m.Unit)
}

// MarshalJSON encodes a bad weight as null.
func (m Measurement) MarshalJSON() ([]byte, error) {
	type plain Measurement
	out := struct {
		plain
		Weight *float64 `json:"weight"`
	}{plain: plain(m)}
	if !m.Bad && !math.IsNaN(m.Weight) && !math.IsInf(m.Weight, 0) {
		out.Weight = &m.Weight
	}
	return json.Marshal(out)
}
