package digit

import (
	"fmt"
	"math"
	"strings"

	"smarter-scale/pkg/geometry"
)

// NumSlots is the number of segment positions in a seven-segment digit.
const NumSlots = 7

// Slot positions as produced by the encoder: horizontal bars take
// sy (0..2), vertical bars take 3 + 2*sy + sx.
const (
	SlotTop = iota
	SlotMiddle
	SlotBottom
	SlotUpperLeft
	SlotUpperRight
	SlotLowerLeft
	SlotLowerRight
)

// Signature is a 7-bit pattern of occupied slots; slot i is bit 6-i.
type Signature uint8

// SignatureOf builds a signature from per-slot flags, slot 0 first.
func SignatureOf(slots [NumSlots]bool) Signature {
	var sig Signature
	for _, on := range slots {
		sig <<= 1
		if on {
			sig |= 1
		}
	}
	return sig
}

// Has reports whether the given slot is occupied.
func (s Signature) Has(slot int) bool {
	return s&(1<<(NumSlots-1-slot)) != 0
}

// String renders the signature as slot flags, e.g. "1011111".
func (s Signature) String() string {
	var b strings.Builder
	for i := 0; i < NumSlots; i++ {
		if s.Has(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// digitTable maps every 7-bit signature to a digit, 0 meaning none.
var digitTable = buildDigitTable()

func buildDigitTable() [1 << NumSlots]rune {
	patterns := []struct {
		digit rune
		slots string
	}{
		{'0', "1011111"},
		{'1', "0001010"},
		{'2', "1110110"},
		{'3', "1110101"},
		{'4', "0101101"},
		{'5', "1111001"},
		{'6', "1111011"},
		{'7', "1000101"},
		{'8', "1111111"},
		{'9', "1111101"},
	}

	var table [1 << NumSlots]rune
	for _, p := range patterns {
		var slots [NumSlots]bool
		for i := range slots {
			slots[i] = p.slots[i] == '1'
		}
		sig := SignatureOf(slots)
		if table[sig] != 0 {
			panic(fmt.Sprintf("digit: signature %s mapped twice", sig))
		}
		table[sig] = p.digit
	}
	return table
}

// Lookup returns the digit for a signature.
func Lookup(sig Signature) (rune, bool) {
	if int(sig) >= len(digitTable) {
		return 0, false
	}
	d := digitTable[sig]
	return d, d != 0
}

// SlotOf returns the slot a segment occupies within a cluster's union
// rectangle. The result may fall outside [0, NumSlots) for malformed
// geometry.
func SlotOf(seg, union geometry.RectInt) int {
	if union.Width <= 0 || union.Height <= 0 {
		return -1
	}
	sx := roundHalfUp(float64(seg.X-union.X) / float64(union.Width))
	sy := roundHalfUp(2 * float64(seg.Y-union.Y) / float64(union.Height))
	if seg.Wide() {
		return sy
	}
	return 3 + 2*sy + sx
}

// Encode computes the cluster signature. ok is false if any member lands
// outside the seven slots, in which case the whole cluster is unusable.
func Encode(c Cluster) (sig Signature, ok bool) {
	var slots [NumSlots]bool
	for _, seg := range c.Segments {
		idx := SlotOf(seg, c.Union)
		if idx < 0 || idx >= NumSlots {
			return 0, false
		}
		slots[idx] = true
	}
	return SignatureOf(slots), true
}

// Decode encodes every cluster and looks up its digit in place.
func Decode(clusters []Cluster) {
	for i := range clusters {
		sig, ok := Encode(clusters[i])
		clusters[i].Signature = sig
		clusters[i].Valid = ok
		clusters[i].Digit = 0
		if !ok {
			continue
		}
		if d, found := Lookup(sig); found {
			clusters[i].Digit = d
		}
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
