package digit

import (
	"sort"
	"strings"
)

// Assemble orders decoded clusters left to right by the x of their union
// rectangle and concatenates their digits. Ties fall back to y, the union
// size, the signature and finally the digit, so the result never depends on
// cluster order. Clusters without a digit are skipped.
func Assemble(clusters []Cluster) string {
	idx := make([]int, 0, len(clusters))
	for i, c := range clusters {
		if c.Decoded() {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(a, b int) bool {
		ca, cb := clusters[idx[a]], clusters[idx[b]]
		ua, ub := ca.Union, cb.Union
		switch {
		case ua.X != ub.X:
			return ua.X < ub.X
		case ua.Y != ub.Y:
			return ua.Y < ub.Y
		case ua.Width != ub.Width:
			return ua.Width < ub.Width
		case ua.Height != ub.Height:
			return ua.Height < ub.Height
		case ca.Signature != cb.Signature:
			return ca.Signature < cb.Signature
		}
		return ca.Digit < cb.Digit
	})

	var b strings.Builder
	for _, i := range idx {
		b.WriteRune(clusters[i].Digit)
	}
	return b.String()
}
