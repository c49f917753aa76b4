package jsonfile

import (
	"math"
	"strconv"
)

// NextID computes the next numeric identifier for a collection: the
// maximum existing id that coerces to a finite number, plus one. Ids
// that do not parse are ignored, so a collection polluted with opaque
// keys still allocates safely above zero.
func NextID(ids []string) string {
	var max float64
	for _, id := range ids {
		n, err := strconv.ParseFloat(id, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			continue
		}
		if n > max {
			max = n
		}
	}
	return strconv.FormatInt(int64(max)+1, 10)
}
