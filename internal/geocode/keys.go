package geocode

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
)

// cacheKey builds the canonical cache key for an operation and its
// parameters. Parameter names are sorted before hashing so two calls with
// the same logical parameters collide regardless of insertion order.
func cacheKey(operation string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(operation))
	for _, name := range names {
		h.Write([]byte{0})
		h.Write([]byte(name))
		h.Write([]byte{'='})
		h.Write([]byte(params[name]))
	}

	return "geocode:" + operation + ":" + hex.EncodeToString(h.Sum(nil))
}

// roundCoord quantizes a coordinate to 4 decimal degrees (~11 m), so
// repeated map clicks near the same spot share a reverse-geocode entry.
func roundCoord(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// coordKey formats a quantized coordinate for cache-key use.
func coordKey(v float64) string {
	return strconv.FormatFloat(roundCoord(v), 'f', 4, 64)
}
