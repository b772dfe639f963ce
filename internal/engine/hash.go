package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"strings"
)

// stableHash maps its inputs to a uint64 that is identical across runs,
// platforms and process restarts. Scheduling never touches a
// non-deterministic random source.
func stableHash(parts ...string) uint64 {
	sum := sha256.Sum256([]byte(strings.Join(parts, "||")))
	return binary.BigEndian.Uint64(sum[:8])
}

// jitterScale bounds the tie-break jitter well below every scoring
// coefficient so it can only separate exact ties.
const jitterScale = 0.01

// jitter derives a tie-break value in [0, jitterScale) from the seed and
// the identifying parts.
func jitter(seed int64, parts ...string) float64 {
	h := stableHash(append([]string{strconv.FormatInt(seed, 10)}, parts...)...)
	return float64(h%1_000_000) / 1_000_000 * jitterScale
}
