package core

import (
	"errors"
	"math"
)

// rankCapacityMillis is 2^46: the largest power of two such that a
// millisecond timestamp still fits the fractional part of a float64
// without rounding loss, given integer parts up to 99 move counts.
const rankCapacityMillis = int64(1) << 46

// ErrRankOverflow means the wall clock has advanced past the encoding
// capacity of the fractional part. Callers drop the submission and log.
var ErrRankOverflow = errors.New("timestamp exceeds rank encoding capacity")

// EncodeRank folds a solve into a single totally ordered score: the
// integer part is the move count, the fraction 1 - t/2^46 encodes
// recency. The fraction shrinks as time advances, so an ascending sort
// orders primarily by move count and prefers the most recent submission
// among equal counts.
func EncodeRank(nRotations int, submittedAtMillis int64) (float64, error) {
	if nRotations < 0 {
		return 0, errors.New("negative rotation count")
	}
	if submittedAtMillis >= rankCapacityMillis {
		return 0, ErrRankOverflow
	}
	fraction := 1 - float64(submittedAtMillis)/float64(rankCapacityMillis)
	return float64(nRotations) + fraction, nil
}

// DecodeRank recovers the move count from an encoded rank. The recency
// fraction is never decoded back to a timestamp.
func DecodeRank(rank float64) int {
	return int(math.Floor(rank))
}
