package utils

import "math"

// CreateRankList returns ranks 1..count for a list that is already sorted.
// Ranks past the uint16 range saturate.
func CreateRankList(count int) []uint16 {
	if count <= 0 {
		return nil
	}
	ranks := make([]uint16, count)
	for i := range ranks {
		ranks[i] = uint16(min(i+1, math.MaxUint16))
	}
	return ranks
}
