package modes

import "sync"

// maxMEType and maxMESubtype bound the ME type/subtype histogram: type
// is a 5-bit field (0-31), subtype a 3-bit field (0-7).
const (
	maxMEType    = 32
	maxMESubtype = 8
)

// UnrecognizedMEStats counts DF17 extended-squitter messages whose ME
// type/subtype combination this decoder does not interpret, mirroring
// dump1090's add_unrecognized_ME/print_unrecognized_ME bookkeeping.
type UnrecognizedMEStats struct {
	mu       sync.Mutex
	subtypes [maxMEType][maxMESubtype]uint64
}

// Add records one occurrence of the given ME type/subtype. Out of
// range values are silently dropped, matching the bounds check in the
// source this mirrors.
func (s *UnrecognizedMEStats) Add(meType, meSubtype uint8) {
	if int(meType) >= maxMEType || int(meSubtype) >= maxMESubtype {
		return
	}
	s.mu.Lock()
	s.subtypes[meType][meSubtype]++
	s.mu.Unlock()
}

// Total sums every recorded occurrence across all types and subtypes.
func (s *UnrecognizedMEStats) Total() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total uint64
	for _, row := range s.subtypes {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// ByType returns, for every ME type with at least one recorded hit,
// the list of subtypes observed under it (sorted ascending). Useful
// for a one-line-per-type log summary.
func (s *UnrecognizedMEStats) ByType() map[int][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int][]int)
	for t, row := range s.subtypes {
		var subs []int
		for st, n := range row {
			if n > 0 {
				subs = append(subs, st)
			}
		}
		if len(subs) > 0 {
			out[t] = subs
		}
	}
	return out
}
