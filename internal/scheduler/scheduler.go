// Package scheduler partitions the connected probe pool across RF
// chips by scan-time pressure, then splits each chip's channel set
// across its assigned probes.
package scheduler

import (
	"math"
	"sort"
)

// Chip is the minimal surface the scheduler needs from an RF chip:
// a name for diagnostics and its current aggregate scan time.
type Chip interface {
	Name() string
	ScanTimeMicros() int64
}

// ProbeChips reports which chip names a probe physically hosts.
type ProbeChips interface {
	ChipNames() []string
}

// Assignment maps a probe (by index into the input slice) to the chip
// name it was assigned to scan.
type Assignment struct {
	ProbeIndex int
	ChipName   string
}

type chipState struct {
	name     string
	scanTime int64
	count    int
}

// Assign computes the probe→chip assignment: a probe that hosts only
// one chip is committed to it first; every other probe is then handed,
// one at a time, to whichever chip currently has the highest
// pressure-per-assigned-probe (chips with zero assigned probes count
// as infinite pressure). Chips with scan_time == 0 are dropped before
// assignment. Order is stable on ties.
func Assign(probes []ProbeChips, chips []Chip) []Assignment {
	states := make([]*chipState, 0, len(chips))
	byName := make(map[string]*chipState)
	for _, c := range chips {
		if c.ScanTimeMicros() == 0 {
			continue
		}
		s := &chipState{name: c.Name(), scanTime: c.ScanTimeMicros()}
		states = append(states, s)
		byName[c.Name()] = s
	}

	assignments := make([]Assignment, 0, len(probes))
	var free []int

	for i, p := range probes {
		names := p.ChipNames()
		if len(names) == 1 {
			if s, ok := byName[names[0]]; ok {
				s.count++
				assignments = append(assignments, Assignment{ProbeIndex: i, ChipName: s.name})
				continue
			}
		}
		free = append(free, i)
	}

	for _, i := range free {
		best := highestPressureChip(states)
		if best == nil {
			continue
		}
		best.count++
		assignments = append(assignments, Assignment{ProbeIndex: i, ChipName: best.name})
	}

	return assignments
}

func highestPressureChip(states []*chipState) *chipState {
	var best *chipState
	var bestPressure float64
	for _, s := range states {
		var pressure float64
		if s.count == 0 {
			pressure = math.Inf(1)
		} else {
			pressure = float64(s.scanTime) / float64(s.count)
		}
		if best == nil || pressure > bestPressure {
			best = s
			bestPressure = pressure
		}
	}
	return best
}

// PartitionIndices splits n items (already sorted by the caller) into
// k contiguous slices cut at ⌊i·n/k⌋ boundaries.
func PartitionIndices(n, k int) [][2]int {
	out := make([][2]int, k)
	for i := 0; i < k; i++ {
		lo := i * n / k
		hi := (i + 1) * n / k
		out[i] = [2]int{lo, hi}
	}
	return out
}

// SortedCopy returns a sorted copy of keys using less, used by callers
// that need a deterministic channel ordering before partitioning.
func SortedCopy[T any](items []T, less func(a, b T) bool) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
