package layout

import (
	"fmt"
	"slices"
	"sort"

	"github.com/tidwall/rtree"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
)

// MergeStrategy selects how the merge closure is computed.
type MergeStrategy string

const (
	// StrategyRestart merges the first qualifying pair in scan order and
	// restarts the scan after every merge.
	StrategyRestart MergeStrategy = "restart"

	// StrategySweep pops regions off the front of the list, merges each with
	// its first qualifying partner, and repeats whole passes until a pass makes
	// no merge.
	StrategySweep MergeStrategy = "sweep"

	// StrategyComponents merges connected components of the proximity graph.
	// The result does not depend on input order.
	StrategyComponents MergeStrategy = "components"
)

// ParseMergeStrategy validates a strategy name. Empty means StrategyRestart.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(s) {
	case "", StrategyRestart:
		return StrategyRestart, nil
	case StrategySweep, StrategyComponents:
		return MergeStrategy(s), nil
	}
	return "", fmt.Errorf("unknown merge strategy %q (want restart, sweep or components)", s)
}

// MergeOptions tunes region merging. Distances are raster pixels.
type MergeOptions struct {
	// Threshold inflates both rectangles on every side before the touch test.
	Threshold float64 `json:"threshold"`

	// MaxHorizontalGap is the largest true horizontal gap allowed.
	MaxHorizontalGap float64 `json:"max_horizontal_gap"`

	// MaxVerticalGap is the largest true vertical gap allowed.
	MaxVerticalGap float64 `json:"max_vertical_gap"`

	// Strategy selects the closure algorithm.
	Strategy MergeStrategy `json:"strategy"`
}

// DefaultMergeOptions returns the merge defaults. They are looser than the
// grouping thresholds so that lines consolidate into paragraph blocks.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		Threshold:        10,
		MaxHorizontalGap: 19.5,
		MaxVerticalGap:   10,
		Strategy:         StrategyRestart,
	}
}

// CloseOrOverlap reports whether two rectangles are near enough to merge.
//
// Both rectangles are inflated by opts.Threshold and must overlap on both
// axes (touching edges count). In addition, the true gap between the
// uninflated rectangles must not exceed MaxHorizontalGap horizontally or
// MaxVerticalGap vertically. Gaps are zero when the rectangles already
// overlap on that axis.
func CloseOrOverlap(a, b geometry.Rect, opts MergeOptions) bool {
	ai := a.Inflate(opts.Threshold)
	bi := b.Inflate(opts.Threshold)

	touchX := !(ai.Right() < bi.X || ai.X > bi.Right())
	touchY := !(ai.Bottom() < bi.Y || ai.Y > bi.Bottom())

	hGap := axisGap(a.X, a.Right(), b.X, b.Right())
	vGap := axisGap(a.Y, a.Bottom(), b.Y, b.Bottom())
	if hGap > opts.MaxHorizontalGap || vGap > opts.MaxVerticalGap {
		return false
	}

	return touchX && touchY
}

func axisGap(aMin, aMax, bMin, bMax float64) float64 {
	switch {
	case aMax < bMin:
		return bMin - aMax
	case bMax < aMin:
		return aMin - bMax
	default:
		return 0
	}
}

// Merge converts line boxes to regions and merges them to a fixed point.
func Merge(lines []LineBox, opts MergeOptions) ([]Region, error) {
	regions := make([]Region, len(lines))
	for i, l := range lines {
		regions[i] = l.Region()
	}
	return MergeRegionList(regions, opts)
}

// MergeRegionList merges regions until no pair satisfies CloseOrOverlap.
//
// The input slice is copied; the returned slice is owned by the caller. Each
// merge reduces the region count by one, so at most len(regions)-1 merges
// happen; exceeding that bound returns ErrMergeDidNotConverge.
func MergeRegionList(regions []Region, opts MergeOptions) ([]Region, error) {
	work := make([]Region, len(regions))
	copy(work, regions)
	if len(work) < 2 {
		return work, nil
	}

	switch opts.Strategy {
	case "", StrategyRestart:
		return mergeRestart(work, opts)
	case StrategySweep:
		return mergeSweep(work, opts)
	case StrategyComponents:
		return mergeComponents(work, opts)
	}
	return nil, fmt.Errorf("unknown merge strategy %q", opts.Strategy)
}

func mergeRestart(work []Region, opts MergeOptions) ([]Region, error) {
	limit := len(work)
	for merges := 0; ; merges++ {
		i, j, found := firstClosePair(work, opts)
		if !found {
			return work, nil
		}
		if merges >= limit {
			return nil, ErrMergeDidNotConverge
		}
		work[i] = MergeRegions(work[i], work[j])
		work = slices.Delete(work, j, j+1)
	}
}

// firstClosePair returns the first (i, j), i < j, in scan order whose regions
// satisfy CloseOrOverlap.
func firstClosePair(work []Region, opts MergeOptions) (int, int, bool) {
	for i := range work {
		a := work[i].Rect()
		for j := i + 1; j < len(work); j++ {
			if CloseOrOverlap(a, work[j].Rect(), opts) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func mergeSweep(work []Region, opts MergeOptions) ([]Region, error) {
	limit := len(work)
	for pass := 0; pass <= limit; pass++ {
		mergedAny := false
		next := make([]Region, 0, len(work))

		for len(work) > 0 {
			current := work[0]
			work = work[1:]
			for k := range work {
				if CloseOrOverlap(current.Rect(), work[k].Rect(), opts) {
					current = MergeRegions(current, work[k])
					work = slices.Delete(work, k, k+1)
					mergedAny = true
					break
				}
			}
			next = append(next, current)
		}

		work = next
		if !mergedAny {
			return work, nil
		}
	}
	return nil, ErrMergeDidNotConverge
}

func mergeComponents(work []Region, opts MergeOptions) ([]Region, error) {
	limit := len(work)
	for round := 0; round <= limit; round++ {
		groups := proximityComponents(work, opts)
		if len(groups) == len(work) {
			return work, nil
		}

		next := make([]Region, 0, len(groups))
		for _, members := range groups {
			merged := work[members[0]]
			for _, m := range members[1:] {
				merged = MergeRegions(merged, work[m])
			}
			next = append(next, merged)
		}
		work = next
	}
	return nil, ErrMergeDidNotConverge
}

// proximityComponents returns the connected components of the CloseOrOverlap
// graph as index lists. Components are ordered by their lowest member index
// and members are ascending.
func proximityComponents(work []Region, opts MergeOptions) [][]int {
	// Query window pads the touch distance so rounding never hides a candidate.
	pad := opts.Threshold + max(opts.MaxHorizontalGap, opts.MaxVerticalGap) + 1

	var tr rtree.RTreeG[int]
	for i, r := range work {
		rect := r.Rect()
		tr.Insert([2]float64{rect.X, rect.Y}, [2]float64{rect.Right(), rect.Bottom()}, i)
	}

	uf := newUnionFind(len(work))
	for i, r := range work {
		a := r.Rect()
		q := a.Inflate(pad)
		tr.Search([2]float64{q.X, q.Y}, [2]float64{q.Right(), q.Bottom()}, func(_, _ [2]float64, j int) bool {
			if j > i && CloseOrOverlap(a, work[j].Rect(), opts) {
				uf.union(i, j)
			}
			return true
		})
	}

	byRoot := make(map[int][]int)
	for i := range work {
		root := uf.find(i)
		byRoot[root] = append(byRoot[root], i)
	}

	groups := make([][]int, 0, len(byRoot))
	for _, members := range byRoot {
		groups = append(groups, members)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
