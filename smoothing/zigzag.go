// Package smoothing finds and drops the implausible jumps in a section.
package smoothing

import (
	"fmt"

	"github.com/rotblauer/catTrips/geo"
	"github.com/rotblauer/catTrips/model"
)

const (
	// DefaultMaxIterations caps the cluster deletion loop.
	DefaultMaxIterations = 1000

	Name = "SmoothZigzag"

	// tieTolerance in meters, below which two centroid distances count as equal.
	tieTolerance = 1e-3
)

// TieBreak decides which of two equally good clusters gets deleted.
type TieBreak string

const (
	// TieFartherFromCentroid deletes the cluster lying farther from the centroid
	// of everything still surviving; at equal distance the earlier one goes.
	TieFartherFromCentroid TieBreak = "farther_from_centroid"
	// TieEarlier deletes the earlier cluster.
	TieEarlier TieBreak = "earlier"
	// TieLater deletes the later cluster.
	TieLater TieBreak = "later"
)

func (tb TieBreak) Valid() bool {
	switch tb {
	case TieFartherFromCentroid, TieEarlier, TieLater:
		return true
	}
	return false
}

func ParseTieBreak(s string) (TieBreak, error) {
	tb := TieBreak(s)
	if s == "" {
		return TieFartherFromCentroid, nil
	}
	if !tb.Valid() {
		return "", fmt.Errorf("unknown tie break %q", s)
	}
	return tb, nil
}

// Zigzag splits a section into runs of plausible motion and throws away
// everything but the largest run, one cluster at a time.
type Zigzag struct {
	MaxIterations int      `koanf:"max_iterations"`
	TieBreak      TieBreak `koanf:"tie_break"`
}

func DefaultZigzag() Zigzag {
	return Zigzag{MaxIterations: DefaultMaxIterations, TieBreak: TieFartherFromCentroid}
}

// Result of one Filter call.
type Result struct {
	// Inliers[i] is false when points[i] was deleted.
	Inliers []bool
	// Deleted holds the indices of deleted points, ascending.
	Deleted []int
	// Clusters is how many runs the section split into before deletion started.
	Clusters   int
	Iterations int
}

// DeletedIDs maps Deleted back onto point ids.
func (r Result) DeletedIDs(points []model.Point) []string {
	ids := make([]string, 0, len(r.Deleted))
	for _, i := range r.Deleted {
		ids = append(ids, points[i].ID)
	}
	return ids
}

// cluster is an ordered list of point indices.
type cluster []int

func (c cluster) first() int { return c[0] }
func (c cluster) last() int  { return c[len(c)-1] }

// Filter marks the jumps in points, which must be ordered by time.
// A speed above threshold between consecutive points opens a new cluster.
func (z Zigzag) Filter(points []model.Point, threshold float64) Result {
	res := Result{Inliers: make([]bool, len(points)), Deleted: []int{}}
	for i := range res.Inliers {
		res.Inliers[i] = true
	}
	if len(points) < 2 {
		res.Clusters = len(points)
		return res
	}

	clusters := partition(points, threshold)
	res.Clusters = len(clusters)

	maxIter := z.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	for len(clusters) > 1 && res.Iterations < maxIter {
		res.Iterations++
		victim := z.choose(points, clusters, threshold)
		clusters = removeAndMerge(points, clusters, victim, threshold)
	}

	keep := z.keeper(points, clusters)
	kept := make(map[int]bool, len(clusters[keep]))
	for _, i := range clusters[keep] {
		kept[i] = true
	}
	for i := range points {
		if !kept[i] {
			res.Inliers[i] = false
			res.Deleted = append(res.Deleted, i)
		}
	}
	return res
}

func partition(points []model.Point, threshold float64) []cluster {
	var out []cluster
	cur := cluster{0}
	for i := 1; i < len(points); i++ {
		if speedBetween(points[i-1], points[i]) > threshold {
			out = append(out, cur)
			cur = cluster{}
		}
		cur = append(cur, i)
	}
	return append(out, cur)
}

// choose picks the index of the cluster to delete next.
func (z Zigzag) choose(points []model.Point, clusters []cluster, threshold float64) int {
	maxSize := 0
	for _, c := range clusters {
		if len(c) > maxSize {
			maxSize = len(c)
		}
	}
	var candidates []int
	for i, c := range clusters {
		if len(c) < maxSize {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		// all the same size
		for i := range clusters {
			candidates = append(candidates, i)
		}
	}

	// an excursion whose neighbours join up once it is gone goes first, then an end run
	var bridging, ends []int
	for _, i := range candidates {
		switch {
		case bridges(points, clusters, i, threshold):
			bridging = append(bridging, i)
		case i == 0 || i == len(clusters)-1:
			ends = append(ends, i)
		}
	}
	if len(bridging) > 0 {
		candidates = bridging
	} else if len(ends) > 0 {
		candidates = ends
	}

	minSize := len(points) + 1
	for _, i := range candidates {
		if len(clusters[i]) < minSize {
			minSize = len(clusters[i])
		}
	}
	var smallest []int
	for _, i := range candidates {
		if len(clusters[i]) == minSize {
			smallest = append(smallest, i)
		}
	}
	return z.breakTie(points, clusters, smallest)
}

// keeper is the index of the largest surviving cluster.
func (z Zigzag) keeper(points []model.Point, clusters []cluster) int {
	if len(clusters) == 1 {
		return 0
	}
	maxSize := 0
	for _, c := range clusters {
		if len(c) > maxSize {
			maxSize = len(c)
		}
	}
	var largest []int
	for i, c := range clusters {
		if len(c) == maxSize {
			largest = append(largest, i)
		}
	}
	// drop the tie losers until one is left
	for len(largest) > 1 {
		loser := z.breakTie(points, clusters, largest)
		for j, i := range largest {
			if i == loser {
				largest = append(largest[:j], largest[j+1:]...)
				break
			}
		}
	}
	return largest[0]
}

// bridges reports whether deleting clusters[i] would let its neighbours join.
func bridges(points []model.Point, clusters []cluster, i int, threshold float64) bool {
	if i == 0 || i == len(clusters)-1 {
		return false
	}
	left, right := clusters[i-1], clusters[i+1]
	return speedBetween(points[left.last()], points[right.first()]) <= threshold
}

// breakTie returns the element of candidates (cluster indices, ascending) to delete.
func (z Zigzag) breakTie(points []model.Point, clusters []cluster, candidates []int) int {
	if len(candidates) == 1 {
		return candidates[0]
	}
	switch z.TieBreak {
	case TieEarlier:
		return candidates[0]
	case TieLater:
		return candidates[len(candidates)-1]
	}

	var all []model.Location
	for _, c := range clusters {
		for _, i := range c {
			all = append(all, points[i].Loc())
		}
	}
	center := geo.Centroid(all)
	best, bestDist := candidates[0], -1.0
	for _, ci := range candidates {
		locs := make([]model.Location, len(clusters[ci]))
		for j, i := range clusters[ci] {
			locs[j] = points[i].Loc()
		}
		d := geo.Distance(center, geo.Centroid(locs))
		if d > bestDist+tieTolerance {
			best, bestDist = ci, d
		}
	}
	return best
}

func removeAndMerge(points []model.Point, clusters []cluster, victim int, threshold float64) []cluster {
	merge := bridges(points, clusters, victim, threshold)
	out := make([]cluster, 0, len(clusters)-1)
	out = append(out, clusters[:victim]...)
	if merge {
		joined := make(cluster, 0, len(clusters[victim-1])+len(clusters[victim+1]))
		joined = append(joined, clusters[victim-1]...)
		joined = append(joined, clusters[victim+1]...)
		out[len(out)-1] = joined
		out = append(out, clusters[victim+2:]...)
	} else {
		out = append(out, clusters[victim+1:]...)
	}
	return out
}
