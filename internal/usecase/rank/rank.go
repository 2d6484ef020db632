// Package rank scores documents by a recency-weighted PageRank over relation links.
package rank

import (
	"time"

	"github.com/kailas-cloud/bibq/internal/domain/date"
)

// Node is one document of the working set.
// Links hold positions of related nodes within the same working set.
type Node struct {
	Year       int
	Date       time.Time
	References int
	Links      []int
}

// Result holds the score of each node, in input order.
type Result struct {
	Scores    []float64
	Sweeps    int
	Converged bool
}

// Compute runs in-place sweeps over nodes in input order until a sweep changes
// no score, or len(nodes) sweeps have run.
// score(k1) = d(k1) + sum over linked k2 with date(k1) <= date(k2) of d(k2)*score(k2)/references(k2).
// Scores updated earlier in a sweep are read by later nodes of the same sweep.
func Compute(nodes []Node) Result {
	n := len(nodes)
	res := Result{Scores: make([]float64, n)}
	if n == 0 {
		res.Converged = true
		return res
	}

	shiftedMin, span, ok := yearSpan(nodes)
	damping := make([]float64, n)
	for i, nd := range nodes {
		if nd.Year == date.SentinelYear {
			continue
		}
		res.Scores[i] = 1 / float64(n)
		damping[i] = Damping(nd.Year, shiftedMin, span)
	}
	if !ok {
		res.Converged = true
		return res
	}

	for sweep := 0; sweep < n; sweep++ {
		res.Sweeps++
		changed := false
		for k1, nd := range nodes {
			if nd.Year == date.SentinelYear {
				continue
			}
			score := damping[k1]
			for _, k2 := range nd.Links {
				if k2 < 0 || k2 >= n || nodes[k2].References == 0 {
					continue
				}
				if nd.Date.After(nodes[k2].Date) {
					continue
				}
				score += damping[k2] * res.Scores[k2] / float64(nodes[k2].References)
			}
			if score != res.Scores[k1] {
				changed = true
			}
			res.Scores[k1] = score
		}
		if !changed {
			res.Converged = true
			break
		}
	}
	return res
}

// Damping returns (year - shiftedMin) / span, the recency weight of a year.
func Damping(year, shiftedMin, span int) float64 {
	if year == date.SentinelYear || span <= 0 {
		return 0
	}
	return float64(year-shiftedMin) / float64(span)
}

// yearSpan returns the shifted minimum year and the span over real years.
// ok is false when no node has a real year.
func yearSpan(nodes []Node) (shiftedMin, span int, ok bool) {
	lo, hi := 0, 0
	for _, nd := range nodes {
		if nd.Year == date.SentinelYear {
			continue
		}
		if !ok || nd.Year < lo {
			lo = nd.Year
		}
		if !ok || nd.Year > hi {
			hi = nd.Year
		}
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	shiftedMin = lo - max(1, (hi-lo)/10)
	return shiftedMin, hi - shiftedMin, true
}
