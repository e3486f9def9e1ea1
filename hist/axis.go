package hist

import (
	"fmt"
	"sort"
)

// Axis is a binned dimension. Name labels the tree branch of sparse
// histograms; Title is the axis label.
type Axis struct {
	Name  string
	Title string
	Edges []float64
}

// NewAxis returns n equal bins on [lo, hi).
func NewAxis(name, title string, n int, lo, hi float64) Axis {
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + (hi-lo)*float64(i)/float64(n)
	}
	return Axis{Name: name, Title: title, Edges: edges}
}

// VarAxis returns an axis with explicit edges.
func VarAxis(name, title string, edges []float64) Axis {
	return Axis{Name: name, Title: title, Edges: append([]float64(nil), edges...)}
}

func (a Axis) NBins() int { return len(a.Edges) - 1 }

func (a Axis) validate() error {
	if len(a.Edges) < 2 {
		return fmt.Errorf("axis %q needs at least two edges", a.Name)
	}
	for i := 1; i < len(a.Edges); i++ {
		if a.Edges[i] <= a.Edges[i-1] {
			return fmt.Errorf("axis %q edges not increasing at %d", a.Name, i)
		}
	}
	return nil
}

// Bin returns 0 for underflow, 1..n for regular bins and n+1 for overflow.
// NaN goes to the overflow bin.
func (a Axis) Bin(v float64) int {
	n := a.NBins()
	switch {
	case v != v:
		return n + 1
	case v < a.Edges[0]:
		return 0
	case v >= a.Edges[n]:
		return n + 1
	}
	i := sort.SearchFloat64s(a.Edges, v)
	if a.Edges[i] == v {
		return i + 1
	}
	return i
}

// Center returns the midpoint of bin b in Bin numbering.
func (a Axis) Center(b int) float64 {
	n := a.NBins()
	switch {
	case b <= 0:
		return a.Edges[0]
	case b > n:
		return a.Edges[n]
	}
	return 0.5 * (a.Edges[b-1] + a.Edges[b])
}
