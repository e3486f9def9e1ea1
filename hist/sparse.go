package hist

import (
	"fmt"
	"math"
	"sort"

	"go-hep.org/x/hep/hbook"
)

// Sparse is an N-dimensional histogram storing only filled bins. Each
// axis keeps a 1-D projection filled alongside.
type Sparse struct {
	name    string
	title   string
	axes    []Axis
	strides []int64
	sumw    map[int64]float64
	sumw2   map[int64]float64
	proj    []*hbook.H1D
	entries int64
}

// SparseBin is one filled cell. Index uses Axis.Bin numbering.
type SparseBin struct {
	Index []int
	SumW  float64
	SumW2 float64
}

func NewSparse(name, title string, axes ...Axis) (*Sparse, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("sparse histogram %q has no axes", name)
	}
	h := &Sparse{
		name:  name,
		title: title,
		sumw:  make(map[int64]float64),
		sumw2: make(map[int64]float64),
	}
	stride := int64(1)
	for _, ax := range axes {
		if err := ax.validate(); err != nil {
			return nil, fmt.Errorf("sparse histogram %q: %w", name, err)
		}
		h.axes = append(h.axes, VarAxis(ax.Name, ax.Title, ax.Edges))
		h.strides = append(h.strides, stride)
		stride *= int64(ax.NBins() + 2)
		if stride <= 0 {
			return nil, fmt.Errorf("sparse histogram %q has too many cells", name)
		}
		p := hbook.NewH1DFromEdges(ax.Edges)
		p.Annotation()["name"] = ax.Name
		h.proj = append(h.proj, p)
	}
	return h, nil
}

func (h *Sparse) Name() string  { return h.name }
func (h *Sparse) Title() string { return h.title }
func (h *Sparse) Axes() []Axis  { return h.axes }
func (h *Sparse) Entries() int64 { return h.entries }
func (h *Sparse) NFilled() int  { return len(h.sumw) }

func (h *Sparse) index(values []float64) int64 {
	var idx int64
	for i, ax := range h.axes {
		idx += int64(ax.Bin(values[i])) * h.strides[i]
	}
	return idx
}

// Fill adds w to the cell containing values.
func (h *Sparse) Fill(values []float64, w float64) {
	if len(values) != len(h.axes) {
		panic(fmt.Sprintf("hist: %s expects %d values, got %d", h.name, len(h.axes), len(values)))
	}
	if !finite(values) || math.IsNaN(w) || math.IsInf(w, 0) {
		return
	}
	idx := h.index(values)
	h.sumw[idx] += w
	h.sumw2[idx] += w * w
	h.entries++
	for i, p := range h.proj {
		p.Fill(values[i], w)
	}
}

// Content returns the sum of weights of the cell containing values.
func (h *Sparse) Content(values ...float64) float64 {
	if len(values) != len(h.axes) {
		return 0
	}
	return h.sumw[h.index(values)]
}

// Projection returns the 1-D distribution of one axis.
func (h *Sparse) Projection(axis int) *hbook.H1D {
	return h.proj[axis]
}

// Bins returns the filled cells in index order.
func (h *Sparse) Bins() []SparseBin {
	keys := make([]int64, 0, len(h.sumw))
	for k := range h.sumw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	bins := make([]SparseBin, len(keys))
	for i, k := range keys {
		idx := make([]int, len(h.axes))
		rest := k
		for a := len(h.axes) - 1; a >= 0; a-- {
			idx[a] = int(rest / h.strides[a])
			rest %= h.strides[a]
		}
		bins[i] = SparseBin{Index: idx, SumW: h.sumw[k], SumW2: h.sumw2[k]}
	}
	return bins
}

func (h *Sparse) clone(name string) *Sparse {
	c, err := NewSparse(name, h.title, h.axes...)
	if err != nil {
		panic(err)
	}
	return c
}

// finite reports whether no value is NaN or infinite.
func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
