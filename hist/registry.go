package hist

import (
	"fmt"
	"sort"
	"strings"

	"go-hep.org/x/hep/hbook"
)

// Sink receives one tuple per fill. Values follow the axis order of the
// named histogram; fills carry unit weight.
type Sink interface {
	Fill(name string, values ...float64)
}

type kind int

const (
	kindH1 kind = iota
	kindH2
	kindSparse
)

type entry struct {
	kind  kind
	name  string
	title string
	axes  []Axis
	h1    *hbook.H1D
	h2    *hbook.H2D
	hn    *Sparse
}

// materialize allocates a 1-D or 2-D histogram on first use.
func (e *entry) materialize() {
	switch {
	case e.kind == kindH1 && e.h1 == nil:
		e.h1 = hbook.NewH1DFromEdges(e.axes[0].Edges)
		annotate(e.h1.Annotation(), e.name, e.title)
	case e.kind == kindH2 && e.h2 == nil:
		e.h2 = hbook.NewH2DFromEdges(e.axes[0].Edges, e.axes[1].Edges)
		annotate(e.h2.Annotation(), e.name, e.title)
	}
}

// Registry owns named histograms addressed by slash-separated paths such
// as "Pair/sm/Pi0/hs". Registration errors and fills to unknown names
// panic: both are programming errors.
type Registry struct {
	order   []string
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) add(name string, e *entry) {
	if _, dup := r.entries[name]; dup {
		panic(fmt.Sprintf("hist: %s registered twice", name))
	}
	for _, ax := range e.axes {
		if err := ax.validate(); err != nil {
			panic(fmt.Sprintf("hist: %s: %v", name, err))
		}
	}
	r.entries[name] = e
	r.order = append(r.order, name)
}

func annotate(ann hbook.Annotation, name, title string) {
	ann["name"] = name[strings.LastIndex(name, "/")+1:]
	ann["title"] = title
}

// AddH1D books a 1-D histogram. Storage is allocated on the first fill.
func (r *Registry) AddH1D(name, title string, x Axis) {
	r.add(name, &entry{kind: kindH1, name: name, title: title, axes: []Axis{x}})
}

func (r *Registry) AddH2D(name, title string, x, y Axis) {
	r.add(name, &entry{kind: kindH2, name: name, title: title, axes: []Axis{x, y}})
}

func (r *Registry) AddSparse(name, title string, axes ...Axis) *Sparse {
	e := &entry{kind: kindSparse, name: name, title: title, axes: axes}
	hn, err := NewSparse(name[strings.LastIndex(name, "/")+1:], title, axes...)
	if err != nil {
		panic(fmt.Sprintf("hist: %v", err))
	}
	r.add(name, e)
	e.hn = hn
	return hn
}

// AddClone registers a copy of every histogram under srcPrefix with the
// prefix replaced by dstPrefix.
func (r *Registry) AddClone(srcPrefix, dstPrefix string) {
	var names []string
	for _, name := range r.order {
		if strings.HasPrefix(name, srcPrefix) {
			names = append(names, name)
		}
	}
	for _, name := range names {
		e := r.entries[name]
		dst := dstPrefix + strings.TrimPrefix(name, srcPrefix)
		switch e.kind {
		case kindH1:
			r.AddH1D(dst, e.title, e.axes[0])
		case kindH2:
			r.AddH2D(dst, e.title, e.axes[0], e.axes[1])
		case kindSparse:
			r.AddSparse(dst, e.title, e.axes...)
		}
	}
}

func (r *Registry) Fill(name string, values ...float64) {
	e, ok := r.entries[name]
	if !ok {
		panic(fmt.Sprintf("hist: fill to unknown histogram %s", name))
	}
	if len(values) != len(e.axes) {
		panic(fmt.Sprintf("hist: %s expects %d values, got %d", name, len(e.axes), len(values)))
	}
	if !finite(values) {
		return
	}
	e.materialize()
	switch e.kind {
	case kindH1:
		e.h1.Fill(values[0], 1)
	case kindH2:
		e.h2.Fill(values[0], values[1], 1)
	case kindSparse:
		e.hn.Fill(values, 1)
	}
}

func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// H1D returns the named 1-D histogram or nil.
func (r *Registry) H1D(name string) *hbook.H1D {
	e, ok := r.entries[name]
	if !ok || e.kind != kindH1 {
		return nil
	}
	e.materialize()
	return e.h1
}

func (r *Registry) H2D(name string) *hbook.H2D {
	e, ok := r.entries[name]
	if !ok || e.kind != kindH2 {
		return nil
	}
	e.materialize()
	return e.h2
}

func (r *Registry) Sparse(name string) *Sparse {
	if e, ok := r.entries[name]; ok {
		return e.hn
	}
	return nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Prefixed returns the sorted names under prefix.
func (r *Registry) Prefixed(prefix string) []string {
	var names []string
	for _, name := range r.order {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
