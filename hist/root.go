package hist

import (
	"fmt"
	"strings"

	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
)

// WriteROOT stores every histogram under dir, one ROOT directory per path
// element. A sparse histogram becomes a tree of its filled cells plus one
// TH1D projection per axis named <hist>_<axis>.
func (r *Registry) WriteROOT(dir riofs.Directory) error {
	for _, name := range r.order {
		e := r.entries[name]
		parent, base := split(name)
		d, err := subdir(dir, parent)
		if err != nil {
			return fmt.Errorf("could not create directory for %s: %w", name, err)
		}
		switch e.kind {
		case kindH1:
			empty := e.h1 == nil
			e.materialize()
			err = d.Put(base, rhist.NewH1DFrom(e.h1))
			if empty {
				e.h1 = nil
			}
		case kindH2:
			empty := e.h2 == nil
			e.materialize()
			err = d.Put(base, rhist.NewH2DFrom(e.h2))
			if empty {
				e.h2 = nil
			}
		case kindSparse:
			err = writeSparse(d, base, e.hn)
		}
		if err != nil {
			return fmt.Errorf("could not write %s: %w", name, err)
		}
	}
	return nil
}

func writeSparse(dir riofs.Directory, base string, h *Sparse) error {
	for i, ax := range h.axes {
		p := h.proj[i]
		pname := base + "_" + ax.Name
		annotate(p.Annotation(), pname, ax.Title)
		if err := dir.Put(pname, rhist.NewH1DFrom(p)); err != nil {
			return err
		}
	}

	idx := make([]int32, len(h.axes))
	var sumw, sumw2 float64
	vars := make([]rtree.WriteVar, 0, len(h.axes)+2)
	for i, ax := range h.axes {
		vars = append(vars, rtree.WriteVar{Name: ax.Name, Value: &idx[i]})
	}
	vars = append(vars,
		rtree.WriteVar{Name: "sumw", Value: &sumw},
		rtree.WriteVar{Name: "sumw2", Value: &sumw2},
	)

	w, err := rtree.NewWriter(dir, base, vars)
	if err != nil {
		return err
	}
	for _, b := range h.Bins() {
		for i, v := range b.Index {
			idx[i] = int32(v)
		}
		sumw, sumw2 = b.SumW, b.SumW2
		if _, err := w.Write(); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

func split(name string) (parent, base string) {
	i := strings.LastIndex(name, "/")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// subdir returns the directory at the slash-separated path below dir,
// creating it and its parents when missing.
func subdir(dir riofs.Directory, path string) (riofs.Directory, error) {
	if path == "" {
		return dir, nil
	}
	rdir := riofs.Dir(dir)
	obj, err := rdir.Get(path)
	if err != nil {
		return rdir.Mkdir(path)
	}
	sub, ok := obj.(riofs.Directory)
	if !ok {
		return nil, fmt.Errorf("%s is not a directory", path)
	}
	return sub, nil
}

// ReadH1D loads a 1-D histogram written by WriteROOT.
func ReadH1D(dir riofs.Directory, path string) (*hbook.H1D, error) {
	obj, err := riofs.Dir(dir).Get(path)
	if err != nil {
		return nil, err
	}
	h, ok := obj.(rhist.H1)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, not a 1-D histogram", path, obj.Class())
	}
	return rootcnv.H1D(h), nil
}

// ReadH2D loads a 2-D histogram written by WriteROOT.
func ReadH2D(dir riofs.Directory, path string) (*hbook.H2D, error) {
	obj, err := riofs.Dir(dir).Get(path)
	if err != nil {
		return nil, err
	}
	h, ok := obj.(rhist.H2)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, not a 2-D histogram", path, obj.Class())
	}
	return rootcnv.H2D(h), nil
}
