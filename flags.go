package dileptonqc

import (
	"fmt"
	"strconv"
	"strings"
)

// BinEdges is a repeatable command-line flag collecting histogram bin edges.
// The first value given on the command line replaces the defaults.
type BinEdges struct {
	Edges   []float64
	beenSet bool
}

func NewBinEdges(defaults []float64) *BinEdges {
	return &BinEdges{Edges: append([]float64(nil), defaults...)}
}

func (b *BinEdges) Set(valueStr string) error {
	var values []float64
	for _, field := range strings.Split(valueStr, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}
		values = append(values, value)
	}

	if !b.beenSet {
		b.beenSet = true
		b.Edges = nil
	}

	for _, value := range values {
		if n := len(b.Edges); n > 0 && value <= b.Edges[n-1] {
			return fmt.Errorf("bin edges must increase: %v after %v", value, b.Edges[n-1])
		}
		b.Edges = append(b.Edges, value)
	}
	return nil
}

func (b *BinEdges) String() string {
	return fmt.Sprint(b.Edges)
}

func (b *BinEdges) Type() string {
	return "edges"
}

// Changed reports whether the flag was given on the command line.
func (b *BinEdges) Changed() bool {
	return b.beenSet
}
