package dileptonqc

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// PreciseTicks places major ticks on round multiples of a power of ten so
// that labels stay short on narrow mass and pT ranges.
type PreciseTicks struct {
	NSuggestedTicks int
}

func (t PreciseTicks) Ticks(min, max float64) []plot.Tick {
	nTicks := t.NSuggestedTicks
	if nTicks < 2 {
		nTicks = 4
	}
	if max <= min {
		return nil
	}

	mult, tens := majorStep(max-min, nTicks)
	major := float64(mult) * tens

	var ticks []plot.Tick
	labeled := make(map[float64]bool)
	last := math.Floor(min/major) * major
	for v := last; v <= max; v += major {
		last = v
		if v < min {
			continue
		}
		prec := int(math.Ceil(math.Log10(math.Abs(v)+major)) - math.Floor(math.Log10(major)))
		v = round(v, prec)
		labeled[v] = true
		ticks = append(ticks, plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'g', -1, 64)})
	}

	minor := minorStep(mult, major)
	for v := math.Floor(min/minor) * minor; v <= max; v += minor {
		if v >= min && !labeled[v] {
			ticks = append(ticks, plot.Tick{Value: v})
		}
	}
	return ticks
}

// majorStep returns the major tick spacing as mult*tens.
func majorStep(span float64, nTicks int) (int, float64) {
	tens := math.Pow10(int(math.Floor(math.Log10(span))))
	n := span / tens
	for n < float64(nTicks-1) {
		tens /= 10
		n = span / tens
	}

	mult := int(n / float64(nTicks-1))
	switch mult {
	case 0:
		mult = 1
	case 7:
		mult = 6
	case 9:
		mult = 8
	}
	return mult, tens
}

func minorStep(mult int, major float64) float64 {
	switch mult {
	case 3, 6:
		return major / 3
	case 5:
		return major / 5
	}
	return major / 2
}

func round(x float64, prec int) float64 {
	if x == 0 {
		return 0
	}
	if prec >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(prec)
	scaled := x * pow
	if math.IsInf(scaled, 0) {
		return x
	}
	if x < 0 {
		scaled = math.Ceil(scaled - 0.5)
	} else {
		scaled = math.Floor(scaled + 0.5)
	}
	if scaled == 0 {
		return 0
	}
	return scaled / pow
}
