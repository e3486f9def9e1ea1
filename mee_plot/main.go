package main

import (
	"fmt"
	"image/color"
	"log"
	"os"

	flag "github.com/spf13/pflag"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/decibelcooper/dileptonqc"
	"github.com/decibelcooper/dileptonqc/hist"
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] <histogram-paths>...

Histogram paths are relative to the top of the ROOT file, e.g.
Pair/sm/PromptJPsi/hs_mass or Track/c2e/hDCAxyz. A single 2-D histogram is
drawn as a heat map, 1-D histograms are overlaid.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	var (
		input     = flag.StringP("input", "i", "AnalysisResults.root", "ROOT file written by dielectron_qc_mc")
		title     = flag.String("title", "", "plot title")
		xLabel    = flag.String("xlabel", "", "x axis label")
		output    = flag.StringP("output", "o", "out.png", "output file")
		logY      = flag.Bool("logy", false, "logarithmic y axis")
		normalize = flag.Bool("normalize", false, "scale each histogram to unit integral")
		zMax      = flag.Float64("zmax", 0, "maximum of the color map, 0 for the largest bin")
	)
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 1 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	f, err := groot.Open(*input)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if flag.NArg() == 1 {
		if h2, err := hist.ReadH2D(f, flag.Arg(0)); err == nil {
			if err := drawHeatMap(h2, *title, *xLabel, *zMax, *output); err != nil {
				log.Fatal(err)
			}
			return
		}
	}

	p := plot.New()
	p.Title.Text = *title
	p.X.Label.Text = *xLabel
	p.X.Tick.Marker = dileptonqc.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = dileptonqc.PreciseTicks{NSuggestedTicks: 5}
	if *logY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	for i, name := range flag.Args() {
		h1, err := hist.ReadH1D(f, name)
		if err != nil {
			log.Fatal(err)
		}
		if *normalize {
			if integral := h1.Integral(); integral > 0 {
				h1.Scale(1 / integral)
			}
		}

		h := hplot.NewH1D(h1)
		h.FillColor = nil
		h.LineStyle.Color = lineColor(i)
		h.LogY = *logY
		if flag.NArg() == 1 {
			h.Infos.Style = hplot.HInfoSummary
		} else {
			p.Legend.Add(name, h)
		}

		p.Add(h)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, *output); err != nil {
		log.Fatal(err)
	}
}

func lineColor(i int) color.Color {
	switch i {
	case 1:
		return color.RGBA{G: 255, A: 255}
	case 2:
		return color.RGBA{B: 255, A: 255}
	case 3:
		return color.RGBA{R: 255, B: 127, G: 127, A: 255}
	case 4:
		return color.RGBA{R: 255, A: 255}
	}
	return color.RGBA{A: 255}
}

func drawHeatMap(h *hbook.H2D, title, xLabel string, zMax float64, output string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.X.Tick.Marker = dileptonqc.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = dileptonqc.PreciseTicks{NSuggestedTicks: 5}

	grid := h.GridXYZ()
	if zMax <= 0 {
		nx, ny := grid.Dims()
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				zMax = max(zMax, grid.Z(i, j))
			}
		}
		if zMax <= 0 {
			zMax = 1
		}
	}

	img := vgimg.New(670, 400)
	dc := draw.New(img)
	dc0 := draw.Crop(dc, 0, -70, 0, 0)
	dc1 := draw.Crop(dc, 620, 0, 0, 0)

	colorMap := moreland.ExtendedBlackBody()
	colorMap.SetMin(0)
	colorMap.SetMax(zMax)
	heatMap := plotter.NewHeatMap(grid, colorMap.Palette(1000))
	heatMap.Min = 0
	heatMap.Max = zMax
	p.Add(heatMap)

	p.Draw(dc0)

	p = plot.New()

	colorBar := &plotter.ColorBar{ColorMap: colorMap}
	colorBar.Vertical = true
	p.Add(colorBar)
	p.HideX()
	p.Y.Padding = 0

	p.Draw(dc1)

	w, err := os.Create(output)
	if err != nil {
		return err
	}
	defer w.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err = png.WriteTo(w); err != nil {
		return err
	}
	return w.Close()
}
