package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/smukkama/farm-report/internal/atomicfile"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 500
)

// PNGRenderer draws charts with go-chart and stores them under Dir
type PNGRenderer struct {
	Dir    string
	Width  int
	Height int
}

// NewPNGRenderer creates a renderer writing into dir
func NewPNGRenderer(dir string) *PNGRenderer {
	return &PNGRenderer{Dir: dir, Width: DefaultWidth, Height: DefaultHeight}
}

func pointStyle(hex string, width float64) gochart.Style {
	return gochart.Style{
		StrokeWidth: gochart.Disabled,
		DotWidth:    width,
		DotColor:    drawing.ColorFromHex(strings.TrimPrefix(hex, "#")),
	}
}

func lineStyle(col drawing.Color, width float64) gochart.Style {
	return gochart.Style{
		StrokeColor: col,
		StrokeWidth: width,
	}
}

// Scatter renders one dot series per group plus the centroids
func (r *PNGRenderer) Scatter(name string, data ScatterData) (Artifact, error) {
	var series []gochart.Series
	var xs, ys []float64

	for _, g := range data.Groups {
		if len(g.X) == 0 {
			continue
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    g.Name,
			Style:   pointStyle(g.Color, 6),
			XValues: g.X,
			YValues: g.Y,
		})
		xs = append(xs, g.X...)
		ys = append(ys, g.Y...)
	}
	if len(data.CentroidsX) > 0 {
		series = append(series, gochart.ContinuousSeries{
			Name: "Centroids",
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    11,
				DotColor:    gochart.ColorBlack,
			},
			XValues: data.CentroidsX,
			YValues: data.CentroidsY,
		})
		xs = append(xs, data.CentroidsX...)
		ys = append(ys, data.CentroidsY...)
	}

	if len(xs) == 0 {
		return r.placeholder(name)
	}

	graph := gochart.Chart{
		Title:      data.Title,
		Width:      r.width(),
		Height:     r.height(),
		Background: gochart.Style{Padding: gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: data.XLabel, Range: paddedRange(xs)},
		YAxis:      gochart.YAxis{Name: data.YLabel, Range: paddedRange(ys)},
		Series:     series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	return r.render(name, &graph)
}

// Trend renders temperature on the left axis and illumination on the right
func (r *PNGRenderer) Trend(name string, data TrendData) (Artifact, error) {
	n := min(len(data.Times), len(data.Temperature), len(data.Illumination))
	if n < 2 {
		return r.placeholder(name)
	}

	times := data.Times[:n]
	temperature := gochart.TimeSeries{
		Name:    "Temperature (°C)",
		Style:   lineStyle(gochart.ColorRed, 2),
		XValues: times,
		YValues: data.Temperature[:n],
	}
	illumination := gochart.TimeSeries{
		Name:    "Illumination (lux)",
		Style:   lineStyle(gochart.ColorBlue, 2),
		YAxis:   gochart.YAxisSecondary,
		XValues: times,
		YValues: data.Illumination[:n],
	}
	series := []gochart.Series{temperature, illumination}

	if data.Window >= 2 && n >= data.Window {
		series = append(series,
			gochart.SMASeries{
				Name:        fmt.Sprintf("Temperature SMA(%d)", data.Window),
				Style:       gochart.Style{StrokeColor: gochart.ColorRed.WithAlpha(120), StrokeWidth: 1, StrokeDashArray: []float64{5, 3}},
				InnerSeries: temperature,
				Period:      data.Window,
			},
			gochart.SMASeries{
				Name:        fmt.Sprintf("Illumination SMA(%d)", data.Window),
				Style:       gochart.Style{StrokeColor: gochart.ColorBlue.WithAlpha(120), StrokeWidth: 1, StrokeDashArray: []float64{5, 3}},
				YAxis:       gochart.YAxisSecondary,
				InnerSeries: illumination,
				Period:      data.Window,
			},
		)
	}

	xs := make([]float64, n)
	for i, t := range times {
		xs[i] = gochart.TimeToFloat64(t)
	}

	graph := gochart.Chart{
		Title:      data.Title,
		Width:      r.width(),
		Height:     r.height(),
		Background: gochart.Style{Padding: gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:           "Date",
			Range:          paddedTimeRange(xs),
			ValueFormatter: gochart.TimeValueFormatterWithFormat("01-02 15:04"),
		},
		YAxis:          gochart.YAxis{Name: "°C", Range: paddedRange(data.Temperature[:n])},
		YAxisSecondary: gochart.YAxis{Name: "lux", Range: paddedRange(data.Illumination[:n])},
		Series:         series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	return r.render(name, &graph)
}

func (r *PNGRenderer) render(name string, graph *gochart.Chart) (Artifact, error) {
	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return Artifact{}, fmt.Errorf("failed to render chart %s: %w", name, err)
	}
	return r.store(name, buf.Bytes())
}

// placeholder stores a blank image for charts without enough data
func (r *PNGRenderer) placeholder(name string) (Artifact, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.width(), r.height()))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Artifact{}, fmt.Errorf("failed to encode placeholder %s: %w", name, err)
	}
	return r.store(name, buf.Bytes())
}

func (r *PNGRenderer) store(name string, data []byte) (Artifact, error) {
	if err := atomicfile.Write(filepath.Join(r.Dir, name), data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("failed to store chart %s: %w", name, err)
	}
	return Artifact{Name: name}, nil
}

func (r *PNGRenderer) width() int {
	if r.Width > 0 {
		return r.Width
	}
	return DefaultWidth
}

func (r *PNGRenderer) height() int {
	if r.Height > 0 {
		return r.Height
	}
	return DefaultHeight
}

// paddedRange spans values with a 5% margin; a flat series gets a unit margin
func paddedRange(values []float64) *gochart.ContinuousRange {
	lo, hi := finiteBounds(values)
	if math.IsInf(lo, 1) {
		return &gochart.ContinuousRange{Min: 0, Max: 1}
	}

	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(lo)*0.05, 1)
	}
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// paddedTimeRange spans UnixNano values; a single instant gets a minute either side
func paddedTimeRange(values []float64) *gochart.ContinuousRange {
	r := paddedRange(values)
	if lo, hi := finiteBounds(values); hi == lo {
		return &gochart.ContinuousRange{Min: lo - float64(time.Minute), Max: hi + float64(time.Minute)}
	}
	return r
}

// finiteBounds returns the smallest and largest finite values, or +Inf/-Inf when there are none
func finiteBounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
