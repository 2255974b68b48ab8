package chart

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.HasPrefix(data, pngSignature) {
		t.Errorf("%s is not a PNG", path)
	}
}

func TestPNGRenderer_Scatter(t *testing.T) {
	dir := t.TempDir()
	r := NewPNGRenderer(dir)

	art, err := r.Scatter("clusters.png", ScatterData{
		Title:  "Behavior clusters",
		XLabel: "Temperature (°C)",
		YLabel: "Illumination (lux)",
		Groups: []Group{
			{Name: "Pattern 1", Color: "#1f77b4", X: []float64{19.8, 20.1, 20.3}, Y: []float64{95, 102, 99}},
			{Name: "Pattern 2", Color: "#ff7f0e", X: []float64{29.9, 30.2, 30.4}, Y: []float64{445, 452, 460}},
			{Name: "Pattern 3", Color: "#2ca02c"},
		},
		CentroidsX: []float64{20.07, 30.17},
		CentroidsY: []float64{98.7, 452.3},
	})
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	if art.Name != "clusters.png" {
		t.Errorf("Unexpected artifact name %q", art.Name)
	}
	assertPNG(t, filepath.Join(dir, "clusters.png"))
}

func TestPNGRenderer_Trend(t *testing.T) {
	dir := t.TempDir()
	r := NewPNGRenderer(dir)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var data TrendData
	data.Title = "Recent trends"
	data.Window = 3
	for i := 0; i < 12; i++ {
		data.Times = append(data.Times, start.Add(time.Duration(i)*10*time.Minute))
		data.Temperature = append(data.Temperature, 20+float64(i%4))
		data.Illumination = append(data.Illumination, 100+float64(i*30))
	}

	if _, err := r.Trend("trend.png", data); err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	assertPNG(t, filepath.Join(dir, "trend.png"))
}

func TestPNGRenderer_EmptyDataYieldsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	r := NewPNGRenderer(dir)

	if _, err := r.Scatter("clusters.png", ScatterData{}); err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	if _, err := r.Trend("trend.png", TrendData{Times: []time.Time{time.Now()}, Temperature: []float64{1}, Illumination: []float64{2}}); err != nil {
		t.Fatalf("Trend failed: %v", err)
	}

	assertPNG(t, filepath.Join(dir, "clusters.png"))
	assertPNG(t, filepath.Join(dir, "trend.png"))
}

func TestPaddedRange(t *testing.T) {
	r := paddedRange([]float64{10, 20})
	if r.Min != 9.5 || r.Max != 20.5 {
		t.Errorf("Unexpected range [%v, %v]", r.Min, r.Max)
	}

	flat := paddedRange([]float64{0, 0})
	if flat.Max-flat.Min <= 0 {
		t.Errorf("Expected non-zero range for flat series, got [%v, %v]", flat.Min, flat.Max)
	}

	empty := paddedRange(nil)
	if empty.Min != 0 || empty.Max != 1 {
		t.Errorf("Expected unit range, got [%v, %v]", empty.Min, empty.Max)
	}
}

func TestPaddedTimeRange_SingleInstant(t *testing.T) {
	at := float64(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).UnixNano())

	r := paddedTimeRange([]float64{at, at, at})
	if r.Min != at-float64(time.Minute) || r.Max != at+float64(time.Minute) {
		t.Errorf("Expected one minute either side, got [%v, %v]", r.Min, r.Max)
	}

	spread := paddedTimeRange([]float64{at, at + float64(time.Hour)})
	if math.Abs(spread.Min-(at-float64(3*time.Minute))) > float64(time.Millisecond) {
		t.Errorf("Expected 5%% margin for a spread series, got min %v", spread.Min)
	}
}

func TestPNGRenderer_TrendSameTimestamps(t *testing.T) {
	dir := t.TempDir()
	r := NewPNGRenderer(dir)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	data := TrendData{
		Times:        []time.Time{at, at, at},
		Temperature:  []float64{20, 21, 22},
		Illumination: []float64{100, 110, 120},
	}
	if _, err := r.Trend("trend.png", data); err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	assertPNG(t, filepath.Join(dir, "trend.png"))
}
