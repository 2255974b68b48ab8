// Package scale standardizes the two sample features to zero mean and unit variance.
package scale

import (
	"math"

	"github.com/smukkama/farm-report/internal/align"
)

// Features is the number of standardized dimensions (temperature, illumination)
const Features = 2

// Point is a sample in standardized space
type Point [Features]float64

// Params holds the per-feature mean and standard deviation of a batch.
// Std is never zero: constant features use 1.
type Params struct {
	Mean [Features]float64
	Std  [Features]float64
}

// Fit computes population mean and standard deviation over the batch
func Fit(samples []align.Sample) Params {
	p := Params{Std: [Features]float64{1, 1}}
	n := float64(len(samples))
	if n == 0 {
		return p
	}

	for _, s := range samples {
		v := vector(s)
		for f := 0; f < Features; f++ {
			p.Mean[f] += v[f]
		}
	}
	for f := 0; f < Features; f++ {
		p.Mean[f] /= n
	}

	var sumSq [Features]float64
	for _, s := range samples {
		v := vector(s)
		for f := 0; f < Features; f++ {
			d := v[f] - p.Mean[f]
			sumSq[f] += d * d
		}
	}
	for f := 0; f < Features; f++ {
		std := math.Sqrt(sumSq[f] / n)
		if isNearZero(std, p.Mean[f]) || math.IsNaN(std) || math.IsInf(std, 0) {
			std = 1
		}
		p.Std[f] = std
	}

	return p
}

// Transform maps samples into standardized space
func (p Params) Transform(samples []align.Sample) []Point {
	points := make([]Point, len(samples))
	for i, s := range samples {
		v := vector(s)
		for f := 0; f < Features; f++ {
			points[i][f] = (v[f] - p.Mean[f]) / p.Std[f]
		}
	}
	return points
}

// Inverse maps a standardized point back to physical units
func (p Params) Inverse(z Point) (temperature, illumination float64) {
	return z[0]*p.Std[0] + p.Mean[0], z[1]*p.Std[1] + p.Mean[1]
}

// FitTransform fits the parameters on samples and transforms them
func FitTransform(samples []align.Sample) ([]Point, Params) {
	p := Fit(samples)
	return p.Transform(samples), p
}

// epsilon is the spacing of float64 values around 1
const epsilon = 0x1p-52

// isNearZero reports whether std is rounding noise relative to the mean,
// as left behind by summing a constant feature.
func isNearZero(std, mean float64) bool {
	return std <= 10*epsilon*math.Max(1, math.Abs(mean))
}

func vector(s align.Sample) [Features]float64 {
	return [Features]float64{s.Temperature, s.Illumination}
}
