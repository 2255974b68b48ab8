package scale

import (
	"math"
	"testing"

	"github.com/smukkama/farm-report/internal/align"
)

const tolerance = 1e-9

func samples(pairs ...[2]float64) []align.Sample {
	out := make([]align.Sample, len(pairs))
	for i, p := range pairs {
		out[i] = align.Sample{Temperature: p[0], Illumination: p[1]}
	}
	return out
}

func TestFitTransform_ZeroMeanUnitVariance(t *testing.T) {
	in := samples([2]float64{20, 100}, [2]float64{22, 150}, [2]float64{30, 450}, [2]float64{28, 400})

	points, _ := FitTransform(in)

	for f := 0; f < Features; f++ {
		var sum, sumSq float64
		for _, p := range points {
			sum += p[f]
		}
		mean := sum / float64(len(points))
		for _, p := range points {
			sumSq += (p[f] - mean) * (p[f] - mean)
		}
		variance := sumSq / float64(len(points))

		if math.Abs(mean) > tolerance {
			t.Errorf("feature %d: expected zero mean, got %v", f, mean)
		}
		if math.Abs(variance-1) > tolerance {
			t.Errorf("feature %d: expected unit variance, got %v", f, variance)
		}
	}
}

func TestInverse_RoundTrip(t *testing.T) {
	in := samples([2]float64{18.2, 80}, [2]float64{25.5, 310}, [2]float64{31.1, 520})

	points, params := FitTransform(in)

	for i, p := range points {
		temp, light := params.Inverse(p)
		if math.Abs(temp-in[i].Temperature) > tolerance {
			t.Errorf("sample %d: temperature %v != %v", i, temp, in[i].Temperature)
		}
		if math.Abs(light-in[i].Illumination) > tolerance {
			t.Errorf("sample %d: illumination %v != %v", i, light, in[i].Illumination)
		}
	}
}

func TestFit_ConstantFeature(t *testing.T) {
	in := samples([2]float64{25, 100}, [2]float64{25, 200}, [2]float64{25, 300})

	points, params := FitTransform(in)

	if params.Std[0] != 1 {
		t.Errorf("Expected std fallback of 1 for constant feature, got %v", params.Std[0])
	}
	for i, p := range points {
		for f := 0; f < Features; f++ {
			if math.IsNaN(p[f]) || math.IsInf(p[f], 0) {
				t.Errorf("point %d feature %d is not finite: %v", i, f, p[f])
			}
		}
		if p[0] != 0 {
			t.Errorf("point %d: expected constant feature to map to 0, got %v", i, p[0])
		}
		temp, _ := params.Inverse(p)
		if temp != 25 {
			t.Errorf("point %d: expected inverse 25, got %v", i, temp)
		}
	}
}

func TestFit_ConstantFeatureWithRoundingNoise(t *testing.T) {
	var in []align.Sample
	for i := 0; i < 10; i++ {
		in = append(in, align.Sample{Temperature: 25.1, Illumination: float64(100 + i*10)})
	}

	points, params := FitTransform(in)

	if params.Std[0] != 1 {
		t.Fatalf("Expected std fallback of 1 for 25.1 repeated, got %v", params.Std[0])
	}
	for i, p := range points {
		if math.Abs(p[0]) > tolerance {
			t.Errorf("point %d: expected constant feature near 0, got %v", i, p[0])
		}
	}
}

func TestFit_Empty(t *testing.T) {
	points, params := FitTransform(nil)
	if len(points) != 0 {
		t.Errorf("Expected no points, got %d", len(points))
	}
	if params.Std != [Features]float64{1, 1} {
		t.Errorf("Expected unit std for empty batch, got %v", params.Std)
	}
}
