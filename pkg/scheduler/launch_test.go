package scheduler

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestQuantizeTarget(t *testing.T) {
	cases := []struct {
		beat, quantum, want float64
	}{
		{3.2, 1, 4},
		{4.0, 1, 4},
		{0, 1, 0},
		{0.1, 0.5, 0.5},
		{7.5, 0.5, 7.5},
		{7.6, 2, 8},
		{8.0, 4, 8},
	}
	for _, tc := range cases {
		if got := quantizeTarget(tc.beat, tc.quantum); got != tc.want {
			t.Errorf("quantizeTarget(%g, %g) = %g, want %g", tc.beat, tc.quantum, got, tc.want)
		}
	}
}

func TestQuantizeTargetProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	beats := gen.Float64Range(0, 10000)
	quanta := gen.Float64Range(0.01, 16)

	properties.Property("target never precedes the request", prop.ForAll(
		func(beat, quantum float64) bool {
			return quantizeTarget(beat, quantum) >= beat-beatEpsilon
		},
		beats, quanta,
	))

	properties.Property("target is less than one quantum away", prop.ForAll(
		func(beat, quantum float64) bool {
			return quantizeTarget(beat, quantum)-beat < quantum+beatEpsilon
		},
		beats, quanta,
	))

	properties.Property("target sits on the grid", prop.ForAll(
		func(beat, quantum float64) bool {
			target := quantizeTarget(beat, quantum)
			_, frac := math.Modf(target / quantum)
			return frac < 1e-6 || frac > 1-1e-6
		},
		beats, quanta,
	))

	properties.TestingRun(t)
}
