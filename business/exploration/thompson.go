package exploration

import (
	"math"
	"math/rand"
)

// randSource is the subset of *rand.Rand the samplers draw from. The default
// delegates to the lock-protected package-level generator; tests inject a
// seeded *rand.Rand for reproducible draws.
type randSource interface {
	Float64() float64
	NormFloat64() float64
}

type sharedRand struct{}

func (sharedRand) Float64() float64     { return rand.Float64() }
func (sharedRand) NormFloat64() float64 { return rand.NormFloat64() }

// SampleBeta draws from Beta(alpha, beta) as x/(x+y) over two gamma draws.
func SampleBeta(rng randSource, alpha, beta float64) float64 {
	if alpha <= 0 {
		alpha = 1
	}
	if beta <= 0 {
		beta = 1
	}

	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)
	if x+y == 0 {
		return 0.5
	}

	return x / (x + y)
}

// sampleGamma draws from Gamma(shape, 1). Marsaglia-Tsang for shape >= 1;
// shapes below 1 use the Ahrens-Dieter reduction
// Gamma(a) = Gamma(a+1) * U^(1/a).
func sampleGamma(rng randSource, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)

	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v

		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
