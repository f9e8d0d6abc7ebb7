// Package rng supplies the random primitives the engine needs: a uniform
// deviate on (0,1) and a Poisson deviate for mean lambda >= 0, each bound to
// a private *rand.Rand so that replicate workers never share mutable PRNG
// state (see spec §5 - shared resources).
package rng

import (
	"math"
	"math/rand"
)

// poissonSwitch is the mean above which the rejection method is used instead
// of the direct (cumulative-product) method, per the reference algorithm's
// design notes.
const poissonSwitch = 12.0

// Source is a per-worker random number generator. It is not safe for
// concurrent use - each replicate worker owns one.
type Source struct {
	r *rand.Rand

	// cached state for the rejection-method Poisson sampler, reset whenever
	// lambda changes.
	haveExp  bool
	expLambda float64
	sq, aLam, gLam float64
}

// New returns a Source seeded deterministically from seed. Two Sources
// constructed with the same seed draw identical sequences.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Uniform returns a deviate in (0,1).
func (s *Source) Uniform() float64 {
	// rand.Float64 returns [0,1); nudge away from the closed end so callers
	// that take log(u) or multiply by u never see a zero.
	u := s.r.Float64()
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	return u
}

// Intn returns a uniform integer in [0,n).
func (s *Source) Intn(n int) int {
	return s.r.Intn(n)
}

// Poisson draws a single Poisson(lambda) deviate. lambda must be >= 0; a
// negative mean is a numerical degeneracy the engine must never produce
// (spec §7) and Poisson panics rather than silently clamping it.
func (s *Source) Poisson(lambda float64) int {
	if lambda < 0 {
		panic("rng: negative Poisson mean")
	}
	if lambda == 0 {
		return 0
	}
	if lambda < poissonSwitch {
		return s.poissonDirect(lambda)
	}
	return s.poissonRejection(lambda)
}

// poissonDirect implements Knuth's multiply-uniforms-until-below-e^-lambda
// method, appropriate for small means.
func (s *Source) poissonDirect(lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= s.Uniform()
		if p <= l {
			return k - 1
		}
	}
}

// poissonRejection implements the standard rejection-method Poisson
// generator for large means, comparing against a Lorentzian envelope, as
// described by the reference design (rejection above mean 12).
func (s *Source) poissonRejection(lambda float64) int {
	if !s.haveExp || s.expLambda != lambda {
		s.expLambda = lambda
		s.sq = math.Sqrt(2 * lambda)
		s.aLam = math.Log(lambda)
		s.gLam = lambda*s.aLam - LogGamma(lambda+1)
		s.haveExp = true
	}
	for {
		var y, z float64
		for {
			z = math.Tan(math.Pi * s.Uniform())
			y = lambda + z*s.sq
			if y >= 0 {
				break
			}
		}
		k := math.Floor(y)
		t := 0.9 * (1 + z*z) * math.Exp(k*s.aLam-LogGamma(k+1)-s.gLam)
		if s.Uniform() <= t {
			return int(k)
		}
	}
}

// LogGamma returns ln(Gamma(x)). The factor table (spec §4.1) needs this for
// the Poisson PMF; math.Lgamma is the idiomatic stdlib primitive for it and
// no example in the retrieval pack reaches for a third-party special
// functions package to replace it, so it stays on the standard library.
func LogGamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
