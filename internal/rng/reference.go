package rng

import (
	"fmt"

	rv "github.com/kentwait/randomvariate"
)

// SelfCheckPoisson draws `samples` independent Poisson(lambda) deviates from
// the reference randomvariate implementation and returns their empirical
// mean and variance. It exists to let config validation catch a
// misconfigured lambda (spec §7's "numerical degeneracy" class) before the
// replicate loop starts.
//
// randomvariate.Poisson holds no exposed *rand.Rand parameter in any call
// site the retrieval pack shows (it draws from its own internal source), so
// it is not safe to hand to concurrent per-worker samplers - that is why the
// hot reproduction/migration path in internal/engine uses Source.Poisson
// instead. This function is deliberately single-threaded, startup-only
// tooling: a reference cross-check, not the production sampler.
func SelfCheckPoisson(lambda float64, samples int) (mean, variance float64, err error) {
	if lambda < 0 {
		return 0, 0, fmt.Errorf("rng: self-check requires lambda >= 0, got %g", lambda)
	}
	if samples <= 1 {
		return 0, 0, fmt.Errorf("rng: self-check requires samples > 1, got %d", samples)
	}
	sum := 0.0
	sumSq := 0.0
	for i := 0; i < samples; i++ {
		x := float64(rv.Poisson(lambda))
		sum += x
		sumSq += x * x
	}
	mean = sum / float64(samples)
	variance = sumSq/float64(samples) - mean*mean
	return mean, variance, nil
}
