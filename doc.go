// SPDX-License-Identifier: MIT

// Package probability is a small probabilistic-programming layer: probability
// distributions, joint models over interdependent random variables, and an
// adaptive MCMC driver that fits those models to data.
//
// Packages:
//
//	shape/         static shapes with unknown ranks and dims, sample shape inference
//	tensor/        dense float64 n-d arrays with broadcasting and batch slicing
//	samplers/      explicit, splittable seeds and seeded draws
//	nest/          nested value structures: flatten, pack, structure checks
//	special/       Owen's T, Lambert W, log-gamma difference, log-beta
//	bijector/      event-space bijectors (Identity, Exp, Softplus, Sigmoid)
//	distribution/  Distribution base, fallback measures, KL registry, families
//	joint/         Sequential, Named and Coroutine joint models; pinning
//	mcmc/          windowed step-size and mass-matrix adaptation over chains
//
// Quick example:
//
//	mu ~ Normal(0, 1), obs ~ Normal(mu, 1), obs pinned at 1.3:
//
//	j, _ := joint.NewNamed(map[string]any{"mu": mu, "obs": obs})
//	posterior, _ := j.Pin(joint.Kw("obs", 1.3))
//	res, _ := mcmc.WindowedAdaptive(ctx, posterior, mcmc.RandomWalk{})
//
// See examples/ for runnable programs.
package probability
