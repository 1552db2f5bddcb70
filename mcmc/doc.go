// SPDX-License-Identifier: MIT

// Package mcmc fits pinned joint models by Markov chain Monte Carlo with
// windowed adaptation.
//
// The driver follows the Stan warmup layout: an adaptation budget of N steps
// is split by WindowSizes into an initial fast window, slow windows of 1, 2,
// 4 and 8 units, and a final fast window. Every adaptation step tunes the
// step size by dual averaging; each slow window collects a running variance
// of the unconstrained state and, when it closes, commits it as the diagonal
// inverse mass matrix and restarts the step-size search.
//
//	steps:  | first |s|2s| 4s |   8s   | last |  results ...
//	tune:     eps    eps + variance       eps     fixed
//
// Sampling happens in unconstrained space: the target is the pinned model's
// unnormalized log density at bij.Forward(x) plus the forward
// log-det-Jacobian, with bij the model's default event-space bijector.
// Draws are reported on the constrained scale, keyed by free component name.
//
// Kernels are external to the driver and plug in through Kernel; RandomWalk
// is a Metropolis kernel that honours both tuned parameters.
//
// Configuration comes from functional options or a YAML Config validated
// with struct tags. Chains run concurrently, one goroutine each, under one
// context; cancelling it stops every chain at its next step.
package mcmc
