// SPDX-License-Identifier: MIT

// Package special provides numerically stable special functions used inside
// distributions:
//
//   - OwensT(h, a): Owen's T function, used by the skew-normal CDF.
//   - LambertW(z), LambertWWinitzkiApprox(z): principal branch W0 and its
//     closed-form approximation.
//   - LogGammaCorrection(x): lgamma(x) minus Stirling's approximation, x >= 8.
//   - LogGammaDifference(x, y): lgamma(y) - lgamma(x+y) without cancellation
//     when y is large.
//   - Lbeta(x, y): log of the Beta function, stable for large arguments.
//
// Every scalar function has a broadcasting tensor counterpart (…Tensor).
// Out-of-domain inputs return NaN rather than an error, matching math.Lgamma
// and friends.
package special
