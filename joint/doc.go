// SPDX-License-Identifier: MIT

// Package joint composes component distributions into joint models over
// interdependent random variables.
//
// Model kinds:
//   - Sequential: an ordered list; a component is a Distribution or a
//     Downstream maker that receives the most recent upstream values, most
//     recent first.
//   - Named: a mapping (map[string]any or *nest.OrderedMap) whose
//     DependsOn makers receive upstream values by name. Components are
//     visited in a deterministic topological order.
//   - Coroutine: a step function returning component i given the upstream
//     values, wrapped in Root when it depends on none of them.
//
// Every kind supplies one step-function protocol plus a flatten/unflatten
// bijection between its native value structure and the flat component
// order; sampling, log densities, shapes and the default event-space
// bijector are all built once on top of it.
//
// Calling convention:
// LogProb, Prob and Pin accept positional values and Kw keywords in one
// variadic list, resolved against the component names by ResolveValue.
// With components z, y, x all of these are equivalent:
//
//	jd.LogProb(1.0, 2.0, 3.0)
//	jd.LogProb(joint.Kw("z", 1.0), joint.Kw("y", 2.0), joint.Kw("x", 3.0))
//	jd.LogProb(1.0, 2.0, joint.Kw("x", 3.0))
//	jd.LogProb(joint.Kw("value", []any{1.0, 2.0, 3.0}))
//
// Concurrency:
//   - A Joint is safe for concurrent use. The only mutable state is the
//     per-context cache of single-sample component distributions: first
//     writer wins, later writers must agree.
package joint
