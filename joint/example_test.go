// SPDX-License-Identifier: MIT

// Package joint_test shows how to assemble and evaluate joint models.
// Each example is runnable via "go test -run Example".
package joint_test

import (
	"fmt"

	"github.com/jeffpollock9/probability/distribution"
	"github.com/jeffpollock9/probability/joint"
	"github.com/jeffpollock9/probability/tensor"
)

// ExampleNewSequential builds z ~ N(0,1), x ~ N(z,1) and evaluates the
// joint density under two calling conventions.
func ExampleNewSequential() {
	// 1) Root component, named so it can be passed by keyword.
	z, _ := distribution.NewNormal(0.0, 1.0, distribution.WithName("z"))
	// 2) Downstream component: receives the most recent upstream value.
	x := joint.NewDownstream(1, func(up ...*tensor.Dense) (distribution.Distribution, error) {
		return distribution.NewNormal(up[0], 1.0, distribution.WithName("x"))
	})
	j, err := joint.NewSequential([]any{z, x})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	// 3) Names resolve from the components.
	names, _ := j.ResolveNames()
	fmt.Println(names)

	// 4) Positional and keyword calls resolve to the same value.
	a, _ := j.LogProb(0.0, 1.0)
	b, _ := j.LogProb(joint.Kw("x", 1.0), joint.Kw("z", 0.0))
	va, _ := a.Item()
	vb, _ := b.Item()
	fmt.Printf("%.4f %.4f\n", va, vb)
	// Output:
	// [z x]
	// -2.3379 -2.3379
}

// ExampleJoint_Pin conditions a model on an observation and evaluates the
// unnormalized posterior density of the rest.
func ExampleJoint_Pin() {
	mu, _ := distribution.NewNormal(0.0, 1.0)
	obs := joint.DependsOn(func(args ...*tensor.Dense) (distribution.Distribution, error) {
		return distribution.NewNormal(args[0], 1.0)
	}, "mu")
	j, _ := joint.NewNamed(map[string]any{"mu": mu, "obs": obs})

	// 1) Pin the observed component by name.
	p, err := j.Pin(joint.Kw("obs", 1.0))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(p.FreeNames())

	// 2) Evaluate at mu = 0.
	lp, _ := p.UnnormalizedLogProb(joint.Kw("mu", 0.0))
	v, _ := lp.Item()
	fmt.Printf("%.4f\n", v)
	// Output:
	// [mu]
	// -2.3379
}
