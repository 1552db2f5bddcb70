// SPDX-License-Identifier: MIT

package tensor

import "math"

// Map returns f applied to every element.
// Complexity: O(size).
func (d *Dense) Map(f func(float64) float64) *Dense {
	buf := make([]float64, len(d.data))
	for i, v := range d.data {
		buf[i] = f(v)
	}
	return wrap(cloneInts(d.shape), buf)
}

// Exp returns e^x elementwise.
func (d *Dense) Exp() *Dense { return d.Map(math.Exp) }

// Log returns ln(x) elementwise.
func (d *Dense) Log() *Dense { return d.Map(math.Log) }

// Log1p returns ln(1+x) elementwise.
func (d *Dense) Log1p() *Dense { return d.Map(math.Log1p) }

// Expm1 returns e^x-1 elementwise.
func (d *Dense) Expm1() *Dense { return d.Map(math.Expm1) }

// Sqrt returns sqrt(x) elementwise.
func (d *Dense) Sqrt() *Dense { return d.Map(math.Sqrt) }

// Square returns x*x elementwise.
func (d *Dense) Square() *Dense { return d.Map(func(v float64) float64 { return v * v }) }

// Neg returns -x elementwise.
func (d *Dense) Neg() *Dense { return d.Map(func(v float64) float64 { return -v }) }

// Abs returns |x| elementwise.
func (d *Dense) Abs() *Dense { return d.Map(math.Abs) }

// Log1mExp returns log(1 - exp(x)) elementwise for x <= 0.
// Uses log(-expm1(x)) near zero and log1p(-exp(x)) elsewhere.
func (d *Dense) Log1mExp() *Dense { return d.Map(Log1mExp) }

// Log1mExp is the scalar kernel behind (*Dense).Log1mExp.
func Log1mExp(x float64) float64 {
	if x > -math.Ln2 {
		return math.Log(-math.Expm1(x))
	}
	return math.Log1p(-math.Exp(x))
}

// AddScalar returns x+c elementwise.
func (d *Dense) AddScalar(c float64) *Dense { return d.Map(func(v float64) float64 { return v + c }) }

// MulScalar returns x*c elementwise.
func (d *Dense) MulScalar(c float64) *Dense { return d.Map(func(v float64) float64 { return v * c }) }

// Add returns a+b with broadcasting.
func Add(a, b *Dense) (*Dense, error) {
	return binary("Add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a-b with broadcasting.
func Sub(a, b *Dense) (*Dense, error) {
	return binary("Sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns a*b with broadcasting.
func Mul(a, b *Dense) (*Dense, error) {
	return binary("Mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div returns a/b with broadcasting.
func Div(a, b *Dense) (*Dense, error) {
	return binary("Div", a, b, func(x, y float64) float64 { return x / y })
}

// AddN sums any number of tensors with broadcasting. An empty input yields Scalar(0).
func AddN(ts ...*Dense) (*Dense, error) {
	if len(ts) == 0 {
		return Scalar(0), nil
	}
	out, err := Apply(func(xs []float64) float64 {
		s := 0.0
		for _, x := range xs {
			s += x
		}
		return s
	}, ts...)
	if err != nil {
		return nil, tensorErrorf("AddN", err)
	}
	return out, nil
}

func binary(op string, a, b *Dense, f func(x, y float64) float64) (*Dense, error) {
	out, err := Apply(func(xs []float64) float64 { return f(xs[0], xs[1]) }, a, b)
	if err != nil {
		return nil, tensorErrorf(op, err)
	}
	return out, nil
}

// Any reports whether pred holds for at least one element.
func (d *Dense) Any(pred func(float64) bool) bool {
	for _, v := range d.data {
		if pred(v) {
			return true
		}
	}
	return false
}

// All reports whether pred holds for every element.
func (d *Dense) All(pred func(float64) bool) bool {
	for _, v := range d.data {
		if !pred(v) {
			return false
		}
	}
	return true
}

// SameShape reports whether a and b have identical shapes.
func SameShape(a, b *Dense) bool { return equalInts(a.shape, b.shape) }

// AllClose reports |a-b| <= atol + rtol*|b| elementwise after broadcasting.
// NaNs compare equal to NaNs; infinities must match exactly.
func AllClose(a, b *Dense, rtol, atol float64) bool {
	ok := true
	_, err := Apply(func(xs []float64) float64 {
		x, y := xs[0], xs[1]
		switch {
		case math.IsNaN(x) || math.IsNaN(y):
			if !(math.IsNaN(x) && math.IsNaN(y)) {
				ok = false
			}
		case math.IsInf(x, 0) || math.IsInf(y, 0):
			if x != y {
				ok = false
			}
		case math.Abs(x-y) > atol+rtol*math.Abs(y):
			ok = false
		}
		return 0
	}, a, b)
	return err == nil && ok
}
