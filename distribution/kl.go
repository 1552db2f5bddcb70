// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"math"
	"sync"

	"github.com/jeffpollock9/probability/tensor"
)

// AnyKind is the wildcard kind name in the divergence registry.
const AnyKind = "*"

// DivergenceFunc computes a pairwise measure between p and q.
type DivergenceFunc func(p, q Distribution) (*tensor.Dense, error)

type kindPair struct{ p, q string }

// registry is a pairwise table keyed by (kind name of p, kind name of q).
type registry struct {
	mu    sync.RWMutex
	table map[kindPair]DivergenceFunc
}

var (
	klRegistry = &registry{table: make(map[kindPair]DivergenceFunc)}
	ceRegistry = &registry{table: make(map[kindPair]DivergenceFunc)}
	nanValue   = math.NaN()
)

func (r *registry) register(what, p, q string, fn DivergenceFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := kindPair{p, q}
	if _, dup := r.table[key]; dup {
		panic(fmt.Sprintf("distribution: %s(%s, %s) already registered", what, p, q))
	}
	r.table[key] = fn
}

// lookup tries (p, q), (p, *), (*, q), (*, *) in that order.
func (r *registry) lookup(p, q string) DivergenceFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, key := range []kindPair{{p, q}, {p, AnyKind}, {AnyKind, q}, {AnyKind, AnyKind}} {
		if fn, ok := r.table[key]; ok {
			return fn
		}
	}
	return nil
}

// RegisterKL installs KL[p‖q] for the kind names p and q (AnyKind matches
// every kind). Panics on duplicate registration; intended for init().
func RegisterKL(p, q string, fn DivergenceFunc) { klRegistry.register("KL", p, q, fn) }

// RegisterCrossEntropy installs H[p, q] for the kind names p and q.
// Panics on duplicate registration; intended for init().
func RegisterCrossEntropy(p, q string, fn DivergenceFunc) {
	ceRegistry.register("CrossEntropy", p, q, fn)
}

// KLDivergence returns KL[self‖other]. Uses the registered KL for the kind
// pair; otherwise H[self, other] - H[self] when a cross entropy is registered.
//
// Errors: ErrNotImplemented when neither is registered.
func (b *Base) KLDivergence(other Distribution) (*tensor.Dense, error) {
	const op = "KLDivergence"
	if err := b.scope(op, nil); err != nil {
		return nil, err
	}
	p, q := b.kind.Name(), other.Kind().Name()
	if fn := klRegistry.lookup(p, q); fn != nil {
		out, err := fn(b.self, other)
		if err != nil {
			return nil, b.errorf(op, err, "")
		}
		return out, nil
	}
	if fn := ceRegistry.lookup(p, q); fn != nil {
		ce, err := fn(b.self, other)
		if err != nil {
			return nil, b.errorf(op, err, "")
		}
		h, err := b.self.Entropy()
		if err != nil {
			return nil, err
		}
		out, err := tensor.Sub(ce, h)
		if err != nil {
			return nil, b.errorf(op, err, "")
		}
		return out, nil
	}
	return nil, b.errorf(op, ErrNotImplemented, "no KL registered for (%s, %s)", p, q)
}

// CrossEntropy returns H[self, other] = -E_self[log other]. Uses the
// registered cross entropy; otherwise KL[self‖other] + H[self].
//
// Errors: ErrNotImplemented when neither is registered.
func (b *Base) CrossEntropy(other Distribution) (*tensor.Dense, error) {
	const op = "CrossEntropy"
	if err := b.scope(op, nil); err != nil {
		return nil, err
	}
	p, q := b.kind.Name(), other.Kind().Name()
	if fn := ceRegistry.lookup(p, q); fn != nil {
		out, err := fn(b.self, other)
		if err != nil {
			return nil, b.errorf(op, err, "")
		}
		return out, nil
	}
	if fn := klRegistry.lookup(p, q); fn != nil {
		kl, err := fn(b.self, other)
		if err != nil {
			return nil, b.errorf(op, err, "")
		}
		h, err := b.self.Entropy()
		if err != nil {
			return nil, err
		}
		out, err := tensor.Add(kl, h)
		if err != nil {
			return nil, b.errorf(op, err, "")
		}
		return out, nil
	}
	return nil, b.errorf(op, ErrNotImplemented, "no cross entropy or KL registered for (%s, %s)", p, q)
}
