// SPDX-License-Identifier: MIT

package joint

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jeffpollock9/probability/distribution"
	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/tensor"
)

// model is the step-function protocol every joint-model kind supplies.
type model interface {
	// kind names the model family, e.g. "JointDistributionSequential".
	kind() string
	// step returns component i given the values of components 0..i-1 in
	// flat order, and whether it is a root (independent of upstream). A nil
	// distribution means the model has fewer than i+1 components.
	step(i int, upstream []*tensor.Dense) (distribution.Distribution, bool, error)
	// flatten lists the entries of a value structure in flat order; n is
	// the number of components.
	flatten(value any, n int) ([]any, error)
	// unflatten is the inverse of flatten.
	unflatten(flat []any) (any, error)
	// names returns the component names fixed by the model itself, or nil
	// when they come from the component distributions.
	names() []string
}

// DownstreamFunc builds a component from upstream values.
type DownstreamFunc func(upstream ...*tensor.Dense) (distribution.Distribution, error)

// Downstream is a Sequential component that depends on the arity most
// recent upstream components, passed most recent first.
type Downstream struct {
	Arity int
	Fn    DownstreamFunc
}

// NewDownstream builds a Downstream maker.
func NewDownstream(arity int, fn DownstreamFunc) Downstream {
	return Downstream{Arity: arity, Fn: fn}
}

// sequentialModel is an ordered list of components.
type sequentialModel struct {
	components []any
}

func newSequentialModel(components []any) (*sequentialModel, error) {
	for i, c := range components {
		switch x := c.(type) {
		case distribution.Distribution:
		case Downstream:
			if x.Fn == nil || x.Arity < 0 || x.Arity > i {
				return nil, jointErrorf("Sequential", ErrModel, "component %d: arity %d with %d upstream components", i, x.Arity, i)
			}
		default:
			return nil, jointErrorf("Sequential", ErrModel, "component %d has type %T", i, c)
		}
	}
	return &sequentialModel{components: slices.Clone(components)}, nil
}

func (m *sequentialModel) kind() string { return "JointDistributionSequential" }

func (m *sequentialModel) names() []string { return nil }

func (m *sequentialModel) step(i int, upstream []*tensor.Dense) (distribution.Distribution, bool, error) {
	if i >= len(m.components) {
		return nil, false, nil
	}
	switch c := m.components[i].(type) {
	case distribution.Distribution:
		return c, true, nil
	case Downstream:
		args := make([]*tensor.Dense, c.Arity)
		for k := range args {
			args[k] = upstream[len(upstream)-1-k]
		}
		d, err := c.Fn(args...)
		if err != nil {
			return nil, false, fmt.Errorf("component %d: %w", i, err)
		}
		if d == nil {
			return nil, false, fmt.Errorf("component %d: %w: maker returned nil", i, ErrModel)
		}
		return d, c.Arity == 0, nil
	}
	return nil, false, fmt.Errorf("component %d: %w", i, ErrModel)
}

func (m *sequentialModel) flatten(value any, n int) ([]any, error) {
	return flattenSequence(value, n)
}

func (m *sequentialModel) unflatten(flat []any) (any, error) { return slices.Clone(flat), nil }

func flattenSequence(value any, n int) ([]any, error) {
	var xs []any
	switch v := value.(type) {
	case []any:
		xs = v
	case *nest.NamedTuple:
		xs = v.Values
	default:
		return nil, fmt.Errorf("%w: want a sequence of %d components, got %T", ErrStructureMismatch, n, value)
	}
	if len(xs) != n {
		return nil, fmt.Errorf("%w: want %d components, got %d", ErrStructureMismatch, n, len(xs))
	}
	return slices.Clone(xs), nil
}

// NamedFunc builds a component from the values of the components it
// depends on, in DependsOn order.
type NamedFunc func(args ...*tensor.Dense) (distribution.Distribution, error)

// DependsOnMaker is a Named component built from the named upstream
// components.
type DependsOnMaker struct {
	Names []string
	Fn    NamedFunc
}

// DependsOn builds a Named component maker over the listed upstream names.
func DependsOn(fn NamedFunc, names ...string) DependsOnMaker {
	return DependsOnMaker{Names: slices.Clone(names), Fn: fn}
}

// namedModel is a mapping of components visited in topological order.
type namedModel struct {
	ordered    bool
	declared   []string
	components map[string]any
	order      []string
	position   map[string]int
}

func newNamedModel(spec any) (*namedModel, error) {
	const op = "Named"
	m := &namedModel{components: make(map[string]any)}
	switch s := spec.(type) {
	case map[string]any:
		m.declared = slices.Sorted(maps.Keys(s))
		maps.Copy(m.components, s)
	case *nest.OrderedMap:
		m.ordered = true
		m.declared = s.Keys()
		for _, k := range m.declared {
			v, _ := s.Get(k)
			m.components[k] = v
		}
	default:
		return nil, jointErrorf(op, ErrModel, "model must be map[string]any or *nest.OrderedMap, got %T", spec)
	}
	for _, k := range m.declared {
		switch c := m.components[k].(type) {
		case distribution.Distribution:
		case DependsOnMaker:
			if c.Fn == nil {
				return nil, jointErrorf(op, ErrModel, "component %q has a nil maker", k)
			}
			for _, dep := range c.Names {
				if _, ok := m.components[dep]; !ok {
					return nil, jointErrorf(op, ErrModel, "component %q depends on unknown %q", k, dep)
				}
			}
		default:
			return nil, jointErrorf(op, ErrModel, "component %q has type %T", k, c)
		}
	}
	order, err := m.topologicalOrder()
	if err != nil {
		return nil, jointErrorf(op, ErrModel, "%v", err)
	}
	m.order = order
	m.position = make(map[string]int, len(order))
	for i, k := range order {
		m.position[k] = i
	}
	return m, nil
}

// topologicalOrder visits components in declared order (sorted keys for an
// unordered map), dependencies first.
// Implementation:
//   - White/Gray/Black DFS; reaching a Gray component is a cycle.
//
// Complexity: O(V + E).
func (m *namedModel) topologicalOrder() ([]string, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(m.declared))
	order := make([]string, 0, len(m.declared))
	var visit func(k string, path []string) error
	visit = func(k string, path []string) error {
		switch color[k] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("dependency cycle %v", append(path, k))
		}
		color[k] = gray
		if c, ok := m.components[k].(DependsOnMaker); ok {
			for _, dep := range c.Names {
				if err := visit(dep, append(path, k)); err != nil {
					return err
				}
			}
		}
		color[k] = black
		order = append(order, k)
		return nil
	}
	for _, k := range m.declared {
		if err := visit(k, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (m *namedModel) kind() string { return "JointDistributionNamed" }

func (m *namedModel) names() []string { return slices.Clone(m.order) }

func (m *namedModel) step(i int, upstream []*tensor.Dense) (distribution.Distribution, bool, error) {
	if i >= len(m.order) {
		return nil, false, nil
	}
	k := m.order[i]
	switch c := m.components[k].(type) {
	case distribution.Distribution:
		return c, true, nil
	case DependsOnMaker:
		args := make([]*tensor.Dense, len(c.Names))
		for j, dep := range c.Names {
			args[j] = upstream[m.position[dep]]
		}
		d, err := c.Fn(args...)
		if err != nil {
			return nil, false, fmt.Errorf("component %q: %w", k, err)
		}
		if d == nil {
			return nil, false, fmt.Errorf("component %q: %w: maker returned nil", k, ErrModel)
		}
		return d, len(c.Names) == 0, nil
	}
	return nil, false, fmt.Errorf("component %q: %w", k, ErrModel)
}

// flatten reads each component by name; absent names flatten to nil.
func (m *namedModel) flatten(value any, _ int) ([]any, error) {
	var get func(string) (any, bool)
	var keys []string
	switch v := value.(type) {
	case map[string]any:
		get = func(k string) (any, bool) {
			x, ok := v[k]
			return x, ok
		}
		keys = slices.Collect(maps.Keys(v))
	case *nest.OrderedMap:
		get, keys = v.Get, v.Keys()
	case *nest.NamedTuple:
		get, keys = v.Get, v.Fields
	default:
		return nil, fmt.Errorf("%w: want a mapping of components %v, got %T", ErrStructureMismatch, m.order, value)
	}
	for _, k := range keys {
		if _, ok := m.position[k]; !ok {
			return nil, fmt.Errorf("%w: unknown component %q (components %v)", ErrStructureMismatch, k, m.order)
		}
	}
	out := make([]any, len(m.order))
	for i, k := range m.order {
		out[i], _ = get(k)
	}
	return out, nil
}

// unflatten rebuilds the model's own mapping type; an ordered model keeps
// its declared key order.
func (m *namedModel) unflatten(flat []any) (any, error) {
	if len(flat) != len(m.order) {
		return nil, fmt.Errorf("%w: want %d components, got %d", ErrStructureMismatch, len(m.order), len(flat))
	}
	if !m.ordered {
		out := make(map[string]any, len(flat))
		for i, k := range m.order {
			out[k] = flat[i]
		}
		return out, nil
	}
	out := nest.NewOrderedMap()
	for _, k := range m.declared {
		out.Set(k, flat[m.position[k]])
	}
	return out, nil
}

// Root marks a Coroutine component that depends on no upstream value.
type Root struct {
	Distribution distribution.Distribution
}

// StepFunc yields component i of a Coroutine model given the upstream
// values: a distribution.Distribution, a Root, or nil when done.
type StepFunc func(i int, upstream []*tensor.Dense) (any, error)

// coroutineModel drives a step function.
type coroutineModel struct {
	fn StepFunc
}

func (m *coroutineModel) kind() string { return "JointDistributionCoroutine" }

func (m *coroutineModel) names() []string { return nil }

func (m *coroutineModel) step(i int, upstream []*tensor.Dense) (distribution.Distribution, bool, error) {
	c, err := m.fn(i, slices.Clone(upstream))
	if err != nil {
		return nil, false, fmt.Errorf("component %d: %w", i, err)
	}
	switch x := c.(type) {
	case nil:
		return nil, false, nil
	case Root:
		if x.Distribution == nil {
			return nil, false, fmt.Errorf("component %d: %w: nil Root", i, ErrModel)
		}
		return x.Distribution, true, nil
	case distribution.Distribution:
		return x, false, nil
	default:
		return nil, false, fmt.Errorf("component %d: %w: step returned %T", i, ErrModel, c)
	}
}

func (m *coroutineModel) flatten(value any, n int) ([]any, error) {
	return flattenSequence(value, n)
}

func (m *coroutineModel) unflatten(flat []any) (any, error) { return slices.Clone(flat), nil }
