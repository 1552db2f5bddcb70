// SPDX-License-Identifier: MIT

package joint

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jeffpollock9/probability/nest"
)

// Reserved keyword and component names.
const (
	keywordValue = "value"
	keywordName  = "name"
)

// forbiddenNames may not name a component.
var forbiddenNames = []string{keywordValue, keywordName}

// Keyword is a named call argument.
type Keyword struct {
	Name  string
	Value any
}

// Kw builds a keyword argument for LogProb, Prob, Pin and Sample.
func Kw(name string, v any) Keyword { return Keyword{Name: name, Value: v} }

// String renders name=value.
func (k Keyword) String() string { return fmt.Sprintf("%s=%v", k.Name, k.Value) }

// splitArgs separates positional values from keywords.
//
// Errors: ErrInvalidArgument for a positional value after a keyword or a
// repeated keyword.
func splitArgs(op string, args []any) ([]any, []Keyword, error) {
	var pos []any
	var kws []Keyword
	for _, a := range args {
		switch kw := a.(type) {
		case Keyword:
			if slices.ContainsFunc(kws, func(k Keyword) bool { return k.Name == kw.Name }) {
				return nil, nil, jointErrorf(op, ErrInvalidArgument, "keyword %q repeated", kw.Name)
			}
			kws = append(kws, kw)
		case *Keyword:
			return nil, nil, jointErrorf(op, ErrInvalidArgument, "pass keywords by value, got *Keyword %q", kw.Name)
		default:
			if len(kws) > 0 {
				return nil, nil, jointErrorf(op, ErrInvalidArgument, "positional argument follows keyword %q", kws[len(kws)-1].Name)
			}
			pos = append(pos, a)
		}
	}
	return pos, kws, nil
}

func keywordIndex(kws []Keyword, name string) int {
	return slices.IndexFunc(kws, func(k Keyword) bool { return k.Name == name })
}

// ResolveValue arranges call arguments into a value structure matching
// dtype, the model's structure of component dtypes. flatNames are the
// component names in flat order; flatten and unflatten convert between the
// model's structure and that order.
//
// Resolution:
//   - A non-nil "value" keyword is the whole structure; every other keyword
//     is returned unmatched.
//   - Keywords naming components are matched; the rest are unmatched.
//   - A sole positional argument with no matched keyword is the whole
//     structure when the model has several components. With one component
//     it is that component's value when it nests like the component dtype
//     (types not checked), else the whole structure. A []any{4.0} therefore
//     resolves to the same value as 4.0, and a []float64 is a leaf that
//     always names the component.
//   - Otherwise positional plus matched keywords must cover every component
//     exactly; positional arguments are rejected for unordered-mapping
//     models. Components take their keyword when present, else the next
//     unused positional argument.
//
// Errors: ErrInvalidArgument for a count mismatch or positional arguments
// to an unordered-mapping model; errors from unflatten.
func ResolveValue(args []any, kwargs []Keyword, dtype any, flatNames []string,
	flatten func(any) ([]any, error), unflatten func([]any) (any, error),
) (any, []Keyword, error) {
	return resolve(args, kwargs, dtype, flatNames, flatten, unflatten, false)
}

// resolve implements ResolveValue. With partial set the arguments may cover
// a subset of the components; the rest resolve to nil.
func resolve(args []any, kwargs []Keyword, dtype any, flatNames []string,
	flatten func(any) ([]any, error), unflatten func([]any) (any, error), partial bool,
) (any, []Keyword, error) {
	const op = "ResolveValue"
	if i := keywordIndex(kwargs, keywordValue); i >= 0 {
		rest := slices.Delete(slices.Clone(kwargs), i, i+1)
		if kwargs[i].Value != nil {
			return kwargs[i].Value, rest, nil
		}
		kwargs = rest
	}

	var matched, unmatched []Keyword
	for _, kw := range kwargs {
		if slices.Contains(flatNames, kw.Name) {
			matched = append(matched, kw)
		} else {
			unmatched = append(unmatched, kw)
		}
	}

	if len(args) == 1 && len(matched) == 0 {
		if nest.Len(dtype) > 1 {
			return args[0], unmatched, nil
		}
		flat, err := flatten(dtype)
		if err != nil || len(flat) == 0 {
			return args[0], unmatched, nil
		}
		if nest.AssertSameStructure(flat[0], args[0], false) != nil {
			return args[0], unmatched, nil
		}
		v, err := unflatten(args)
		if err != nil {
			return args[0], unmatched, nil
		}
		return v, unmatched, nil
	}

	specified := len(args) + len(kwargs) - len(unmatched)
	if specified != len(flatNames) && !(partial && specified < len(flatNames)) {
		return nil, nil, jointErrorf(op, ErrInvalidArgument,
			"expected values for %d components %v; saw %d (from args %v and kwargs %v)",
			len(flatNames), flatNames, specified, args, kwargs)
	}
	if len(args) > 0 && nest.IsUnorderedMapping(dtype) {
		return nil, nil, jointErrorf(op, ErrInvalidArgument,
			"joint distribution with unordered variables can't take positional args (saw %v)", args)
	}

	flat := make([]any, len(flatNames))
	next := 0
	for i, name := range flatNames {
		if k := keywordIndex(matched, name); k >= 0 {
			flat[i] = matched[k].Value
			continue
		}
		if next < len(args) {
			flat[i] = args[next]
			next++
		}
	}
	if next < len(args) {
		return nil, nil, jointErrorf(op, ErrInvalidArgument,
			"%d positional args left over for components %v", len(args)-next, flatNames)
	}
	v, err := unflatten(flat)
	if err != nil {
		return nil, nil, err
	}
	return v, unmatched, nil
}

// checkUnmatched rejects keywords that name no component, except "name".
func checkUnmatched(op string, unmatched []Keyword, names []string) error {
	var bad []string
	for _, kw := range unmatched {
		if kw.Name != keywordName {
			bad = append(bad, kw.Name)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return jointErrorf(op, ErrInvalidArgument,
		"found unexpected keyword arguments; distribution names are %s but these names were invalid: %s",
		strings.Join(names, ", "), strings.Join(bad, ", "))
}
