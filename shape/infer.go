// SPDX-License-Identifier: MIT

package shape

import (
	"errors"
	"fmt"
)

// ErrIncompatible indicates two shapes carry contradicting static information.
var ErrIncompatible = errors.New("shape: incompatible shapes")

// Broadcast returns the NumPy broadcast of a and b.
// Unknown dims broadcast to unknown unless the other side is known and != 1.
//
// Errors: ErrIncompatible when two known dims differ and neither is 1.
func Broadcast(a, b Shape) (Shape, error) {
	if a.unknownRank || b.unknownRank {
		return Unknown(), nil
	}
	n := len(a.dims)
	if len(b.dims) > n {
		n = len(b.dims)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		da, db := 1, 1
		if j := len(a.dims) - n + i; j >= 0 {
			da = a.dims[j]
		}
		if j := len(b.dims) - n + i; j >= 0 {
			db = b.dims[j]
		}
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		case da == UnknownDim || db == UnknownDim:
			out[i] = UnknownDim
		default:
			return Shape{}, fmt.Errorf("%w: cannot broadcast %v with %v", ErrIncompatible, a, b)
		}
	}
	return Shape{dims: out}, nil
}

// InferSampleShape merges into x every static fact implied by
// x = sample + batch + event.
//
// Implementation:
//   - Stage 1: infer rank(x) when the sample, batch and event ranks are known.
//   - Stage 2: with rank(x) and rank(sample) known, x starts with sample.
//   - Stage 3: with rank(x) and rank(event) known, x ends with event.
//   - Stage 4: with batch rank known, derive the missing one of the sample or
//     event ranks from the other three, then place batch in the middle.
//
// Complexity: O(rank).
//
// Errors: ErrIncompatible when the pieces contradict x or each other.
func InferSampleShape(x, sample, batch, event Shape) (Shape, error) {
	ndims, ndimsKnown := x.Rank()
	sampleNdims, sampleKnown := sample.Rank()
	batchNdims, batchKnown := batch.Rank()
	eventNdims, eventKnown := event.Rank()
	var err error

	// Stage 1: total rank.
	if !ndimsKnown && sampleKnown && batchKnown && eventKnown {
		ndims, ndimsKnown = sampleNdims+batchNdims+eventNdims, true
		if x, err = x.MergeWith(OfRank(ndims)); err != nil {
			return Shape{}, err
		}
	}

	// Stage 2: leading sample segment.
	if ndimsKnown && sampleKnown {
		if ndims < sampleNdims {
			return Shape{}, fmt.Errorf("%w: rank %d shorter than sample rank %d", ErrIncompatible, ndims, sampleNdims)
		}
		if x, err = x.MergeWith(sample.Concat(OfRank(ndims - sampleNdims))); err != nil {
			return Shape{}, err
		}
	}

	// Stage 3: trailing event segment.
	if ndimsKnown && eventKnown {
		if ndims < eventNdims {
			return Shape{}, fmt.Errorf("%w: rank %d shorter than event rank %d", ErrIncompatible, ndims, eventNdims)
		}
		if x, err = x.MergeWith(OfRank(ndims - eventNdims).Concat(event)); err != nil {
			return Shape{}, err
		}
	}

	// Stage 4: middle batch segment.
	if batchKnown {
		if ndimsKnown {
			if !sampleKnown && eventKnown {
				sampleNdims, sampleKnown = ndims-batchNdims-eventNdims, true
			} else if !eventKnown && sampleKnown {
				eventNdims, eventKnown = ndims-batchNdims-sampleNdims, true
			}
		}
		if sampleKnown && eventKnown {
			if sampleNdims < 0 || eventNdims < 0 {
				return Shape{}, fmt.Errorf("%w: rank %d too small for batch rank %d", ErrIncompatible, ndims, batchNdims)
			}
			if x, err = x.MergeWith(OfRank(sampleNdims).Concat(batch).Concat(OfRank(eventNdims))); err != nil {
				return Shape{}, err
			}
		}
	}

	return x, nil
}
