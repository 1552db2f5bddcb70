// SPDX-License-Identifier: MIT

// Package samplers provides explicit, splittable random seeds and the basic
// draws (normal, uniform) that distributions build on.
//
// Goals:
//   - Determinism: same seed ⇒ identical draws across platforms.
//   - No hidden global state: every draw takes a Seed value.
//   - Independence: Split derives child seeds with a SplitMix64 avalanche mix,
//     so parallel chains or model components never share a stream.
//
// Concurrency:
//   - Seed is an immutable value and safe to share. The rand.Source returned by
//     Source is NOT goroutine-safe; create one per goroutine.
package samplers

import (
	"fmt"
	"math/rand/v2"
)

// defaultSeedWord is the fixed word used when callers pass seed==0 to NewSeed.
const defaultSeedWord uint64 = 1

// Seed is a stateless random seed: two 64-bit words feeding a PCG source.
type Seed [2]uint64

// NewSeed returns a deterministic Seed from an integer.
// Policy: v==0 ⇒ defaultSeedWord; otherwise v is mixed verbatim.
//
// Complexity: O(1).
func NewSeed(v int64) Seed {
	w := uint64(v)
	if w == 0 {
		w = defaultSeedWord
	}
	return Seed{mix(w, 0), mix(w, 1)}
}

// Split derives n independent child seeds.
//
// Complexity: O(n).
func (s Seed) Split(n int) []Seed {
	out := make([]Seed, n)
	for i := range out {
		stream := uint64(i)
		out[i] = Seed{mix(s[0], 2*stream), mix(s[1], 2*stream+1)}
	}
	return out
}

// Source returns a fresh PCG source seeded by s.
func (s Seed) Source() rand.Source {
	return rand.NewPCG(s[0], s[1])
}

// String renders the seed words in hex.
func (s Seed) String() string {
	return fmt.Sprintf("Seed(%#x,%#x)", s[0], s[1])
}

// mix combines a parent word and a stream identifier into a new word.
// SplitMix64 finalizer; small input changes flip about half the output bits.
func mix(parent, stream uint64) uint64 {
	x := parent ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Stream hands out successive child seeds of a parent, for walks whose
// length is not known up front.
type Stream struct {
	parent Seed
	next   uint64
}

// NewStream starts a stream rooted at s.
func NewStream(s Seed) *Stream {
	return &Stream{parent: s}
}

// Next returns the next child seed.
func (st *Stream) Next() Seed {
	i := st.next
	st.next++
	return Seed{mix(st.parent[0], 2*i+0x51), mix(st.parent[1], 2*i+0x52)}
}
