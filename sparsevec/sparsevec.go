// Package sparsevec implements SparseVector<F> (spec §3) and the chunked
// ErrorVector sampler (spec §4.1), both over bn254's scalar field.
package sparsevec

import (
	"io"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"emsm/emsmerr"
)

// Entry is a single (index, value) pair of a SparseVector.
type Entry struct {
	Index int
	Value fr.Element
}

// SparseVector is an unordered set of (index, value) pairs with pairwise
// distinct indices in [0, Len). It is sampled fresh per encrypt call,
// consumed by mask/unmask, then dropped (spec §3 lifecycle).
type SparseVector struct {
	length  int
	entries []Entry
	seen    *bitset.BitSet
}

// New allocates an empty SparseVector of logical length n.
func New(length int) *SparseVector {
	return &SparseVector{
		length: length,
		seen:   bitset.New(uint(length)),
	}
}

// Len returns the logical length N.
func (v *SparseVector) Len() int { return v.length }

// NumNonzero returns the number of (index, value) pairs currently stored.
func (v *SparseVector) NumNonzero() int { return len(v.entries) }

// Push records a nonzero entry. It fails with ErrParameterMismatch if idx is
// out of range or already occupied — indices must stay pairwise distinct.
func (v *SparseVector) Push(idx int, val fr.Element) error {
	if idx < 0 || idx >= v.length {
		return emsmerr.Wrap(emsmerr.ErrParameterMismatch, "sparsevec: index out of range", nil)
	}
	if v.seen.Test(uint(idx)) {
		return emsmerr.Wrap(emsmerr.ErrParameterMismatch, "sparsevec: duplicate index", nil)
	}
	v.seen.Set(uint(idx))
	v.entries = append(v.entries, Entry{Index: idx, Value: val})
	return nil
}

// Entries returns the (index, value) pairs sorted by index.
func (v *SparseVector) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Densify expands the SparseVector into a dense []fr.Element of length N.
func (v *SparseVector) Densify() []fr.Element {
	out := make([]fr.Element, v.length)
	for _, e := range v.entries {
		out[e.Index] = e.Value
	}
	return out
}

// Negate returns a new SparseVector with every value negated, same indices.
func (v *SparseVector) Negate() *SparseVector {
	out := New(v.length)
	for _, e := range v.entries {
		var neg fr.Element
		neg.Neg(&e.Value)
		_ = out.Push(e.Index, neg)
	}
	return out
}

// SampleNonZero draws bytes from rng and rejection-samples a nonzero
// fr.Element, reading 32 bytes at a time: the top two bits are cleared and
// any candidate that is not a canonical field element (>= the field order)
// or is zero is rejected, so the result is uniform over F\{0}.
// Determinism follows directly from rng's determinism.
// Exported for the malicious-variant challenge scalar (spec §4.7), which
// is drawn from the same F\{0} distribution as error-vector values.
func SampleNonZero(rng io.Reader) (fr.Element, error) {
	var buf [32]byte
	for {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return fr.Element{}, emsmerr.Wrap(emsmerr.ErrParameterMismatch, "sparsevec: rng read failed", err)
		}
		buf[0] &= 0x3f
		var e fr.Element
		if _, err := e.SetBytesCanonical(buf[:]); err != nil {
			continue
		}
		if !e.IsZero() {
			return e, nil
		}
	}
}

// sampleIndex draws a uniform index in [0, n) from rng via rejection
// sampling over a byte-aligned range, avoiding modulo bias.
func sampleIndex(rng io.Reader, n int) (int, error) {
	if n <= 0 {
		return 0, emsmerr.Wrap(emsmerr.ErrParameterMismatch, "sparsevec: empty chunk", nil)
	}
	// n is always a power of two for ErrorVector chunks derived from the
	// LPN parameter table (N and t are both powers of two), so a single
	// masked read is unbiased; fall back to a wider rejection loop
	// otherwise.
	if n&(n-1) == 0 {
		bits := 0
		for (1 << bits) < n {
			bits++
		}
		nbytes := (bits + 7) / 8
		if nbytes == 0 {
			nbytes = 1
		}
		mask := uint64(n - 1)
		buf := make([]byte, nbytes)
		for {
			if _, err := io.ReadFull(rng, buf); err != nil {
				return 0, emsmerr.Wrap(emsmerr.ErrParameterMismatch, "sparsevec: rng read failed", err)
			}
			var v uint64
			for _, b := range buf {
				v = (v << 8) | uint64(b)
			}
			idx := v & mask
			return int(idx), nil
		}
	}
	buf := make([]byte, 8)
	limit := (uint64(1)<<63)/uint64(n)*uint64(n) - 1
	for {
		if _, err := io.ReadFull(rng, buf); err != nil {
			return 0, emsmerr.Wrap(emsmerr.ErrParameterMismatch, "sparsevec: rng read failed", err)
		}
		var v uint64
		for _, b := range buf {
			v = (v << 8) | uint64(b)
		}
		v &= (1 << 63) - 1
		if v > limit {
			continue
		}
		return int(v % uint64(n)), nil
	}
}

// SampleErrorVector draws a t-sparse ErrorVector of logical length N: it
// partitions [0, N) into t equal chunks of size N/t, and in each chunk picks
// exactly one index uniformly and one nonzero value uniformly from F\{0}
// (spec §3, §4.1). Fails with ErrParameterMismatch if t does not divide N.
func SampleErrorVector(N, t int, rng io.Reader) (*SparseVector, error) {
	if t <= 0 || N <= 0 || N%t != 0 {
		return nil, emsmerr.Wrap(emsmerr.ErrParameterMismatch, "sparsevec: t must divide N", nil)
	}
	chunk := N / t
	out := New(N)
	for c := 0; c < t; c++ {
		off, err := sampleIndex(rng, chunk)
		if err != nil {
			return nil, err
		}
		val, err := SampleNonZero(rng)
		if err != nil {
			return nil, err
		}
		if err := out.Push(c*chunk+off, val); err != nil {
			return nil, err
		}
	}
	return out, nil
}
