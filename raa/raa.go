// Package raa implements the Repeat-Accumulate-Accumulate code operator T
// (spec §3, §4.3): a structured random linear code used as the EMSM masking
// code, G = F_r . M_p . A . M_q . A, together with its transpose.
//
// Forward Apply is the "apply" operation of spec §4.3: it maps a length-n
// scalar vector to a length-N codeword by expanding (the inverse of the
// final fold F_r), suffix-accumulating, permuting by q, suffix-accumulating
// again, and permuting by p. Its transpose, ApplyTranspose, maps length-N
// back to length-n by running the adjoint pipeline in reverse order:
// inverse-permute by p, prefix-accumulate, inverse-permute by q,
// prefix-accumulate, then fold — which is exactly how spec §4.3 describes
// Gᵀ ("reverses order and substitutes prefix accumulation and inverse
// permutations"). Masking (duallpn.Mask) uses the forward direction only:
// the client ships Apply(z) + e, a length-N codeword, and no length-n
// noise vector r is formed from e; see DESIGN.md.
package raa

import (
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/fxamacker/cbor/v2"

	"emsm/emsmerr"
	"emsm/groupops"
	"emsm/sparsevec"
)

// ParallelThreshold is the element count above which a loop is sharded
// across worker goroutines (spec §5, §9 "Parallelism threshold"). It is a
// tuning constant, not a literal buried in a loop.
var ParallelThreshold = 1 << 16

// Operator is a sampled RAA code T over a fixed (n, N) pair.
type Operator struct {
	n, N int
	w    int // fold width, N/n
	p, q []int
	pInv []int
	qInv []int
}

func invert(perm []int) []int {
	inv := make([]int, len(perm))
	for i, v := range perm {
		inv[v] = i
	}
	return inv
}

// samplePermutation draws a uniformly random permutation of [0, n) from rng
// via Fisher-Yates, using rejection-sampled indices for each draw.
func samplePermutation(n int, rng io.Reader) ([]int, error) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := sampleUniform(i+1, rng)
		if err != nil {
			return nil, err
		}
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm, nil
}

func sampleUniform(bound int, rng io.Reader) (int, error) {
	if bound <= 1 {
		return 0, nil
	}
	buf := make([]byte, 8)
	for {
		if _, err := io.ReadFull(rng, buf); err != nil {
			return 0, emsmerr.Wrap(emsmerr.ErrParameterMismatch, "raa: rng read failed", err)
		}
		var v uint64
		for _, b := range buf {
			v = (v << 8) | uint64(b)
		}
		v &= (1 << 63) - 1
		limit := (uint64(1)<<63)/uint64(bound)*uint64(bound) - 1
		if v > limit {
			continue
		}
		return int(v % uint64(bound)), nil
	}
}

// NewOperator samples p, q uniformly and fixes the fold width to N/n. N must
// be a positive multiple of n.
func NewOperator(n, N int, rng io.Reader) (*Operator, error) {
	if n <= 0 || N <= 0 || N%n != 0 {
		return nil, emsmerr.Wrap(emsmerr.ErrParameterMismatch, "raa: N must be a positive multiple of n", nil)
	}
	p, err := samplePermutation(N, rng)
	if err != nil {
		return nil, err
	}
	q, err := samplePermutation(N, rng)
	if err != nil {
		return nil, err
	}
	return &Operator{
		n: n, N: N, w: N / n,
		p: p, q: q,
		pInv: invert(p), qInv: invert(q),
	}, nil
}

func (o *Operator) N() int { return o.N }
func (o *Operator) Dim() int { return o.n }

// expand repeats each entry of v (length n) w=N/n times, producing length N.
// This is the inverse of fold and is linear, hence distributes over
// scalar combinations — Apply's linearity (spec invariant 3) follows from
// every stage here being linear.
func (o *Operator) expand(v []fr.Element) []fr.Element {
	out := make([]fr.Element, o.N)
	for i, x := range v {
		base := i * o.w
		for j := 0; j < o.w; j++ {
			out[base+j] = x
		}
	}
	return out
}

// fold sums every w=N/n consecutive entries of v (length N), producing
// length n. It is expand's adjoint.
func (o *Operator) fold(v []fr.Element) []fr.Element {
	out := make([]fr.Element, o.n)
	for i := range out {
		var acc fr.Element
		base := i * o.w
		for j := 0; j < o.w; j++ {
			acc.Add(&acc, &v[base+j])
		}
		out[i] = acc
	}
	return out
}

// suffixAccumulate computes out[i] = sum_{j>=i} v[j] (the "A" operator).
func suffixAccumulate(v []fr.Element) []fr.Element {
	out := make([]fr.Element, len(v))
	var acc fr.Element
	for i := len(v) - 1; i >= 0; i-- {
		acc.Add(&acc, &v[i])
		out[i] = acc
	}
	return out
}

// prefixAccumulate computes out[i] = sum_{j<=i} v[j], the adjoint of "A".
func prefixAccumulate(v []fr.Element) []fr.Element {
	out := make([]fr.Element, len(v))
	var acc fr.Element
	for i := 0; i < len(v); i++ {
		acc.Add(&acc, &v[i])
		out[i] = acc
	}
	return out
}

func permute(v []fr.Element, perm []int) []fr.Element {
	out := make([]fr.Element, len(v))
	for i, pi := range perm {
		out[i] = v[pi]
	}
	return out
}

// Apply is the forward code: length-n scalars to a length-N codeword,
// G = F_r^T . M_p . A . M_q . A read left to right over the pipeline below.
func (o *Operator) Apply(v []fr.Element) ([]fr.Element, error) {
	if len(v) != o.n {
		return nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "raa: Apply expects length n", nil)
	}
	step := o.expand(v)
	step = suffixAccumulate(step)
	step = permute(step, o.q)
	step = suffixAccumulate(step)
	step = permute(step, o.p)
	return step, nil
}

// ApplyTranspose is the transpose code Tᵀ: length-N to length-n, the
// adjoint pipeline run in reverse order (spec §4.3).
func (o *Operator) ApplyTranspose(v []fr.Element) ([]fr.Element, error) {
	if len(v) != o.N {
		return nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "raa: ApplyTranspose expects length N", nil)
	}
	step := permute(v, o.pInv)
	step = prefixAccumulate(step)
	step = permute(step, o.qInv)
	step = prefixAccumulate(step)
	return o.fold(step), nil
}

// ApplySparseTranspose computes ApplyTranspose(e.Densify()) without paying
// more than O(N) field additions regardless of t: the sparse vector is
// materialized into a dense zero-filled buffer (O(N)) and the standard
// dense transpose pipeline runs once (spec §4.3 "apply_sparse").
func (o *Operator) ApplySparseTranspose(e *sparsevec.SparseVector) ([]fr.Element, error) {
	if e.Len() != o.N {
		return nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "raa: ApplySparseTranspose expects a length-N sparse vector", nil)
	}
	return o.ApplyTranspose(e.Densify())
}

// TransposeApplyGroup is the adjoint on the group side: a length-N group
// vector folds to length-n (spec §4.3, used once per EmsmPublicParams
// build during preprocessing). It mirrors ApplyTranspose exactly, except
// permutation and accumulation act on group elements via add/negate
// instead of field add, and "fold" becomes repeated Add instead of field
// sum. Above ParallelThreshold entries, shards across workers; every step
// here is associative over the group's addition, so sharding is safe
// (spec §4.3 "Parallelism rule").
func TransposeApplyGroup[P any](o *Operator, g []P, ops groupops.Ops[P]) ([]P, error) {
	if len(g) != o.N {
		return nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "raa: TransposeApplyGroup expects length N", nil)
	}

	permuteG := func(v []P, perm []int) []P {
		out := make([]P, len(v))
		shardedFor(len(v), func(i int) { out[i] = v[perm[i]] })
		return out
	}
	prefixAccG := func(v []P) []P {
		out := make([]P, len(v))
		acc := ops.Zero()
		for i := range v {
			acc = ops.Add(acc, v[i])
			out[i] = acc
		}
		return out
	}
	foldG := func(v []P) []P {
		out := make([]P, o.n)
		shardedFor(o.n, func(i int) {
			acc := ops.Zero()
			base := i * o.w
			for j := 0; j < o.w; j++ {
				acc = ops.Add(acc, v[base+j])
			}
			out[i] = acc
		})
		return out
	}

	step := permuteG(g, o.pInv)
	step = prefixAccG(step)
	step = permuteG(step, o.qInv)
	step = prefixAccG(step)
	return foldG(step), nil
}

// LiftTranspose is TransposeApplyGroup's right inverse: given a length-n
// group vector t, it produces a length-N group vector g such that
// TransposeApplyGroup(o, g) == t exactly. TransposeApplyGroup folds by
// summing each block of w=N/n entries, which is surjective but not
// injective (N > n), so a preimage always exists; LiftTranspose picks the
// one obtained by placing each target entry alone at the head of its
// block and running every other stage of the pipeline's adjoint backward
// (permute by its own inverse permutation twice more, and prefix-sum's
// inverse, differencing, in place of each forward prefix-sum).
//
// This is the setup-time step spec §4.8 needs: the adapter wants a big
// (length-N) basis for the server to run its heavy MSM against, while the
// small (length-n) vector the client actually needs recovered is the
// Groth16 proving key's own, unmodified generator vector. Seeding the
// server's basis this way makes that recovery exact instead of
// approximate.
func LiftTranspose[P any](o *Operator, t []P, ops groupops.Ops[P]) ([]P, error) {
	if len(t) != o.n {
		return nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "raa: LiftTranspose expects length n", nil)
	}

	permuteG := func(v []P, perm []int) []P {
		out := make([]P, len(v))
		shardedFor(len(v), func(i int) { out[i] = v[perm[i]] })
		return out
	}
	diffG := func(v []P) []P {
		out := make([]P, len(v))
		prev := ops.Zero()
		for i := range v {
			out[i] = ops.Add(v[i], ops.Neg(prev))
			prev = v[i]
		}
		return out
	}
	seedFold := func(t []P) []P {
		zero := ops.Zero()
		out := make([]P, o.N)
		for i := range out {
			out[i] = zero
		}
		for i, x := range t {
			out[i*o.w] = x
		}
		return out
	}

	step := seedFold(t)
	step = diffG(step)
	step = permuteG(step, o.q)
	step = diffG(step)
	step = permuteG(step, o.p)
	return step, nil
}

// operatorWire is the persisted shape of an Operator: n, N and the two
// permutations. w, pInv and qInv are all derivable and are recomputed on
// load rather than stored twice.
type operatorWire struct {
	N int
	M int // capital-N code length, named M to avoid colliding with Operator.N()
	P []int
	Q []int
}

// MarshalBinary serializes an Operator via CBOR so a setup's
// EmsmPublicParams can be persisted and reloaded (spec §4.8's
// SetupServerAided/LoadServerAided round trip). CBOR fits this shape
// better than a fixed-width codec: unlike wire's MAX_VEC_LEN-bounded
// point/scalar vectors, an Operator's payload is two variable-length
// permutations with no per-field length cap to enforce beyond "equals N".
func (o *Operator) MarshalBinary() ([]byte, error) {
	b, err := cbor.Marshal(operatorWire{N: o.n, M: o.N, P: o.p, Q: o.q})
	if err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "raa: marshal operator", err)
	}
	return b, nil
}

// UnmarshalOperator is MarshalBinary's inverse. It never trusts the
// decoded permutations at face value: both must be genuine bijections of
// [0, N) or the load fails with ErrMalformedInput, never a panic or a
// silently-broken Operator.
func UnmarshalOperator(data []byte) (*Operator, error) {
	var w operatorWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "raa: malformed operator encoding", err)
	}
	n, N := w.N, w.M
	if n <= 0 || N <= 0 || N%n != 0 {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "raa: invalid operator dimensions", nil)
	}
	if len(w.P) != N || len(w.Q) != N {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "raa: truncated operator permutations", nil)
	}
	checkBijection := func(perm []int) error {
		seen := make([]bool, N)
		for _, v := range perm {
			if v < 0 || v >= N || seen[v] {
				return emsmerr.Wrap(emsmerr.ErrMalformedInput, "raa: operator permutation is not a bijection", nil)
			}
			seen[v] = true
		}
		return nil
	}
	if err := checkBijection(w.P); err != nil {
		return nil, err
	}
	if err := checkBijection(w.Q); err != nil {
		return nil, err
	}
	p, q := w.P, w.Q
	return &Operator{n: n, N: N, w: N / n, p: p, q: q, pInv: invert(p), qInv: invert(q)}, nil
}
