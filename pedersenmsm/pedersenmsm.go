// Package pedersenmsm is the dense/sparse multi-scalar multiplication
// wrapper (spec §4.4) used both as the server's "standard MSM" computation
// and as the client's mask-subtraction step. It is generic over the group
// capability set in package groupops so the same code serves G1 and G2.
//
// gnark-crypto's own ecc/.../fr/pedersen package covers exactly this kind
// of fixed-basis vector commitment, but additionally manages a secret
// trapdoor sigma for knowledge-soundness extraction, which this wrapper
// does not need — here the basis vector *is* the Groth16 proving key's
// own generator vector, so Commit is a bare MSM against bn254's native
// MultiExp, not a fresh Setup.
package pedersenmsm

import (
	"runtime"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"emsm/emsmerr"
	"emsm/groupops"
	"emsm/sparsevec"
)

// CommitG1 computes Σ scalars_i . bases_i over bn254's G1, using the
// curve library's native multi-scalar multiplication. Fails with
// LengthMismatch if the vectors disagree in length.
func CommitG1(scalars []fr.Element, bases []bn254.G1Affine) (bn254.G1Affine, error) {
	if len(scalars) != len(bases) {
		return bn254.G1Affine{}, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "pedersenmsm: CommitG1 length mismatch", nil)
	}
	var out bn254.G1Affine
	if len(scalars) == 0 {
		return out, nil
	}
	if _, err := out.MultiExp(bases, scalars, ecc.MultiExpConfig{NbTasks: runtime.GOMAXPROCS(0)}); err != nil {
		return bn254.G1Affine{}, emsmerr.Wrap(emsmerr.ErrMalformedInput, "pedersenmsm: MultiExp failed", err)
	}
	return out, nil
}

// CommitG2 is CommitG1's G2 counterpart.
func CommitG2(scalars []fr.Element, bases []bn254.G2Affine) (bn254.G2Affine, error) {
	if len(scalars) != len(bases) {
		return bn254.G2Affine{}, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "pedersenmsm: CommitG2 length mismatch", nil)
	}
	var out bn254.G2Affine
	if len(scalars) == 0 {
		return out, nil
	}
	if _, err := out.MultiExp(bases, scalars, ecc.MultiExpConfig{NbTasks: runtime.GOMAXPROCS(0)}); err != nil {
		return bn254.G2Affine{}, emsmerr.Wrap(emsmerr.ErrMalformedInput, "pedersenmsm: MultiExp failed", err)
	}
	return out, nil
}

// Commit is CommitG1/CommitG2's generic counterpart, for callers whose point
// type isn't fixed to one curve (the tests use it to compute <z, h> at both
// G1 and G2 from the same code). Dense and O(n) rather than MultiExp, since
// groupops.Ops gives no batch-MSM hook — fine at the small dimension n
// this is called at.
func Commit[P any](scalars []fr.Element, bases []P, ops groupops.Ops[P]) (P, error) {
	if len(scalars) != len(bases) {
		var zero P
		return zero, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "pedersenmsm: Commit length mismatch", nil)
	}
	acc := ops.Zero()
	for i, s := range scalars {
		acc = ops.Add(acc, ops.ScalarMul(bases[i], &s))
	}
	return acc, nil
}

// CommitSparse sums scalar . base only at the SparseVector's nonzero
// positions, generic over the point type via groupops.Ops. Fails with
// LengthMismatch if the sparse vector's logical length does not match the
// base vector.
func CommitSparse[P any](sv *sparsevec.SparseVector, bases []P, ops groupops.Ops[P]) (P, error) {
	if sv.Len() != len(bases) {
		var zero P
		return zero, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "pedersenmsm: CommitSparse length mismatch", nil)
	}
	acc := ops.Zero()
	for _, e := range sv.Entries() {
		term := ops.ScalarMul(bases[e.Index], &e.Value)
		acc = ops.Add(acc, term)
	}
	return acc, nil
}
