// Package duallpn implements the DualLPNInstance<F, G> of spec §3, §4.5: a
// fresh LPN error vector e, plus the mask/unmask helpers EMSM builds on.
package duallpn

import (
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"emsm/emsmerr"
	"emsm/groupops"
	"emsm/lpnparams"
	"emsm/pedersenmsm"
	"emsm/raa"
	"emsm/sparsevec"
)

// Instance is one sampled DualLPN instance: a fresh t-sparse error vector e
// of length N, together with the RAA operator it was sampled against (Mask
// needs it to code-expand the client's witness; Unmask needs only e).
type Instance struct {
	E  *sparsevec.SparseVector
	op *raa.Operator
}

// New samples a fresh t-sparse error vector against op's (n, N) dimensions.
// Each call to New MUST use independent randomness — sharing an rng stream
// across MSMs would correlate transcripts and break the security reduction
// (spec §9).
func New(op *raa.Operator, rng io.Reader) (*Instance, error) {
	params, err := lpnparams.ParamsFor(op.Dim())
	if err != nil {
		return nil, err
	}
	if params.Expn != op.N() {
		return nil, emsmerr.Wrap(emsmerr.ErrParameterMismatch, "duallpn: operator dimensions do not match LPN table", nil)
	}

	e, err := sparsevec.SampleErrorVector(params.Expn, params.T, rng)
	if err != nil {
		return nil, err
	}
	return &Instance{E: e, op: op}, nil
}

// Mask returns T(z) + e, the length-N masked codeword shipped to the
// server: z is code-expanded by the RAA operator before the error vector
// is added, so the quantity the server ends up committing to is the full
// codeword, never the bare length-n witness (spec §4.8).
func (inst *Instance) Mask(z []fr.Element) ([]fr.Element, error) {
	coded, err := inst.op.Apply(z)
	if err != nil {
		return nil, err
	}
	dense := inst.E.Densify()
	out := make([]fr.Element, len(coded))
	for i := range coded {
		out[i].Add(&coded[i], &dense[i])
	}
	return out, nil
}

// Unmask returns em - <e, g>, recovering <T(z), g> = <z, h> from the
// server's MSM of masked = T(z) + e against the server's length-N basis g
// (spec §4.5's invariant ⟨e, g⟩, subtracted directly rather than folded
// through h). This is the "acceleration" sparsity buys the client:
// subtracting the noise costs O(t) group operations via CommitSparse, at
// e's nonzero positions only, never a pass over all N entries of g.
func Unmask[P any](em P, inst *Instance, g []P, ops groupops.Ops[P]) (P, error) {
	noise, err := pedersenmsm.CommitSparse(inst.E, g, ops)
	if err != nil {
		var zero P
		return zero, err
	}
	return ops.Add(em, ops.Neg(noise)), nil
}
