// Package emsm implements the EMSM protocol (spec §4.6) and its
// malicious-secure double-query variant (spec §4.7): the client code-
// expands and masks a scalar vector with LPN noise, ships the length-N
// codeword to an untrusted server that runs a standard (heavy) MSM
// against a length-N basis g, and recovers the quantity that basis's
// real, small-width dual h = Tᵀg would have produced, locally and
// cheaply (spec §4.8).
package emsm

import (
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/logger"

	"emsm/duallpn"
	"emsm/emsmerr"
	"emsm/groupops"
	"emsm/raa"
	"emsm/sparsevec"
)

// DenseCommit runs a standard dense MSM against bases, playing the role of
// the untrusted server's computation (spec §4.6 "the server runs no EMSM
// logic, only a standard MSM").
type DenseCommit[P any] func(scalars []fr.Element, bases []P) (P, error)

// PublicParams is EmsmPublicParams<G> (spec §3): h is the real, length-n
// generator vector this instance binds to (for a Groth16 adapter, literally
// one of the proving key's own generator vectors); G is the length-N basis
// the server holds and MSMs against, lifted from h so that Tᵀ.G == h
// exactly. Built once at setup and reused across many proofs.
type PublicParams[P any] struct {
	G           []P
	T           *raa.Operator
	H           []P
	ops         groupops.Ops[P]
	denseCommit DenseCommit[P]
}

// NewPublicParams lifts h (length n, the real generator vector) into the
// server's length-N basis G, with Tᵀ.G == h exact by construction (spec
// §4.8). This is the one expensive, amortized-per-setup step (spec §9
// "Preprocessed noise commitment").
func NewPublicParams[P any](h []P, op *raa.Operator, ops groupops.Ops[P], denseCommit DenseCommit[P]) (*PublicParams[P], error) {
	if len(h) != op.Dim() {
		return nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "emsm: generator vector length must equal n", nil)
	}
	g, err := raa.LiftTranspose(op, h, ops)
	if err != nil {
		return nil, err
	}
	return &PublicParams[P]{G: g, T: op, H: h, ops: ops, denseCommit: denseCommit}, nil
}

// Encrypt is the client-side semi-honest encrypt of spec §4.6: it builds a
// fresh DualLPN instance and returns the masked (length-N) codeword the
// server will MSM against pp.G.
func (pp *PublicParams[P]) Encrypt(z []fr.Element, rng io.Reader) (*duallpn.Instance, []fr.Element, error) {
	if len(z) != pp.T.Dim() {
		return nil, nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "emsm: Encrypt expects a length-n scalar vector", nil)
	}
	inst, err := duallpn.New(pp.T, rng)
	if err != nil {
		return nil, nil, err
	}
	masked, err := inst.Mask(z)
	if err != nil {
		return nil, nil, err
	}
	return inst, masked, nil
}

// ServerComputation is the server-side half of spec §4.6: a plain,
// untrusted MSM of the length-N masked codeword against the lifted
// (length-N) basis G — this, not any length-n commitment, is the heavy
// work the protocol delegates (spec §1, §4.8). Fails with LengthMismatch,
// never panics, on any length disagreement from untrusted input.
func (pp *PublicParams[P]) ServerComputation(masked []fr.Element) (P, error) {
	if len(masked) != len(pp.G) {
		var zero P
		return zero, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "emsm: masked vector length does not match generator vector", nil)
	}
	return pp.denseCommit(masked, pp.G)
}

// Decrypt recovers <T(z), g> = <z, h> from the server's MSM result, by
// subtracting the sparse noise commitment <e, g> client-side.
func (pp *PublicParams[P]) Decrypt(em P, inst *duallpn.Instance) (P, error) {
	return duallpn.Unmask(em, inst, pp.G, pp.ops)
}

// MaliciousEncryption is the client-side state for one malicious-secure
// EMSM call: two independent DualLPN instances and the challenge scalar
// (spec §4.7).
type MaliciousEncryption struct {
	InstV     *duallpn.Instance
	InstVPrim *duallpn.Instance
	Challenge fr.Element
}

func scale(z []fr.Element, c fr.Element) []fr.Element {
	out := make([]fr.Element, len(z))
	for i := range z {
		out[i].Mul(&z[i], &c)
	}
	return out
}

// EncryptMalicious forms two masked codewords v = T(z) + e and
// v' = T(c.z) + e' with independent noise e, e' and a uniformly random
// challenge c in
// F\{0} (spec §4.7). The challenge is drawn client-side before the server
// sees either masked vector, which spec §9's Open Question (b) notes is
// sufficient for single-round soundness because both queries are
// committed to simultaneously.
func (pp *PublicParams[P]) EncryptMalicious(z []fr.Element, rng io.Reader) (*MaliciousEncryption, []fr.Element, []fr.Element, error) {
	if len(z) != pp.T.Dim() {
		return nil, nil, nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "emsm: EncryptMalicious expects a length-n scalar vector", nil)
	}
	instV, err := duallpn.New(pp.T, rng)
	if err != nil {
		return nil, nil, nil, err
	}
	instVPrim, err := duallpn.New(pp.T, rng)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := sparsevec.SampleNonZero(rng)
	if err != nil {
		return nil, nil, nil, err
	}

	v, err := instV.Mask(z)
	if err != nil {
		return nil, nil, nil, err
	}
	vPrim, err := instVPrim.Mask(scale(z, c))
	if err != nil {
		return nil, nil, nil, err
	}

	return &MaliciousEncryption{InstV: instV, InstVPrim: instVPrim, Challenge: c}, v, vPrim, nil
}

// DecryptMalicious unmasks both server responses and checks the
// consistency equation dm' == c . dm; on failure it returns
// ConsistencyCheckFailed and the proving call must abort rather than fall
// back to the semi-honest result (spec §4.7, §7).
func (pp *PublicParams[P]) DecryptMalicious(em, emPrim P, me *MaliciousEncryption) (P, error) {
	dm, err := pp.Decrypt(em, me.InstV)
	if err != nil {
		var zero P
		return zero, err
	}
	dmPrim, err := pp.Decrypt(emPrim, me.InstVPrim)
	if err != nil {
		var zero P
		return zero, err
	}

	expect := pp.ops.ScalarMul(dm, &me.Challenge)
	if !pp.ops.Equal(dmPrim, expect) {
		logger.Logger().Warn().Msg("emsm: consistency_check_failed, aborting prove")
		var zero P
		return zero, emsmerr.Wrap(emsmerr.ErrConsistencyCheckFailed, "emsm: malicious server detected", nil)
	}
	return dm, nil
}
