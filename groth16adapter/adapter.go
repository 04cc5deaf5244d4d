package groth16adapter

import (
	"crypto/rand"
	"fmt"
	"io"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/logger"

	"emsm/duallpn"
	"emsm/emsm"
	"emsm/emsmerr"
	"emsm/groupops"
	"emsm/lpnparams"
	"emsm/raa"
)

// ServerAidedProvingKey is the data type of spec §3: a standard Groth16
// proving/verifying key pair plus five EmsmPublicParams instances, one per
// generator family that the honest Groth16 prover would otherwise MSM
// directly (h, l, a, b-in-G1, b-in-G2).
type ServerAidedProvingKey struct {
	VK groth16.VerifyingKey
	PK groth16.ProvingKey

	PPH  *emsm.PublicParams[bn254.G1Affine] // g_h: the H basis, length domainSize-1
	PPL  *emsm.PublicParams[bn254.G1Affine] // g_l: private-wire L_i basis
	PPA  *emsm.PublicParams[bn254.G1Affine] // g_a: per-wire A_i basis
	PPB1 *emsm.PublicParams[bn254.G1Affine] // g_{b,G1}: per-wire B_i basis in G1
	PPB2 *emsm.PublicParams[bn254.G2Affine] // g_{b,G2}: per-wire B_i basis in G2

	// Fixed setup points the proof-assembly formula combines with the five
	// unmasked MSM results; copied out of PK once so Decrypt never needs
	// to re-assert PK's concrete type.
	AlphaG1 bn254.G1Affine
	BetaG1  bn254.G1Affine
	DeltaG1 bn254.G1Affine
	BetaG2  bn254.G2Affine
	DeltaG2 bn254.G2Affine
}

// ProveRequestVectors is the five masked scalar vectors shipped to the
// server in a /prove request (spec §6).
type ProveRequestVectors struct {
	MaskedH  []fr.Element
	MaskedL  []fr.Element
	MaskedA  []fr.Element
	MaskedB1 []fr.Element
	MaskedB2 []fr.Element
}

// ProveResponseGroupElems is the server's five MSM results, returned in a
// /prove response (spec §6) before the client unmasks them.
type ProveResponseGroupElems struct {
	EmH  bn254.G1Affine
	EmL  bn254.G1Affine
	EmA  bn254.G1Affine
	EmB1 bn254.G1Affine
	EmB2 bn254.G2Affine
}

// Proof is the server-aided Groth16 proof, identical in shape to a
// standard Groth16 proof and verifiable with the unmodified groth16.Verify
// (spec §4.8 "the output is a standard Groth16 proof").
type Proof struct {
	PiA bn254.G1Affine
	PiB bn254.G2Affine
	PiC bn254.G1Affine
}

// ConstraintCompiler drives the one-time setup step: compiling a circuit
// and running the standard (non-server-aided) Groth16 trusted setup over
// it. NativeReduction and CompiledReduction each carry their own
// implementation so SetupServerAided never needs to know which QAP
// reduction a caller intends to pair with the resulting keys.
type ConstraintCompiler interface {
	CompileAndSetup() (groth16.ProvingKey, groth16.VerifyingKey, error)
}

func commitG1(s []fr.Element, b []bn254.G1Affine) (bn254.G1Affine, error) {
	var out bn254.G1Affine
	if len(s) != len(b) {
		return out, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "groth16adapter: commitG1 length mismatch", nil)
	}
	if len(s) == 0 {
		return out, nil
	}
	if _, err := out.MultiExp(b, s, ecc.MultiExpConfig{NbTasks: runtime.GOMAXPROCS(0)}); err != nil {
		return bn254.G1Affine{}, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: G1 MultiExp failed", err)
	}
	return out, nil
}

func commitG2(s []fr.Element, b []bn254.G2Affine) (bn254.G2Affine, error) {
	var out bn254.G2Affine
	if len(s) != len(b) {
		return out, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "groth16adapter: commitG2 length mismatch", nil)
	}
	if len(s) == 0 {
		return out, nil
	}
	if _, err := out.MultiExp(b, s, ecc.MultiExpConfig{NbTasks: runtime.GOMAXPROCS(0)}); err != nil {
		return bn254.G2Affine{}, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: G2 MultiExp failed", err)
	}
	return out, nil
}

// padG1 returns g zero-extended to length N (bn254.G1Affine{} is the
// point at infinity, the group identity, so padding never perturbs an
// MSM). Fails if g is already longer than N — the LPN table's row for
// this circuit's size is too small, which should not happen for any
// dimension within lpnparams' supported range.
func padG1(g []bn254.G1Affine, N int) ([]bn254.G1Affine, error) {
	if len(g) > N {
		return nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "groth16adapter: generator vector longer than its LPN dimension", nil)
	}
	if len(g) == N {
		return g, nil
	}
	out := make([]bn254.G1Affine, N)
	copy(out, g)
	return out, nil
}

func padG2(g []bn254.G2Affine, N int) ([]bn254.G2Affine, error) {
	if len(g) > N {
		return nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "groth16adapter: generator vector longer than its LPN dimension", nil)
	}
	if len(g) == N {
		return g, nil
	}
	out := make([]bn254.G2Affine, N)
	copy(out, g)
	return out, nil
}

// padScalars zero-extends z to length n (the LPN table's logical
// dimension for the operator z will be encrypted against). Every padded
// slot carries a zero scalar, so it never contributes to any MSM it
// feeds into.
func padScalars(z []fr.Element, n int) ([]fr.Element, error) {
	if len(z) > n {
		return nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "groth16adapter: witness vector longer than its LPN dimension", nil)
	}
	if len(z) == n {
		return z, nil
	}
	out := make([]fr.Element, n)
	copy(out, z)
	return out, nil
}

// buildParamsG1 picks the LPN-table row consistent with g's real length
// (spec §4.2 "n is rounded up to the next supported power of two"), pads g
// up to that row's logical dimension n, builds the RAA operator T sized
// (n, N), and lifts a fresh length-N server basis from the padded g via
// emsm.NewPublicParams — not the other way around. Padding first, then
// sizing the Operator from the table, keeps raa.Operator and
// lpnparams.ParamsFor in exact agreement — duallpn.New rejects any
// Operator whose (n, N) disagrees with what the table reports for that n
// (spec §4.2).
func buildParamsG1(g []bn254.G1Affine) (*emsm.PublicParams[bn254.G1Affine], error) {
	params, err := lpnparams.ParamsFor(len(g))
	if err != nil {
		return nil, err
	}
	padded, err := padG1(g, params.N)
	if err != nil {
		return nil, err
	}
	op, err := raa.NewOperator(params.N, params.Expn, rand.Reader)
	if err != nil {
		return nil, err
	}
	return emsm.NewPublicParams(padded, op, groupops.G1(), commitG1)
}

func buildParamsG2(g []bn254.G2Affine) (*emsm.PublicParams[bn254.G2Affine], error) {
	params, err := lpnparams.ParamsFor(len(g))
	if err != nil {
		return nil, err
	}
	padded, err := padG2(g, params.N)
	if err != nil {
		return nil, err
	}
	op, err := raa.NewOperator(params.N, params.Expn, rand.Reader)
	if err != nil {
		return nil, err
	}
	return emsm.NewPublicParams(padded, op, groupops.G2(), commitG2)
}

// SetupServerAided runs the standard Groth16 setup (teacher's ceremony.go
// pattern, generalized past a file-based MPC phase1/phase2 workflow to a
// single in-process trusted setup call) over the circuit ccs compiles,
// then builds the five EmsmPublicParams instances by lifting each of the
// proving key's own (unmodified) generator vectors into a fresh length-N
// server basis — EMSM binds to the Groth16 setup's own generators, it
// does not invent new ones, and the proving/verifying key themselves are
// never touched (spec §4.8).
func SetupServerAided(ccs ConstraintCompiler) (*ServerAidedProvingKey, error) {
	pk, vk, err := ccs.CompileAndSetup()
	if err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: setup failed", err)
	}
	pkConcrete, ok := pk.(*groth16bn254.ProvingKey)
	if !ok {
		return nil, emsmerr.Wrap(emsmerr.ErrProvingKeyMismatch, fmt.Sprintf("groth16adapter: unexpected proving key type %T", pk), nil)
	}

	ppH, err := buildParamsG1(pkConcrete.G1.Z)
	if err != nil {
		return nil, err
	}
	ppL, err := buildParamsG1(pkConcrete.G1.K)
	if err != nil {
		return nil, err
	}
	ppA, err := buildParamsG1(pkConcrete.G1.A)
	if err != nil {
		return nil, err
	}
	ppB1, err := buildParamsG1(pkConcrete.G1.B)
	if err != nil {
		return nil, err
	}
	ppB2, err := buildParamsG2(pkConcrete.G2.B)
	if err != nil {
		return nil, err
	}

	logger.Logger().Info().Int("nbWires", len(pkConcrete.G1.A)).Msg("groth16adapter: server-aided setup complete")

	return &ServerAidedProvingKey{
		VK: vk, PK: pk,
		PPH: ppH, PPL: ppL, PPA: ppA, PPB1: ppB1, PPB2: ppB2,
		AlphaG1: pkConcrete.G1.Alpha,
		BetaG1:  pkConcrete.G1.Beta,
		DeltaG1: pkConcrete.G1.Delta,
		BetaG2:  pkConcrete.G2.Beta,
		DeltaG2: pkConcrete.G2.Delta,
	}, nil
}

// ServerComputation runs the untrusted server's half of the protocol: a
// plain MSM per masked vector, no EMSM-specific logic on the server side
// at all (spec §4.6, §4.8). It is a method on ServerAidedProvingKey, not
// ProverState, because the server only ever holds the public params, never
// the client's DualLPN instances.
func (pk *ServerAidedProvingKey) ServerComputation(req *ProveRequestVectors) (*ProveResponseGroupElems, error) {
	emH, err := pk.PPH.ServerComputation(req.MaskedH)
	if err != nil {
		return nil, err
	}
	emL, err := pk.PPL.ServerComputation(req.MaskedL)
	if err != nil {
		return nil, err
	}
	emA, err := pk.PPA.ServerComputation(req.MaskedA)
	if err != nil {
		return nil, err
	}
	emB1, err := pk.PPB1.ServerComputation(req.MaskedB1)
	if err != nil {
		return nil, err
	}
	emB2, err := pk.PPB2.ServerComputation(req.MaskedB2)
	if err != nil {
		return nil, err
	}
	return &ProveResponseGroupElems{EmH: emH, EmL: emL, EmA: emA, EmB1: emB1, EmB2: emB2}, nil
}

// Decrypt unmasks the server's five MSM results and assembles a standard
// Groth16 proof from them, following the same linear combination a normal
// Groth16 prover applies to its own (unmasked) MSM outputs (spec §4.8):
//
//	π_A  = alpha + Σ w_i A_i            + r.delta
//	π_B1 = beta  + Σ w_i B_i(G1)        + s.delta   (auxiliary, G1 only)
//	π_B  = beta  + Σ w_i B_i(G2)        + s.delta
//	π_C  = Σ_{priv} w_i L_i + Σ h_i H_i + s.π_A + r.π_B1 - r.s.delta
func (pk *ServerAidedProvingKey) Decrypt(state *ProverState, resp *ProveResponseGroupElems) (*Proof, error) {
	dmH, err := pk.PPH.Decrypt(resp.EmH, state.instH)
	if err != nil {
		return nil, err
	}
	dmL, err := pk.PPL.Decrypt(resp.EmL, state.instL)
	if err != nil {
		return nil, err
	}
	dmA, err := pk.PPA.Decrypt(resp.EmA, state.instA)
	if err != nil {
		return nil, err
	}
	dmB1, err := pk.PPB1.Decrypt(resp.EmB1, state.instB1)
	if err != nil {
		return nil, err
	}
	dmB2, err := pk.PPB2.Decrypt(resp.EmB2, state.instB2)
	if err != nil {
		return nil, err
	}

	g1 := groupops.G1()
	g2 := groupops.G2()

	var piA bn254.G1Affine
	piA = g1.Add(pk.AlphaG1, dmA)
	piA = g1.Add(piA, g1.ScalarMul(pk.DeltaG1, &state.r))

	var piB1 bn254.G1Affine
	piB1 = g1.Add(pk.BetaG1, dmB1)
	piB1 = g1.Add(piB1, g1.ScalarMul(pk.DeltaG1, &state.s))

	piB := g2.Add(pk.BetaG2, dmB2)
	piB = g2.Add(piB, g2.ScalarMul(pk.DeltaG2, &state.s))

	piC := g1.Add(dmL, dmH)
	piC = g1.Add(piC, g1.ScalarMul(piA, &state.s))
	piC = g1.Add(piC, g1.ScalarMul(piB1, &state.r))
	var rs fr.Element
	rs.Mul(&state.r, &state.s)
	piC = g1.Add(piC, g1.Neg(g1.ScalarMul(pk.DeltaG1, &rs)))

	logger.Logger().Debug().Msg("groth16adapter: proof assembled from server-aided MSM results")
	return &Proof{PiA: piA, PiB: piB, PiC: piC}, nil
}

// ProverState is the client-side state for one in-flight server-aided
// proof: the five DualLPN instances needed to unmask the replies and the
// proof randomizers r, s (spec §4.8 "per-proof encrypt"). The masked
// vectors themselves are returned separately by Encrypt.
type ProverState struct {
	reduced *ReducedWitness

	encH  *emsm.PublicParams[bn254.G1Affine]
	encL  *emsm.PublicParams[bn254.G1Affine]
	encA  *emsm.PublicParams[bn254.G1Affine]
	encB1 *emsm.PublicParams[bn254.G1Affine]
	encB2 *emsm.PublicParams[bn254.G2Affine]

	instH, instL, instA, instB1, instB2 *duallpn.Instance

	r, s fr.Element // Groth16 proof-randomizer scalars
}

// Encrypt is the client's per-proof step (spec §4.8): it extracts the
// witness via qr, builds five independent DualLPN instances (one per
// generator family — independence across families matters as much as
// independence across proofs, spec §9), and returns the five masked
// vectors ready to ship to the server.
func (pk *ServerAidedProvingKey) Encrypt(qr QAPReduction, assignment Assignment, rng io.Reader) (*ProverState, *ProveRequestVectors, error) {
	reduced, err := qr.Reduce(assignment)
	if err != nil {
		return nil, nil, err
	}

	zH, err := padScalars(reduced.HPoly, pk.PPH.T.Dim())
	if err != nil {
		return nil, nil, err
	}
	instH, maskedH, err := pk.PPH.Encrypt(zH, rng)
	if err != nil {
		return nil, nil, err
	}
	zL, err := padScalars(reduced.PrivateWitness, pk.PPL.T.Dim())
	if err != nil {
		return nil, nil, err
	}
	instL, maskedL, err := pk.PPL.Encrypt(zL, rng)
	if err != nil {
		return nil, nil, err
	}
	zA, err := padScalars(reduced.FullWitness, pk.PPA.T.Dim())
	if err != nil {
		return nil, nil, err
	}
	instA, maskedA, err := pk.PPA.Encrypt(zA, rng)
	if err != nil {
		return nil, nil, err
	}
	zB1, err := padScalars(reduced.FullWitness, pk.PPB1.T.Dim())
	if err != nil {
		return nil, nil, err
	}
	instB1, maskedB1, err := pk.PPB1.Encrypt(zB1, rng)
	if err != nil {
		return nil, nil, err
	}
	zB2, err := padScalars(reduced.FullWitness, pk.PPB2.T.Dim())
	if err != nil {
		return nil, nil, err
	}
	instB2, maskedB2, err := pk.PPB2.Encrypt(zB2, rng)
	if err != nil {
		return nil, nil, err
	}

	var r, s fr.Element
	if _, err := r.SetRandom(); err != nil {
		return nil, nil, emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: sampling r failed", err)
	}
	if _, err := s.SetRandom(); err != nil {
		return nil, nil, emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: sampling s failed", err)
	}

	state := &ProverState{
		reduced: reduced,
		encH:    pk.PPH, encL: pk.PPL, encA: pk.PPA, encB1: pk.PPB1, encB2: pk.PPB2,
		instH: instH, instL: instL, instA: instA, instB1: instB1,
		instB2: instB2,
		r:      r, s: s,
	}
	vecs := &ProveRequestVectors{
		MaskedH:  maskedH,
		MaskedL:  maskedL,
		MaskedA:  maskedA,
		MaskedB1: maskedB1,
		MaskedB2: maskedB2,
	}
	logger.Logger().Debug().Int("fullWitnessLen", len(reduced.FullWitness)).Msg("groth16adapter: encrypted witness for server-aided prove")
	return state, vecs, nil
}
