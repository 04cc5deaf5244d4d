// Package groth16adapter binds the EMSM primitive to Groth16 proving (spec
// §4.8): it builds five EmsmPublicParams instances, one per Groth16
// generator family, drives witness extraction and the QAP reduction, and
// assembles the final proof from the server's five unmasked MSM results.
//
// The QAP reduction and witness extraction themselves are specified only
// at the interface level (spec §1): QAPReduction is that interface, with
// two implementations — NativeReduction, which drives gnark's own
// frontend/R1CS compiler and solver, and CompiledReduction, which reads a
// constraint system and witness produced by an external arithmetic-circuit
// compiler. Neither implementation branches inside the adapter; both
// produce the same ReducedWitness shape (spec §9 "Two QAP reductions").
package groth16adapter

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"

	"emsm/emsmerr"
)

// Assignment is a circuit's input assignment keyed by variable name, the
// same shape gnark's frontend.Circuit struct tags describe; both
// QAPReduction implementations accept it so callers never need to know
// which one they are holding.
type Assignment map[string]*big.Int

// Term is one (wire, coefficient) pair of a constraint's linear
// combination.
type Term struct {
	Wire  int
	Coeff fr.Element
}

// Constraint is a single R1CS row A . w * B . w = C . w.
type Constraint struct {
	A, B, C []Term
}

// ConstraintSystem is the minimal R1CS shape the QAP reduction needs:
// enough to re-derive the A/B/C evaluation vectors from a witness and
// compute the quotient polynomial H, without depending on gnark's internal
// constraint representation directly (native and compiled circuits both
// normalize down to this shape).
type ConstraintSystem struct {
	Constraints []Constraint
	// NbPublic is the number of public wires, including the implicit
	// constant-one wire at index 0.
	NbPublic int
	// NbWires is the total witness length (public + private).
	NbWires int
}

// ReducedWitness is the output of a QAP reduction: the full witness vector
// (feeds z_a, z_b1, z_b2), the private-only slice (feeds z_l), the
// h-polynomial coefficients (feeds z_h), and the public inputs the
// verifier will also see.
type ReducedWitness struct {
	FullWitness    []fr.Element
	PrivateWitness []fr.Element
	HPoly          []fr.Element
	PublicInputs   []fr.Element
}

// QAPReduction produces (h-poly coefficients, full witness, public inputs)
// from a constraint system and an assignment (spec §4.8, §9).
type QAPReduction interface {
	ConstraintSystem() *ConstraintSystem
	Reduce(assignment Assignment) (*ReducedWitness, error)
}

// evalRow dot-products a constraint row's terms against the witness.
func evalRow(terms []Term, witness []fr.Element) fr.Element {
	var acc fr.Element
	for _, t := range terms {
		var term fr.Element
		term.Mul(&t.Coeff, &witness[t.Wire])
		acc.Add(&acc, &term)
	}
	return acc
}

// computeH derives the Groth16 quotient polynomial H(x) = (A(x)B(x) -
// C(x)) / Z(x) from the constraint system's per-row evaluations of a full
// witness, following the standard FFT recipe: interpolate A, B, C over
// the evaluation domain, evaluate the product on a coset (where Z is a
// nonzero constant), divide, and interpolate back. Returns domainSize-1
// coefficients, matching the length of the g_h generator vector (spec
// §4.8, the Groth16 h-poly basis).
func computeH(cs *ConstraintSystem, witness []fr.Element) ([]fr.Element, error) {
	m := len(cs.Constraints)
	if m == 0 {
		return nil, emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: empty constraint system", nil)
	}
	domainSize := nextPowerOfTwo(m)

	a := make([]fr.Element, domainSize)
	b := make([]fr.Element, domainSize)
	c := make([]fr.Element, domainSize)
	for i, row := range cs.Constraints {
		a[i] = evalRow(row.A, witness)
		b[i] = evalRow(row.B, witness)
		c[i] = evalRow(row.C, witness)
	}

	domain := fft.NewDomain(uint64(domainSize))

	domain.FFTInverse(a, fft.DIF)
	domain.FFTInverse(b, fft.DIF)
	domain.FFTInverse(c, fft.DIF)
	fft.BitReverse(a)
	fft.BitReverse(b)
	fft.BitReverse(c)

	domain.FFT(a, fft.DIT, fft.OnCoset())
	domain.FFT(b, fft.DIT, fft.OnCoset())
	domain.FFT(c, fft.DIT, fft.OnCoset())

	// Z(x) = x^domainSize - 1 is constant on the coset: g^domainSize - 1,
	// where g is the coset shift (gnark-crypto's multiplicative
	// generator). Compute it once and invert.
	var gPowN, one, zInv fr.Element
	gPowN.Exp(domain.FrMultiplicativeGen, big.NewInt(int64(domainSize)))
	one.SetOne()
	var z fr.Element
	z.Sub(&gPowN, &one)
	zInv.Inverse(&z)

	h := make([]fr.Element, domainSize)
	for i := range h {
		var ab, num fr.Element
		ab.Mul(&a[i], &b[i])
		num.Sub(&ab, &c[i])
		h[i].Mul(&num, &zInv)
	}

	domain.FFTInverse(h, fft.DIF, fft.OnCoset())
	fft.BitReverse(h)

	// deg H = 2(domainSize-1) - domainSize = domainSize - 2, i.e.
	// domainSize-1 nonzero coefficients; the top coefficient of the
	// padded buffer is always zero by construction.
	return h[:domainSize-1], nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
