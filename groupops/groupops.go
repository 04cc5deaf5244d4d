// Package groupops provides the small capability set EMSM needs from an
// elliptic-curve group — add, negate, scalar-mul, zero, (de)serialize — so
// the rest of the core (raa, pedersenmsm, duallpn, emsm) is written once and
// instantiated at both G1 and G2 (spec §9 "Polymorphism over groups").
// gnark-crypto does not give bn254.G1Affine and bn254.G2Affine a shared
// interface, so instead of forcing one we close over each curve's own
// methods in a struct of functions.
package groupops

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Ops bundles the group operations EMSM needs for a concrete point type P.
type Ops[P any] struct {
	Zero      func() P
	Add       func(a, b P) P
	Neg       func(a P) P
	ScalarMul func(a P, s *fr.Element) P
	Equal     func(a, b P) bool
	Bytes     func(a P) []byte
	SetBytes  func(buf []byte) (P, error)
}

// Sum folds a slice of points with Add, starting from Zero. O(len(points)).
func (o Ops[P]) Sum(points []P) P {
	acc := o.Zero()
	for _, p := range points {
		acc = o.Add(acc, p)
	}
	return acc
}

func scalarToBigInt(s *fr.Element) *big.Int {
	var bi big.Int
	s.BigInt(&bi)
	return &bi
}

// G1 returns the capability set for bn254's G1 affine points.
func G1() Ops[bn254.G1Affine] {
	return Ops[bn254.G1Affine]{
		Zero: func() bn254.G1Affine {
			var z bn254.G1Affine
			return z
		},
		Add: func(a, b bn254.G1Affine) bn254.G1Affine {
			var out bn254.G1Affine
			out.Add(&a, &b)
			return out
		},
		Neg: func(a bn254.G1Affine) bn254.G1Affine {
			var out bn254.G1Affine
			out.Neg(&a)
			return out
		},
		ScalarMul: func(a bn254.G1Affine, s *fr.Element) bn254.G1Affine {
			var out bn254.G1Affine
			out.ScalarMultiplication(&a, scalarToBigInt(s))
			return out
		},
		Equal: func(a, b bn254.G1Affine) bool { return a.Equal(&b) },
		Bytes: func(a bn254.G1Affine) []byte {
			b := a.Bytes()
			return b[:]
		},
		SetBytes: func(buf []byte) (bn254.G1Affine, error) {
			var p bn254.G1Affine
			_, err := p.SetBytes(buf)
			return p, err
		},
	}
}

// G2 returns the capability set for bn254's G2 affine points.
func G2() Ops[bn254.G2Affine] {
	return Ops[bn254.G2Affine]{
		Zero: func() bn254.G2Affine {
			var z bn254.G2Affine
			return z
		},
		Add: func(a, b bn254.G2Affine) bn254.G2Affine {
			var out bn254.G2Affine
			out.Add(&a, &b)
			return out
		},
		Neg: func(a bn254.G2Affine) bn254.G2Affine {
			var out bn254.G2Affine
			out.Neg(&a)
			return out
		},
		ScalarMul: func(a bn254.G2Affine, s *fr.Element) bn254.G2Affine {
			var out bn254.G2Affine
			out.ScalarMultiplication(&a, scalarToBigInt(s))
			return out
		},
		Equal: func(a, b bn254.G2Affine) bool { return a.Equal(&b) },
		Bytes: func(a bn254.G2Affine) []byte {
			b := a.Bytes()
			return b[:]
		},
		SetBytes: func(buf []byte) (bn254.G2Affine, error) {
			var p bn254.G2Affine
			_, err := p.SetBytes(buf)
			return p, err
		},
	}
}
