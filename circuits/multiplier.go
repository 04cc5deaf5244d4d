package circuits

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"emsm/groth16adapter"
)

// MultiplierConstraintSystem is a single-constraint a*b=c circuit,
// expressed directly in groth16adapter's wire-indexed Constraint/Term
// shape rather than through gnark's frontend — standing in for a
// constraint system and witness produced by an external arithmetic-circuit
// compiler (spec §10, scenario S3 "externally compiled circuit"). Wire
// layout: 0 is the constant-one wire, 1 is public output c, 2 and 3 are
// secret inputs a and b.
func MultiplierConstraintSystem() *groth16adapter.ConstraintSystem {
	one := fr.One()
	return &groth16adapter.ConstraintSystem{
		NbPublic: 2,
		NbWires:  4,
		Constraints: []groth16adapter.Constraint{
			{
				A: []groth16adapter.Term{{Wire: 2, Coeff: one}},
				B: []groth16adapter.Term{{Wire: 3, Coeff: one}},
				C: []groth16adapter.Term{{Wire: 1, Coeff: one}},
			},
		},
	}
}

// MultiplierWitnessOf is the external witness calculator for
// MultiplierConstraintSystem: given a, b it lays out [1, a*b, a, b] in
// wire order.
func MultiplierWitnessOf(assignment groth16adapter.Assignment) ([]fr.Element, error) {
	a, ok := assignment["a"]
	if !ok {
		return nil, errMissingKey("a")
	}
	b, ok := assignment["b"]
	if !ok {
		return nil, errMissingKey("b")
	}
	var ae, be, ce, one fr.Element
	ae.SetBigInt(a)
	be.SetBigInt(b)
	ce.Mul(&ae, &be)
	one.SetOne()
	return []fr.Element{one, ce, ae, be}, nil
}

// MultiplierAssignment builds an Assignment for (a, b) convenient for
// tests and e2e fixtures.
func MultiplierAssignment(a, b int64) groth16adapter.Assignment {
	return groth16adapter.Assignment{"a": big.NewInt(a), "b": big.NewInt(b)}
}
