// Package circuits holds the example circuits the end-to-end scenarios
// drive the server-aided prover with (spec §10): CubeCircuit for the
// native QAP reduction, MultiplierCircuit for the externally-compiled one.
package circuits

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"

	"emsm/groth16adapter"
)

// CubeCircuit proves knowledge of x such that x^3 + x + 5 == y, the
// textbook gnark example circuit — used here to exercise
// groth16adapter.NativeReduction end to end (spec §10, scenario S2).
type CubeCircuit struct {
	X frontend.Variable `gnark:",secret"`
	Y frontend.Variable `gnark:",public"`
}

func (c *CubeCircuit) Define(api frontend.API) error {
	x3 := api.Mul(c.X, c.X, c.X)
	api.AssertIsEqual(c.Y, api.Add(x3, c.X, 5))
	return nil
}

// CubeAssignment builds a groth16adapter.AssignmentBuilder for
// CubeCircuit: the Assignment map carries "x" and "y" as *big.Int.
func CubeAssignment(a groth16adapter.Assignment) (frontend.Circuit, error) {
	x, ok := a["x"]
	if !ok {
		return nil, errMissingKey("x")
	}
	y, ok := a["y"]
	if !ok {
		return nil, errMissingKey("y")
	}
	return &CubeCircuit{X: x, Y: y}, nil
}

// CubeWitnessFor computes y = x^3 + x + 5 for a given x, convenient for
// building test assignments and e2e fixtures.
func CubeWitnessFor(x int64) (groth16adapter.Assignment, error) {
	var xe, ye fr.Element
	xe.SetInt64(x)
	var x3 fr.Element
	x3.Mul(&xe, &xe).Mul(&x3, &xe)
	var five fr.Element
	five.SetInt64(5)
	ye.Add(&x3, &xe).Add(&ye, &five)

	var xBig, yBig big.Int
	xe.BigInt(&xBig)
	ye.BigInt(&yBig)
	return groth16adapter.Assignment{"x": &xBig, "y": &yBig}, nil
}

type missingKeyError string

func (e missingKeyError) Error() string { return "circuits: missing assignment key " + string(e) }

func errMissingKey(k string) error { return missingKeyError(k) }
