package circuits

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"emsm/groth16adapter"
)

func TestCubeWitnessForSatisfiesXCubedPlusXPlusFive(t *testing.T) {
	assignment, err := CubeWitnessFor(3)
	if err != nil {
		t.Fatalf("CubeWitnessFor: %v", err)
	}
	x, ok := assignment["x"]
	if !ok {
		t.Fatal("assignment missing x")
	}
	y, ok := assignment["y"]
	if !ok {
		t.Fatal("assignment missing y")
	}
	if x.Int64() != 3 {
		t.Fatalf("x = %v, want 3", x)
	}
	// 3^3 + 3 + 5 = 35
	if y.Int64() != 35 {
		t.Fatalf("y = %v, want 35", y)
	}
}

func TestCubeAssignmentBuildsCircuit(t *testing.T) {
	assignment, err := CubeWitnessFor(2)
	if err != nil {
		t.Fatalf("CubeWitnessFor: %v", err)
	}
	circuit, err := CubeAssignment(assignment)
	if err != nil {
		t.Fatalf("CubeAssignment: %v", err)
	}
	cc, ok := circuit.(*CubeCircuit)
	if !ok {
		t.Fatalf("CubeAssignment returned %T, want *CubeCircuit", circuit)
	}
	if cc.X != assignment["x"] || cc.Y != assignment["y"] {
		t.Fatal("CubeAssignment did not carry the assignment's x/y through")
	}
}

func TestCubeAssignmentRejectsMissingKeys(t *testing.T) {
	if _, err := CubeAssignment(groth16adapter.Assignment{"x": big.NewInt(1)}); err == nil {
		t.Fatal("want error for a missing y key")
	}
	if _, err := CubeAssignment(groth16adapter.Assignment{"y": big.NewInt(1)}); err == nil {
		t.Fatal("want error for a missing x key")
	}
}

func TestMultiplierConstraintSystemShape(t *testing.T) {
	cs := MultiplierConstraintSystem()
	if cs.NbWires != 4 {
		t.Fatalf("NbWires = %d, want 4", cs.NbWires)
	}
	if len(cs.Constraints) != 1 {
		t.Fatalf("len(Constraints) = %d, want 1", len(cs.Constraints))
	}
	con := cs.Constraints[0]
	if len(con.A) != 1 || con.A[0].Wire != 2 {
		t.Fatal("A term must reference wire 2 (input a)")
	}
	if len(con.B) != 1 || con.B[0].Wire != 3 {
		t.Fatal("B term must reference wire 3 (input b)")
	}
	if len(con.C) != 1 || con.C[0].Wire != 1 {
		t.Fatal("C term must reference wire 1 (output c)")
	}
}

func TestMultiplierWitnessOfComputesProduct(t *testing.T) {
	w, err := MultiplierWitnessOf(MultiplierAssignment(6, 7))
	if err != nil {
		t.Fatalf("MultiplierWitnessOf: %v", err)
	}
	if len(w) != 4 {
		t.Fatalf("len(witness) = %d, want 4", len(w))
	}
	var one, c, a, b fr.Element
	one.SetOne()
	c.SetInt64(42)
	a.SetInt64(6)
	b.SetInt64(7)
	if !w[0].Equal(&one) {
		t.Fatal("wire 0 must be the constant one")
	}
	if !w[1].Equal(&c) {
		t.Fatal("wire 1 (c) must be a*b = 42")
	}
	if !w[2].Equal(&a) || !w[3].Equal(&b) {
		t.Fatal("wires 2/3 must carry a and b unchanged")
	}
}

func TestMultiplierWitnessOfRejectsMissingKeys(t *testing.T) {
	if _, err := MultiplierWitnessOf(groth16adapter.Assignment{"a": big.NewInt(1)}); err == nil {
		t.Fatal("want error for a missing b key")
	}
	if _, err := MultiplierWitnessOf(groth16adapter.Assignment{"b": big.NewInt(1)}); err == nil {
		t.Fatal("want error for a missing a key")
	}
}
