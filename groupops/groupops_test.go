package groupops

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func randScalar(t *testing.T) fr.Element {
	t.Helper()
	var s fr.Element
	if _, err := s.SetRandom(); err != nil {
		t.Fatalf("SetRandom: %v", err)
	}
	return s
}

func testOpsLaws[P any](t *testing.T, ops Ops[P], gen P) {
	t.Helper()

	zero := ops.Zero()
	if !ops.Equal(ops.Add(gen, zero), gen) {
		t.Fatal("Zero is not an additive identity")
	}
	if !ops.Equal(ops.Add(gen, ops.Neg(gen)), zero) {
		t.Fatal("Add(a, Neg(a)) must be Zero")
	}

	a, b := randScalar(t), randScalar(t)
	pa, pb := ops.ScalarMul(gen, &a), ops.ScalarMul(gen, &b)
	var sum fr.Element
	sum.Add(&a, &b)
	want := ops.ScalarMul(gen, &sum)
	if !ops.Equal(ops.Add(pa, pb), want) {
		t.Fatal("ScalarMul does not distribute over scalar addition")
	}

	buf := ops.Bytes(pa)
	got, err := ops.SetBytes(buf)
	if err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	if !ops.Equal(got, pa) {
		t.Fatal("Bytes/SetBytes did not round trip")
	}
}

func TestG1Laws(t *testing.T) {
	_, _, gen, _ := bn254.Generators()
	testOpsLaws(t, G1(), gen)
}

func TestG2Laws(t *testing.T) {
	_, _, _, gen := bn254.Generators()
	testOpsLaws(t, G2(), gen)
}

func TestSum(t *testing.T) {
	ops := G1()
	_, _, gen, _ := bn254.Generators()
	points := []bn254.G1Affine{gen, gen, gen}
	got := ops.Sum(points)

	var three fr.Element
	three.SetInt64(3)
	want := ops.ScalarMul(gen, &three)
	if !ops.Equal(got, want) {
		t.Fatal("Sum(gen, gen, gen) must equal ScalarMul(gen, 3)")
	}
}
