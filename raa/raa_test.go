package raa

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/fxamacker/cbor/v2"

	"emsm/emsmerr"
	"emsm/groupops"
)

func randScalars(t *testing.T, n int) []fr.Element {
	t.Helper()
	out := make([]fr.Element, n)
	for i := range out {
		if _, err := out[i].SetRandom(); err != nil {
			t.Fatalf("SetRandom: %v", err)
		}
	}
	return out
}

func TestApplyRejectsWrongLength(t *testing.T) {
	op, err := NewOperator(4, 16, rand.Reader)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}
	if _, err := op.Apply(make([]fr.Element, 3)); !errors.Is(err, emsmerr.ErrLengthMismatch) {
		t.Fatalf("Apply: want ErrLengthMismatch, got %v", err)
	}
	if _, err := op.ApplyTranspose(make([]fr.Element, 3)); !errors.Is(err, emsmerr.ErrLengthMismatch) {
		t.Fatalf("ApplyTranspose: want ErrLengthMismatch, got %v", err)
	}
}

// Apply and ApplyTranspose must be mutually adjoint: <Apply(z), y> ==
// <z, ApplyTranspose(y)> for every z of length n, y of length N.
func TestApplyTransposeIsAdjoint(t *testing.T) {
	op, err := NewOperator(8, 32, rand.Reader)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}
	z := randScalars(t, 8)
	y := randScalars(t, 32)

	Tz, err := op.Apply(z)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	Tty, err := op.ApplyTranspose(y)
	if err != nil {
		t.Fatalf("ApplyTranspose: %v", err)
	}

	var lhs, rhs fr.Element
	for i := range Tz {
		var term fr.Element
		term.Mul(&Tz[i], &y[i])
		lhs.Add(&lhs, &term)
	}
	for i := range z {
		var term fr.Element
		term.Mul(&z[i], &Tty[i])
		rhs.Add(&rhs, &term)
	}
	if !lhs.Equal(&rhs) {
		t.Fatalf("adjoint identity failed: <Tz,y>=%s <z,Tty>=%s", lhs.String(), rhs.String())
	}
}

// TransposeApplyGroup must agree with the field-level ApplyTranspose under
// the "group element is scalar times a fixed generator" homomorphism.
func TestTransposeApplyGroupMatchesFieldTranspose(t *testing.T) {
	op, err := NewOperator(4, 16, rand.Reader)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}
	ops := groupops.G1()
	y := randScalars(t, 16)

	_, _, gen, _ := bn254.Generators()
	g := make([]bn254.G1Affine, 16)
	for i := range g {
		g[i] = ops.ScalarMul(gen, &y[i])
	}
	gotGroup, err := TransposeApplyGroup(op, g, ops)
	if err != nil {
		t.Fatalf("TransposeApplyGroup: %v", err)
	}
	wantField, err := op.ApplyTranspose(y)
	if err != nil {
		t.Fatalf("ApplyTranspose: %v", err)
	}
	for i := range wantField {
		want := ops.ScalarMul(gen, &wantField[i])
		if !ops.Equal(gotGroup[i], want) {
			t.Fatalf("index %d: group transpose disagrees with field transpose", i)
		}
	}
}

// LiftTranspose must be TransposeApplyGroup's right inverse: for any
// length-n target t, TransposeApplyGroup(LiftTranspose(t)) == t.
func TestLiftTransposeInvertsTransposeApplyGroup(t *testing.T) {
	op, err := NewOperator(4, 16, rand.Reader)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}
	ops := groupops.G1()
	y := randScalars(t, 4)

	_, _, gen, _ := bn254.Generators()
	target := make([]bn254.G1Affine, 4)
	for i := range target {
		target[i] = ops.ScalarMul(gen, &y[i])
	}

	lifted, err := LiftTranspose(op, target, ops)
	if err != nil {
		t.Fatalf("LiftTranspose: %v", err)
	}
	if len(lifted) != 16 {
		t.Fatalf("lifted length = %d, want 16", len(lifted))
	}

	back, err := TransposeApplyGroup(op, lifted, ops)
	if err != nil {
		t.Fatalf("TransposeApplyGroup: %v", err)
	}
	for i := range target {
		if !ops.Equal(back[i], target[i]) {
			t.Fatalf("index %d: TransposeApplyGroup(LiftTranspose(t)) != t", i)
		}
	}
}

func TestLiftTransposeRejectsWrongLength(t *testing.T) {
	op, err := NewOperator(4, 16, rand.Reader)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}
	if _, err := LiftTranspose(op, make([]bn254.G1Affine, 3), groupops.G1()); !errors.Is(err, emsmerr.ErrLengthMismatch) {
		t.Fatalf("want ErrLengthMismatch, got %v", err)
	}
}

func TestOperatorMarshalRoundTrip(t *testing.T) {
	op, err := NewOperator(4, 16, rand.Reader)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}
	data, err := op.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	back, err := UnmarshalOperator(data)
	if err != nil {
		t.Fatalf("UnmarshalOperator: %v", err)
	}
	if back.N() != op.N() || back.Dim() != op.Dim() {
		t.Fatalf("round trip changed dimensions: got (n=%d,N=%d) want (n=%d,N=%d)", back.Dim(), back.N(), op.Dim(), op.N())
	}
	z := randScalars(t, 4)
	want, err := op.Apply(z)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, err := back.Apply(z)
	if err != nil {
		t.Fatalf("Apply (round-tripped): %v", err)
	}
	for i := range want {
		if !want[i].Equal(&got[i]) {
			t.Fatalf("index %d: round-tripped operator disagrees with original", i)
		}
	}
}

func TestUnmarshalOperatorRejectsNonBijection(t *testing.T) {
	op, err := NewOperator(4, 16, rand.Reader)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}
	data, err := op.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	var w operatorWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		t.Fatalf("cbor decode: %v", err)
	}
	w.P[0] = w.P[1] // break the bijection
	corrupted, err := cbor.Marshal(w)
	if err != nil {
		t.Fatalf("cbor encode: %v", err)
	}
	if _, err := UnmarshalOperator(corrupted); !errors.Is(err, emsmerr.ErrMalformedInput) {
		t.Fatalf("want ErrMalformedInput, got %v", err)
	}
}
