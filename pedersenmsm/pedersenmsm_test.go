package pedersenmsm

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"emsm/emsmerr"
	"emsm/groupops"
	"emsm/sparsevec"
)

func TestCommitG1LengthMismatch(t *testing.T) {
	if _, err := CommitG1(make([]fr.Element, 2), make([]bn254.G1Affine, 3)); !errors.Is(err, emsmerr.ErrLengthMismatch) {
		t.Fatalf("want ErrLengthMismatch, got %v", err)
	}
}

func TestCommitMatchesCommitG1(t *testing.T) {
	const n = 16
	_, _, gen, _ := bn254.Generators()
	ops := groupops.G1()

	scalars := make([]fr.Element, n)
	bases := make([]bn254.G1Affine, n)
	for i := range scalars {
		if _, err := scalars[i].SetRandom(); err != nil {
			t.Fatalf("SetRandom: %v", err)
		}
		var s fr.Element
		if _, err := s.SetRandom(); err != nil {
			t.Fatalf("SetRandom: %v", err)
		}
		bases[i] = ops.ScalarMul(gen, &s)
	}

	want, err := CommitG1(scalars, bases)
	if err != nil {
		t.Fatalf("CommitG1: %v", err)
	}
	got, err := Commit(scalars, bases, ops)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !got.Equal(&want) {
		t.Fatal("Commit and CommitG1 disagree on the same scalars/bases")
	}
}

func TestCommitSparseOnlySumsNonzero(t *testing.T) {
	const N = 8
	ops := groupops.G1()
	_, _, gen, _ := bn254.Generators()
	bases := make([]bn254.G1Affine, N)
	for i := range bases {
		var s fr.Element
		s.SetInt64(int64(i + 1))
		bases[i] = ops.ScalarMul(gen, &s)
	}

	sv := sparsevec.New(N)
	var v1, v2 fr.Element
	v1.SetInt64(3)
	v2.SetInt64(5)
	if err := sv.Push(1, v1); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := sv.Push(4, v2); err != nil {
		t.Fatalf("Push: %v", err)
	}

	got, err := CommitSparse(sv, bases, ops)
	if err != nil {
		t.Fatalf("CommitSparse: %v", err)
	}

	dense := sv.Densify()
	want, err := CommitG1(dense, bases)
	if err != nil {
		t.Fatalf("CommitG1: %v", err)
	}
	if !got.Equal(&want) {
		t.Fatal("CommitSparse disagrees with a dense commit of the densified vector")
	}
}

func TestCommitSparseLengthMismatch(t *testing.T) {
	ops := groupops.G1()
	sv := sparsevec.New(8)
	if _, err := CommitSparse(sv, make([]bn254.G1Affine, 4), ops); !errors.Is(err, emsmerr.ErrLengthMismatch) {
		t.Fatalf("want ErrLengthMismatch, got %v", err)
	}
}
