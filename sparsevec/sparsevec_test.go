package sparsevec

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"emsm/emsmerr"
)

func TestPushRejectsDuplicateAndOutOfRange(t *testing.T) {
	v := New(4)
	var val fr.Element
	val.SetInt64(7)
	if err := v.Push(1, val); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := v.Push(1, val); !errors.Is(err, emsmerr.ErrParameterMismatch) {
		t.Fatalf("duplicate index: want ErrParameterMismatch, got %v", err)
	}
	if err := v.Push(4, val); !errors.Is(err, emsmerr.ErrParameterMismatch) {
		t.Fatalf("out of range: want ErrParameterMismatch, got %v", err)
	}
	if err := v.Push(-1, val); !errors.Is(err, emsmerr.ErrParameterMismatch) {
		t.Fatalf("negative index: want ErrParameterMismatch, got %v", err)
	}
}

func TestDensifyAndNegate(t *testing.T) {
	v := New(4)
	var a, b fr.Element
	a.SetInt64(3)
	b.SetInt64(5)
	if err := v.Push(0, a); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := v.Push(2, b); err != nil {
		t.Fatalf("Push: %v", err)
	}

	dense := v.Densify()
	if !dense[0].Equal(&a) || !dense[2].Equal(&b) {
		t.Fatal("Densify did not place values at the pushed indices")
	}
	if !dense[1].IsZero() || !dense[3].IsZero() {
		t.Fatal("Densify left nonzero values at untouched indices")
	}

	neg := v.Negate()
	negDense := neg.Densify()
	var wantNeg0, wantNeg2 fr.Element
	wantNeg0.Neg(&a)
	wantNeg2.Neg(&b)
	if !negDense[0].Equal(&wantNeg0) || !negDense[2].Equal(&wantNeg2) {
		t.Fatal("Negate did not negate every stored value")
	}
}

func TestSampleErrorVectorWeight(t *testing.T) {
	const N, tWeight = 64, 8
	sv, err := SampleErrorVector(N, tWeight, rand.Reader)
	if err != nil {
		t.Fatalf("SampleErrorVector: %v", err)
	}
	if sv.Len() != N {
		t.Fatalf("Len() = %d, want %d", sv.Len(), N)
	}
	if sv.NumNonzero() != tWeight {
		t.Fatalf("NumNonzero() = %d, want %d", sv.NumNonzero(), tWeight)
	}
	chunk := N / tWeight
	for i, e := range sv.Entries() {
		if e.Index < i*chunk || e.Index >= (i+1)*chunk {
			t.Fatalf("entry %d at index %d falls outside its chunk [%d,%d)", i, e.Index, i*chunk, (i+1)*chunk)
		}
		if e.Value.IsZero() {
			t.Fatalf("entry %d has a zero value", i)
		}
	}
}

func TestSampleErrorVectorRejectsNonDividingT(t *testing.T) {
	if _, err := SampleErrorVector(10, 3, rand.Reader); !errors.Is(err, emsmerr.ErrParameterMismatch) {
		t.Fatalf("want ErrParameterMismatch, got %v", err)
	}
}
