package wire

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/google/uuid"

	"emsm/emsmerr"
)

func randFrVector(t *testing.T, n int) []fr.Element {
	t.Helper()
	out := make([]fr.Element, n)
	for i := range out {
		if _, err := out[i].SetRandom(); err != nil {
			t.Fatalf("SetRandom: %v", err)
		}
	}
	return out
}

func randG1Vector(t *testing.T, n int) []bn254.G1Affine {
	t.Helper()
	_, _, gen, _ := bn254.Generators()
	ops := func(s *fr.Element) bn254.G1Affine {
		var p bn254.G1Affine
		var bi big.Int
		s.BigInt(&bi)
		p.ScalarMultiplication(&gen, &bi)
		return p
	}
	out := make([]bn254.G1Affine, n)
	for i := range out {
		var s fr.Element
		if _, err := s.SetRandom(); err != nil {
			t.Fatalf("SetRandom: %v", err)
		}
		out[i] = ops(&s)
	}
	return out
}

func TestSetupRequestRoundTrip(t *testing.T) {
	req := &SetupRequest{
		SessionID: uuid.New(),
		GH:        randG1Vector(t, 3),
		GL:        randG1Vector(t, 3),
		GA:        randG1Vector(t, 3),
		GB1:       randG1Vector(t, 3),
	}
	_, _, _, g2Gen := bn254.Generators()
	req.GB2 = []bn254.G2Affine{g2Gen}

	data, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeSetupRequest(data)
	if err != nil {
		t.Fatalf("DecodeSetupRequest: %v", err)
	}
	if got.SessionID != req.SessionID {
		t.Fatal("session id did not round trip")
	}
	if len(got.GH) != len(req.GH) || !got.GH[0].Equal(&req.GH[0]) {
		t.Fatal("GH did not round trip")
	}
	if len(got.GB2) != 1 || !got.GB2[0].Equal(&req.GB2[0]) {
		t.Fatal("GB2 did not round trip")
	}
}

func TestProveRequestRoundTrip(t *testing.T) {
	req := &ProveRequest{
		SessionID: uuid.New(),
		MaskedH:   randFrVector(t, 4),
		MaskedL:   randFrVector(t, 4),
		MaskedA:   randFrVector(t, 4),
		MaskedB1:  randFrVector(t, 4),
		MaskedB2:  randFrVector(t, 4),
	}
	data, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeProveRequest(data)
	if err != nil {
		t.Fatalf("DecodeProveRequest: %v", err)
	}
	for i := range req.MaskedH {
		if !got.MaskedH[i].Equal(&req.MaskedH[i]) {
			t.Fatalf("MaskedH[%d] did not round trip", i)
		}
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	req := &ProveRequest{SessionID: uuid.New(), MaskedH: randFrVector(t, 2)}
	data, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := DecodeProveRequest(data[:len(data)-1]); !errors.Is(err, emsmerr.ErrMalformedInput) {
		t.Fatalf("want ErrMalformedInput on truncated input, got %v", err)
	}
}

// TestDecodeRejectsOversizedVector exercises spec §10 scenario S6: a
// length prefix over MaxVecLen must be rejected before any allocation
// proportional to that length happens.
func TestDecodeRejectsOversizedVector(t *testing.T) {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(MaxVecLen)+1)
	if _, err := readFrVector(bytes.NewReader(buf.Bytes())); !errors.Is(err, emsmerr.ErrMalformedInput) {
		t.Fatalf("want ErrMalformedInput for an over-bound vector length, got %v", err)
	}
}

func TestDecodeRejectsNonCanonicalScalar(t *testing.T) {
	var buf bytes.Buffer
	writeUint32(&buf, 1)
	// fr.Bytes-sized block of 0xFF is not a canonical field element.
	bad := make([]byte, fr.Bytes)
	for i := range bad {
		bad[i] = 0xFF
	}
	buf.Write(bad)
	if _, err := readFrVector(bytes.NewReader(buf.Bytes())); !errors.Is(err, emsmerr.ErrMalformedInput) {
		t.Fatalf("want ErrMalformedInput for a non-canonical scalar, got %v", err)
	}
}
