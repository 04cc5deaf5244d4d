// Package wire implements the SetupRequest/ProveRequest/ProveResponse
// envelopes of spec §5 and §6: a length-prefixed canonical binary
// encoding bounded by MaxVecLen, total but fallible to decode. Every
// decode failure — truncation, a length prefix over the bound, or a
// point that fails the curve's own on-curve/subgroup check — surfaces as
// emsmerr.ErrMalformedInput, never a panic (spec §7, invariant 7).
package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/google/uuid"

	"emsm/emsmerr"
)

// MaxVecLen bounds every vector this package encodes or decodes (spec §5
// "All wire data is bounded by a global MAX_VEC_LEN").
const MaxVecLen = 1 << 24

// SetupRequest carries the five bases the server will MSM against, keyed
// by session id (spec §6 POST /setup); the client fills them with the
// length-N bases lifted from the Groth16 generator vectors.
type SetupRequest struct {
	SessionID uuid.UUID
	GH        []bn254.G1Affine
	GL        []bn254.G1Affine
	GA        []bn254.G1Affine
	GB1       []bn254.G1Affine
	GB2       []bn254.G2Affine
}

// ProveRequest carries the five masked scalar vectors for one proving
// call (spec §6 POST /prove).
type ProveRequest struct {
	SessionID uuid.UUID
	MaskedH   []fr.Element
	MaskedL   []fr.Element
	MaskedA   []fr.Element
	MaskedB1  []fr.Element
	MaskedB2  []fr.Element
}

// ProveResponse carries the server's five MSM results, in the same order
// as ProveRequest's vectors.
type ProveResponse struct {
	EmH  bn254.G1Affine
	EmL  bn254.G1Affine
	EmA  bn254.G1Affine
	EmB1 bn254.G1Affine
	EmB2 bn254.G2Affine
}

func errMalformed(context string, cause error) error {
	return emsmerr.Wrap(emsmerr.ErrMalformedInput, "wire: "+context, cause)
}

func writeUint32(buf *bytes.Buffer, n uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	buf.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, errMalformed("truncated length prefix", err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func readBytes(r *bytes.Reader, want int) ([]byte, error) {
	out := make([]byte, want)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, errMalformed("truncated payload", err)
	}
	return out, nil
}

func writeFrVector(buf *bytes.Buffer, v []fr.Element) error {
	if len(v) > MaxVecLen {
		return errMalformed("scalar vector exceeds MAX_VEC_LEN", nil)
	}
	writeUint32(buf, uint32(len(v)))
	for _, e := range v {
		b := e.Bytes()
		buf.Write(b[:])
	}
	return nil
}

func readFrVector(r *bytes.Reader) ([]fr.Element, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > MaxVecLen {
		return nil, errMalformed("scalar vector exceeds MAX_VEC_LEN", nil)
	}
	out := make([]fr.Element, n)
	for i := range out {
		b, err := readBytes(r, fr.Bytes)
		if err != nil {
			return nil, err
		}
		if _, err := out[i].SetBytesCanonical(b); err != nil {
			return nil, errMalformed("scalar not canonical", err)
		}
	}
	return out, nil
}

func writeG1Vector(buf *bytes.Buffer, v []bn254.G1Affine) error {
	if len(v) > MaxVecLen {
		return errMalformed("G1 vector exceeds MAX_VEC_LEN", nil)
	}
	writeUint32(buf, uint32(len(v)))
	for _, p := range v {
		b := p.Bytes()
		buf.Write(b[:])
	}
	return nil
}

func readG1Vector(r *bytes.Reader) ([]bn254.G1Affine, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > MaxVecLen {
		return nil, errMalformed("G1 vector exceeds MAX_VEC_LEN", nil)
	}
	out := make([]bn254.G1Affine, n)
	for i := range out {
		b, err := readBytes(r, bn254.SizeOfG1AffineCompressed)
		if err != nil {
			return nil, err
		}
		if _, err := out[i].SetBytes(b); err != nil {
			return nil, errMalformed("G1 point off-curve or not in subgroup", err)
		}
	}
	return out, nil
}

func writeG2Vector(buf *bytes.Buffer, v []bn254.G2Affine) error {
	if len(v) > MaxVecLen {
		return errMalformed("G2 vector exceeds MAX_VEC_LEN", nil)
	}
	writeUint32(buf, uint32(len(v)))
	for _, p := range v {
		b := p.Bytes()
		buf.Write(b[:])
	}
	return nil
}

func readG2Vector(r *bytes.Reader) ([]bn254.G2Affine, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > MaxVecLen {
		return nil, errMalformed("G2 vector exceeds MAX_VEC_LEN", nil)
	}
	out := make([]bn254.G2Affine, n)
	for i := range out {
		b, err := readBytes(r, bn254.SizeOfG2AffineCompressed)
		if err != nil {
			return nil, err
		}
		if _, err := out[i].SetBytes(b); err != nil {
			return nil, errMalformed("G2 point off-curve or not in subgroup", err)
		}
	}
	return out, nil
}

// Encode serializes a SetupRequest to its canonical wire form.
func (req *SetupRequest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(req.SessionID[:])
	for _, step := range []func() error{
		func() error { return writeG1Vector(&buf, req.GH) },
		func() error { return writeG1Vector(&buf, req.GL) },
		func() error { return writeG1Vector(&buf, req.GA) },
		func() error { return writeG1Vector(&buf, req.GB1) },
		func() error { return writeG2Vector(&buf, req.GB2) },
	} {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeSetupRequest deserializes a SetupRequest, failing with
// ErrMalformedInput on any truncation, length-cap violation, or off-curve
// point (spec invariant 7).
func DecodeSetupRequest(b []byte) (*SetupRequest, error) {
	r := bytes.NewReader(b)
	var idBytes [16]byte
	if _, err := io.ReadFull(r, idBytes[:]); err != nil {
		return nil, errMalformed("truncated session id", err)
	}
	id, err := uuid.FromBytes(idBytes[:])
	if err != nil {
		return nil, errMalformed("invalid session id", err)
	}
	gh, err := readG1Vector(r)
	if err != nil {
		return nil, err
	}
	gl, err := readG1Vector(r)
	if err != nil {
		return nil, err
	}
	ga, err := readG1Vector(r)
	if err != nil {
		return nil, err
	}
	gb1, err := readG1Vector(r)
	if err != nil {
		return nil, err
	}
	gb2, err := readG2Vector(r)
	if err != nil {
		return nil, err
	}
	return &SetupRequest{SessionID: id, GH: gh, GL: gl, GA: ga, GB1: gb1, GB2: gb2}, nil
}

// Encode serializes a ProveRequest to its canonical wire form.
func (req *ProveRequest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(req.SessionID[:])
	for _, step := range []func() error{
		func() error { return writeFrVector(&buf, req.MaskedH) },
		func() error { return writeFrVector(&buf, req.MaskedL) },
		func() error { return writeFrVector(&buf, req.MaskedA) },
		func() error { return writeFrVector(&buf, req.MaskedB1) },
		func() error { return writeFrVector(&buf, req.MaskedB2) },
	} {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeProveRequest deserializes a ProveRequest with the same total
// but fallible decoding discipline as DecodeSetupRequest.
func DecodeProveRequest(b []byte) (*ProveRequest, error) {
	r := bytes.NewReader(b)
	var idBytes [16]byte
	if _, err := io.ReadFull(r, idBytes[:]); err != nil {
		return nil, errMalformed("truncated session id", err)
	}
	id, err := uuid.FromBytes(idBytes[:])
	if err != nil {
		return nil, errMalformed("invalid session id", err)
	}
	mh, err := readFrVector(r)
	if err != nil {
		return nil, err
	}
	ml, err := readFrVector(r)
	if err != nil {
		return nil, err
	}
	ma, err := readFrVector(r)
	if err != nil {
		return nil, err
	}
	mb1, err := readFrVector(r)
	if err != nil {
		return nil, err
	}
	mb2, err := readFrVector(r)
	if err != nil {
		return nil, err
	}
	return &ProveRequest{SessionID: id, MaskedH: mh, MaskedL: ml, MaskedA: ma, MaskedB1: mb1, MaskedB2: mb2}, nil
}

// Encode serializes a ProveResponse to its canonical wire form.
func (resp *ProveResponse) Encode() []byte {
	var buf bytes.Buffer
	bh := resp.EmH.Bytes()
	bl := resp.EmL.Bytes()
	ba := resp.EmA.Bytes()
	bb1 := resp.EmB1.Bytes()
	bb2 := resp.EmB2.Bytes()
	buf.Write(bh[:])
	buf.Write(bl[:])
	buf.Write(ba[:])
	buf.Write(bb1[:])
	buf.Write(bb2[:])
	return buf.Bytes()
}

// DecodeProveResponse deserializes a ProveResponse.
func DecodeProveResponse(b []byte) (*ProveResponse, error) {
	r := bytes.NewReader(b)
	read1 := func() (bn254.G1Affine, error) {
		var p bn254.G1Affine
		buf, err := readBytes(r, bn254.SizeOfG1AffineCompressed)
		if err != nil {
			return p, err
		}
		if _, err := p.SetBytes(buf); err != nil {
			return p, errMalformed("G1 point off-curve or not in subgroup", err)
		}
		return p, nil
	}
	read2 := func() (bn254.G2Affine, error) {
		var p bn254.G2Affine
		buf, err := readBytes(r, bn254.SizeOfG2AffineCompressed)
		if err != nil {
			return p, err
		}
		if _, err := p.SetBytes(buf); err != nil {
			return p, errMalformed("G2 point off-curve or not in subgroup", err)
		}
		return p, nil
	}
	emH, err := read1()
	if err != nil {
		return nil, err
	}
	emL, err := read1()
	if err != nil {
		return nil, err
	}
	emA, err := read1()
	if err != nil {
		return nil, err
	}
	emB1, err := read1()
	if err != nil {
		return nil, err
	}
	emB2, err := read2()
	if err != nil {
		return nil, err
	}
	return &ProveResponse{EmH: emH, EmL: emL, EmA: emA, EmB1: emB1, EmB2: emB2}, nil
}
