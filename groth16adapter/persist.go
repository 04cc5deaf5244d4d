package groth16adapter

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"emsm/emsm"
	"emsm/emsmerr"
	"emsm/groupops"
	"emsm/raa"
)

// SaveServerAided writes a ServerAidedProvingKey to dir: pk.bin and
// vk.bin via gnark's own WriterTo encoding (teacher's ceremony.go writes
// phase1/phase2 contributions the same way, one file per artifact), plus
// one file per EMSM public-params instance carrying its RAA operator and
// its length-n generator vector H (loading re-lifts the server basis G
// from H and the operator via emsm.NewPublicParams).
func SaveServerAided(pk *ServerAidedProvingKey, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: mkdir failed", err)
	}

	if err := writeWriterTo(filepath.Join(dir, "pk.bin"), pk.PK); err != nil {
		return err
	}
	if err := writeWriterTo(filepath.Join(dir, "vk.bin"), pk.VK); err != nil {
		return err
	}

	if err := savePPG1(filepath.Join(dir, "pp_h.bin"), pk.PPH); err != nil {
		return err
	}
	if err := savePPG1(filepath.Join(dir, "pp_l.bin"), pk.PPL); err != nil {
		return err
	}
	if err := savePPG1(filepath.Join(dir, "pp_a.bin"), pk.PPA); err != nil {
		return err
	}
	if err := savePPG1(filepath.Join(dir, "pp_b1.bin"), pk.PPB1); err != nil {
		return err
	}
	if err := savePPG2(filepath.Join(dir, "pp_b2.bin"), pk.PPB2); err != nil {
		return err
	}
	return nil
}

func writeWriterTo(path string, v interface{ WriteTo(w io.Writer) (int64, error) }) error {
	f, err := os.Create(path)
	if err != nil {
		return emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: create "+path, err)
	}
	defer f.Close()
	if _, err := v.WriteTo(f); err != nil {
		return emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: write "+path, err)
	}
	return nil
}

func savePPG1(path string, pp *emsm.PublicParams[bn254.G1Affine]) error {
	opBytes, err := pp.T.MarshalBinary()
	if err != nil {
		return emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: marshal operator", err)
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(pp.H)))
	buf := append([]byte{}, hdr[:]...)
	for _, g := range pp.H {
		b := g.Bytes()
		buf = append(buf, b[:]...)
	}
	var opLen [4]byte
	binary.BigEndian.PutUint32(opLen[:], uint32(len(opBytes)))
	buf = append(buf, opLen[:]...)
	buf = append(buf, opBytes...)
	return os.WriteFile(path, buf, 0o644)
}

func savePPG2(path string, pp *emsm.PublicParams[bn254.G2Affine]) error {
	opBytes, err := pp.T.MarshalBinary()
	if err != nil {
		return emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: marshal operator", err)
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(pp.H)))
	buf := append([]byte{}, hdr[:]...)
	for _, g := range pp.H {
		b := g.Bytes()
		buf = append(buf, b[:]...)
	}
	var opLen [4]byte
	binary.BigEndian.PutUint32(opLen[:], uint32(len(opBytes)))
	buf = append(buf, opLen[:]...)
	buf = append(buf, opBytes...)
	return os.WriteFile(path, buf, 0o644)
}

func loadPPG1(path string) (*emsm.PublicParams[bn254.G1Affine], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: read "+path, err)
	}
	if len(data) < 4 {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: truncated pp file", nil)
	}
	n := int(binary.BigEndian.Uint32(data[0:4]))
	off := 4
	g := make([]bn254.G1Affine, n)
	for i := range g {
		if off+bn254.SizeOfG1AffineCompressed > len(data) {
			return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: truncated pp generator vector", nil)
		}
		if _, err := g[i].SetBytes(data[off : off+bn254.SizeOfG1AffineCompressed]); err != nil {
			return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed G1 generator", err)
		}
		off += bn254.SizeOfG1AffineCompressed
	}
	if off+4 > len(data) {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: truncated operator length", nil)
	}
	opLen := int(binary.BigEndian.Uint32(data[off : off+4]))
	off += 4
	if off+opLen > len(data) {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: truncated operator bytes", nil)
	}
	op, err := raa.UnmarshalOperator(data[off : off+opLen])
	if err != nil {
		return nil, err
	}
	return emsm.NewPublicParams(g, op, groupops.G1(), commitG1)
}

func loadPPG2(path string) (*emsm.PublicParams[bn254.G2Affine], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: read "+path, err)
	}
	if len(data) < 4 {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: truncated pp file", nil)
	}
	n := int(binary.BigEndian.Uint32(data[0:4]))
	off := 4
	g := make([]bn254.G2Affine, n)
	for i := range g {
		if off+bn254.SizeOfG2AffineCompressed > len(data) {
			return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: truncated pp generator vector", nil)
		}
		if _, err := g[i].SetBytes(data[off : off+bn254.SizeOfG2AffineCompressed]); err != nil {
			return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed G2 generator", err)
		}
		off += bn254.SizeOfG2AffineCompressed
	}
	if off+4 > len(data) {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: truncated operator length", nil)
	}
	opLen := int(binary.BigEndian.Uint32(data[off : off+4]))
	off += 4
	if off+opLen > len(data) {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: truncated operator bytes", nil)
	}
	op, err := raa.UnmarshalOperator(data[off : off+opLen])
	if err != nil {
		return nil, err
	}
	return emsm.NewPublicParams(g, op, groupops.G2(), commitG2)
}

// LoadServerAided is SaveServerAided's inverse.
func LoadServerAided(dir string) (*ServerAidedProvingKey, error) {
	pk := &groth16bn254.ProvingKey{}
	if err := readReaderFrom(filepath.Join(dir, "pk.bin"), pk); err != nil {
		return nil, err
	}
	vk := &groth16bn254.VerifyingKey{}
	if err := readReaderFrom(filepath.Join(dir, "vk.bin"), vk); err != nil {
		return nil, err
	}

	ppH, err := loadPPG1(filepath.Join(dir, "pp_h.bin"))
	if err != nil {
		return nil, err
	}
	ppL, err := loadPPG1(filepath.Join(dir, "pp_l.bin"))
	if err != nil {
		return nil, err
	}
	ppA, err := loadPPG1(filepath.Join(dir, "pp_a.bin"))
	if err != nil {
		return nil, err
	}
	ppB1, err := loadPPG1(filepath.Join(dir, "pp_b1.bin"))
	if err != nil {
		return nil, err
	}
	ppB2, err := loadPPG2(filepath.Join(dir, "pp_b2.bin"))
	if err != nil {
		return nil, err
	}

	return &ServerAidedProvingKey{
		VK: vk, PK: pk,
		PPH: ppH, PPL: ppL, PPA: ppA, PPB1: ppB1, PPB2: ppB2,
		AlphaG1: pk.G1.Alpha,
		BetaG1:  pk.G1.Beta,
		DeltaG1: pk.G1.Delta,
		BetaG2:  pk.G2.Beta,
		DeltaG2: pk.G2.Delta,
	}, nil
}

func readReaderFrom(path string, v interface{ ReadFrom(r io.Reader) (int64, error) }) error {
	f, err := os.Open(path)
	if err != nil {
		return emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, fmt.Sprintf("groth16adapter: open %s", path), err)
	}
	defer f.Close()
	if _, err := v.ReadFrom(f); err != nil {
		return emsmerr.Wrap(emsmerr.ErrMalformedInput, fmt.Sprintf("groth16adapter: read %s", path), err)
	}
	return nil
}
