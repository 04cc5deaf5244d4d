package groth16adapter

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"emsm/emsmerr"
)

// ProofJSON, VKJSON and PublicJSON are the hex/decimal JSON shapes a
// client writes to disk after a server-aided prove, and reads back
// before a verify.
type ProofJSON struct {
	PiA string `json:"piA"`
	PiB string `json:"piB"`
	PiC string `json:"piC"`
}

type VKJSON struct {
	NPublic int      `json:"nPublic"`
	VkAlpha string   `json:"vkAlpha"`
	VkBeta  string   `json:"vkBeta"`
	VkGamma string   `json:"vkGamma"`
	VkDelta string   `json:"vkDelta"`
	VkIC    []string `json:"vkIC"`
}

type PublicJSON struct {
	Inputs []string `json:"inputs"`
}

// ToGroth16Proof converts the assembled server-aided Proof into gnark's
// concrete BN254 proof type, ready for the unmodified groth16.Verify
// (spec §4.8 "output is a standard Groth16 proof").
func (p *Proof) ToGroth16Proof() *groth16bn254.Proof {
	return &groth16bn254.Proof{Ar: p.PiA, Bs: p.PiB, Krs: p.PiC}
}

func exportProofJSON(p *Proof) ProofJSON {
	ar := p.PiA.Bytes()
	bs := p.PiB.Bytes()
	krs := p.PiC.Bytes()
	return ProofJSON{
		PiA: hex.EncodeToString(ar[:]),
		PiB: hex.EncodeToString(bs[:]),
		PiC: hex.EncodeToString(krs[:]),
	}
}

func (j *ProofJSON) toProof() (*Proof, error) {
	ar, err := hex.DecodeString(j.PiA)
	if err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed piA hex", err)
	}
	bs, err := hex.DecodeString(j.PiB)
	if err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed piB hex", err)
	}
	krs, err := hex.DecodeString(j.PiC)
	if err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed piC hex", err)
	}
	var out Proof
	if _, err := out.PiA.SetBytes(ar); err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed piA point", err)
	}
	if _, err := out.PiB.SetBytes(bs); err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed piB point", err)
	}
	if _, err := out.PiC.SetBytes(krs); err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed piC point", err)
	}
	return &out, nil
}

func exportVKJSON(vk groth16.VerifyingKey, nPublic int) (VKJSON, error) {
	v, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return VKJSON{}, emsmerr.Wrap(emsmerr.ErrProvingKeyMismatch, "groth16adapter: unexpected vk type", nil)
	}
	if nPublic < 0 || len(v.G1.K) < nPublic+1 {
		return VKJSON{}, emsmerr.Wrap(emsmerr.ErrProvingKeyMismatch, "groth16adapter: vk IC too short for nPublic", nil)
	}
	alpha := v.G1.Alpha.Bytes()
	beta := v.G2.Beta.Bytes()
	gamma := v.G2.Gamma.Bytes()
	delta := v.G2.Delta.Bytes()
	ic := make([]string, nPublic+1)
	for i := 0; i <= nPublic; i++ {
		b := v.G1.K[i].Bytes()
		ic[i] = hex.EncodeToString(b[:])
	}
	return VKJSON{
		NPublic: nPublic,
		VkAlpha: hex.EncodeToString(alpha[:]),
		VkBeta:  hex.EncodeToString(beta[:]),
		VkGamma: hex.EncodeToString(gamma[:]),
		VkDelta: hex.EncodeToString(delta[:]),
		VkIC:    ic,
	}, nil
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: create "+path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: encode "+path, err)
	}
	return nil
}

// ExportProve writes proof.json, vk.json and public.json to dir after a
// completed server-aided prove (spec §10 scenario S1's expected output).
func ExportProve(vk groth16.VerifyingKey, proof *Proof, publicInputs []fr.Element, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: mkdir "+dir, err)
	}
	pub := make([]string, len(publicInputs))
	for i := range publicInputs {
		var bi big.Int
		publicInputs[i].BigInt(&bi)
		pub[i] = bi.String()
	}
	vkj, err := exportVKJSON(vk, len(pub))
	if err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, "proof.json"), exportProofJSON(proof)); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, "vk.json"), vkj); err != nil {
		return err
	}
	return writeJSONFile(filepath.Join(dir, "public.json"), PublicJSON{Inputs: pub})
}

// LoadProof reads back a proof.json previously written by ExportProve.
func LoadProof(path string) (*Proof, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: read "+path, err)
	}
	var j ProofJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed proof.json", err)
	}
	return j.toProof()
}
