package groth16adapter

import (
	"encoding/hex"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"emsm/emsmerr"
)

// VerifyJSON checks the standard Groth16 pairing equation directly
// against the hex-encoded vk.json/proof.json/public.json triple, without
// going through gnark's frontend witness machinery.
//
// A prior scratch attempt at this found gnark's witness.Witness
// construction impractical without the original circuit schema ("Note:
// Direct witness construction requires circuit schema") and fell back to
// a hand-rolled pairing check. This function is that fallback cleaned up
// into a real verifier: it checks
//
//	e(A, B) = e(alpha, beta) . e(vk_x, gamma) . e(C, delta)
//
// as a single multi-pairing product, where vk_x = IC[0] + Σ input_i.IC[i+1].
func VerifyJSON(vkj VKJSON, pj ProofJSON, pub PublicJSON) (bool, error) {
	if len(pub.Inputs) != vkj.NPublic {
		return false, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "groth16adapter: public input count does not match vk", nil)
	}
	if len(vkj.VkIC) != vkj.NPublic+1 {
		return false, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "groth16adapter: vk IC length does not match nPublic", nil)
	}

	decodePoint := func(hexStr string, out interface{ SetBytes([]byte) (int, error) }) error {
		raw, err := hex.DecodeString(hexStr)
		if err != nil {
			return emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed hex point", err)
		}
		if _, err := out.SetBytes(raw); err != nil {
			return emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: off-curve point", err)
		}
		return nil
	}

	var A, C, alpha bn254.G1Affine
	var B, beta, gamma, delta bn254.G2Affine
	for _, step := range []struct {
		s string
		p interface{ SetBytes([]byte) (int, error) }
	}{
		{pj.PiA, &A}, {pj.PiC, &C}, {vkj.VkAlpha, &alpha},
		{pj.PiB, &B}, {vkj.VkBeta, &beta}, {vkj.VkGamma, &gamma}, {vkj.VkDelta, &delta},
	} {
		if err := decodePoint(step.s, step.p); err != nil {
			return false, err
		}
	}

	ic := make([]bn254.G1Affine, len(vkj.VkIC))
	for i, h := range vkj.VkIC {
		if err := decodePoint(h, &ic[i]); err != nil {
			return false, err
		}
	}

	vkx := ic[0]
	for i, s := range pub.Inputs {
		var e fr.Element
		if _, err := e.SetString(s); err != nil {
			return false, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: malformed public input decimal string", err)
		}
		var scalar big.Int
		e.BigInt(&scalar)
		var term bn254.G1Affine
		term.ScalarMultiplication(&ic[i+1], &scalar)
		vkx.Add(&vkx, &term)
	}

	var negA bn254.G1Affine
	negA.Neg(&A)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{negA, alpha, vkx, C},
		[]bn254.G2Affine{B, beta, gamma, delta},
	)
	if err != nil {
		return false, emsmerr.Wrap(emsmerr.ErrMalformedInput, "groth16adapter: pairing check failed", err)
	}
	return ok, nil
}
