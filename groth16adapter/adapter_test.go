package groth16adapter_test

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/stretchr/testify/require"

	"emsm/circuits"
	"emsm/groth16adapter"
)

// TestServerAidedProveAndVerify drives the full server-aided pipeline in
// process (spec §10 scenario S2): setup, encrypt, the server's half of the
// protocol, decrypt into a Groth16 proof, and a pairing-check verify
// against the exported JSON triple — without ever touching the network.
func TestServerAidedProveAndVerify(t *testing.T) {
	nr, err := groth16adapter.NewNativeReduction(&circuits.CubeCircuit{}, circuits.CubeAssignment)
	require.NoError(t, err)

	pk, err := groth16adapter.SetupServerAided(nr)
	require.NoError(t, err)

	assignment, err := circuits.CubeWitnessFor(3)
	require.NoError(t, err)

	state, vecs, err := pk.Encrypt(nr, assignment, rand.Reader)
	require.NoError(t, err)

	resp, err := pk.ServerComputation(vecs)
	require.NoError(t, err)

	proof, err := pk.Decrypt(state, resp)
	require.NoError(t, err)

	var y fr.Element
	y.SetBigInt(assignment["y"])

	dir := t.TempDir()
	require.NoError(t, groth16adapter.ExportProve(pk.VK, proof, []fr.Element{y}, dir))

	vkj, pj, pubj := loadExported(t, dir)
	ok, err := groth16adapter.VerifyJSON(vkj, pj, pubj)
	require.NoError(t, err)
	require.True(t, ok, "exported proof must verify against the exported vk/public inputs")
}

// TestServerAidedProveVerifiesUnderStandardGroth16Verifier drives the same
// pipeline as TestServerAidedProveAndVerify, but checks the assembled
// proof against gnark's own, entirely unmodified groth16.Verify rather
// than the package's hand-rolled pairing check — the property spec §4.8
// actually mandates ("the resulting proof must verify under the
// unmodified Groth16 verifier").
func TestServerAidedProveVerifiesUnderStandardGroth16Verifier(t *testing.T) {
	nr, err := groth16adapter.NewNativeReduction(&circuits.CubeCircuit{}, circuits.CubeAssignment)
	require.NoError(t, err)

	pk, err := groth16adapter.SetupServerAided(nr)
	require.NoError(t, err)

	assignment, err := circuits.CubeWitnessFor(3)
	require.NoError(t, err)

	state, vecs, err := pk.Encrypt(nr, assignment, rand.Reader)
	require.NoError(t, err)

	resp, err := pk.ServerComputation(vecs)
	require.NoError(t, err)

	proof, err := pk.Decrypt(state, resp)
	require.NoError(t, err)

	assignedCircuit, err := circuits.CubeAssignment(assignment)
	require.NoError(t, err)
	fullWitness, err := frontend.NewWitness(assignedCircuit, ecc.BN254.ScalarField())
	require.NoError(t, err)
	publicWitness, err := fullWitness.Public()
	require.NoError(t, err)

	require.NoError(t, groth16.Verify(proof.ToGroth16Proof(), pk.VK, publicWitness))
}

// TestServerAidedProveRejectsWrongPublicInput checks that VerifyJSON is
// sensitive to the public input, not just well-formed JSON.
func TestServerAidedProveRejectsWrongPublicInput(t *testing.T) {
	nr, err := groth16adapter.NewNativeReduction(&circuits.CubeCircuit{}, circuits.CubeAssignment)
	require.NoError(t, err)
	pk, err := groth16adapter.SetupServerAided(nr)
	require.NoError(t, err)

	assignment, err := circuits.CubeWitnessFor(3)
	require.NoError(t, err)
	state, vecs, err := pk.Encrypt(nr, assignment, rand.Reader)
	require.NoError(t, err)
	resp, err := pk.ServerComputation(vecs)
	require.NoError(t, err)
	proof, err := pk.Decrypt(state, resp)
	require.NoError(t, err)

	var y fr.Element
	y.SetBigInt(assignment["y"])

	dir := t.TempDir()
	require.NoError(t, groth16adapter.ExportProve(pk.VK, proof, []fr.Element{y}, dir))

	vkj, pj, pubj := loadExported(t, dir)
	var wrongY fr.Element
	wrongY.SetInt64(999999)
	pubj.Inputs[0] = wrongY.String()

	ok, err := groth16adapter.VerifyJSON(vkj, pj, pubj)
	require.NoError(t, err)
	require.False(t, ok, "verify must fail against a tampered public input")
}

func loadExported(t *testing.T, dir string) (groth16adapter.VKJSON, groth16adapter.ProofJSON, groth16adapter.PublicJSON) {
	t.Helper()
	var vkj groth16adapter.VKJSON
	var pj groth16adapter.ProofJSON
	var pubj groth16adapter.PublicJSON
	readJSON(t, dir+"/vk.json", &vkj)
	readJSON(t, dir+"/proof.json", &pj)
	readJSON(t, dir+"/public.json", &pubj)
	return vkj, pj, pubj
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}
