// Command emsm-client drives the prover side of the server-aided
// protocol (spec §4.8, §10 scenario S1): "prove" loads a setup directory
// written by emsm-setup, runs Encrypt against a circuit-specific
// assignment, round-trips the masked vectors through an emsm-server
// instance's /prove endpoint over plain HTTP, and Decrypts the reply
// into a standard Groth16 proof it writes as proof.json/vk.json/
// public.json. "verify" re-checks that triple with the unmodified
// pairing equation (groth16adapter.VerifyJSON), one real verifier in
// place of a pair of ad hoc scratch tools.
package main

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/google/uuid"

	"emsm/circuits"
	"emsm/groth16adapter"
	"emsm/wire"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "usage: emsm-client <prove|verify> [flags]")
		return 2
	}

	switch args[0] {
	case "prove":
		return runProve(args[1:], stdout, stderr)
	case "verify":
		return runVerify(args[1:], stdout, stderr)
	default:
		fmt.Fprintln(stderr, "error: unknown subcommand", args[0])
		return 2
	}
}

func runProve(args []string, stdout, stderr io.Writer) int {
	proveCmd := flag.NewFlagSet("prove", flag.ContinueOnError)
	proveCmd.SetOutput(stderr)

	var keyDir, server, outDir, circuitName string
	var x int64
	proveCmd.StringVar(&keyDir, "keys", "out", "directory written by emsm-setup (pk.bin/vk.bin/pp_*.bin)")
	proveCmd.StringVar(&server, "server", "http://127.0.0.1:8844", "emsm-server base URL")
	proveCmd.StringVar(&outDir, "out", "proof-out", "output directory for proof.json/vk.json/public.json")
	proveCmd.StringVar(&circuitName, "circuit", "cube", "circuit the keys were set up for")
	proveCmd.Int64Var(&x, "x", 3, "secret input x for the cube circuit (y = x^3 + x + 5)")
	if err := proveCmd.Parse(args); err != nil {
		return 2
	}
	if circuitName != "cube" {
		fmt.Fprintln(stderr, "error: only -circuit=cube is wired through this CLI")
		return 2
	}

	pk, err := groth16adapter.LoadServerAided(keyDir)
	if err != nil {
		fmt.Fprintln(stderr, "error: load keys:", err)
		return 1
	}

	assignment, err := circuits.CubeWitnessFor(x)
	if err != nil {
		fmt.Fprintln(stderr, "error: build assignment:", err)
		return 1
	}
	nr, err := groth16adapter.NewNativeReduction(&circuits.CubeCircuit{}, circuits.CubeAssignment)
	if err != nil {
		fmt.Fprintln(stderr, "error: rebuild reduction:", err)
		return 1
	}

	state, vecs, err := pk.Encrypt(nr, assignment, rand.Reader)
	if err != nil {
		fmt.Fprintln(stderr, "error: encrypt:", err)
		return 1
	}

	sessionID := uuid.New()
	if err := postSetup(server, pk.SetupRequest(sessionID)); err != nil {
		fmt.Fprintln(stderr, "error: setup call:", err)
		return 1
	}

	resp, err := postProve(server, vecs.ToWire(sessionID))
	if err != nil {
		fmt.Fprintln(stderr, "error: prove call:", err)
		return 1
	}

	proof, err := pk.Decrypt(state, groth16adapter.ProveResponseFromWire(resp))
	if err != nil {
		fmt.Fprintln(stderr, "error: decrypt:", err)
		return 1
	}

	yBig, ok := assignment["y"]
	if !ok {
		fmt.Fprintln(stderr, "error: assignment missing public input y")
		return 1
	}
	var y fr.Element
	y.SetBigInt(yBig)
	if err := groth16adapter.ExportProve(pk.VK, proof, []fr.Element{y}, outDir); err != nil {
		fmt.Fprintln(stderr, "error: export:", err)
		return 1
	}

	fmt.Fprintln(stdout, "proof written to", outDir)
	return 0
}

func runVerify(args []string, stdout, stderr io.Writer) int {
	verifyCmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	verifyCmd.SetOutput(stderr)

	var dir string
	verifyCmd.StringVar(&dir, "dir", "proof-out", "directory containing proof.json/vk.json/public.json")
	if err := verifyCmd.Parse(args); err != nil {
		return 2
	}

	vkj, pj, pubj, err := loadTriple(dir)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	ok, err := groth16adapter.VerifyJSON(vkj, pj, pubj)
	if err != nil {
		fmt.Fprintln(stderr, "error: verify:", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(stdout, "FAIL: proof does not verify")
		return 1
	}
	fmt.Fprintln(stdout, "SUCCESS: proof verified")
	return 0
}

func postSetup(base string, req *wire.SetupRequest) error {
	body, err := req.Encode()
	if err != nil {
		return err
	}
	return postBinary(base+"/setup", body, nil)
}

func postProve(base string, req *wire.ProveRequest) (*wire.ProveResponse, error) {
	body, err := req.Encode()
	if err != nil {
		return nil, err
	}
	var respBody []byte
	if err := postBinary(base+"/prove", body, &respBody); err != nil {
		return nil, err
	}
	return wire.DecodeProveResponse(respBody)
}

func postBinary(url string, body []byte, out *[]byte) error {
	resp, err := http.Post(url, "application/octet-stream", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		*out = respBody
	}
	return nil
}

func loadTriple(dir string) (groth16adapter.VKJSON, groth16adapter.ProofJSON, groth16adapter.PublicJSON, error) {
	var vkj groth16adapter.VKJSON
	var pj groth16adapter.ProofJSON
	var pubj groth16adapter.PublicJSON

	readJSONFile := func(name string, v any) error {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		return json.Unmarshal(data, v)
	}
	if err := readJSONFile("vk.json", &vkj); err != nil {
		return vkj, pj, pubj, err
	}
	if err := readJSONFile("proof.json", &pj); err != nil {
		return vkj, pj, pubj, err
	}
	if err := readJSONFile("public.json", &pubj); err != nil {
		return vkj, pj, pubj, err
	}
	return vkj, pj, pubj, nil
}
