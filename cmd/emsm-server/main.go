// Command emsm-server runs the untrusted EMSM helper: it accepts a
// SetupRequest per session (the five length-N bases lifted from the
// Groth16 generator vectors) and
// answers ProveRequest calls against that session with the matching
// MultiExp results (spec §6). It never sees a scalar witness, an RAA
// operator, or a Groth16 proving/verifying key — only masked vectors
// and public bases, exactly what the server side of the protocol needs.
//
// HTTP shape (mux, JSON error envelopes, ReadHeaderTimeout) is grounded
// on mpc_signer/main.go; the request/response bodies themselves are the
// custom binary wire.SetupRequest/ProveRequest/ProveResponse envelopes,
// not JSON, since those already carry their own canonical encode/decode
// with MAX_VEC_LEN enforcement.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"emsm/session"
	"emsm/wire"
)

const maxBodyBytes = 1 << 30

func writeErr(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func setupHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed")
			return
		}
		body, err := readBody(r)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "read failed: "+err.Error())
			return
		}
		req, err := wire.DecodeSetupRequest(body)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "malformed setup request: "+err.Error())
			return
		}
		store.Put(req)
		w.Header().Set("content-type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(req.SessionID[:])
	}
}

func proveHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed")
			return
		}
		body, err := readBody(r)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "read failed: "+err.Error())
			return
		}
		req, err := wire.DecodeProveRequest(body)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "malformed prove request: "+err.Error())
			return
		}
		params, err := store.Get(req.SessionID.String())
		if err != nil {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		resp, err := params.Compute(req)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set("content-type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp.Encode())
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("emsm-server", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var addr string
	fs.StringVar(&addr, "listen", "127.0.0.1:8844", "address to listen on")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	store := session.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/setup", setupHandler(store))
	mux.HandleFunc("/prove", proveHandler(store))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "sessions": store.Len()})
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintln(stderr, "error: listen:", err)
		return 1
	}
	fmt.Fprintln(stdout, "emsm-server listening on", addr)
	log.Fatal(srv.Serve(l))
	return 0
}
