// Package session holds the server-side session map driving the /setup
// and /prove endpoints (spec §6): each setup call binds a session id to
// the five length-N lifted generator bases the server will run its heavy
// MSMs against, and every later prove call for that session runs against
// the same bases. The server itself never holds an RAA operator, a
// proving key, or any other prover-side secret — ServerParams is exactly
// the public generator material the server needs to do its half of the
// protocol (spec §4.9 "server computation").
//
// Grounded on mpc_signer/main.go's sync.Mutex-guarded shared state behind
// an http.ServeMux: that server also keeps long-lived cryptographic state
// (an MPC key share) behind a mutex and exposes it to concurrent HTTP
// handlers. This package generalizes the same shape — a concurrent map
// instead of a single mutable key share, since a server here may run many
// independent setups at once.
package session

import (
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark/logger"
	"github.com/google/uuid"

	"emsm/emsmerr"
	"emsm/pedersenmsm"
	"emsm/wire"
)

// ServerParams is the server's half of a setup: the five length-N lifted
// bases (each seeded so its RAA-transpose equals the real Groth16
// generator vector it stands in for) a prove call's masked codewords get
// multiplied against. Unlike groth16adapter.ServerAidedProvingKey (the
// prover's view, which also carries the RAA operator and the Groth16
// keys), the server never needs anything beyond these bases — its whole
// job is five MultiExp calls.
type ServerParams struct {
	GH  []bn254.G1Affine
	GL  []bn254.G1Affine
	GA  []bn254.G1Affine
	GB1 []bn254.G1Affine
	GB2 []bn254.G2Affine
}

// Compute runs the server's five MultiExp calls against req's masked
// vectors, failing (via pedersenmsm) if any vector's length disagrees
// with this session's bases.
func (p *ServerParams) Compute(req *wire.ProveRequest) (*wire.ProveResponse, error) {
	emH, err := pedersenmsm.CommitG1(req.MaskedH, p.GH)
	if err != nil {
		return nil, err
	}
	emL, err := pedersenmsm.CommitG1(req.MaskedL, p.GL)
	if err != nil {
		return nil, err
	}
	emA, err := pedersenmsm.CommitG1(req.MaskedA, p.GA)
	if err != nil {
		return nil, err
	}
	emB1, err := pedersenmsm.CommitG1(req.MaskedB1, p.GB1)
	if err != nil {
		return nil, err
	}
	emB2, err := pedersenmsm.CommitG2(req.MaskedB2, p.GB2)
	if err != nil {
		return nil, err
	}
	return &wire.ProveResponse{EmH: emH, EmL: emL, EmA: emA, EmB1: emB1, EmB2: emB2}, nil
}

// Store is the concurrent session map. Reads (Get, Len) never block each
// other; only Put and Delete take the exclusive path, and only for the
// duration of the map insert or delete itself.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*ServerParams
}

// New returns an empty Store.
func New() *Store {
	return &Store{sessions: make(map[string]*ServerParams)}
}

// Put registers a freshly submitted SetupRequest's generator vectors
// under its session id, overwriting any prior session of the same id.
func (s *Store) Put(req *wire.SetupRequest) {
	p := &ServerParams{GH: req.GH, GL: req.GL, GA: req.GA, GB1: req.GB1, GB2: req.GB2}
	id := req.SessionID.String()
	s.mu.Lock()
	s.sessions[id] = p
	s.mu.Unlock()
	logger.Logger().Info().Str("session", id).Msg("session: setup registered")
}

// Get retrieves the ServerParams for a session id, failing with
// ErrUnknownSession if no setup call ever registered it (spec §7).
func (s *Store) Get(id string) (*ServerParams, error) {
	s.mu.RLock()
	p, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, emsmerr.Wrap(emsmerr.ErrUnknownSession, "session: unknown session id "+id, nil)
	}
	return p, nil
}

// Delete removes a session, e.g. once a server wants to release the
// memory backing a completed setup.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	logger.Logger().Info().Str("session", id).Msg("session: session released")
}

// Len reports the number of live sessions, mostly useful for tests and
// status endpoints.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// NewSessionID mints a fresh session id for a client about to issue a
// SetupRequest.
func NewSessionID() uuid.UUID {
	return uuid.New()
}
