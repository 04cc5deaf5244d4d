package groth16adapter

import (
	"github.com/google/uuid"

	"emsm/wire"
)

// SetupRequest builds the wire.SetupRequest a client sends to bind a
// session id to the five bases the server will actually MSM against
// (spec §6 POST /setup). Those bases are each EmsmPublicParams' length-N
// lifted basis G, not the real (length-n) Groth16 generator vector h —
// the server's MSM runs at the masked codeword's length, pp.T.N(), which
// is G's length; only the client ever needs h (see
// emsm.PublicParams.ServerComputation, duallpn.Unmask).
func (pk *ServerAidedProvingKey) SetupRequest(sessionID uuid.UUID) *wire.SetupRequest {
	return &wire.SetupRequest{
		SessionID: sessionID,
		GH:        pk.PPH.G,
		GL:        pk.PPL.G,
		GA:        pk.PPA.G,
		GB1:       pk.PPB1.G,
		GB2:       pk.PPB2.G,
	}
}

// ToWire converts a ProveRequestVectors to the wire.ProveRequest a client
// POSTs to /prove.
func (v *ProveRequestVectors) ToWire(sessionID uuid.UUID) *wire.ProveRequest {
	return &wire.ProveRequest{
		SessionID: sessionID,
		MaskedH:   v.MaskedH,
		MaskedL:   v.MaskedL,
		MaskedA:   v.MaskedA,
		MaskedB1:  v.MaskedB1,
		MaskedB2:  v.MaskedB2,
	}
}

// ProveResponseFromWire converts a decoded wire.ProveResponse into the
// ProveResponseGroupElems shape Decrypt consumes.
func ProveResponseFromWire(resp *wire.ProveResponse) *ProveResponseGroupElems {
	return &ProveResponseGroupElems{
		EmH:  resp.EmH,
		EmL:  resp.EmL,
		EmA:  resp.EmA,
		EmB1: resp.EmB1,
		EmB2: resp.EmB2,
	}
}
