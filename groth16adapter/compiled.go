package groth16adapter

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"emsm/emsmerr"
)

// CompiledCircuit is a constraint system and witness produced outside
// gnark's own frontend — e.g. by an external arithmetic-circuit compiler
// that emits an R1CS plus a witness vector keyed by wire index rather than
// Go struct field. CompiledReduction normalizes this into the same
// ConstraintSystem/ReducedWitness shape NativeReduction produces, so the
// rest of the adapter never branches on which reduction it is holding
// (spec §9 "Two QAP reductions").
type CompiledCircuit struct {
	CS *ConstraintSystem
	// WitnessOf maps an Assignment to a full witness vector in wire order
	// (index 0 is always the constant-one wire). The external compiler's
	// own witness calculator is responsible for filling in intermediate
	// wires; this package only re-derives H from the result.
	WitnessOf func(Assignment) ([]fr.Element, error)
	// ProvingKey and VerifyingKey come from whatever trusted setup the
	// external toolchain already ran, or from groth16.Setup over CS if the
	// caller wants gnark's own setup against a foreign constraint system.
	PK groth16.ProvingKey
	VK groth16.VerifyingKey
}

// CompiledReduction implements QAPReduction over a CompiledCircuit.
type CompiledReduction struct {
	circuit *CompiledCircuit
}

// NewCompiledReduction wraps an externally-produced constraint system and
// witness calculator.
func NewCompiledReduction(circuit *CompiledCircuit) *CompiledReduction {
	return &CompiledReduction{circuit: circuit}
}

func (c *CompiledReduction) ConstraintSystem() *ConstraintSystem { return c.circuit.CS }

// CompileAndSetup returns the already-established keys for this circuit;
// unlike NativeReduction, CompiledReduction never calls gnark's compiler —
// the assumption is the external toolchain (or a prior call to
// groth16.Setup against the supplied CS) already produced them.
func (c *CompiledReduction) CompileAndSetup() (groth16.ProvingKey, groth16.VerifyingKey, error) {
	if c.circuit.PK == nil || c.circuit.VK == nil {
		return nil, nil, emsmerr.Wrap(emsmerr.ErrProvingKeyMismatch, "groth16adapter: compiled circuit has no setup keys", nil)
	}
	if _, ok := c.circuit.PK.(*groth16bn254.ProvingKey); !ok {
		return nil, nil, emsmerr.Wrap(emsmerr.ErrProvingKeyMismatch, "groth16adapter: compiled proving key is not BN254", nil)
	}
	return c.circuit.PK, c.circuit.VK, nil
}

// Reduce evaluates the witness calculator and derives H via the shared
// computeH helper (spec §4.8, §9).
func (c *CompiledReduction) Reduce(assignment Assignment) (*ReducedWitness, error) {
	full, err := c.circuit.WitnessOf(assignment)
	if err != nil {
		return nil, emsmerr.Wrap(emsmerr.ErrWitnessGenerationFailed, "groth16adapter: external witness calculator failed", err)
	}
	if len(full) != c.circuit.CS.NbWires {
		return nil, emsmerr.Wrap(emsmerr.ErrLengthMismatch, "groth16adapter: witness length does not match constraint system", nil)
	}
	h, err := computeH(c.circuit.CS, full)
	if err != nil {
		return nil, err
	}
	return &ReducedWitness{
		FullWitness:    full,
		PrivateWitness: full[c.circuit.CS.NbPublic:],
		HPoly:          h,
		PublicInputs:   full[1:c.circuit.CS.NbPublic],
	}, nil
}
