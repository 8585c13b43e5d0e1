// Package codec encodes and decodes the auxiliary payload carried through the
// gate and the fixed-shape attested-facts record inside it. Both use ABI
// encoding so the shapes match the proof circuit's declared output layout.
package codec

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/mselser95/swapgate/pkg/types"
)

var (
	payloadArgs abi.Arguments
	factsArgs   abi.Arguments
)

func init() {
	bytesTy, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	uint64Ty, err := abi.NewType("uint64", "", nil)
	if err != nil {
		panic(err)
	}

	payloadArgs = abi.Arguments{
		{Name: "proof", Type: bytesTy},
		{Name: "publicInputs", Type: bytesTy},
	}
	factsArgs = abi.Arguments{
		{Name: "volatilityBps", Type: uint64Ty},
		{Name: "observedAt", Type: uint64Ty},
	}
}

// attestedFactsEncodedLen is the exact byte length of an ABI-encoded
// (uint64, uint64) tuple. Any other length is a shape mismatch.
const attestedFactsEncodedLen = 64

// EncodeAuxPayload packs a proof blob and its public-input blob into the
// opaque auxiliary payload format.
func EncodeAuxPayload(proof, publicInputs []byte) ([]byte, error) {
	packed, err := payloadArgs.Pack(proof, publicInputs)
	if err != nil {
		return nil, fmt.Errorf("pack aux payload: %w", err)
	}
	return packed, nil
}

// DecodeAuxPayload unpacks the auxiliary payload into its proof and
// public-input blobs. Any failure, a trailing-byte mismatch, or an empty blob
// yields a MalformedPayloadError.
func DecodeAuxPayload(payload []byte) (proof, publicInputs []byte, err error) {
	vals, err := payloadArgs.Unpack(payload)
	if err != nil {
		return nil, nil, &types.MalformedPayloadError{Stage: "aux_payload", Err: err}
	}

	proof, ok := vals[0].([]byte)
	if !ok {
		return nil, nil, &types.MalformedPayloadError{Stage: "aux_payload", Err: fmt.Errorf("proof is not bytes")}
	}
	publicInputs, ok = vals[1].([]byte)
	if !ok {
		return nil, nil, &types.MalformedPayloadError{Stage: "aux_payload", Err: fmt.Errorf("public inputs are not bytes")}
	}

	if len(proof) == 0 || len(publicInputs) == 0 {
		return nil, nil, &types.MalformedPayloadError{Stage: "aux_payload", Err: fmt.Errorf("empty blob")}
	}

	// The payload must be exactly the canonical encoding of its contents.
	canonical, err := payloadArgs.Pack(proof, publicInputs)
	if err != nil || len(canonical) != len(payload) {
		return nil, nil, &types.MalformedPayloadError{Stage: "aux_payload", Err: fmt.Errorf("non-canonical encoding")}
	}

	return proof, publicInputs, nil
}

// EncodeAttestedFacts packs the attested-facts record into its circuit
// output layout.
func EncodeAttestedFacts(facts types.AttestedFacts) ([]byte, error) {
	packed, err := factsArgs.Pack(facts.VolatilityBps, facts.ObservedAt)
	if err != nil {
		return nil, fmt.Errorf("pack attested facts: %w", err)
	}
	return packed, nil
}

// DecodeAttestedFacts unpacks the public-input blob into the attested-facts
// record. The shape must match the circuit's declared layout exactly; any
// other shape is a MalformedPayloadError, never coerced.
func DecodeAttestedFacts(publicInputs []byte) (types.AttestedFacts, error) {
	if len(publicInputs) != attestedFactsEncodedLen {
		return types.AttestedFacts{}, &types.MalformedPayloadError{
			Stage: "attested_facts",
			Err:   fmt.Errorf("want %d bytes, got %d", attestedFactsEncodedLen, len(publicInputs)),
		}
	}

	vals, err := factsArgs.Unpack(publicInputs)
	if err != nil {
		return types.AttestedFacts{}, &types.MalformedPayloadError{Stage: "attested_facts", Err: err}
	}

	vol, ok := vals[0].(uint64)
	if !ok {
		return types.AttestedFacts{}, &types.MalformedPayloadError{Stage: "attested_facts", Err: fmt.Errorf("volatility is not uint64")}
	}
	at, ok := vals[1].(uint64)
	if !ok {
		return types.AttestedFacts{}, &types.MalformedPayloadError{Stage: "attested_facts", Err: fmt.Errorf("timestamp is not uint64")}
	}

	return types.AttestedFacts{VolatilityBps: vol, ObservedAt: at}, nil
}
