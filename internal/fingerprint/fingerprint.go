// Package fingerprint derives the payload hash and idempotency key that
// identify a request by what it asks for, independent of its request_id
// or timestamp. Two requests with the same target, the same inputs in the
// same order, and the same params always derive the same fingerprint.
package fingerprint

import (
	"fmt"

	"github.com/esrp/kernel/internal/canon"
	"github.com/esrp/kernel/internal/protocol"
)

// DerivePayloadHash computes sha256(canonicalize({target, inputs, params}))
// per the protocol's payload hash formula. Variant is included as an
// explicit null when absent rather than omitted, so presence/absence of a
// variant always affects the hash the same way a changed variant would.
func DerivePayloadHash(target protocol.Target, inputs []protocol.Input, params protocol.Value) (string, error) {
	payload := buildPayloadObject(target, inputs, params)
	hash, err := canon.Hash(payload)
	if err != nil {
		return "", fmt.Errorf("fingerprint: derive payload hash: %w", err)
	}
	return hash, nil
}

// DeriveIdempotencyKey is an alias for DerivePayloadHash: the protocol
// defines the idempotency key as identical to the payload hash.
func DeriveIdempotencyKey(target protocol.Target, inputs []protocol.Input, params protocol.Value) (string, error) {
	return DerivePayloadHash(target, inputs, params)
}

// ComputeRequestPayloadHash extracts target/inputs/params from r and
// derives its payload hash.
func ComputeRequestPayloadHash(r *protocol.Request) (string, error) {
	return DerivePayloadHash(r.Target, r.Inputs, r.Params)
}

// VerifyRequestPayloadHash reports whether r's own PayloadHash field (if
// set) matches the freshly computed fingerprint of its target, inputs,
// and params. A request that carries no payload_hash verifies trivially.
func VerifyRequestPayloadHash(r *protocol.Request) (bool, error) {
	if r.PayloadHash == nil {
		return true, nil
	}
	computed, err := ComputeRequestPayloadHash(r)
	if err != nil {
		return false, err
	}
	return *r.PayloadHash == computed, nil
}

func buildPayloadObject(target protocol.Target, inputs []protocol.Input, params protocol.Value) protocol.Object {
	variant := protocol.Value(protocol.Null{})
	if target.Variant != nil {
		variant = protocol.String(*target.Variant)
	}

	targetObj := protocol.Object{
		"service":   protocol.String(target.Service),
		"operation": protocol.String(target.Operation),
		"variant":   variant,
	}

	inputsArr := make(protocol.Array, len(inputs))
	for i, in := range inputs {
		metadata := in.Metadata
		if metadata == nil {
			metadata = protocol.Null{}
		}
		inputsArr[i] = protocol.Object{
			"name":         protocol.String(in.Name),
			"content_type": protocol.String(in.ContentType),
			"data":         protocol.String(in.Data),
			"encoding":     protocol.String(string(in.Encoding)),
			"metadata":     metadata,
		}
	}

	p := params
	if p == nil {
		p = protocol.Null{}
	}

	return protocol.Object{
		"target": targetObj,
		"inputs": inputsArr,
		"params": p,
	}
}
