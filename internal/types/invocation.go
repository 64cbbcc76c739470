package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lattice/internal/crypto"
)

// Invocation describes a remote call addressed to a subject on the lattice.
// It is immutable after construction; the signature binds the origin, the
// target, the operation and the payload so that any peer can establish
// authenticity at the receiver, independent of the transport.
type Invocation struct {
	ID              string `json:"id"`
	Origin          string `json:"origin"`
	Target          string `json:"target"`
	Operation       string `json:"operation"`
	Payload         []byte `json:"payload"`
	SignerPublicKey []byte `json:"signer_public_key"`
	Signature       []byte `json:"signature"`
	IssuedAt        int64  `json:"issued_at"`
}

// NewInvocation constructs a self-signed invocation. The origin is derived
// from the signer's key, never supplied by the caller.
func NewInvocation(signer crypto.Signer, target, operation string, payload []byte) (*Invocation, error) {
	if target == "" {
		return nil, errors.New("invocation target cannot be empty")
	}
	inv := &Invocation{
		ID:              uuid.NewString(),
		Origin:          signer.Address(),
		Target:          target,
		Operation:       operation,
		Payload:         payload,
		SignerPublicKey: signer.PublicKey(),
		IssuedAt:        time.Now().Unix(),
	}
	hash := crypto.HashMessage(inv.canonicalForm())
	sig, err := signer.Sign(hash[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign invocation: %w", err)
	}
	inv.Signature = sig
	return inv, nil
}

// canonicalForm is the deterministic byte form covered by the signature.
func (inv *Invocation) canonicalForm() []byte {
	payloadHash := crypto.HashMessage(inv.Payload)
	canonical := struct {
		ID          string `json:"id"`
		Origin      string `json:"origin"`
		Target      string `json:"target"`
		Operation   string `json:"operation"`
		PayloadHash string `json:"payload_hash"`
		IssuedAt    int64  `json:"issued_at"`
	}{
		ID:          inv.ID,
		Origin:      inv.Origin,
		Target:      inv.Target,
		Operation:   inv.Operation,
		PayloadHash: hex.EncodeToString(payloadHash[:]),
		IssuedAt:    inv.IssuedAt,
	}

	data, _ := json.Marshal(canonical)
	return data
}

// ValidateAntiforgery checks that the invocation was produced by the key it
// claims as origin and has not been altered in flight.
func (inv *Invocation) ValidateAntiforgery() error {
	if len(inv.Signature) == 0 {
		return errors.New("invocation carries no signature")
	}
	if len(inv.SignerPublicKey) == 0 {
		return errors.New("invocation carries no signing key")
	}
	addr, err := crypto.AddressFromPublicKey(inv.SignerPublicKey)
	if err != nil {
		return fmt.Errorf("invalid signing key: %w", err)
	}
	if addr != inv.Origin {
		return fmt.Errorf("origin %s does not match signing key address %s", inv.Origin, addr)
	}
	hash := crypto.HashMessage(inv.canonicalForm())
	verifier := &crypto.ECDSAVerifier{}
	if !verifier.Verify(inv.SignerPublicKey, hash[:], inv.Signature) {
		return errors.New("signature does not cover invocation contents")
	}
	return nil
}

// InvocationResponse is the paired reply to an invocation: either a success
// payload or an error message bound to the originating invocation's identity.
type InvocationResponse struct {
	InvocationID string `json:"invocation_id"`
	Payload      []byte `json:"payload,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SuccessResponse pairs a success payload with the invocation it answers.
func SuccessResponse(inv *Invocation, payload []byte) InvocationResponse {
	return InvocationResponse{InvocationID: inv.ID, Payload: payload}
}

// ErrorResponse pairs an error message with the invocation it answers.
func ErrorResponse(inv *Invocation, msg string) InvocationResponse {
	return InvocationResponse{InvocationID: inv.ID, Error: msg}
}

func (r InvocationResponse) IsError() bool { return r.Error != "" }

// InvokerPair holds one worker's channel endpoints as seen by the bus:
// outbound invocations to the worker, inbound responses from it. Copies are
// cheap and share the underlying channels.
type InvokerPair struct {
	Invocations chan<- Invocation
	Responses   <-chan InvocationResponse
}
