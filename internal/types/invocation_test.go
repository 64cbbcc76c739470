package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lattice/internal/codec"
	"lattice/internal/crypto"
	"lattice/internal/types"
)

func newSigner(t *testing.T) *crypto.ECDSASigner {
	t.Helper()
	signer, err := crypto.GenerateECDSAKey()
	require.NoError(t, err)
	return signer
}

func TestNewInvocationSelfValidates(t *testing.T) {
	signer := newSigner(t)

	inv, err := types.NewInvocation(signer, "svc.echo", "echo", []byte{0x01, 0x02, 0x03})
	require.NoError(t, err)

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, signer.Address(), inv.Origin)
	assert.Equal(t, "svc.echo", inv.Target)
	require.NoError(t, inv.ValidateAntiforgery())
}

func TestNewInvocationRequiresTarget(t *testing.T) {
	signer := newSigner(t)

	_, err := types.NewInvocation(signer, "", "echo", nil)
	require.Error(t, err)
}

func TestValidateAntiforgeryRejectsTampering(t *testing.T) {
	signer := newSigner(t)

	t.Run("tampered payload", func(t *testing.T) {
		inv, err := types.NewInvocation(signer, "svc.echo", "echo", []byte("original"))
		require.NoError(t, err)

		inv.Payload = []byte("tampered")
		assert.Error(t, inv.ValidateAntiforgery())
	})

	t.Run("tampered operation", func(t *testing.T) {
		inv, err := types.NewInvocation(signer, "svc.echo", "echo", []byte("payload"))
		require.NoError(t, err)

		inv.Operation = "delete-everything"
		assert.Error(t, inv.ValidateAntiforgery())
	})

	t.Run("forged origin", func(t *testing.T) {
		inv, err := types.NewInvocation(signer, "svc.echo", "echo", []byte("payload"))
		require.NoError(t, err)

		inv.Origin = "0x0000000000000000000000000000000000000000"
		err = inv.ValidateAntiforgery()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match signing key")
	})

	t.Run("stripped signature", func(t *testing.T) {
		inv, err := types.NewInvocation(signer, "svc.echo", "echo", []byte("payload"))
		require.NoError(t, err)

		inv.Signature = nil
		assert.Error(t, inv.ValidateAntiforgery())
	})

	t.Run("swapped signing key", func(t *testing.T) {
		inv, err := types.NewInvocation(signer, "svc.echo", "echo", []byte("payload"))
		require.NoError(t, err)

		inv.SignerPublicKey = newSigner(t).PublicKey()
		assert.Error(t, inv.ValidateAntiforgery())
	})
}

func TestInvocationSurvivesWire(t *testing.T) {
	signer := newSigner(t)

	inv, err := types.NewInvocation(signer, "svc.echo", "echo", []byte{0xDE, 0xAD})
	require.NoError(t, err)

	data, err := codec.Serialize(inv)
	require.NoError(t, err)

	decoded, err := codec.DecodeInvocation(data)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, decoded.ID)
	assert.Equal(t, inv.Payload, decoded.Payload)
	require.NoError(t, decoded.ValidateAntiforgery())
}

func TestResponseConstructors(t *testing.T) {
	signer := newSigner(t)
	inv, err := types.NewInvocation(signer, "svc.echo", "echo", []byte("payload"))
	require.NoError(t, err)

	ok := types.SuccessResponse(inv, []byte("result"))
	assert.Equal(t, inv.ID, ok.InvocationID)
	assert.Equal(t, []byte("result"), ok.Payload)
	assert.False(t, ok.IsError())

	bad := types.ErrorResponse(inv, "it broke")
	assert.Equal(t, inv.ID, bad.InvocationID)
	assert.True(t, bad.IsError())
	assert.Equal(t, "it broke", bad.Error)
}
