// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package key

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMnemonic(t *testing.T) {
	m, err := GenerateMnemonic()
	require.NoError(t, err)
	assert.True(t, ValidateMnemonic(m))
	assert.Len(t, strings.Fields(m), 12)

	other, err := GenerateMnemonic()
	require.NoError(t, err)
	assert.NotEqual(t, m, other)
}

func TestMiniSecret(t *testing.T) {
	a, err := MiniSecret(testMnemonic, "")
	require.NoError(t, err)
	assert.Len(t, a, SeedSize)

	spaced, err := MiniSecret("  abandon abandon abandon abandon abandon abandon\tabandon abandon abandon abandon abandon about ", "")
	require.NoError(t, err)
	assert.Equal(t, a, spaced)

	withPassword, err := MiniSecret(testMnemonic, "hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, a, withPassword)

	_, err = MiniSecret("abandon abandon abandon", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestKeyPairFromSeed(t *testing.T) {
	// RFC 8032 test 1
	kp, err := NewKeyPairFromHex("rfc", "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
	require.NoError(t, err)
	assert.Equal(t, "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a", hex.EncodeToString(kp.Public[:]))

	sig, err := kp.Sign(nil)
	require.NoError(t, err)
	assert.Equal(t,
		"e5564300c360ac729086e2cc806e828a84877f1eb8e5d974d873e06522490155"+
			"5fb8821590a33bacc61e39701cf9b46bd25bf5f0595bbe24655141438e7a100b",
		hex.EncodeToString(sig))
	assert.True(t, Verify(kp.Public, nil, sig))
	assert.False(t, Verify(kp.Public, []byte{1}, sig))

	addr := kp.Address(ss58.GenericPrefix)
	id, _, err := ss58.Decode(addr)
	require.NoError(t, err)
	assert.Equal(t, kp.Public, id)

	_, err = NewKeyPairFromSeed("short", []byte{1, 2, 3})
	assert.Error(t, err)
	_, err = NewKeyPairFromHex("bad", "zz")
	assert.Error(t, err)
}

func TestKeyPairZero(t *testing.T) {
	kp, err := NewKeyPairFromMnemonic("z", testMnemonic)
	require.NoError(t, err)
	kp.Zero()
	assert.Empty(t, kp.Mnemonic)
	_, err = kp.Sign([]byte("x"))
	assert.ErrorIs(t, err, ErrKeyLocked)
}

func TestEnvBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable without variables", func(t *testing.T) {
		t.Setenv(EnvMnemonic, "")
		t.Setenv(EnvPrivateKey, "")
		b := NewEnvBackend()
		assert.False(t, b.Available())
		keys, err := b.ListKeys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("mnemonic", func(t *testing.T) {
		t.Setenv(EnvMnemonic, testMnemonic)
		t.Setenv(EnvPrivateKey, "")
		b := NewEnvBackend()
		require.True(t, b.Available())

		want, err := NewKeyPairFromMnemonic("w", testMnemonic)
		require.NoError(t, err)

		keys, err := b.ListKeys(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, EnvKeyName, keys[0].Name)
		assert.Equal(t, want.Public, keys[0].PublicKey)

		resp, err := b.Sign(ctx, EnvKeyName, []byte("msg"))
		require.NoError(t, err)
		assert.True(t, Verify(want.Public, []byte("msg"), resp.Signature))

		loaded, err := b.LoadKey(ctx, EnvKeyName, "")
		require.NoError(t, err)
		loaded.Zero()
		// the cached key survives callers zeroing their copy
		_, err = b.Sign(ctx, EnvKeyName, []byte("msg"))
		require.NoError(t, err)

		_, err = b.LoadKey(ctx, "other", "")
		assert.ErrorIs(t, err, ErrKeyNotFound)
		assert.ErrorIs(t, b.DeleteKey(ctx, EnvKeyName), ErrReadOnlyBackend)
		_, err = b.CreateKey(ctx, "x", CreateKeyOptions{})
		assert.ErrorIs(t, err, ErrReadOnlyBackend)
		assert.False(t, b.IsLocked(EnvKeyName))
		require.NoError(t, b.Close())
	})

	t.Run("seed wins over mnemonic", func(t *testing.T) {
		t.Setenv(EnvMnemonic, testMnemonic)
		t.Setenv(EnvPrivateKey, "0x9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
		b := NewEnvBackend()
		keys, err := b.ListKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a", hex.EncodeToString(keys[0].PublicKey[:]))
	})

	t.Run("invalid mnemonic", func(t *testing.T) {
		t.Setenv(EnvMnemonic, "one two three")
		t.Setenv(EnvPrivateKey, "")
		_, err := NewEnvBackend().Sign(ctx, EnvKeyName, nil)
		assert.ErrorIs(t, err, ErrInvalidMnemonic)
	})
}
