// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package key

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test mnemonic for reproducible tests
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestSoftwareBackend(t *testing.T) *SoftwareBackend {
	t.Helper()
	t.Setenv(EnvKeyPassword, "")
	b := NewSoftwareBackend(t.TempDir())
	require.NoError(t, b.Initialize(context.Background(), BackendConfig{}))
	return b
}

func TestSoftwareBackend_Properties(t *testing.T) {
	b := NewSoftwareBackend("")
	assert.Equal(t, BackendSoftware, b.Type())
	assert.Equal(t, "Encrypted File Storage", b.Name())
	assert.True(t, b.Available())
	assert.True(t, b.RequiresPassword())
}

func TestSoftwareBackend_Initialize(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "keys")
	b := NewSoftwareBackend("")
	require.NoError(t, b.Initialize(context.Background(), BackendConfig{DataDir: dataDir}))

	info, err := os.Stat(dataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	assert.Equal(t, dataDir, b.DataDir())
}

func TestSoftwareBackend_CreateKey(t *testing.T) {
	t.Run("creates keystore and public info", func(t *testing.T) {
		b := newTestSoftwareBackend(t)
		kp, err := b.CreateKey(context.Background(), "alice", CreateKeyOptions{Password: "testpassword"})
		require.NoError(t, err)
		assert.True(t, ValidateMnemonic(kp.Mnemonic))

		_, err = os.Stat(filepath.Join(b.DataDir(), "alice", constants.KeystoreFileName))
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(b.DataDir(), "alice", constants.KeyInfoFileName))
		require.NoError(t, err)
		var pub publicInfo
		require.NoError(t, json.Unmarshal(data, &pub))
		assert.Equal(t, kp.Address(ss58.GenericPrefix), pub.Address)
		assert.NotContains(t, string(data), kp.Mnemonic)
	})

	t.Run("imports a mnemonic deterministically", func(t *testing.T) {
		b := newTestSoftwareBackend(t)
		kp, err := b.CreateKey(context.Background(), "imported", CreateKeyOptions{
			Mnemonic: testMnemonic,
			Password: "testpassword",
		})
		require.NoError(t, err)
		want, err := NewKeyPairFromMnemonic("x", testMnemonic)
		require.NoError(t, err)
		assert.Equal(t, want.Public, kp.Public)
	})

	t.Run("rejects duplicates, bad mnemonics and missing passwords", func(t *testing.T) {
		b := newTestSoftwareBackend(t)
		ctx := context.Background()
		_, err := b.CreateKey(ctx, "dup", CreateKeyOptions{Password: "p"})
		require.NoError(t, err)

		_, err = b.CreateKey(ctx, "dup", CreateKeyOptions{Password: "p"})
		assert.ErrorIs(t, err, ErrKeyExists)

		_, err = b.CreateKey(ctx, "bad", CreateKeyOptions{Mnemonic: "not a phrase", Password: "p"})
		assert.ErrorIs(t, err, ErrInvalidMnemonic)

		_, err = b.CreateKey(ctx, "nopass", CreateKeyOptions{})
		assert.ErrorIs(t, err, ErrNoPassword)

		_, err = b.CreateKey(ctx, "../escape", CreateKeyOptions{Password: "p"})
		assert.ErrorIs(t, err, ErrInvalidKeyName)
	})
}

func TestSoftwareBackend_ImportSeed(t *testing.T) {
	b := newTestSoftwareBackend(t)
	seed := "0x9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	kp, err := b.ImportSeed(context.Background(), "seeded", seed, "pw")
	require.NoError(t, err)
	assert.Empty(t, kp.Mnemonic)

	loaded, err := b.LoadKey(context.Background(), "seeded", "pw")
	require.NoError(t, err)
	assert.Equal(t, kp.Public, loaded.Public)
	assert.Equal(t, kp.Seed(), loaded.Seed())
}

func TestSoftwareBackend_LoadKey(t *testing.T) {
	b := newTestSoftwareBackend(t)
	ctx := context.Background()
	original, err := b.CreateKey(ctx, "loadme", CreateKeyOptions{Mnemonic: testMnemonic, Password: "testpassword"})
	require.NoError(t, err)

	t.Run("missing key", func(t *testing.T) {
		_, err := b.LoadKey(ctx, "nope", "testpassword")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("locked without password", func(t *testing.T) {
		_, err := b.LoadKey(ctx, "loadme", "")
		assert.ErrorIs(t, err, ErrKeyLocked)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := b.LoadKey(ctx, "loadme", "wrongpassword")
		assert.ErrorIs(t, err, ErrInvalidPassword)
		assert.True(t, b.IsLocked("loadme"))
	})

	t.Run("password opens a session", func(t *testing.T) {
		loaded, err := b.LoadKey(ctx, "loadme", "testpassword")
		require.NoError(t, err)
		assert.Equal(t, original.Public, loaded.Public)
		assert.Equal(t, testMnemonic, loaded.Mnemonic)
		assert.False(t, b.IsLocked("loadme"))

		again, err := b.LoadKey(ctx, "loadme", "")
		require.NoError(t, err)
		assert.Equal(t, original.Public, again.Public)
	})

	t.Run("password from environment", func(t *testing.T) {
		require.NoError(t, b.Lock(ctx, "loadme"))
		t.Setenv(EnvKeyPassword, "testpassword")
		_, err := b.LoadKey(ctx, "loadme", "")
		require.NoError(t, err)
	})
}

func TestSoftwareBackend_DeleteKey(t *testing.T) {
	b := newTestSoftwareBackend(t)
	ctx := context.Background()
	_, err := b.CreateKey(ctx, "gone", CreateKeyOptions{Password: "p"})
	require.NoError(t, err)
	require.NoError(t, b.Unlock(ctx, "gone", "p"))

	require.NoError(t, b.DeleteKey(ctx, "gone"))
	assert.True(t, b.IsLocked("gone"))
	_, err = os.Stat(filepath.Join(b.DataDir(), "gone"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, b.DeleteKey(ctx, "gone"), ErrKeyNotFound)
}

func TestSoftwareBackend_ListKeys(t *testing.T) {
	b := newTestSoftwareBackend(t)
	ctx := context.Background()

	keys, err := b.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	bob, err := b.CreateKey(ctx, "bob", CreateKeyOptions{Password: "p"})
	require.NoError(t, err)
	_, err = b.CreateKey(ctx, "alice", CreateKeyOptions{Password: "p"})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(b.DataDir(), "stray"), 0o700))

	keys, err = b.ListKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "alice", keys[0].Name)
	assert.Equal(t, "bob", keys[1].Name)
	assert.Equal(t, bob.Public, keys[1].PublicKey)
	assert.Equal(t, bob.Address(ss58.GenericPrefix), keys[1].Address)
	assert.True(t, keys[1].Encrypted)
	assert.True(t, keys[1].Locked)
	assert.False(t, keys[1].CreatedAt.IsZero())
}

func TestSoftwareBackend_Sign(t *testing.T) {
	b := newTestSoftwareBackend(t)
	ctx := context.Background()
	kp, err := b.CreateKey(ctx, "signer", CreateKeyOptions{Mnemonic: testMnemonic, Password: "testpassword"})
	require.NoError(t, err)
	payload := []byte("payload to sign")

	_, err = b.Sign(ctx, "signer", payload)
	require.ErrorIs(t, err, ErrKeyLocked)

	require.NoError(t, b.Unlock(ctx, "signer", "testpassword"))
	resp, err := b.Sign(ctx, "signer", payload)
	require.NoError(t, err)
	assert.Equal(t, kp.Public, resp.PublicKey)
	assert.Len(t, resp.Signature, 64)
	assert.True(t, Verify(kp.Public, payload, resp.Signature))

	assert.ErrorIs(t, b.Unlock(ctx, "signer", ""), ErrNoPassword)
}

func TestSoftwareBackend_SessionExpiry(t *testing.T) {
	b := newTestSoftwareBackend(t)
	ctx := context.Background()
	_, err := b.CreateKey(ctx, "expiry", CreateKeyOptions{Password: "p"})
	require.NoError(t, err)
	require.NoError(t, b.Unlock(ctx, "expiry", "p"))

	b.sessionMu.Lock()
	initial := b.sessions["expiry"].expiresAt
	b.sessionMu.Unlock()
	time.Sleep(5 * time.Millisecond)
	require.NotNil(t, b.getSession("expiry"))
	b.sessionMu.Lock()
	assert.True(t, b.sessions["expiry"].expiresAt.After(initial))
	b.sessions["expiry"].expiresAt = time.Now().Add(-time.Hour)
	b.sessionMu.Unlock()

	assert.True(t, b.IsLocked("expiry"))
}

func TestSoftwareBackend_Close(t *testing.T) {
	b := newTestSoftwareBackend(t)
	ctx := context.Background()
	_, err := b.CreateKey(ctx, "closing", CreateKeyOptions{Password: "p"})
	require.NoError(t, err)
	require.NoError(t, b.Unlock(ctx, "closing", "p"))

	b.sessionMu.Lock()
	keyRef := b.sessions["closing"].key
	b.sessionMu.Unlock()

	require.NoError(t, b.Close())
	assert.Equal(t, make([]byte, len(keyRef)), keyRef)
	assert.True(t, b.IsLocked("closing"))
}

func TestSoftwareBackend_ConcurrentAccess(t *testing.T) {
	b := newTestSoftwareBackend(t)
	ctx := context.Background()
	_, err := b.CreateKey(ctx, "race", CreateKeyOptions{Password: "p"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = b.Lock(ctx, "race")
		}()
		go func() {
			defer wg.Done()
			_ = b.Unlock(ctx, "race", "p")
		}()
	}
	wg.Wait()
}

func TestEncryptDecrypt(t *testing.T) {
	key := make([]byte, 32)
	plaintext := []byte("secret data to encrypt")

	nonce, ciphertext, err := encryptAESGCM(key, plaintext)
	require.NoError(t, err)
	decrypted, err := decryptAESGCM(key, nonce, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)

	nonce2, ciphertext2, err := encryptAESGCM(key, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, nonce, nonce2)
	assert.NotEqual(t, ciphertext, ciphertext2)

	ciphertext[0] ^= 0xff
	_, err = decryptAESGCM(key, nonce, ciphertext)
	assert.Error(t, err)
}
