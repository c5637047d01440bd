// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package key

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)

// SoftwareBackend stores each key as an Argon2id/AES-GCM encrypted file
// under <dataDir>/<name>/keystore.enc with public details in info.json.
type SoftwareBackend struct {
	mu      sync.RWMutex
	dataDir string

	sessionMu      sync.Mutex
	sessions       map[string]*keySession
	sessionTimeout time.Duration
}

// keySession caches the derived encryption key of an unlocked keystore
type keySession struct {
	key       []byte
	expiresAt time.Time
	mlocked   bool
}

// Argon2id parameters
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32

	keystoreVersion = 1

	// DefaultSessionTimeout is the inactivity timeout for unlocked keys,
	// overridable with DOTCLI_KEY_SESSION_TIMEOUT.
	DefaultSessionTimeout = 5 * time.Minute
)

// NewSoftwareBackend creates a backend rooted at dataDir, or at the
// default keys directory when dataDir is empty.
func NewSoftwareBackend(dataDir string) *SoftwareBackend {
	return &SoftwareBackend{
		dataDir:        dataDir,
		sessions:       make(map[string]*keySession),
		sessionTimeout: GetSessionTimeout(),
	}
}

// GetSessionTimeout returns the configured session timeout.
func GetSessionTimeout() time.Duration {
	if v := os.Getenv(EnvKeySessionTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return DefaultSessionTimeout
}

// SetSessionTimeout sets the sliding session timeout.
func (b *SoftwareBackend) SetSessionTimeout(d time.Duration) {
	b.sessionMu.Lock()
	defer b.sessionMu.Unlock()
	if d > 0 {
		b.sessionTimeout = d
	}
}

func (*SoftwareBackend) Type() BackendType {
	return BackendSoftware
}

func (*SoftwareBackend) Name() string {
	return "Encrypted File Storage"
}

func (*SoftwareBackend) Available() bool {
	return true
}

func (*SoftwareBackend) RequiresPassword() bool {
	return true
}

// DataDir is where keystores are read and written.
func (b *SoftwareBackend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dataDir
}

func (b *SoftwareBackend) Initialize(_ context.Context, config BackendConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if config.DataDir != "" {
		b.dataDir = config.DataDir
	}
	if b.dataDir == "" {
		keysDir, err := GetKeysDir()
		if err != nil {
			return err
		}
		b.dataDir = keysDir
	}
	return os.MkdirAll(b.dataDir, constants.UserOnlyPerms)
}

func (b *SoftwareBackend) Close() error {
	b.sessionMu.Lock()
	defer b.sessionMu.Unlock()
	for _, s := range b.sessions {
		clearSession(s)
	}
	b.sessions = make(map[string]*keySession)
	return nil
}

func (b *SoftwareBackend) CreateKey(ctx context.Context, name string, opts CreateKeyOptions) (*KeyPair, error) {
	if err := validateKeyName(name); err != nil {
		return nil, err
	}
	if opts.Password == "" {
		return nil, ErrNoPassword
	}
	if _, err := os.Stat(b.keyDir(name)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyExists, name)
	}

	mnemonic := opts.Mnemonic
	if mnemonic == "" {
		var err error
		if mnemonic, err = GenerateMnemonic(); err != nil {
			return nil, err
		}
	}
	kp, err := NewKeyPairFromMnemonic(name, mnemonic)
	if err != nil {
		return nil, err
	}
	if err := b.saveKey(kp, opts.Password); err != nil {
		return nil, err
	}
	return kp, nil
}

// ImportSeed stores a key given as a raw hex seed.
func (b *SoftwareBackend) ImportSeed(_ context.Context, name, seedHex, password string) (*KeyPair, error) {
	if err := validateKeyName(name); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrNoPassword
	}
	if _, err := os.Stat(b.keyDir(name)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyExists, name)
	}
	kp, err := NewKeyPairFromHex(name, seedHex)
	if err != nil {
		return nil, err
	}
	if err := b.saveKey(kp, password); err != nil {
		return nil, err
	}
	return kp, nil
}

func (b *SoftwareBackend) LoadKey(_ context.Context, name, password string) (*KeyPair, error) {
	if err := validateKeyName(name); err != nil {
		return nil, err
	}
	store, err := b.readStore(name)
	if err != nil {
		return nil, err
	}

	if password == "" {
		if s := b.getSession(name); s != nil {
			plaintext, err := decryptAESGCM(s.key, store.Nonce, store.Data)
			if err != nil {
				return nil, ErrInvalidPassword
			}
			return parseKeyPairJSON(plaintext)
		}
		if password = GetPasswordFromEnv(); password == "" {
			return nil, ErrKeyLocked
		}
	}

	encKey := argon2.IDKey([]byte(password), store.Salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	plaintext, err := decryptAESGCM(encKey, store.Nonce, store.Data)
	if err != nil {
		zero(encKey)
		return nil, ErrInvalidPassword
	}
	b.setSession(name, encKey)
	return parseKeyPairJSON(plaintext)
}

func (b *SoftwareBackend) DeleteKey(_ context.Context, name string) error {
	if err := validateKeyName(name); err != nil {
		return err
	}
	dir := b.keyDir(name)
	if _, err := os.Stat(filepath.Join(dir, constants.KeystoreFileName)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return err
	}
	b.sessionMu.Lock()
	if s, ok := b.sessions[name]; ok {
		clearSession(s)
		delete(b.sessions, name)
	}
	b.sessionMu.Unlock()
	return os.RemoveAll(dir)
}

type publicInfo struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	CreatedAt string `json:"created_at"`
	Backend   string `json:"backend"`
}

func (b *SoftwareBackend) ListKeys(_ context.Context) ([]KeyInfo, error) {
	entries, err := os.ReadDir(b.DataDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []KeyInfo{}, nil
		}
		return nil, err
	}

	keys := make([]KeyInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		data, err := os.ReadFile(filepath.Join(b.keyDir(name), constants.KeyInfoFileName)) //nolint:gosec // G304: Reading from user's key directory
		if err != nil {
			continue
		}
		var pub publicInfo
		if err := json.Unmarshal(data, &pub); err != nil {
			continue
		}
		info := KeyInfo{
			Name:      name,
			Address:   pub.Address,
			Backend:   BackendSoftware,
			Encrypted: true,
			Locked:    b.IsLocked(name),
		}
		if raw, err := hex.DecodeString(pub.PublicKey); err == nil && len(raw) == ss58.AccountIDLen {
			copy(info.PublicKey[:], raw)
		}
		if t, err := time.Parse(time.RFC3339, pub.CreatedAt); err == nil {
			info.CreatedAt = t
		}
		keys = append(keys, info)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys, nil
}

func (b *SoftwareBackend) Lock(_ context.Context, name string) error {
	b.sessionMu.Lock()
	defer b.sessionMu.Unlock()
	if s, ok := b.sessions[name]; ok {
		clearSession(s)
		delete(b.sessions, name)
	}
	return nil
}

func (b *SoftwareBackend) Unlock(ctx context.Context, name, password string) error {
	if password == "" {
		return ErrNoPassword
	}
	kp, err := b.LoadKey(ctx, name, password)
	if err != nil {
		return err
	}
	kp.Zero()
	return nil
}

func (b *SoftwareBackend) IsLocked(name string) bool {
	return b.getSession(name) == nil
}

func (b *SoftwareBackend) Sign(ctx context.Context, name string, payload []byte) (*SignResponse, error) {
	kp, err := b.LoadKey(ctx, name, "")
	if err != nil {
		return nil, err
	}
	defer kp.Zero()
	sig, err := kp.Sign(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign")
	}
	return &SignResponse{Signature: sig, PublicKey: kp.Public}, nil
}

func (b *SoftwareBackend) keyDir(name string) string {
	return filepath.Join(b.DataDir(), name)
}

func (b *SoftwareBackend) readStore(name string) (*encryptedStore, error) {
	data, err := os.ReadFile(filepath.Join(b.keyDir(name), constants.KeystoreFileName)) //nolint:gosec // G304: Reading from user's key directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return nil, errors.Wrap(err, "failed to read keystore")
	}
	var store encryptedStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, errors.Wrap(err, "failed to parse keystore")
	}
	if store.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", store.Version)
	}
	return &store, nil
}

func (b *SoftwareBackend) saveKey(kp *KeyPair, password string) error {
	dir := b.keyDir(kp.Name)
	if err := os.MkdirAll(dir, constants.UserOnlyPerms); err != nil {
		return errors.Wrap(err, "failed to create key directory")
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return errors.Wrap(err, "failed to generate salt")
	}
	encKey := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	defer zero(encKey)

	plaintext, err := serializeKeyPair(kp)
	if err != nil {
		return errors.Wrap(err, "failed to serialize key")
	}
	defer zero(plaintext)

	nonce, ciphertext, err := encryptAESGCM(encKey, plaintext)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt")
	}
	storeData, err := json.Marshal(encryptedStore{
		Version:   keystoreVersion,
		Salt:      salt,
		Nonce:     nonce,
		Data:      ciphertext,
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal keystore")
	}
	if err := os.WriteFile(filepath.Join(dir, constants.KeystoreFileName), storeData, 0o600); err != nil {
		return errors.Wrap(err, "failed to write keystore")
	}

	pubData, err := json.MarshalIndent(publicInfo{
		Name:      kp.Name,
		Address:   kp.Address(ss58.GenericPrefix),
		PublicKey: hex.EncodeToString(kp.Public[:]),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Backend:   string(BackendSoftware),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, constants.KeyInfoFileName), pubData, constants.WriteReadReadPerms) //nolint:gosec // G306: Public info file needs to be readable
}

func (b *SoftwareBackend) getSession(name string) *keySession {
	b.sessionMu.Lock()
	defer b.sessionMu.Unlock()

	s, ok := b.sessions[name]
	if !ok {
		return nil
	}
	if time.Now().After(s.expiresAt) {
		clearSession(s)
		delete(b.sessions, name)
		return nil
	}
	s.expiresAt = time.Now().Add(b.sessionTimeout)
	return s
}

func (b *SoftwareBackend) setSession(name string, key []byte) {
	b.sessionMu.Lock()
	defer b.sessionMu.Unlock()

	if existing, ok := b.sessions[name]; ok {
		clearSession(existing)
	}
	b.sessions[name] = &keySession{
		key:       key,
		expiresAt: time.Now().Add(b.sessionTimeout),
		mlocked:   mlock(key) == nil,
	}
}

// clearSession zeroes the session key and releases its memory lock.
func clearSession(s *keySession) {
	if s == nil {
		return
	}
	if s.mlocked {
		_ = munlock(s.key)
	}
	zero(s.key)
}

type encryptedStore struct {
	Version   int    `json:"version"`
	Salt      []byte `json:"salt"`
	Nonce     []byte `json:"nonce"`
	Data      []byte `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

func encryptAESGCM(key, plaintext []byte) (nonce, ciphertext []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	return nonce, gcm.Seal(nil, nonce, plaintext, nil), nil
}

func decryptAESGCM(key, nonce, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

type storedKeyPair struct {
	Name     string `json:"name"`
	Mnemonic string `json:"mnemonic,omitempty"`
	Seed     string `json:"seed"`
}

func serializeKeyPair(kp *KeyPair) ([]byte, error) {
	seed := kp.Seed()
	defer zero(seed)
	return json.Marshal(storedKeyPair{
		Name:     kp.Name,
		Mnemonic: kp.Mnemonic,
		Seed:     hex.EncodeToString(seed),
	})
}

func parseKeyPairJSON(data []byte) (*KeyPair, error) {
	defer zero(data)
	var stored storedKeyPair
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, errors.Wrap(err, "failed to parse key")
	}
	kp, err := NewKeyPairFromHex(stored.Name, stored.Seed)
	if err != nil {
		return nil, err
	}
	kp.Mnemonic = stored.Mnemonic
	return kp, nil
}
