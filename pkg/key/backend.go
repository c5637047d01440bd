// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package key stores ed25519 account keys behind pluggable backends:
// - Software encrypted storage (AES-256-GCM + Argon2id)
// - Environment variables for CI and containers
package key

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/pkg/errors"
)

// BackendType identifies the key storage backend
type BackendType string

const (
	// BackendSoftware is the default encrypted file storage
	BackendSoftware BackendType = "software"

	// BackendEnv loads a key from environment variables
	BackendEnv BackendType = "env"
)

var (
	ErrBackendNotFound     = errors.New("key backend not found")
	ErrBackendNotSupported = errors.New("key backend not available")
	ErrKeyLocked           = errors.New("key is locked, set DOTCLI_KEY_PASSWORD or unlock it first")
	ErrKeyNotFound         = errors.New("key not found")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrKeyExists           = errors.New("key already exists")
	ErrNoPassword          = errors.New("password required")
	ErrInvalidMnemonic     = errors.New("invalid mnemonic phrase")
	ErrInvalidKeyName      = errors.New("invalid key name")
	ErrReadOnlyBackend     = errors.New("key backend is read-only")
)

// KeyInfo is the public view of a stored key
type KeyInfo struct {
	Name      string
	Address   string
	PublicKey ss58.AccountID
	Backend   BackendType
	Encrypted bool
	Locked    bool
	CreatedAt time.Time
}

// SignResponse contains the signature result
type SignResponse struct {
	Signature []byte
	PublicKey ss58.AccountID
}

// KeyBackend defines the interface for all key storage backends
type KeyBackend interface {
	Type() BackendType

	// Name returns a human-readable name
	Name() string

	// Available checks if this backend can be used in the current environment
	Available() bool

	RequiresPassword() bool

	// Initialize prepares the backend's storage
	Initialize(ctx context.Context, config BackendConfig) error

	// Close zeroes cached key material
	Close() error

	// CreateKey creates a key from opts.Mnemonic, or a fresh mnemonic
	CreateKey(ctx context.Context, name string, opts CreateKeyOptions) (*KeyPair, error)

	// LoadKey decrypts a key; an empty password falls back to an open
	// session or DOTCLI_KEY_PASSWORD
	LoadKey(ctx context.Context, name, password string) (*KeyPair, error)

	DeleteKey(ctx context.Context, name string) error

	// ListKeys returns every stored key without unlocking any
	ListKeys(ctx context.Context) ([]KeyInfo, error)

	Lock(ctx context.Context, name string) error
	Unlock(ctx context.Context, name, password string) error
	IsLocked(name string) bool

	// Sign signs payload with an unlocked key
	Sign(ctx context.Context, name string, payload []byte) (*SignResponse, error)
}

// CreateKeyOptions contains options for key creation
type CreateKeyOptions struct {
	// Mnemonic is an optional existing mnemonic phrase
	Mnemonic string

	// Password encrypts the keystore
	Password string
}

// BackendConfig holds configuration for backend initialization
type BackendConfig struct {
	// DataDir is the base directory for key storage
	DataDir string
}

var (
	backendMu sync.RWMutex
	backends  = make(map[BackendType]KeyBackend)
)

// RegisterBackend registers a key backend, replacing any of the same type
func RegisterBackend(b KeyBackend) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[b.Type()] = b
}

// GetBackend returns an available backend by type
func GetBackend(t BackendType) (KeyBackend, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()

	b, ok := backends[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, t)
	}
	if !b.Available() {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotSupported, t)
	}
	return b, nil
}

// ListAvailableBackends returns the available backends sorted by type
func ListAvailableBackends() []KeyBackend {
	backendMu.RLock()
	defer backendMu.RUnlock()

	var available []KeyBackend
	for _, b := range backends {
		if b.Available() {
			available = append(available, b)
		}
	}
	sort.Slice(available, func(i, j int) bool {
		return available[i].Type() < available[j].Type()
	})
	return available
}

// InitializeBackends initializes every available backend. The first
// failure is returned after all backends have been tried.
func InitializeBackends(ctx context.Context, config BackendConfig) error {
	var firstErr error
	for _, b := range ListAvailableBackends() {
		if err := b.Initialize(ctx, config); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "initializing %s backend", b.Type())
		}
	}
	return firstErr
}

// CloseBackends zeroes the key material cached by every backend
func CloseBackends() {
	backendMu.RLock()
	defer backendMu.RUnlock()
	for _, b := range backends {
		_ = b.Close()
	}
}

// GetPasswordFromEnv returns the password from DOTCLI_KEY_PASSWORD
func GetPasswordFromEnv() string {
	return os.Getenv(EnvKeyPassword)
}

func validateKeyName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKeyName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKeyName, name)
		}
	}
	return nil
}
