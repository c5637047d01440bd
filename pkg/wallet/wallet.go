// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wallet connects the application to a wallet provider, obtains
// the user's authorization, and exposes accounts and a payload signer.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/dotcli/pkg/substrate"
	luxlog "github.com/luxfi/log"
)

var (
	ErrProviderUnavailable = errors.New("no wallet provider available")
	ErrAuthorizationDenied = errors.New("wallet authorization denied")
	ErrNoAccounts          = errors.New("wallet exposes no accounts")
	ErrUnknownAccount      = errors.New("account is not managed by this wallet")
)

// Account is an address exposed by a provider, with its user-given name.
type Account struct {
	Address string
	Name    string
}

// Signature is a scheme-tagged signature over a signing payload.
type Signature = substrate.Signature

// Signer signs extrinsic payloads for accounts of one authorized provider.
type Signer interface {
	SignPayload(ctx context.Context, address string, payload []byte) (Signature, error)
}

// Injected is what a provider hands out once the application is authorized.
type Injected interface {
	Accounts(ctx context.Context) ([]Account, error)
	Signer() Signer
}

// Provider is a source of accounts and signatures.
type Provider interface {
	Name() string
	Available() bool
	// Enable asks for authorization of appName. It may block on the user
	// and must return once ctx is done.
	Enable(ctx context.Context, appName string) (Injected, error)
}

// Registry holds providers in registration order.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any provider of the same name in place.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.Name()]; !ok {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

// Get returns the named provider if it is registered and available.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrProviderUnavailable, name)
	}
	if !p.Available() {
		return nil, fmt.Errorf("%w: %q", ErrProviderUnavailable, name)
	}
	return p, nil
}

// Available lists the available providers in registration order.
func (r *Registry) Available() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Provider
	for _, name := range r.order {
		if p := r.providers[name]; p.Available() {
			out = append(out, p)
		}
	}
	return out
}

// Connection is the result of a successful Connect. Accounts is never empty.
type Connection struct {
	Provider string
	Accounts []Account
	Signer   Signer
}

// Connector runs the connect flow against a registry.
type Connector struct {
	registry  *Registry
	preferred string
	log       luxlog.Logger
}

// NewConnector uses the preferred provider, or the first available one
// when preferred is empty.
func NewConnector(registry *Registry, preferred string, log luxlog.Logger) *Connector {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &Connector{registry: registry, preferred: preferred, log: log}
}

type enableResult struct {
	injected Injected
	err      error
}

// Connect selects a provider, requests authorization for appName and
// returns its accounts and signer. The authorization step waits on the
// user with no timeout of its own; ctx bounds it, and Connect returns as
// soon as ctx is done even if the provider is still unwinding.
func (c *Connector) Connect(ctx context.Context, appName string) (*Connection, error) {
	provider, err := c.pick()
	if err != nil {
		return nil, err
	}
	c.log.Debug("enabling wallet provider", "provider", provider.Name(), "app", appName)

	done := make(chan enableResult, 1)
	go func() {
		injected, err := provider.Enable(ctx, appName)
		done <- enableResult{injected: injected, err: err}
	}()

	var res enableResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, res.err
	}

	accounts, err := res.injected.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s accounts: %w", provider.Name(), err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAccounts, provider.Name())
	}
	c.log.Info("wallet connected", "provider", provider.Name(), "accounts", len(accounts))
	return &Connection{
		Provider: provider.Name(),
		Accounts: accounts,
		Signer:   res.injected.Signer(),
	}, nil
}

func (c *Connector) pick() (Provider, error) {
	if c.preferred != "" {
		return c.registry.Get(c.preferred)
	}
	available := c.registry.Available()
	if len(available) == 0 {
		return nil, ErrProviderUnavailable
	}
	return available[0], nil
}
