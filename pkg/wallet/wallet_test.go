// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const aliceAddr = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"

type fakeProvider struct {
	name      string
	available bool
	enable    func(ctx context.Context, appName string) (Injected, error)
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) Available() bool { return p.available }
func (p *fakeProvider) Enable(ctx context.Context, appName string) (Injected, error) {
	return p.enable(ctx, appName)
}

type fakeInjected struct {
	accounts []Account
	err      error
}

func (f *fakeInjected) Accounts(context.Context) ([]Account, error) { return f.accounts, f.err }
func (f *fakeInjected) Signer() Signer                             { return nil }

func granted(accounts ...Account) func(context.Context, string) (Injected, error) {
	return func(context.Context, string) (Injected, error) {
		return &fakeInjected{accounts: accounts}, nil
	}
}

func TestRegistry(t *testing.T) {
	assert := require.New(t)
	a := &fakeProvider{name: "a", available: false}
	b := &fakeProvider{name: "b", available: true}
	r := NewRegistry(a, b)

	_, err := r.Get("a")
	assert.ErrorIs(err, ErrProviderUnavailable)
	_, err = r.Get("missing")
	assert.ErrorIs(err, ErrProviderUnavailable)

	got, err := r.Get("b")
	assert.NoError(err)
	assert.Equal(b, got)

	a.available = true
	r.Register(&fakeProvider{name: "c", available: true})
	names := []string{}
	for _, p := range r.Available() {
		names = append(names, p.Name())
	}
	assert.Equal([]string{"a", "b", "c"}, names)
}

func TestConnect(t *testing.T) {
	ctx := context.Background()
	alice := Account{Address: aliceAddr, Name: "alice"}

	t.Run("no provider", func(t *testing.T) {
		_, err := NewConnector(NewRegistry(), "", nil).Connect(ctx, "dotcli")
		require.ErrorIs(t, err, ErrProviderUnavailable)

		off := &fakeProvider{name: "off", enable: granted(alice)}
		_, err = NewConnector(NewRegistry(off), "", nil).Connect(ctx, "dotcli")
		require.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("preferred provider missing", func(t *testing.T) {
		on := &fakeProvider{name: "on", available: true, enable: granted(alice)}
		_, err := NewConnector(NewRegistry(on), "other", nil).Connect(ctx, "dotcli")
		require.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("authorization denied", func(t *testing.T) {
		p := &fakeProvider{name: "p", available: true, enable: func(context.Context, string) (Injected, error) {
			return nil, ErrAuthorizationDenied
		}}
		_, err := NewConnector(NewRegistry(p), "", nil).Connect(ctx, "dotcli")
		require.ErrorIs(t, err, ErrAuthorizationDenied)
	})

	t.Run("no accounts", func(t *testing.T) {
		p := &fakeProvider{name: "empty", available: true, enable: granted()}
		_, err := NewConnector(NewRegistry(p), "", nil).Connect(ctx, "dotcli")
		require.ErrorIs(t, err, ErrNoAccounts)
		require.False(t, errors.Is(err, ErrProviderUnavailable))
	})

	t.Run("account listing fails", func(t *testing.T) {
		boom := errors.New("boom")
		p := &fakeProvider{name: "p", available: true, enable: func(context.Context, string) (Injected, error) {
			return &fakeInjected{err: boom}, nil
		}}
		_, err := NewConnector(NewRegistry(p), "", nil).Connect(ctx, "dotcli")
		require.ErrorIs(t, err, boom)
	})

	t.Run("deadline while waiting for the user", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		p := &fakeProvider{name: "slow", available: true, enable: func(context.Context, string) (Injected, error) {
			<-release
			return &fakeInjected{accounts: []Account{alice}}, nil
		}}
		dctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := NewConnector(NewRegistry(p), "", nil).Connect(dctx, "dotcli")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("success uses first available", func(t *testing.T) {
		var gotApp string
		first := &fakeProvider{name: "first", available: true, enable: func(_ context.Context, app string) (Injected, error) {
			gotApp = app
			return &fakeInjected{accounts: []Account{alice}}, nil
		}}
		second := &fakeProvider{name: "second", available: true, enable: granted()}
		conn, err := NewConnector(NewRegistry(first, second), "", nil).Connect(ctx, "dotcli")
		require.NoError(t, err)
		require.Equal(t, "dotcli", gotApp)
		require.Equal(t, "first", conn.Provider)
		require.Equal(t, []Account{alice}, conn.Accounts)
	})
}
