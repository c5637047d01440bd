// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/luxfi/dotcli/pkg/chain"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/substrate"
	"github.com/luxfi/dotcli/pkg/units"
	"github.com/luxfi/dotcli/pkg/wallet"
	luxlog "github.com/luxfi/log"
	"golang.org/x/sync/errgroup"
)

// WalletConnector is satisfied by *wallet.Connector.
type WalletConnector interface {
	Connect(ctx context.Context, appName string) (*wallet.Connection, error)
}

// ChainClient is a chain client bound to one open session.
type ChainClient interface {
	StateReader
	ExtrinsicSubmitter
	Close() error
}

// Dialer opens a ChainClient for c.
type Dialer func(ctx context.Context, c models.Chain) (ChainClient, error)

type sessionClient struct {
	*substrate.Client
	session *chain.Session
}

func (s *sessionClient) Close() error {
	return s.session.Close()
}

// DialChain opens a WebSocket session to the chain's endpoint.
func DialChain(log luxlog.Logger, opts ...chain.Option) Dialer {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return func(ctx context.Context, c models.Chain) (ChainClient, error) {
		s, err := chain.Open(ctx, c.Endpoint, append([]chain.Option{chain.WithLogger(log)}, opts...)...)
		if err != nil {
			return nil, err
		}
		return &sessionClient{Client: substrate.NewClient(s, c, log), session: s}, nil
	}
}

// Config names the application and its chains. A zero IdentityChain, or
// one sharing the relay endpoint, reads identities over the relay session.
type Config struct {
	AppName       string
	RelayChain    models.Chain
	IdentityChain models.Chain
}

type ControllerOption func(*Controller)

// WithRender sets the hook called with every new ViewState. It runs
// synchronously and must not call back into the controller.
func WithRender(render func(ViewState)) ControllerOption {
	return func(c *Controller) {
		c.render = render
	}
}

func WithLogger(log luxlog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = log
	}
}

// Controller owns the wallet connection, the chain sessions and the single
// balance subscription, and publishes a ViewState after every change.
type Controller struct {
	cfg       Config
	connector WalletConnector
	dial      Dialer
	render    func(ViewState)
	log       luxlog.Logger

	state   atomic.Pointer[ViewState]
	stateMu sync.Mutex

	mu         sync.Mutex
	conn       *wallet.Connection
	relay      ChainClient
	people     ChainClient
	balances   *BalanceReader
	identities *IdentityReader
	transfers  *TransferSubmitter
	registrar  *IdentitySubmitter
	unsub      Unsubscribe
	tornDown   bool
}

func NewController(cfg Config, connector WalletConnector, dial Dialer, opts ...ControllerOption) *Controller {
	c := &Controller{
		cfg:       cfg,
		connector: connector,
		dial:      dial,
		render:    func(ViewState) {},
		log:       luxlog.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Store(&ViewState{Selected: -1})
	return c
}

// State returns the current snapshot.
func (c *Controller) State() ViewState {
	return *c.state.Load()
}

func (c *Controller) update(fn func(*ViewState)) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	next := *c.state.Load()
	fn(&next)
	c.state.Store(&next)
	c.render(next)
}

// Mount connects the wallet, opens the relay and identity sessions in
// parallel and selects the first account. Calling it again once mounted
// is a no-op.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return ErrTornDown
	}
	if c.conn != nil {
		return nil
	}

	c.update(func(v *ViewState) {
		v.Phase = PhaseConnecting
		v.Err = nil
	})
	conn, err := c.connector.Connect(ctx, c.cfg.AppName)
	if err != nil {
		return c.fail(err)
	}
	relay, people, err := c.openSessions(ctx)
	if err != nil {
		return c.fail(err)
	}

	c.conn, c.relay, c.people = conn, relay, people
	c.balances = NewBalanceReader(relay, c.log)
	c.transfers = NewTransferSubmitter(relay, c.log)
	c.identities = NewIdentityReader(people, c.log)
	c.registrar = NewIdentitySubmitter(people, c.log)

	accounts := slices.Clone(conn.Accounts)
	c.update(func(v *ViewState) {
		v.Phase = PhaseReady
		v.Provider = conn.Provider
		v.Accounts = accounts
		v.RelayChain = relay.Chain().Name
		v.IdentityChain = people.Chain().Name
	})
	c.log.Info("controller mounted", "provider", conn.Provider, "accounts", len(accounts))
	return c.selectAccount(ctx, 0)
}

func (c *Controller) fail(err error) error {
	c.update(func(v *ViewState) {
		v.Phase = PhaseFailed
		v.Err = err
	})
	return err
}

func (c *Controller) openSessions(ctx context.Context) (ChainClient, ChainClient, error) {
	var relay, people ChainClient
	shared := c.cfg.IdentityChain.Endpoint == "" || c.cfg.IdentityChain.Endpoint == c.cfg.RelayChain.Endpoint

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cl, err := c.dial(gctx, c.cfg.RelayChain)
		if err != nil {
			return fmt.Errorf("%s: %w", c.cfg.RelayChain.Name, err)
		}
		relay = cl
		return nil
	})
	if !shared {
		g.Go(func() error {
			cl, err := c.dial(gctx, c.cfg.IdentityChain)
			if err != nil {
				return fmt.Errorf("%s: %w", c.cfg.IdentityChain.Name, err)
			}
			people = cl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, cl := range []ChainClient{relay, people} {
			if cl != nil {
				_ = cl.Close()
			}
		}
		return nil, nil, err
	}
	if shared {
		people = relay
	}
	return relay, people, nil
}

// SelectAccount switches to account index. The previous balance
// subscription is cancelled before the new one starts.
func (c *Controller) SelectAccount(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return err
	}
	return c.selectAccount(ctx, index)
}

func (c *Controller) ready() error {
	switch {
	case c.tornDown:
		return ErrTornDown
	case c.conn == nil:
		return ErrNotMounted
	}
	return nil
}

func (c *Controller) selectAccount(ctx context.Context, index int) error {
	if index < 0 || index >= len(c.conn.Accounts) {
		return fmt.Errorf("%w: %d of %d", ErrAccountIndex, index, len(c.conn.Accounts))
	}
	c.stopSubscription()
	account := c.conn.Accounts[index]
	c.update(func(v *ViewState) {
		v.Selected = index
		v.Balance = nil
		v.Identity = IdentityState{}
		v.Err = nil
	})

	fetchErr := c.fetch(ctx, account, c.balances, c.identities)

	unsub, err := c.balances.Subscribe(ctx, account.Address, func(b units.Balance) {
		c.update(func(v *ViewState) {
			if a, ok := v.Account(); ok && a.Address == account.Address {
				v.Balance = &b
			}
		})
	})
	if err != nil {
		err = errors.Join(fetchErr, err)
		c.update(func(v *ViewState) { v.Err = err })
		return err
	}
	c.unsub = unsub
	c.log.Debug("account selected", "index", index, "address", account.Address)
	return fetchErr
}

func (c *Controller) stopSubscription() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}

// fetch reads balance and identity in parallel and publishes whatever
// succeeded.
func (c *Controller) fetch(ctx context.Context, account wallet.Account, balances *BalanceReader, identities *IdentityReader) error {
	var (
		bal           units.Balance
		ident         IdentityState
		balErr, idErr error
		g             errgroup.Group
	)
	g.Go(func() error {
		bal, balErr = balances.FetchOnce(ctx, account.Address)
		return nil
	})
	g.Go(func() error {
		ident, idErr = identityState(ctx, identities, account.Address)
		return nil
	})
	_ = g.Wait()

	err := errors.Join(balErr, idErr)
	c.update(func(v *ViewState) {
		if a, ok := v.Account(); !ok || a.Address != account.Address {
			return
		}
		if balErr == nil {
			v.Balance = &bal
		}
		if idErr == nil {
			v.Identity = ident
		}
		v.Err = err
	})
	return err
}

func identityState(ctx context.Context, identities *IdentityReader, address string) (IdentityState, error) {
	id, err := identities.FetchIdentity(ctx, address)
	switch {
	case errors.Is(err, ErrIdentityUnsupported):
		return IdentityState{Kind: IdentityNone}, nil
	case err != nil:
		return IdentityState{}, err
	case id == nil:
		return IdentityState{Kind: IdentityNone}, nil
	}
	return IdentityState{Kind: IdentityPresent, Identity: id}, nil
}

// Refresh re-reads balance and identity of the selected account.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if err := c.ready(); err != nil {
		c.mu.Unlock()
		return err
	}
	balances, identities := c.balances, c.identities
	account, ok := c.State().Account()
	c.mu.Unlock()
	if !ok {
		return ErrAccountIndex
	}
	return c.fetch(ctx, account, balances, identities)
}

type signingAccount struct {
	account wallet.Account
	signer  wallet.Signer
}

func (c *Controller) current() (signingAccount, error) {
	if err := c.ready(); err != nil {
		return signingAccount{}, err
	}
	account, ok := c.State().Account()
	if !ok {
		return signingAccount{}, ErrAccountIndex
	}
	return signingAccount{account: account, signer: c.conn.Signer}, nil
}

// Transfer sends amount from the selected account and blocks until the
// transfer is finalized or failed, publishing every status as LastTx. The
// balance is re-read once the transfer is finalized.
func (c *Controller) Transfer(ctx context.Context, to, amount string) (TransactionStatus, error) {
	c.mu.Lock()
	sub, err := c.current()
	transfers, balances, identities := c.transfers, c.balances, c.identities
	c.mu.Unlock()
	if err != nil {
		return TransactionStatus{}, err
	}
	stream, err := transfers.Transfer(ctx, sub.signer, sub.account, to, amount)
	if err != nil {
		return TransactionStatus{}, err
	}
	return c.follow(ctx, "transfer", stream, func(ctx context.Context) {
		_ = c.fetch(ctx, sub.account, balances, identities)
	})
}

// SetIdentity updates the selected account's identity and blocks like
// Transfer. The identity is re-read once the update is finalized.
func (c *Controller) SetIdentity(ctx context.Context, fields IdentityFields) (TransactionStatus, error) {
	c.mu.Lock()
	sub, err := c.current()
	registrar, balances, identities := c.registrar, c.balances, c.identities
	c.mu.Unlock()
	if err != nil {
		return TransactionStatus{}, err
	}
	stream, err := registrar.SetIdentity(ctx, sub.signer, sub.account, fields)
	if err != nil {
		return TransactionStatus{}, err
	}
	return c.follow(ctx, "identity", stream, func(ctx context.Context) {
		_ = c.fetch(ctx, sub.account, balances, identities)
	})
}

func (c *Controller) follow(
	ctx context.Context,
	op string,
	stream *StatusStream,
	onFinalized func(context.Context),
) (TransactionStatus, error) {
	defer stream.Close()
	hash := stream.Hash().Hex()
	var last TransactionStatus
	for {
		select {
		case st, ok := <-stream.Updates():
			if !ok {
				if !last.Terminal() {
					return last, ErrStreamClosed
				}
				return last, nil
			}
			last = st
			c.update(func(v *ViewState) {
				v.LastTx = &TxState{Op: op, Hash: hash, Status: st}
			})
			c.log.Info("transaction status", "op", op, "hash", hash, "status", st.String())
			if st.Kind == StatusFinalized {
				onFinalized(ctx)
			}
		case <-ctx.Done():
			return last, ctx.Err()
		}
	}
}

// Teardown cancels the balance subscription and closes the sessions. It is
// idempotent.
func (c *Controller) Teardown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return nil
	}
	c.tornDown = true
	c.stopSubscription()

	var errs []error
	if c.people != nil && c.people != c.relay {
		errs = append(errs, c.people.Close())
	}
	if c.relay != nil {
		errs = append(errs, c.relay.Close())
	}
	c.update(func(v *ViewState) {
		v.Phase = PhaseTornDown
	})
	c.log.Debug("controller torn down")
	return errors.Join(errs...)
}
