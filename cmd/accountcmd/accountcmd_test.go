// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package accountcmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/dotcli/internal/mocks"
	"github.com/luxfi/dotcli/internal/testutils"
	"github.com/luxfi/dotcli/pkg/application"
	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/dapp"
	"github.com/luxfi/dotcli/pkg/key"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/units"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/luxfi/dotcli/pkg/wallet"
	luxlog "github.com/luxfi/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type accountTest struct {
	out  *bytes.Buffer
	addr string
}

// setupAccountTest wires an app whose wallet is the environment provider.
func setupAccountTest(t *testing.T) *accountTest {
	t.Helper()
	dir := t.TempDir()
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "cli.json"))
	conf := config.NewWithViper(v)
	conf.Override(config.ProviderKey, wallet.EnvProviderName)

	a := application.New()
	a.Setup(dir, luxlog.NewNoOpLogger(), conf, &mocks.Prompter{})
	app = a

	t.Setenv(key.EnvMnemonic, mnemonic)
	kp, err := key.NewKeyPairFromMnemonic(key.EnvKeyName, mnemonic)
	require.NoError(t, err)

	at := &accountTest{out: &bytes.Buffer{}, addr: kp.Address(ss58.GenericPrefix)}
	ux.Logger = ux.New(nil, at.out)
	return at
}

func (at *accountTest) run(args ...string) error {
	at.out.Reset()
	cmd := NewCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(at.out)
	return cmd.ExecuteContext(context.Background())
}

// serveEmptyChain answers a node with no balance and no identity for
// anyone.
func serveEmptyChain(node *testutils.FakeNode) {
	node.HandleResult("state_getStorage", nil)
	node.HandleSubscription("state_subscribeStorage", "state_storage", func(string, []json.RawMessage) ([]any, error) {
		return nil, nil
	})
	node.HandleResult("state_unsubscribeStorage", true)
}

func TestList(t *testing.T) {
	assert := require.New(t)
	at := setupAccountTest(t)

	assert.NoError(at.run("list"))
	assert.Contains(at.out.String(), "Wallet: env")
	assert.Contains(at.out.String(), at.addr)
	assert.Contains(at.out.String(), "*")
}

func TestUse(t *testing.T) {
	assert := require.New(t)
	at := setupAccountTest(t)

	assert.NoError(at.run("use", key.EnvKeyName))
	assert.Equal(at.addr, app.Conf.GetConfigStringValue(config.AccountKey))
	assert.Contains(at.out.String(), "Default account is now")

	assert.ErrorContains(at.run("use", "carol"), "account not found")
}

func TestShow(t *testing.T) {
	assert := require.New(t)
	at := setupAccountTest(t)
	node := testutils.NewFakeNode(t)
	serveEmptyChain(node)
	// identities are read over the relay session when both share a node
	app.Conf.Override(config.EndpointKey(models.WestendPeople), node.URL())

	assert.NoError(at.run("show", "--endpoint", node.URL(), "--qr"))
	out := at.out.String()
	assert.Contains(out, at.addr)
	assert.Contains(out, "0 WND")
	assert.Contains(out, "none")
	// the QR code is drawn with half blocks
	assert.Contains(out, "█")
	assert.Positive(node.Calls("state_getStorage"))
}

func TestShowRejectsNonWebsocketEndpoint(t *testing.T) {
	at := setupAccountTest(t)
	require.Error(t, at.run("show", "--endpoint", "https://westend-rpc.polkadot.io"))
}

func TestBalancePrinter(t *testing.T) {
	at := setupAccountTest(t)
	p := &balancePrinter{now: func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }}
	c, err := models.Westend.Chain()
	require.NoError(t, err)

	view := func(planck uint64) dapp.ViewState {
		b := units.NewBalance(uint256.NewInt(planck), c.Decimals, c.Symbol)
		return dapp.ViewState{
			Phase:    dapp.PhaseReady,
			Accounts: []wallet.Account{{Address: at.addr}},
			Selected: 0,
			Balance:  &b,
		}
	}
	p.render(dapp.ViewState{Phase: dapp.PhaseConnecting})
	p.render(view(1_000_000_000_000))
	p.render(view(1_000_000_000_000))
	p.render(view(1_500_000_000_000))

	require.Equal(t,
		"12:00:00  "+at.addr+"  1 WND\n12:00:00  "+at.addr+"  1.5 WND\n",
		at.out.String())
}
