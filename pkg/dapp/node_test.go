// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dapp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/dotcli/internal/testutils"
	"github.com/luxfi/dotcli/pkg/chain"
	"github.com/luxfi/dotcli/pkg/dapp"
	"github.com/luxfi/dotcli/pkg/key"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/substrate"
	"github.com/luxfi/dotcli/pkg/wallet"
	ginkgo "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

const (
	mnemonic    = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	bobAddr     = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
	blockHex    = "0x1111111111111111111111111111111111111111111111111111111111111111"
	genesisHex  = "0xe143f23803ac50e8f6f8e62695d1ce9e4e1d68aa36c1cd2cfd15340213f3423e"
	specTimeout = 10 * time.Second
)

func header() map[string]any {
	return map[string]any{
		"parentHash":     genesisHex,
		"number":         "0x2a",
		"stateRoot":      blockHex,
		"extrinsicsRoot": blockHex,
		"digest":         map[string]any{"logs": []string{}},
	}
}

// serveChain answers everything a controller asks of one chain: the
// account's balance, no identity, signing context and an extrinsic that
// goes ready, in block, finalized.
func serveChain(node *testutils.FakeNode, id ss58.AccountID, free uint64) {
	info := substrate.EmptyAccountInfo()
	info.Data.Free = uint256.NewInt(free)
	raw, err := substrate.EncodeAccountInfo(info)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
	accountKey := substrate.SystemAccountKey(id).Hex()

	node.Handle("state_getStorage", func(params []json.RawMessage) (any, error) {
		var k string
		_ = json.Unmarshal(params[0], &k)
		if k == accountKey {
			return substrate.EncodeHex(raw), nil
		}
		return nil, nil
	})
	node.HandleSubscription("state_subscribeStorage", "state_storage", func(string, []json.RawMessage) ([]any, error) {
		return []any{map[string]any{
			"block":   blockHex,
			"changes": [][]any{{accountKey, substrate.EncodeHex(raw)}},
		}}, nil
	})
	node.HandleResult("state_unsubscribeStorage", true)
	node.HandleResult("state_getRuntimeVersion", map[string]any{
		"specName":           "westend",
		"specVersion":        1_017_001,
		"transactionVersion": 27,
	})
	node.HandleResult("chain_getBlockHash", genesisHex)
	node.HandleResult("system_accountNextIndex", 0)
	node.HandleResult("chain_getHeader", header())
	node.HandleResult("state_call", "0x0000")
	node.HandleResult("author_unwatchExtrinsic", true)
	node.HandleSubscription("author_submitAndWatchExtrinsic", "author_extrinsicUpdate", func(string, []json.RawMessage) ([]any, error) {
		return []any{
			"ready",
			map[string]any{"inBlock": blockHex},
			map[string]any{"finalized": blockHex},
		}, nil
	})
}

func submittedExtrinsic(node *testutils.FakeNode) []byte {
	params := node.Params("author_submitAndWatchExtrinsic")
	gomega.Expect(params).Should(gomega.HaveLen(1))
	var hexExt string
	gomega.Expect(json.Unmarshal(params[0][0], &hexExt)).Should(gomega.Succeed())
	ext, err := substrate.DecodeHex(hexExt)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
	return ext
}

var _ = ginkgo.Describe("[Controller against a node]", func() {
	var (
		ctx        context.Context
		relayNode  *testutils.FakeNode
		peopleNode *testutils.FakeNode
		relay      models.Chain
		people     models.Chain
		kp         *key.KeyPair
		ctrl       *dapp.Controller
	)

	newController := func() *dapp.Controller {
		registry := wallet.NewRegistry(wallet.NewEnvProvider(key.NewEnvBackend(), ss58.GenericPrefix))
		c := dapp.NewController(dapp.Config{
			AppName:       "dotcli",
			RelayChain:    relay,
			IdentityChain: people,
		}, wallet.NewConnector(registry, "", nil), dapp.DialChain(nil))
		ginkgo.DeferCleanup(c.Teardown)
		return c
	}

	ginkgo.BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), specTimeout)
		ginkgo.DeferCleanup(cancel)

		gomega.Expect(os.Setenv(key.EnvMnemonic, mnemonic)).Should(gomega.Succeed())
		ginkgo.DeferCleanup(os.Unsetenv, key.EnvMnemonic)

		var err error
		kp, err = key.NewKeyPairFromMnemonic(key.EnvKeyName, mnemonic)
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

		relayNode = testutils.NewFakeNode(ginkgo.GinkgoT())
		peopleNode = testutils.NewFakeNode(ginkgo.GinkgoT())
		serveChain(relayNode, kp.Public, 1_000_000_000_000)
		serveChain(peopleNode, kp.Public, 0)

		relay, err = models.Westend.Chain()
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		relay.Endpoint = relayNode.URL()
		people, err = models.WestendPeople.Chain()
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		people.Endpoint = peopleNode.URL()

		ctrl = newController()
	})

	ginkgo.It("mounts and shows balance and identity", func() {
		gomega.Expect(ctrl.Mount(ctx)).Should(gomega.Succeed())

		v := ctrl.State()
		gomega.Expect(v.Phase).Should(gomega.Equal(dapp.PhaseReady))
		gomega.Expect(v.Provider).Should(gomega.Equal(wallet.EnvProviderName))
		account, ok := v.Account()
		gomega.Expect(ok).Should(gomega.BeTrue())
		gomega.Expect(account.Address).Should(gomega.Equal(kp.Address(ss58.GenericPrefix)))
		gomega.Expect(v.Balance.Display()).Should(gomega.Equal("1"))
		gomega.Expect(v.Identity.Kind).Should(gomega.Equal(dapp.IdentityNone))
		gomega.Expect(relayNode.Calls("state_subscribeStorage")).Should(gomega.Equal(1))
		gomega.Expect(peopleNode.Calls("state_subscribeStorage")).Should(gomega.BeZero())
	})

	ginkgo.It("transfers 1.5 WND and reports finalization", func() {
		gomega.Expect(ctrl.Mount(ctx)).Should(gomega.Succeed())

		final, err := ctrl.Transfer(ctx, bobAddr, "1.5")
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		gomega.Expect(final.Kind).Should(gomega.Equal(dapp.StatusFinalized))
		gomega.Expect(final.BlockHash).Should(gomega.Equal(blockHex))

		bob, _, err := ss58.Decode(bobAddr)
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		call, err := substrate.TransferKeepAliveCall(relay.TransferKeepAlive, bob, uint256.NewInt(1_500_000_000_000))
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		gomega.Expect(bytes.HasSuffix(submittedExtrinsic(relayNode), call)).Should(gomega.BeTrue())

		gomega.Expect(relayNode.Calls("state_call")).Should(gomega.Equal(1))
		gomega.Expect(peopleNode.Calls("author_submitAndWatchExtrinsic")).Should(gomega.BeZero())
		gomega.Expect(ctrl.State().LastTx.Status.Kind).Should(gomega.Equal(dapp.StatusFinalized))
	})

	ginkgo.It("reports a dispatch failure without tearing down", func() {
		gomega.Expect(ctrl.Mount(ctx)).Should(gomega.Succeed())
		failure := append([]byte{0x00, 0x01}, substrate.EncodeDispatchError(&substrate.DispatchError{
			Name:   "Token",
			Detail: "FundsUnavailable",
		})...)
		relayNode.HandleResult("state_call", substrate.EncodeHex(failure))

		final, err := ctrl.Transfer(ctx, bobAddr, "1000")
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		gomega.Expect(final.Kind).Should(gomega.Equal(dapp.StatusFailed))
		gomega.Expect(final.Reason.Kind).Should(gomega.Equal(dapp.FailureDispatch))
		gomega.Expect(final.Reason.Error()).Should(gomega.ContainSubstring("FundsUnavailable"))

		gomega.Expect(ctrl.Refresh(ctx)).Should(gomega.Succeed())
		gomega.Expect(ctrl.State().Phase).Should(gomega.Equal(dapp.PhaseReady))
	})

	ginkgo.It("rejects an invalid address without touching the node", func() {
		gomega.Expect(ctrl.Mount(ctx)).Should(gomega.Succeed())
		before := relayNode.TotalCalls()

		_, err := ctrl.Transfer(ctx, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ", "1")
		gomega.Expect(err).Should(gomega.MatchError(dapp.ErrInvalidAddress))
		gomega.Expect(relayNode.TotalCalls()).Should(gomega.Equal(before))
	})

	ginkgo.It("sets an identity on the people chain", func() {
		gomega.Expect(ctrl.Mount(ctx)).Should(gomega.Succeed())

		final, err := ctrl.SetIdentity(ctx, dapp.IdentityFields{Display: "Alice"})
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		gomega.Expect(final.Kind).Should(gomega.Equal(dapp.StatusFinalized))

		info, err := dapp.IdentityFields{Display: "Alice"}.Info()
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		call, err := substrate.SetIdentityCall(people.SetIdentity, info)
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		gomega.Expect(bytes.HasSuffix(submittedExtrinsic(peopleNode), call)).Should(gomega.BeTrue())
		gomega.Expect(relayNode.Calls("author_submitAndWatchExtrinsic")).Should(gomega.BeZero())
	})

	ginkgo.It("refuses a non-websocket endpoint before dialing", func() {
		relay.Endpoint = "https://westend-rpc.polkadot.io"
		c := newController()
		gomega.Expect(c.Mount(ctx)).Should(gomega.MatchError(chain.ErrInvalidEndpoint))
		gomega.Expect(c.State().Phase).Should(gomega.Equal(dapp.PhaseFailed))
		gomega.Expect(relayNode.TotalCalls()).Should(gomega.BeZero())
	})

	ginkgo.It("tears down idempotently", func() {
		gomega.Expect(ctrl.Mount(ctx)).Should(gomega.Succeed())
		gomega.Expect(ctrl.Teardown()).Should(gomega.Succeed())
		gomega.Expect(ctrl.Teardown()).Should(gomega.Succeed())
		gomega.Eventually(func() int {
			return relayNode.Calls("state_unsubscribeStorage")
		}, specTimeout).Should(gomega.Equal(1))
	})
})
