// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package configcmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/luxfi/dotcli/internal/mocks"
	"github.com/luxfi/dotcli/pkg/application"
	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/ux"
	luxlog "github.com/luxfi/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, out *bytes.Buffer, args ...string) error {
	t.Helper()
	out.Reset()
	cmd := NewCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	return cmd.ExecuteContext(context.Background())
}

func setupConfigTest(t *testing.T) *bytes.Buffer {
	t.Helper()
	dir := t.TempDir()
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "cli.json"))
	a := application.New()
	a.Setup(dir, luxlog.NewNoOpLogger(), config.NewWithViper(v), &mocks.Prompter{})
	app = a
	out := &bytes.Buffer{}
	ux.Logger = ux.New(nil, out)
	return out
}

func TestConfigCmd(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		assert := require.New(t)
		out := setupConfigTest(t)

		assert.NoError(run(t, out, "get", "network", "--source"))
		assert.Equal("network = westend (source: default)\n", out.String())

		assert.NoError(run(t, out, "list"))
		assert.Contains(out.String(), "endpoints.westend-people")
		assert.Contains(out.String(), "wss://westend-people-rpc.polkadot.io")
		assert.Contains(out.String(), "dotcli-blocks")
	})

	t.Run("set persists to the file", func(t *testing.T) {
		assert := require.New(t)
		out := setupConfigTest(t)

		assert.NoError(run(t, out, "set", "endpoints.westend", "ws://127.0.0.1:9944"))
		assert.NoError(run(t, out, "get", "endpoints.westend", "--source"))
		assert.Equal("endpoints.westend = ws://127.0.0.1:9944 (source: file)\n", out.String())
		assert.FileExists(filepath.Join(app.GetBaseDir(), "cli.json"))

		chain, err := app.Chain(app.Conf.Network())
		assert.NoError(err)
		assert.Equal("ws://127.0.0.1:9944", chain.Endpoint)
	})

	t.Run("environment wins", func(t *testing.T) {
		out := setupConfigTest(t)
		t.Setenv(config.EnvVar(config.KafkaBrokerKey), "localhost:9092")
		require.NoError(t, run(t, out, "set", "kafka-broker", "broker:9092"))
		require.Contains(t, out.String(), "DOTCLI_KAFKA_BROKER is set")
	})

	t.Run("rejects bad values", func(t *testing.T) {
		out := setupConfigTest(t)
		require.ErrorContains(t, run(t, out, "set", "network", "kusama"), "unknown network")
		require.ErrorContains(t, run(t, out, "set", "endpoints.westend", "https://rpc.example"), "invalid value")
		require.ErrorContains(t, run(t, out, "set", "wallet-provider", "ledger"), "unknown wallet provider")
		require.ErrorContains(t, run(t, out, "get", "colour"), "unknown setting")
	})
}
