// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/luxfi/dotcli/pkg/models"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) (*Config, string) {
	t.Helper()
	dir := t.TempDir()
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("cli")
	v.SetConfigType("json")
	v.SetEnvPrefix("DOTCLI_TEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return NewWithViper(v), dir
}

func TestConfigDefaults(t *testing.T) {
	assert := require.New(t)
	c, _ := newTestConfig(t)
	assert.False(c.ConfigFileExists())
	assert.Equal(models.Westend, c.Network())

	chain, err := c.Chain(models.WestendPeople)
	assert.NoError(err)
	assert.Equal("wss://westend-people-rpc.polkadot.io", chain.Endpoint)

	_, err = c.Chain(models.Undefined)
	assert.Error(err)
}

func TestConfigPersistsEndpoint(t *testing.T) {
	assert := require.New(t)
	c, dir := newTestConfig(t)

	assert.NoError(c.SetEndpoint(models.Westend, "ws://127.0.0.1:9944"))
	assert.FileExists(filepath.Join(dir, "cli.json"))

	chain, err := c.Chain(models.Westend)
	assert.NoError(err)
	assert.Equal("ws://127.0.0.1:9944", chain.Endpoint)
	assert.Equal("Westend", chain.Name)

	t.Run("read back by a fresh instance", func(t *testing.T) {
		v := viper.New()
		v.SetConfigFile(filepath.Join(dir, "cli.json"))
		require.NoError(t, v.ReadInConfig())
		c := NewWithViper(v)
		require.True(t, c.ConfigFileExists())
		chain, err := c.Chain(models.Westend)
		require.NoError(t, err)
		require.Equal(t, "ws://127.0.0.1:9944", chain.Endpoint)
	})
}

func TestConfigFromEnvironment(t *testing.T) {
	c, _ := newTestConfig(t)
	t.Setenv("DOTCLI_TEST_NETWORK", "local")
	t.Setenv("DOTCLI_TEST_ENDPOINTS_WESTEND_PEOPLE", "wss://people.example")

	require.Equal(t, models.Local, c.Network())
	chain, err := c.Chain(models.WestendPeople)
	require.NoError(t, err)
	require.Equal(t, "wss://people.example", chain.Endpoint)
}

func TestConfigSource(t *testing.T) {
	assert := require.New(t)
	c, _ := newTestConfig(t)
	assert.Equal("DOTCLI_KAFKA_BROKER", EnvVar(KafkaBrokerKey))
	assert.Equal("DOTCLI_ENDPOINTS_WESTEND_PEOPLE", EnvVar(EndpointKey(models.WestendPeople)))

	assert.Equal(SourceDefault, c.Source(NetworkKey))
	assert.NoError(c.SetConfigValue(NetworkKey, "local"))
	assert.Equal(SourceFile, c.Source(NetworkKey))
	t.Setenv(EnvVar(NetworkKey), "westend")
	assert.Equal(SourceEnv, c.Source(NetworkKey))
}
