// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"os"
	"strings"

	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/spf13/viper"
)

// Keys of the persisted configuration.
const (
	NetworkKey     = "network"
	AccountKey     = "account"
	ProviderKey    = "wallet-provider"
	KafkaBrokerKey = "kafka-broker"
	KafkaTopicKey  = "kafka-topic"
	endpointsKey   = "endpoints"
)

// Where a value comes from, highest precedence first.
const (
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
)

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// EnvVar is the environment variable overriding key, e.g. DOTCLI_KAFKA_BROKER.
func EnvVar(key string) string {
	return constants.EnvPrefix + "_" + strings.ToUpper(envKeyReplacer.Replace(key))
}

// EnvKeyReplacer maps config keys to the suffix of their environment variable.
func EnvKeyReplacer() *strings.Replacer {
	return envKeyReplacer
}

// Config is the CLI configuration: flags, DOTCLI_* environment variables
// and the config file, in that order of precedence.
type Config struct {
	v *viper.Viper
}

// New returns a Config over the global viper instance.
func New() *Config {
	return NewWithViper(viper.GetViper())
}

func NewWithViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

func (c *Config) GetConfigStringValue(key string) string {
	return c.v.GetString(key)
}

func (c *Config) ConfigFileExists() bool {
	return c.v.ConfigFileUsed() != ""
}

// SetConfigValue stores value and rewrites the config file, creating it if
// it does not exist yet.
func (c *Config) SetConfigValue(key string, value interface{}) error {
	c.v.Set(key, value)
	if err := c.v.WriteConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		if err := c.v.SafeWriteConfig(); err != nil {
			return err
		}
	}
	return c.v.ReadInConfig()
}

// Override sets key for this process only, above the environment and the
// file. Command-line flags land here.
func (c *Config) Override(key string, value interface{}) {
	c.v.Set(key, value)
}

func (c *Config) GetConfigPath() string {
	return c.v.ConfigFileUsed()
}

// Network is the configured default network, Westend when unset.
func (c *Config) Network() models.Network {
	if n := models.NetworkFromString(c.v.GetString(NetworkKey)); n != models.Undefined {
		return n
	}
	return models.Westend
}

// Source reports whether key is set by the environment, the config file,
// or not at all.
func (c *Config) Source(key string) string {
	if _, ok := os.LookupEnv(EnvVar(key)); ok {
		return SourceEnv
	}
	if c.v.InConfig(key) {
		return SourceFile
	}
	return SourceDefault
}

// EndpointKey is the key holding the endpoint override of n.
func EndpointKey(n models.Network) string {
	return endpointsKey + "." + n.String()
}

// Chain returns the built-in chain for n with its endpoint replaced by the
// configured one, if any.
func (c *Config) Chain(n models.Network) (models.Chain, error) {
	chain, err := n.Chain()
	if err != nil {
		return models.Chain{}, err
	}
	if ep := strings.TrimSpace(c.v.GetString(EndpointKey(n))); ep != "" {
		chain.Endpoint = ep
	}
	return chain, nil
}

func (c *Config) SetEndpoint(n models.Network, endpoint string) error {
	return c.SetConfigValue(EndpointKey(n), endpoint)
}
