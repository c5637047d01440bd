// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package configcmd

import (
	"fmt"
	"strings"

	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/prompts"
	"github.com/luxfi/dotcli/pkg/ss58"
	"github.com/luxfi/dotcli/pkg/wallet"
)

// setting describes one configurable key.
type setting struct {
	key      string
	fallback string
	validate func(string) error
}

func validateNetwork(value string) error {
	if models.NetworkFromString(value) == models.Undefined {
		return fmt.Errorf("unknown network %q", value)
	}
	return nil
}

func validateProvider(value string) error {
	switch value {
	case wallet.KeystoreProviderName, wallet.EnvProviderName:
		return nil
	}
	return fmt.Errorf("unknown wallet provider %q", value)
}

func settings() []setting {
	all := []setting{
		{key: config.NetworkKey, fallback: models.Westend.String(), validate: validateNetwork},
		{key: config.ProviderKey, validate: validateProvider},
		{key: config.AccountKey, validate: ss58.Validate},
		{key: config.KafkaBrokerKey},
		{key: config.KafkaTopicKey, fallback: constants.DefaultKafkaTopic},
	}
	for _, n := range models.AllNetworks() {
		all = append(all, setting{
			key:      config.EndpointKey(n),
			fallback: n.Endpoint(),
			validate: prompts.ValidateEndpoint,
		})
	}
	return all
}

func lookup(key string) (setting, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, s := range settings() {
		if s.key == key {
			return s, nil
		}
	}
	return setting{}, fmt.Errorf("unknown setting %q, see 'dotcli config list'", key)
}

// effective returns the value of s and where it comes from.
func effective(s setting) (string, string) {
	source := app.Conf.Source(s.key)
	if source == config.SourceDefault {
		return s.fallback, source
	}
	return app.Conf.GetConfigStringValue(s.key), source
}
