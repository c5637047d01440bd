// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package application

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/luxfi/dotcli/pkg/chain"
	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/dapp"
	"github.com/luxfi/dotcli/pkg/key"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/prompts"
	"github.com/luxfi/dotcli/pkg/wallet"
	luxlog "github.com/luxfi/log"
)

// DotCLI carries what every command needs: the logger, configuration,
// prompter and the directories under the base dir.
type DotCLI struct {
	Log     luxlog.Logger
	baseDir string
	Conf    *config.Config
	Prompt  prompts.Prompter

	keysOnce sync.Once
	keys     *key.SoftwareBackend
	keysErr  error
}

func New() *DotCLI {
	return &DotCLI{}
}

func (app *DotCLI) Setup(baseDir string, log luxlog.Logger, conf *config.Config, prompt prompts.Prompter) {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	if conf == nil {
		conf = config.New()
	}
	app.baseDir = baseDir
	app.Log = log
	app.Conf = conf
	app.Prompt = prompt
}

func (app *DotCLI) GetBaseDir() string {
	return app.baseDir
}

func (app *DotCLI) GetKeyDir() string {
	return filepath.Join(app.baseDir, constants.KeyDir)
}

func (app *DotCLI) GetLogDir() string {
	return filepath.Join(app.baseDir, constants.LogDir)
}

func (app *DotCLI) GetWatchDir() string {
	return filepath.Join(app.baseDir, constants.WatchDir)
}

func (app *DotCLI) GetConfigPath() string {
	return filepath.Join(app.baseDir, constants.ConfigFileName+"."+constants.ConfigFileType)
}

// Keystore returns the software keystore rooted at the key dir. On first
// use it registers the keystore and the environment backend with the key
// backend registry and initializes every available one.
func (app *DotCLI) Keystore(ctx context.Context) (*key.SoftwareBackend, error) {
	app.keysOnce.Do(func() {
		keys := key.NewSoftwareBackend(app.GetKeyDir())
		key.RegisterBackend(keys)
		key.RegisterBackend(key.NewEnvBackend())
		if err := key.InitializeBackends(ctx, key.BackendConfig{DataDir: app.GetKeyDir()}); err != nil {
			app.keysErr = err
			return
		}
		app.keys = keys
	})
	return app.keys, app.keysErr
}

// KeyBackends lists the registered key backends usable on this machine.
func (app *DotCLI) KeyBackends(ctx context.Context) ([]key.KeyBackend, error) {
	if _, err := app.Keystore(ctx); err != nil {
		return nil, err
	}
	return key.ListAvailableBackends(), nil
}

// Close locks the keystore, dropping any cached session keys.
func (app *DotCLI) Close() error {
	if app.keys == nil {
		return nil
	}
	return app.keys.Close()
}

// Chain resolves n against the configured endpoint overrides.
func (app *DotCLI) Chain(n models.Network) (models.Chain, error) {
	return app.Conf.Chain(n)
}

// Wallets registers the keystore provider, and the environment provider
// when its backend is available.
func (app *DotCLI) Wallets(ctx context.Context, prefix uint16) (*wallet.Registry, error) {
	keys, err := app.Keystore(ctx)
	if err != nil {
		return nil, err
	}
	registry := wallet.NewRegistry(wallet.NewKeystoreProvider(keys, app.Prompt, app.GetKeyDir(), prefix, app.Log))
	if env, err := key.GetBackend(key.BackendEnv); err == nil {
		registry.Register(wallet.NewEnvProvider(env, prefix))
	} else {
		app.Log.Debug("environment key backend unavailable", "error", err)
	}
	return registry, nil
}

// Connector picks the configured wallet provider, or the first available
// one when none is configured.
func (app *DotCLI) Connector(ctx context.Context, prefix uint16) (*wallet.Connector, error) {
	registry, err := app.Wallets(ctx, prefix)
	if err != nil {
		return nil, err
	}
	preferred := app.Conf.GetConfigStringValue(config.ProviderKey)
	return wallet.NewConnector(registry, preferred, app.Log), nil
}

// NewController wires a controller for network n and the network holding
// its identities.
func (app *DotCLI) NewController(ctx context.Context, n models.Network, opts ...dapp.ControllerOption) (*dapp.Controller, error) {
	relay, err := app.Chain(n)
	if err != nil {
		return nil, err
	}
	var people models.Chain
	if idNet := n.IdentityNetwork(); idNet != n {
		if people, err = app.Chain(idNet); err != nil {
			return nil, err
		}
	}
	connector, err := app.Connector(ctx, relay.SS58Prefix)
	if err != nil {
		return nil, err
	}
	opts = append([]dapp.ControllerOption{dapp.WithLogger(app.Log)}, opts...)
	return dapp.NewController(dapp.Config{
		AppName:       constants.AppName,
		RelayChain:    relay,
		IdentityChain: people,
	}, connector, dapp.DialChain(app.Log, app.DialOptions()...), opts...), nil
}

// DialOptions are applied to every node session the CLI opens.
func (app *DotCLI) DialOptions() []chain.Option {
	return []chain.Option{
		chain.WithLogger(app.Log),
		chain.WithHeader(http.Header{"User-Agent": []string{constants.UserAgent}}),
	}
}
