// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/key"
	"github.com/luxfi/dotcli/pkg/prompts"
	luxlog "github.com/luxfi/log"
)

const KeystoreProviderName = "keystore"

// KeystoreProvider exposes the keys of the encrypted software keystore.
// Each application must be allowed once; the answer is remembered in
// authorizations.json next to the keys.
type KeystoreProvider struct {
	backend  key.KeyBackend
	prompter prompts.Prompter
	authPath string
	prefix   uint16
	log      luxlog.Logger

	mu sync.Mutex
}

func NewKeystoreProvider(
	backend key.KeyBackend,
	prompter prompts.Prompter,
	dataDir string,
	prefix uint16,
	log luxlog.Logger,
) *KeystoreProvider {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &KeystoreProvider{
		backend:  backend,
		prompter: prompter,
		authPath: filepath.Join(dataDir, constants.AuthorizationsFileName),
		prefix:   prefix,
		log:      log,
	}
}

func (*KeystoreProvider) Name() string {
	return KeystoreProviderName
}

func (p *KeystoreProvider) Available() bool {
	return p.backend.Available()
}

// Enable asks the user to allow appName unless it was allowed before. It
// returns ctx's error as soon as ctx is done, and an answer given after
// that is not recorded.
func (p *KeystoreProvider) Enable(ctx context.Context, appName string) (Injected, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	auths, err := p.readAuthorizations()
	if err != nil {
		return nil, err
	}
	if _, ok := auths.Apps[appName]; !ok {
		question := fmt.Sprintf("Allow %q to access your accounts?", appName)
		allowed, err := promptWithContext(ctx, func() (bool, error) {
			return p.prompter.CaptureYesNo(question)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrAuthorizationDenied, err)
		}
		if !allowed {
			p.log.Info("wallet authorization denied", "app", appName)
			return nil, fmt.Errorf("%w: %s", ErrAuthorizationDenied, appName)
		}
		auths.Apps[appName] = time.Now().UTC()
		if err := p.writeAuthorizations(auths); err != nil {
			return nil, err
		}
		p.log.Info("wallet authorization granted", "app", appName)
	}
	return &backendInjected{backend: p.backend, prefix: p.prefix, prompter: p.prompter}, nil
}

// Revoke forgets the authorization of appName.
func (p *KeystoreProvider) Revoke(appName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	auths, err := p.readAuthorizations()
	if err != nil {
		return err
	}
	if _, ok := auths.Apps[appName]; !ok {
		return nil
	}
	delete(auths.Apps, appName)
	return p.writeAuthorizations(auths)
}

type authorizations struct {
	Apps map[string]time.Time `json:"apps"`
}

func (p *KeystoreProvider) readAuthorizations() (*authorizations, error) {
	auths := &authorizations{Apps: map[string]time.Time{}}
	data, err := os.ReadFile(p.authPath)
	if err != nil {
		if os.IsNotExist(err) {
			return auths, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, auths); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", p.authPath, err)
	}
	if auths.Apps == nil {
		auths.Apps = map[string]time.Time{}
	}
	return auths, nil
}

func (p *KeystoreProvider) writeAuthorizations(auths *authorizations) error {
	if err := os.MkdirAll(filepath.Dir(p.authPath), constants.UserOnlyPerms); err != nil {
		return err
	}
	data, err := json.MarshalIndent(auths, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.authPath, data, 0o600)
}
