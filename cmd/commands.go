// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

// Command names exported for testing
const (
	// KeyCmd is the key command name
	KeyCmd = "key"

	// AccountCmd is the account command name
	AccountCmd = "account"

	// TransferCmd is the transfer command name
	TransferCmd = "transfer"

	// IdentityCmd is the identity command name
	IdentityCmd = "identity"

	// WatchCmd is the watch command name
	WatchCmd = "watch"

	// ConfigCmd is the config command name
	ConfigCmd = "config"
)
