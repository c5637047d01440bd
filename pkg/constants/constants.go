// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

import (
	"time"
)

const (
	DefaultPerms755    = 0o755
	WriteReadReadPerms = 0o644
	UserOnlyPerms      = 0o700

	BaseDirName = ".dotcli"
	LogDir      = "logs"
	KeyDir      = "keys"
	WatchDir    = "watch"

	ConfigFileName         = "cli"
	ConfigFileType         = "json"
	AuthorizationsFileName = "authorizations.json"
	KeystoreFileName       = "keystore.enc"
	KeyInfoFileName        = "info.json"

	// AppName is the name presented to wallet providers when asking for access.
	AppName = "dotcli"

	// UserAgent is sent on every node connection.
	UserAgent = AppName + "/0.1"

	// EnvPrefix namespaces every environment variable read through viper.
	EnvPrefix = "DOTCLI"

	MaxLogFileSize   = 4
	MaxNumOfLogFiles = 5
	RetainOldFiles   = 0 // retain all old log files

	// DefaultTimeout bounds a single CLI invocation; zero disables it.
	DefaultTimeout = 2 * time.Minute

	// LongRunningAnnotation marks commands that run until interrupted;
	// they only get a deadline when --timeout is given explicitly.
	LongRunningAnnotation = "long-running"

	DefaultKafkaTopic = "dotcli-blocks"
	// WatchStatusInterval is how often the watcher prints chain standings.
	WatchStatusInterval = 30 * time.Second
)
