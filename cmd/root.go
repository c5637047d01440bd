// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/luxfi/dotcli/cmd/accountcmd"
	"github.com/luxfi/dotcli/cmd/configcmd"
	"github.com/luxfi/dotcli/cmd/identitycmd"
	"github.com/luxfi/dotcli/cmd/keycmd"
	"github.com/luxfi/dotcli/cmd/transfercmd"
	"github.com/luxfi/dotcli/cmd/watchcmd"
	"github.com/luxfi/dotcli/pkg/application"
	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/key"
	"github.com/luxfi/dotcli/pkg/prompts"
	"github.com/luxfi/dotcli/pkg/ux"
	luxlog "github.com/luxfi/log"
	"github.com/luxfi/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	app        *application.DotCLI
	logFactory luxlog.Factory
	cancelRun  context.CancelFunc

	logLevel       string
	Version        = "0.1.0"
	cfgFile        string
	baseDirFlag    string
	nonInteractive bool
	timeout        time.Duration
)

func NewRootCmd() *cobra.Command {
	// rootCmd represents the base command when called without any subcommands
	rootCmd := &cobra.Command{
		Use: "dotcli",
		Long: `dotcli - wallet and chain client for Substrate networks.

dotcli connects a wallet to a Substrate relay chain and its identity
chain, shows balances and identities, sends transfers, updates identities
and follows finalized blocks.

COMMAND OVERVIEW:

  key         Keystore accounts (create/import/list/export/delete)
  account     Wallet accounts, balances, default account
  transfer    Send tokens and follow the transaction to finality
  identity    Read and set on-chain identities
  watch       Record finalized blocks of several chains
  config      CLI configuration

NETWORKS:

  westend          Westend relay chain (default)
  westend-people   Westend People, holds identities for Westend
  local            ws://127.0.0.1:9944

QUICK START:

  # Create a keystore account
  dotcli key create alice

  # Show its balance and identity
  dotcli account show

  # Send 1.5 WND
  dotcli transfer --to <address> --amount 1.5

For detailed command help, use: dotcli <command> --help`,
		PersistentPreRunE:  createApp,
		PersistentPostRunE: closeApp,
		Version:            Version,
		SilenceUsage:       true,
	}

	// Disable printing the completion command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dotcli/cli.json)")
	rootCmd.PersistentFlags().StringVar(&baseDirFlag, "base-dir", "", "data directory (default is $HOME/.dotcli)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "ERROR", "log level for the application")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false,
		"Disable prompts; fail if required values are missing (also enabled when stdin is not a TTY or CI=1)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", constants.DefaultTimeout,
		"deadline for the whole command, 0 for none (watch commands run without one unless set)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Show verbose output (info level logs)")
	rootCmd.PersistentFlags().Bool("debug", false, "Show debug output (debug level logs)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Show only errors (quiet mode)")

	// add key management command
	rootCmd.AddCommand(keycmd.NewCmd(app))

	// add account command
	rootCmd.AddCommand(accountcmd.NewCmd(app))

	// add transfer command
	rootCmd.AddCommand(transfercmd.NewCmd(app))

	// add identity command
	rootCmd.AddCommand(identitycmd.NewCmd(app))

	// add block watcher command
	rootCmd.AddCommand(watchcmd.NewCmd(app))

	// add config command
	rootCmd.AddCommand(configcmd.NewCmd(app))

	return rootCmd
}

func createApp(cmd *cobra.Command, _ []string) error {
	baseDir, err := setupEnv()
	if err != nil {
		return err
	}
	loadDotEnv(baseDir)

	log, err := setupLogging(baseDir)
	if err != nil {
		return err
	}

	// Adjust log level based on flags BEFORE any logging happens
	switch {
	case cmd.Flags().Changed("debug"):
		logFactory.SetLogLevel(constants.AppName, luxlog.Level(level.Debug))
		logFactory.SetDisplayLevel(constants.AppName, luxlog.Level(level.Debug))
	case cmd.Flags().Changed("verbose"):
		logFactory.SetLogLevel(constants.AppName, luxlog.Level(level.Info))
		logFactory.SetDisplayLevel(constants.AppName, luxlog.Level(level.Info))
	case cmd.Flags().Changed("quiet"):
		logFactory.SetLogLevel(constants.AppName, luxlog.Level(level.Error))
		logFactory.SetDisplayLevel(constants.AppName, luxlog.Level(level.Error))
	case cmd.Flags().Changed("log-level"):
		if lvl, err := luxlog.ToLevel(logLevel); err == nil {
			logFactory.SetLogLevel(constants.AppName, lvl)
			logFactory.SetDisplayLevel(constants.AppName, lvl)
		}
	}

	// If --non-interactive flag is set, propagate to env so IsInteractive() sees it
	if nonInteractive {
		_ = os.Setenv(prompts.EnvNonInteractive, "1")
	}

	initConfig(baseDir)

	// Interactive by default on TTY, non-interactive when:
	// DOTCLI_NON_INTERACTIVE=1, CI=1, --non-interactive flag, or stdin is piped
	prompter := prompts.NewPrompterForMode(nonInteractive)
	app.Setup(baseDir, log, config.New(), prompter)

	applyTimeout(cmd)
	return nil
}

// applyTimeout bounds the command context with --timeout. Long-running
// commands only get a deadline when the flag is given.
func applyTimeout(cmd *cobra.Command) {
	if timeout <= 0 {
		return
	}
	if cmd.Annotations[constants.LongRunningAnnotation] != "" && !cmd.Flags().Changed("timeout") {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancelRun = context.WithTimeout(ctx, timeout)
	cmd.SetContext(ctx)
}

func closeApp(*cobra.Command, []string) error {
	if cancelRun != nil {
		cancelRun()
		cancelRun = nil
	}
	if app != nil {
		if err := app.Close(); err != nil {
			app.Log.Warn("failed to close keystore", "error", err)
		}
	}
	key.CloseBackends()
	if logFactory != nil {
		logFactory.Close()
		logFactory = nil
	}
	return nil
}

func setupEnv() (string, error) {
	baseDir := baseDirFlag
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			// no logger here yet
			fmt.Printf("unable to get home directory %s\n", err)
			return "", err
		}
		baseDir = filepath.Join(home, constants.BaseDirName)
	}

	// Create base dir and its subdirectories if they don't exist
	for _, dir := range []string{
		baseDir,
		filepath.Join(baseDir, constants.KeyDir),
		filepath.Join(baseDir, constants.WatchDir),
	} {
		if err := os.MkdirAll(dir, constants.DefaultPerms755); err != nil {
			fmt.Printf("failed creating %s: %s\n", dir, err)
			return "", err
		}
	}
	return baseDir, nil
}

// loadDotEnv reads .env from the working directory, then from the base
// dir. Variables already set in the environment win.
func loadDotEnv(baseDir string) {
	for _, path := range []string{".env", filepath.Join(baseDir, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "ignoring %s: %s\n", path, err)
		}
	}
}

func setupLogging(baseDir string) (luxlog.Logger, error) {
	var err error

	config := luxlog.Config{}
	config.LogLevel = luxlog.Level(level.Info)

	// Set default display level to WARN (quiet by default)
	config.DisplayLevel, _ = luxlog.ToLevel("WARN")

	config.Directory = filepath.Join(baseDir, constants.LogDir)
	if err := os.MkdirAll(config.Directory, constants.DefaultPerms755); err != nil {
		return nil, fmt.Errorf("failed creating log directory: %w", err)
	}

	// some logging config params
	config.LogFormat = luxlog.Colors
	config.MaxSize = constants.MaxLogFileSize
	config.MaxFiles = constants.MaxNumOfLogFiles
	config.MaxAge = constants.RetainOldFiles

	// Register ux package as internal so caller tracking shows actual source, not the wrapper
	luxlog.RegisterInternalPackages("github.com/luxfi/dotcli/pkg/ux")

	factory := luxlog.NewFactoryWithConfig(config)
	log, err := factory.Make(constants.AppName)
	if err != nil {
		factory.Close()
		return nil, fmt.Errorf("failed setting up logging, exiting: %w", err)
	}
	// Store factory globally so we can adjust levels later
	logFactory = factory
	// create the user facing logger as a global var
	// User output goes to stdout, logs go to stderr
	ux.NewUserLog(log, os.Stdout)
	return log, nil
}

// initConfig reads in config file and ENV variables if set.
// Priority: flags > env vars > config file > defaults
func initConfig(baseDir string) {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(baseDir)
		viper.SetConfigType(constants.ConfigFileType)
		viper.SetConfigName(constants.ConfigFileName) // cli.json
	}

	// DOTCLI_NETWORK -> network, DOTCLI_ENDPOINTS_WESTEND -> endpoints.westend
	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer())
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	// No config file is normal - most users don't have one, so we silently continue
	if err := viper.ReadInConfig(); err == nil {
		if log := ux.Logger; log != nil {
			log.Info("using config file %s", viper.ConfigFileUsed())
		}
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	app = application.New()
	rootCmd := NewRootCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %s\n", err)
		os.Exit(1)
	}
}
