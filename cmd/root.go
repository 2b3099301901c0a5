// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eth-fabric/fabric/cmd/devnetcmd"
	"github.com/eth-fabric/fabric/pkg/application"
	"github.com/eth-fabric/fabric/pkg/config"
	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/prompts"
	"github.com/eth-fabric/fabric/pkg/ux"
)

var (
	app *application.Fabric

	Version = "0.4.0"

	logLevel       string
	cfgFile        string
	nonInteractive bool
)

func NewRootCmd() *cobra.Command {
	// rootCmd represents the base command when called without any subcommands
	rootCmd := &cobra.Command{
		Use: "fabric",
		Long: `Fabric CLI - Operator toolchain for the preconfirmation devnet.

The Fabric CLI bootstraps a disposable multi-service test network for the
preconfirmation stack: it launches an Ethereum devnet cluster into a named
enclave, consolidates the validator key material, synthesizes the deployment
configuration against the live port assignments, and activates the
downstream gateway/proposer/relay services with Docker Compose.

COMMAND OVERVIEW:

  devnet      Manage the devnet (up/down/status/clean)

QUICK START:

  # Bring the whole devnet up from scratch
  fabric devnet up

  # Check what is running
  fabric devnet status

  # Throw everything away
  fabric devnet down --purge

For detailed command help, use: fabric <command> --help`,
		PersistentPreRunE: createApp,
		Version:           Version,
	}

	// Disable printing the completion command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fabric/cli.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "log level for the application log")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false,
		"Disable prompts; fail if required values are missing (also enabled when stdin is not a TTY or CI=1)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Show verbose output (info level logs)")
	rootCmd.PersistentFlags().Bool("debug", false, "Show debug output (debug level logs)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Show only errors (quiet mode)")

	// add sub commands
	rootCmd.AddCommand(devnetcmd.NewCmd(app))

	return rootCmd
}

func createApp(cmd *cobra.Command, _ []string) error {
	baseDir, err := setupEnv()
	if err != nil {
		return err
	}

	// Adjust log level based on flags (must be done after flags are parsed)
	level, err := resolveLogLevel(cmd)
	if err != nil {
		return err
	}
	log, err := setupLogging(baseDir, level)
	if err != nil {
		return err
	}

	cf := config.New()

	// If --non-interactive flag is set, propagate to env so IsInteractive() sees it
	// This allows TTY detection to work automatically while still respecting the flag
	if nonInteractive {
		_ = os.Setenv(prompts.EnvNonInteractive, "1")
	}

	// Interactive by default on TTY, non-interactive when:
	// FABRIC_NON_INTERACTIVE=1, CI=1, --non-interactive flag, or stdin is piped
	prompter := prompts.NewPrompterForMode(nonInteractive)
	app.Setup(baseDir, log, cf, prompter)

	initConfig()

	return nil
}

// resolveLogLevel merges --log-level with the --debug/--verbose/--quiet
// shorthands. Shorthands win over the explicit level.
func resolveLogLevel(cmd *cobra.Command) (zapcore.Level, error) {
	switch {
	case cmd.Flags().Changed("debug"):
		return zapcore.DebugLevel, nil
	case cmd.Flags().Changed("verbose"):
		return zapcore.InfoLevel, nil
	case cmd.Flags().Changed("quiet"):
		return zapcore.ErrorLevel, nil
	}
	level := zapcore.WarnLevel
	if logLevel != "" {
		if err := level.Set(strings.ToLower(logLevel)); err != nil {
			return level, fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
	}
	return level, nil
}

func setupEnv() (string, error) {
	// Set base dir
	usr, err := user.Current()
	if err != nil {
		// no logger here yet
		fmt.Printf("unable to get system user %s\n", err)
		return "", err
	}
	baseDir := filepath.Join(usr.HomeDir, constants.BaseDirName)

	// Create base dir if it doesn't exist
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		// no logger here yet
		fmt.Printf("failed creating the basedir %s: %s\n", baseDir, err)
		return "", err
	}

	return baseDir, nil
}

func setupLogging(baseDir string, level zapcore.Level) (*zap.SugaredLogger, error) {
	logDir := filepath.Join(baseDir, constants.LogDir)
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed creating log directory: %w", err)
	}
	file, err := os.OpenFile(
		filepath.Join(logDir, constants.LogFileName),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		constants.WriteReadReadPerms,
	)
	if err != nil {
		return nil, fmt.Errorf("failed setting up logging, exiting: %w", err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(file)),
		level,
	)
	log := zap.New(core).Sugar()

	// create the user facing logger as a global var
	// User output goes to stdout, logs go to the file
	ux.NewUserLog(log, os.Stdout)
	return log, nil
}

// initConfig reads in config file and ENV variables if set.
// Priority: flags > env vars > config file > defaults
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in ~/.fabric/ directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(filepath.Join(home, constants.BaseDirName))
		viper.SetConfigType(constants.DefaultConfigFileType)
		viper.SetConfigName(constants.DefaultConfigFileName) // cli.json
	}

	// Bind environment variables for the devnet settings
	// FABRIC_ENCLAVE -> enclave, etc.
	_ = viper.BindEnv(constants.ConfigEnclaveKey, constants.EnvEnclaveName)
	_ = viper.BindEnv(constants.ConfigOutputRootKey, constants.EnvOutputRoot)
	_ = viper.BindEnv(constants.ConfigKurtosisPathKey, constants.EnvKurtosisPath)

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		app.Log.Debugf("using config file %s", viper.ConfigFileUsed())
	}
	// No config file is normal - most users don't have one, so we silently continue
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	app = application.New()
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %s\n", err)
		os.Exit(1)
	}
}
