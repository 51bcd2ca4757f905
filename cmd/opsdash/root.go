// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsdash-dev/opsdash/internal/config"
	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

// NewRootCmd creates the root opsdash command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "opsdash",
		Short:         "opsdash — resilient collector dashboard backend",
		Long:          "Opsdash polls external data sources behind a TTL cache with per-source circuit breakers and serves their health over a diagnostic API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags — these map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newExportCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return opserr.Errorf(opserr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// Auto-discover opsdash.yaml from standard locations. No config
		// file is fine — defaults and env vars still apply. Parse or
		// permission errors must surface. SetConfigType is intentionally
		// omitted: when set, Viper falls back to trying the bare config
		// name without extension, which collides with the ./opsdash binary
		// in the project root.
		v.SetConfigName("opsdash")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/opsdash")
		v.AddConfigPath("/etc/opsdash")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return opserr.Errorf(opserr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return opserr.Errorf(opserr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	return nil
}
