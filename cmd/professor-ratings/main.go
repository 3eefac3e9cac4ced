// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the professor-ratings CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/emw8105/professor-ratings-lambda/internal/logger"
	"github.com/emw8105/professor-ratings-lambda/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the professor-ratings CLI.
var rootCmd = &cobra.Command{
	Use:   "professor-ratings",
	Short: "Join grade-distribution ratings with instructor reviews",
	Long: `professor-ratings aggregates grade distributions into per-instructor
ratings and links them to review-site records for the same instructors.

Names are matched in four tiers: exact, fuzzy, structural (middle names),
and transposed (first/last swapped). Matched records, unmatched names, and
per-run history are written for later lookup.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(viper.GetString("log.env"), viper.GetString("log.level"))
		if err != nil {
			return err
		}
		cmd.SetContext(logger.WithContext(cmd.Context(), l))

		// A token from the environment or config file wins over .secrets/.
		s, err := secrets.Load(viper.GetString("secrets_dir"), l)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			l.Debug("loaded secrets", zap.Strings("keys", s.Keys()))
		}
		if viper.GetString("source.token") == "" {
			if tok := s.Get(secrets.SourceToken, ""); tok != "" {
				viper.Set("source.token", tok)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.FromContext(cmd.Context()).Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults()

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./professor-ratings.yaml or ~/.config/professor-ratings/professor-ratings.yaml)")
	rootCmd.PersistentFlags().String("log-env", "local", "logger environment: local (console) or prod (JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override: debug, info, warn, error")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of credential files (source-token)")

	viper.BindPFlag("log.env", rootCmd.PersistentFlags().Lookup("log-env"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("secrets_dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("professor-ratings")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "professor-ratings"))
		}
	}

	viper.SetEnvPrefix("PROFESSOR_RATINGS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
