package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lens-backend/internal/bootstrap"
	"lens-backend/internal/shared/config"
	"lens-backend/internal/shared/telemetry"
)

const app = "lensctl"

// Actual version can be specified in build command.
var version = "unknown"

var (
	cfgFile string
	v       *viper.Viper = config.NewViper()

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "lensctl runs document ingestion and candidate matching from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return err
				}
			}
			telemetry.Configure(v.GetString("LOG_LEVEL"))
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s version: %s\n", app, version)
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file with the same keys as the environment (yaml, json, or .env)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("database-url", "", "Postgres connection string; empty uses in-memory repositories")
	flags.String("llm-provider", "", "LLM provider (openai, gemini, none)")
	flags.String("llm-model", "", "chat model name")

	bind("LOG_LEVEL", "log-level")
	bind("DATABASE_URL", "database-url")
	bind("LLM_PROVIDER", "llm-provider")
	bind("LLM_MODEL", "llm-model")

	rootCmd.AddCommand(versionCmd)
}

func bind(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func loadConfig() config.Config {
	return config.LoadFrom(v)
}

// buildApp wires the application without an in-process queue.
func buildApp(ctx context.Context) (*bootstrap.App, error) {
	return bootstrap.Build(ctx, loadConfig(), bootstrap.Options{DisableLocalQueue: true})
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
