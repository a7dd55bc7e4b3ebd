package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/whosreal/internal/application"
	"github.com/example/whosreal/internal/config"
)

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WHOSREAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "whosreal",
		Short:         "A social deduction chat game where one of the players is an AI doppelganger.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: WHOSREAL_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: WHOSREAL_PORT)")
	fs.StringVar(&cfg.SQLiteDSN, "sqlite-dsn", "whosreal.db", "path to the sqlite database file (env: WHOSREAL_SQLITE_DSN)")
	fs.DurationVar(&cfg.Countdown, "countdown", 60*time.Second, "chat window length once a room fills (env: WHOSREAL_COUNTDOWN)")
	fs.IntVar(&cfg.DefaultRequiredCount, "required-count", application.DefaultRequiredCount, "players needed before the chat window opens (env: WHOSREAL_REQUIRED_COUNT)")
	fs.IntVar(&cfg.PageSize, "page-size", application.DefaultPageSize, "maximum messages returned per history page (env: WHOSREAL_PAGE_SIZE)")
	fs.StringVar(&cfg.ClearCodeHash, "clear-code-hash", "", "argon2id hash of the moderation clear code, empty disables the check (env: WHOSREAL_CLEAR_CODE_HASH)")
	fs.StringVar(&cfg.OpenAIAPIKey, "openai-api-key", "", "API key for the doppelganger language model (env: WHOSREAL_OPENAI_API_KEY)")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", "gpt-4o-mini", "model used by the doppelganger pipeline (env: WHOSREAL_OPENAI_MODEL)")
	fs.StringVar(&cfg.TLSCert, "tls-cert", "", "path to tls certificate (env: WHOSREAL_TLS_CERT)")
	fs.StringVar(&cfg.TLSKey, "tls-key", "", "path to tls keyfile (env: WHOSREAL_TLS_KEY)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: WHOSREAL_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("whosreal v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
