package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnvVars sets the defaults of the flags of cmd and its subcommands from
// REPOFILTER_<FLAG> environment variables, e.g. $REPOFILTER_LOG_LEVEL for
// --log-level. Flags given on the command line take precedence.
//
// The variable name is appended to each flag's usage.
func bindEnvVars(cmd *cobra.Command) {
	seen := map[*pflag.Flag]bool{}

	bind := func(flag *pflag.Flag) {
		if seen[flag] {
			return
		}

		seen[flag] = true

		bindFlagToEnv(flag)
	}

	cmd.PersistentFlags().VisitAll(bind)
	cmd.Flags().VisitAll(bind)

	for _, sub := range cmd.Commands() {
		sub.PersistentFlags().VisitAll(bind)
		sub.Flags().VisitAll(bind)
	}
}

func bindFlagToEnv(flag *pflag.Flag) {
	envName := flagToEnvName(flag.Name)

	if !strings.Contains(flag.Usage, envName) {
		flag.Usage = fmt.Sprintf("%s ($%s)", flag.Usage, envName)
	}

	if flag.Changed {
		return
	}

	envValue, ok := os.LookupEnv(envName)
	if !ok {
		return
	}

	err := flag.Value.Set(envValue)
	if err != nil {
		// Keep the default value.
		_ = flag.Value.Set(flag.DefValue) //nolint:errcheck // The default was valid.

		slog.Error("failed to set flag from environment variable",
			slog.String("flag", flag.Name),
			slog.String("env", envName),
			slog.String("value", envValue),
			slog.Any("error", err),
		)

		return
	}

	flag.DefValue = envValue
}

// flagToEnvName returns the environment variable for a flag name,
// e.g. "trace-endpoint" -> "REPOFILTER_TRACE_ENDPOINT".
func flagToEnvName(flagName string) string {
	return strings.ToUpper(cmdName + "_" + strings.ReplaceAll(flagName, "-", "_"))
}
