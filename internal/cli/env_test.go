package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/repofilter/internal/cli"
)

func TestBindEnvVars(t *testing.T) {
	tcs := map[string]struct {
		envVars         map[string]string
		wantLogLevel    string
		wantLogFormat   string
		wantRules       string
		args            []string
		wantConcurrency int
	}{
		"environment variables are bound when no args provided": {
			envVars: map[string]string{
				"REPOFILTER_LOG_LEVEL":   "debug",
				"REPOFILTER_LOG_FORMAT":  "json",
				"REPOFILTER_RULES":       "rules.yaml",
				"REPOFILTER_CONCURRENCY": "8",
			},
			args:            []string{},
			wantLogLevel:    "debug",
			wantLogFormat:   "json",
			wantRules:       "rules.yaml",
			wantConcurrency: 8,
		},
		"command line args take precedence over environment variables": {
			envVars: map[string]string{
				"REPOFILTER_LOG_LEVEL":  "debug",
				"REPOFILTER_LOG_FORMAT": "json",
				"REPOFILTER_RULES":      "rules.yaml",
			},
			args:            []string{"--log-level", "error", "--log-format", "text", "-r", "other.yaml", "-j", "2"},
			wantLogLevel:    "error",
			wantLogFormat:   "text",
			wantRules:       "other.yaml",
			wantConcurrency: 2,
		},
		"invalid environment variable keeps the default": {
			envVars: map[string]string{
				"REPOFILTER_CONCURRENCY": "many",
			},
			args:            []string{},
			wantLogLevel:    "info",
			wantLogFormat:   "text",
			wantConcurrency: 1,
		},
		"no environment variables uses defaults": {
			envVars:         map[string]string{},
			args:            []string{},
			wantLogLevel:    "info",
			wantLogFormat:   "text",
			wantConcurrency: 1,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			for key, val := range tc.envVars {
				t.Setenv(key, val)
			}

			cmd := cli.NewRootCmd()
			cmd.SetArgs(tc.args)

			err := cmd.ParseFlags(tc.args)
			require.NoError(t, err)

			logLevel, err := cmd.Flags().GetString("log-level")
			require.NoError(t, err)
			assert.Equal(t, tc.wantLogLevel, logLevel)

			logFormat, err := cmd.Flags().GetString("log-format")
			require.NoError(t, err)
			assert.Equal(t, tc.wantLogFormat, logFormat)

			rulesPath, err := cmd.Flags().GetString("rules")
			require.NoError(t, err)
			assert.Equal(t, tc.wantRules, rulesPath)

			concurrency, err := cmd.Flags().GetInt("concurrency")
			require.NoError(t, err)
			assert.Equal(t, tc.wantConcurrency, concurrency)
		})
	}
}

func TestEnvironmentVariableUsageUpdate(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCmd()

	logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, logLevelFlag)
	assert.Contains(t, logLevelFlag.Usage, "$REPOFILTER_LOG_LEVEL")

	rulesFlag := cmd.Flags().Lookup("rules")
	require.NotNil(t, rulesFlag)
	assert.Contains(t, rulesFlag.Usage, "$REPOFILTER_RULES")

	traceFlag := cmd.Flags().Lookup("trace-endpoint")
	require.NotNil(t, traceFlag)
	assert.Contains(t, traceFlag.Usage, "$REPOFILTER_TRACE_ENDPOINT")
}
