// Package cmd provides the command-line interface for randloop.
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// envDefaults maps flags to the environment variables that can supply their
// defaults.
var envDefaults = map[string]string{
	"bpm":  "RANDLOOP_BPM",
	"ppq":  "RANDLOOP_PPQ",
	"seed": "RANDLOOP_SEED",
}

// NewRootCmd creates the randloop command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "randloop",
		Short: "randloop simulates a loop that fires at random intervals.",
		Long: `randloop simulates a loop that fires at random intervals ` +
			`along a musical transport. Intervals are drawn from a range ` +
			`of seconds under a uniform or gaussian distribution.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyEnvDefaults(cmd)
		},
	}

	rootCmd.AddCommand(newRunCmd())

	return rootCmd
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

// applyEnvDefaults loads .env, if present, and copies the environment into
// flags that were not set on the command line.
func applyEnvDefaults(cmd *cobra.Command) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	for flag, key := range envDefaults {
		if cmd.Flags().Lookup(flag) == nil || cmd.Flags().Changed(flag) {
			continue
		}

		value, ok := os.LookupEnv(key)
		if !ok {
			continue
		}

		if err := cmd.Flags().Set(flag, value); err != nil {
			return err
		}
	}

	return nil
}
