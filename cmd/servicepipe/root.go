package main

import (
	"github.com/dcshock/servicepipe/internal/env"
	"github.com/dcshock/servicepipe/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string
	root := &cobra.Command{
		Use:   "servicepipe",
		Short: "Run sequential service pipelines over a shared context",
		Long: "servicepipe executes pipelines defined in YAML. Each pipeline is an ordered list of\n" +
			"services; every service gets the previous one's output and a shared key/value context.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logging.Init(level, logFormat, cmd.ErrOrStderr())
			return nil
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&logLevel, "log-level", env.String("SERVICEPIPE_LOG_LEVEL", "warn"), "Log level: debug, info, warn, error")
	f.StringVar(&logFormat, "log-format", env.String("SERVICEPIPE_LOG_FORMAT", "text"), "Log format: text or json")

	root.AddCommand(newRunCmd())
	root.AddCommand(newServicesCmd())
	return root
}
