package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "shortsreel",
		Short:         "Turn story scripts, images and narration into short vertical videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default shortsreel.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	for _, cmd := range newStoryCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range newMediaCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range newAudioCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}

	return rootCmd
}
