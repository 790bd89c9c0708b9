package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadenza/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.DefaultConfigPath()
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Export OPENROUTER_API_KEY (or set creative.api_key) to enable the AI strategies.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Output directory: %s\n", cfg.Paths.OutputDir)
			fmt.Fprintf(out, "Log directory:    %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Backend:          %s\n", cfg.WebSocketURL())
			fmt.Fprintf(out, "Downloads:        %s\n", cfg.FilesBaseURL())
			fmt.Fprintf(out, "Creative model:   %s\n", cfg.Creative.Model)
			fmt.Fprintf(out, "Creative key:     %s\n", maskKey(cfg.Creative.APIKey))
			fmt.Fprintf(out, "FFmpeg binary:    %s\n", cfg.Assembly.FFmpegBinary)
			fmt.Fprintf(out, "Clip floor:       %d bytes\n", cfg.Backend.MinClipBytes)
			fmt.Fprintf(out, "Final floor:      %d bytes\n", cfg.Backend.MinFinalBytes)
			return nil
		},
	}
	return cmd
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
