package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cadenza/internal/ledger"
	"cadenza/internal/logging"
	"cadenza/internal/preflight"
	"cadenza/internal/prompts"
	"cadenza/internal/services/llm"
	"cadenza/internal/workflow"
)

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var (
		basePrompt     string
		strategyFlag   string
		structureFlag  string
		numClips       int
		secondsPerClip int
		outputDir      string
		finalName      string
		skipPreflight  bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Generate a long-form composition clip by clip",
		Long: `Compose plans per-clip prompts from the base prompt, generates each clip
through the MusicGPT backend, and assembles the results into a single track.
Interrupted runs resume: existing clips are kept and only missing ones are
regenerated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(outputDir) != "" {
				cfg.Paths.OutputDir = outputDir
				if err := cfg.EnsureDirectories(); err != nil {
					return err
				}
			}

			strategy, err := resolveStrategy(strategyFlag, structureFlag)
			if err != nil {
				return err
			}
			if strategy.UsesStructure() && strings.TrimSpace(structureFlag) == "" {
				return fmt.Errorf("strategy %s requires --structure (available: %s)",
					strategy, strings.Join(prompts.StructureNames(), ", "))
			}

			if !skipPreflight {
				results := preflight.RunAll(cmd.Context(), cfg, strategy)
				renderPreflight(cmd.OutOrStdout(), results)
				if preflight.HasFailures(results) {
					return fmt.Errorf("preflight checks failed")
				}
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "cadenza.log")},
			})
			if err != nil {
				return err
			}

			var scenes prompts.SceneService
			if strategy.UsesCreativeService() {
				scenes = llm.NewClient(llm.Config{
					APIKey:         cfg.Creative.APIKey,
					BaseURL:        cfg.Creative.BaseURL,
					Model:          cfg.Creative.Model,
					Temperature:    cfg.Creative.Temperature,
					MaxTokens:      cfg.Creative.MaxTokens,
					TimeoutSeconds: cfg.Creative.TimeoutSeconds,
				})
			}

			plan, err := prompts.Compose(cmd.Context(), prompts.Request{
				BasePrompt:     basePrompt,
				Strategy:       strategy,
				UnitCount:      numClips,
				Structure:      structureFlag,
				SecondsPerUnit: secondsPerClip,
				Scenes:         scenes,
			})
			if err != nil {
				return err
			}

			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			reporter := newConsoleReporter(cmd.OutOrStdout())
			defer reporter.close()

			supervisor := workflow.New(cfg, logger, store, reporter)
			outcome, err := supervisor.Run(cmd.Context(), workflow.Request{
				Plan:      plan,
				FinalName: normalizeFinalName(finalName),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outcome.Resumed {
				fmt.Fprintf(out, "Final track already complete: %s\n", outcome.FinalPath)
			} else {
				fmt.Fprintf(out, "Final track: %s (%d generated, %d reused)\n",
					outcome.FinalPath, outcome.Generated, outcome.Skipped)
			}
			fmt.Fprintf(out, "MP3: %s\n", outcome.MP3Path)
			fmt.Fprintf(out, "Prompt log: %s\n", outcome.AuditPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&basePrompt, "prompt", "p", "", "Base prompt describing the composition")
	cmd.Flags().StringVar(&strategyFlag, "strategy", "sequential", "Prompt strategy: sequential, hierarchical, ai, ai-sequential, ai-hierarchical")
	cmd.Flags().StringVar(&structureFlag, "structure", "", "Musical structure for hierarchical strategies: "+strings.Join(prompts.StructureNames(), ", "))
	cmd.Flags().IntVarP(&numClips, "num-clips", "n", 3, "Clip count for sequential strategies")
	cmd.Flags().IntVarP(&secondsPerClip, "seconds-per-clip", "s", 30, "Duration of each clip in seconds")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Override the configured output directory")
	cmd.Flags().StringVarP(&finalName, "final-name", "f", "composition.wav", "Filename of the assembled track")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip dependency checks before the run")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

// resolveStrategy maps the CLI strategy flag onto a prompt strategy. The
// shorthand "ai" picks the hierarchical variant when a structure is named and
// the sequential variant otherwise.
func resolveStrategy(flag, structure string) (prompts.Strategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(flag))
	if normalized == "ai" {
		if strings.TrimSpace(structure) != "" {
			return prompts.StrategyAIHierarchical, nil
		}
		return prompts.StrategyAISequential, nil
	}
	return prompts.ParseStrategy(flag)
}

// normalizeFinalName guarantees the final artifact carries a .wav extension
// so the mp3 derivation has a suffix to swap.
func normalizeFinalName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = "composition.wav"
	}
	if !strings.HasSuffix(trimmed, ".wav") {
		trimmed += ".wav"
	}
	return trimmed
}
