package preflight

import (
	"context"

	"cadenza/internal/config"
	"cadenza/internal/prompts"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks a run with the given strategy depends on.
// The creative service is only checked when the strategy consults it.
func RunAll(ctx context.Context, cfg *config.Config, strategy prompts.Strategy) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckBackend(ctx, cfg.BackendAddr()),
		CheckFFmpeg(cfg.Assembly.FFmpegBinary),
	}

	if strategy.UsesCreativeService() {
		results = append(results, CheckCreative(ctx, cfg.Creative))
	}

	return results
}

// HasFailures reports whether any check did not pass.
func HasFailures(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return true
		}
	}
	return false
}
