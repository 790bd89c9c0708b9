package workflow

import (
	"cadenza/internal/clip"
	"cadenza/internal/prompts"
)

// Reporter receives run lifecycle notifications for user-facing rendering.
// Implementations must be cheap; they run inline with the unit loop.
type Reporter interface {
	RunStarted(plan prompts.Plan, finalPath string)
	UnitStarted(unit prompts.Unit, total int)
	UnitProgress(ordinal int, fraction float64)
	UnitCompleted(unit prompts.Unit, result clip.Result)
	AssemblyStarted(finalPath string)
	RunCompleted(outcome Outcome)
}

// NopReporter discards all notifications.
type NopReporter struct{}

func (NopReporter) RunStarted(prompts.Plan, string)          {}
func (NopReporter) UnitStarted(prompts.Unit, int)            {}
func (NopReporter) UnitProgress(int, float64)                {}
func (NopReporter) UnitCompleted(prompts.Unit, clip.Result)  {}
func (NopReporter) AssemblyStarted(string)                   {}
func (NopReporter) RunCompleted(Outcome)                     {}
