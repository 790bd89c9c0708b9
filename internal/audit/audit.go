// Package audit renders the per-run prompt log: the exact prompt sent for
// each unit, written next to the final artifact for later review.
package audit

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cadenza/internal/fileutil"
	"cadenza/internal/prompts"
)

// Log collects everything the prompt file records for one run.
type Log struct {
	Plan        prompts.Plan
	FinalName   string
	GeneratedAt time.Time
}

// PathForFinal derives the prompt log path from the final artifact path.
// "mix.wav" becomes "mix_prompts.txt".
func PathForFinal(finalPath string) string {
	trimmed := strings.TrimSuffix(finalPath, ".wav")
	return trimmed + "_prompts.txt"
}

// Write renders the log and persists it atomically. clipName maps a unit
// ordinal to its artifact filename.
func Write(path string, log Log, clipName func(ordinal int) string) error {
	return fileutil.WriteFileAtomic(path, Render(log, clipName), 0o644)
}

// Render produces the plain-text prompt log.
func Render(log Log, clipName func(ordinal int) string) []byte {
	titler := cases.Title(language.English)

	var b strings.Builder
	b.WriteString("Composition Prompt Log\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", log.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Final Artifact: %s\n", log.FinalName)
	fmt.Fprintf(&b, "Strategy: %s\n", titler.String(string(log.Plan.Strategy)))
	if log.Plan.Structure != "" {
		fmt.Fprintf(&b, "Structure: %s\n", strings.ToUpper(log.Plan.Structure))
	}
	fmt.Fprintf(&b, "Base Prompt: %s\n", log.Plan.BasePrompt)
	fmt.Fprintf(&b, "Units: %d\n", len(log.Plan.Units))
	fmt.Fprintf(&b, "Total Duration: %ds\n", log.Plan.TotalSeconds())
	b.WriteString("\n")

	for _, unit := range log.Plan.Units {
		fmt.Fprintf(&b, "[%d] %s\n", unit.Ordinal, unit.Label)
		fmt.Fprintf(&b, "    File: %s\n", clipName(unit.Ordinal))
		fmt.Fprintf(&b, "    Duration: %ds\n", unit.Seconds)
		fmt.Fprintf(&b, "    Prompt: %s\n", unit.Prompt)
		if len(unit.Window) > 0 {
			b.WriteString("    Context Window:\n")
			first := unit.Ordinal - len(unit.Window)
			for i, scene := range unit.Window {
				fmt.Fprintf(&b, "        Scene %d: %s\n", first+i, scene)
			}
		}
		b.WriteString("\n")
	}

	return []byte(b.String())
}
