package prompts

import (
	"context"
	"fmt"
	"strings"

	"cadenza/internal/services"
)

// MinUnitSeconds is the shortest clip the backend will render sensibly.
const MinUnitSeconds = 5

const continuationClause = "maintaining the same emotional depth and style"

// SceneService writes one scene description per request. Implemented by the
// llm client; faked in tests.
type SceneService interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Request describes a composition to plan.
type Request struct {
	BasePrompt     string
	Strategy       Strategy
	UnitCount      int    // sequential strategies only
	Structure      string // hierarchical strategies only
	SecondsPerUnit int
	Scenes         SceneService // required for AI strategies
}

// Unit is one planned segment: its ordinal, prompt, and audit context.
// Units are immutable once composed.
type Unit struct {
	Ordinal     int
	SectionID   string
	Label       string
	Description string
	Prompt      string
	Seconds     int
	// Window holds the prior scene descriptions that were sent to the
	// creative service for this unit. Audit only; never re-sent.
	Window []string
}

// Plan is the ordered outcome of composition.
type Plan struct {
	Strategy   Strategy
	Structure  string
	BasePrompt string
	Units      []Unit
}

// TotalSeconds sums the planned unit durations.
func (p Plan) TotalSeconds() int {
	total := 0
	for _, unit := range p.Units {
		total += unit.Seconds
	}
	return total
}

// Compose turns a request into an ordered unit plan. Hierarchical unit
// counts come from the structure catalog; unknown structure names are
// configuration errors. AI strategies degrade to deterministic fallback
// scenes when the creative service misbehaves, never failing the plan.
func Compose(ctx context.Context, req Request) (Plan, error) {
	base := strings.TrimSpace(req.BasePrompt)
	if base == "" {
		return Plan{}, services.Wrap(services.ErrValidation, "prompts", "compose", "base prompt is required", nil)
	}
	if req.SecondsPerUnit < MinUnitSeconds {
		return Plan{}, services.Wrap(services.ErrValidation, "prompts", "compose",
			fmt.Sprintf("unit duration must be at least %d seconds", MinUnitSeconds), nil)
	}

	plan := Plan{Strategy: req.Strategy, BasePrompt: base}

	switch req.Strategy {
	case StrategySequential:
		if req.UnitCount < 1 {
			return Plan{}, services.Wrap(services.ErrValidation, "prompts", "compose", "unit count must be at least 1", nil)
		}
		plan.Units = composeSequential(base, req.UnitCount, req.SecondsPerUnit)

	case StrategyHierarchical:
		sections, err := lookupStructure(req.Structure)
		if err != nil {
			return Plan{}, err
		}
		plan.Structure = req.Structure
		plan.Units = composeHierarchical(base, sections, req.SecondsPerUnit)

	case StrategyAISequential:
		if req.UnitCount < 1 {
			return Plan{}, services.Wrap(services.ErrValidation, "prompts", "compose", "unit count must be at least 1", nil)
		}
		if req.Scenes == nil {
			return Plan{}, services.Wrap(services.ErrConfiguration, "prompts", "compose", "creative service is required for AI strategies", nil)
		}
		plan.Units = composeAISequential(ctx, req.Scenes, base, req.UnitCount, req.SecondsPerUnit)

	case StrategyAIHierarchical:
		sections, err := lookupStructure(req.Structure)
		if err != nil {
			return Plan{}, err
		}
		if req.Scenes == nil {
			return Plan{}, services.Wrap(services.ErrConfiguration, "prompts", "compose", "creative service is required for AI strategies", nil)
		}
		plan.Structure = req.Structure
		plan.Units = composeAIHierarchical(ctx, req.Scenes, base, req.Structure, sections, req.SecondsPerUnit)

	default:
		return Plan{}, services.Wrap(services.ErrValidation, "prompts", "compose",
			fmt.Sprintf("unknown strategy %q", req.Strategy), nil)
	}

	return plan, nil
}

func lookupStructure(name string) ([]Section, error) {
	sections, ok := StructureSections(name)
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "prompts", "compose",
			fmt.Sprintf("unknown structure %q (available: %s)", name, strings.Join(StructureNames(), ", ")), nil)
	}
	return sections, nil
}

func composeSequential(base string, count, seconds int) []Unit {
	units := make([]Unit, 0, count)
	for i := 1; i <= count; i++ {
		prompt := base
		if i > 1 {
			prompt = fmt.Sprintf("%s, continuation part %d, %s", base, i, continuationClause)
		}
		units = append(units, Unit{
			Ordinal: i,
			Label:   fmt.Sprintf("CLIP %d/%d", i, count),
			Prompt:  prompt,
			Seconds: seconds,
		})
	}
	return units
}

func composeHierarchical(base string, sections []Section, seconds int) []Unit {
	units := make([]Unit, 0, len(sections))
	for i, section := range sections {
		units = append(units, Unit{
			Ordinal:     i + 1,
			SectionID:   section.ID,
			Label:       sectionLabel(i+1, len(sections), section),
			Description: section.Description,
			Prompt:      fmt.Sprintf("%s, %s, %s", base, strings.ToLower(section.Description), continuationClause),
			Seconds:     seconds,
		})
	}
	return units
}

func composeAISequential(ctx context.Context, svc SceneService, base string, count, seconds int) []Unit {
	units := make([]Unit, 0, count)
	scenes := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		window := slidingWindow(scenes)
		scene := sceneDescription(ctx, svc, sceneRequest{
			BasePrompt: base,
			Ordinal:    i,
			Total:      count,
			Window:     window,
		})
		scenes = append(scenes, scene)
		units = append(units, Unit{
			Ordinal:     i,
			Label:       fmt.Sprintf("CLIP %d/%d (AI Sliding Window)", i, count),
			Description: scene,
			Prompt:      base + ", " + scene,
			Seconds:     seconds,
			Window:      window,
		})
	}
	return units
}

func composeAIHierarchical(ctx context.Context, svc SceneService, base, structure string, sections []Section, seconds int) []Unit {
	units := make([]Unit, 0, len(sections))
	scenes := make([]string, 0, len(sections))
	for i, section := range sections {
		window := slidingWindow(scenes)
		scene := sceneDescription(ctx, svc, sceneRequest{
			BasePrompt: base,
			Ordinal:    i + 1,
			Total:      len(sections),
			Window:     window,
			Structure:  structure,
		})
		scenes = append(scenes, scene)
		units = append(units, Unit{
			Ordinal:     i + 1,
			SectionID:   section.ID,
			Label:       sectionLabel(i+1, len(sections), section),
			Description: scene,
			Prompt:      base + ", " + scene,
			Seconds:     seconds,
			Window:      window,
		})
	}
	return units
}

func sectionLabel(ordinal, total int, section Section) string {
	return fmt.Sprintf("SECTION %d/%d (%s: %s)", ordinal, total, strings.ToUpper(section.ID), section.Description)
}

// slidingWindow returns the at-most-two most recent scene descriptions,
// bounding prompt size regardless of total unit count.
func slidingWindow(scenes []string) []string {
	const maxPrior = 2
	start := len(scenes) - maxPrior
	if start < 0 {
		start = 0
	}
	window := make([]string, len(scenes)-start)
	copy(window, scenes[start:])
	return window
}
