package prompts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cadenza/internal/services/llm"
)

// minSceneLength rejects degenerate creative responses.
const minSceneLength = 5

// sceneTimeout bounds a single creative call; there is no retry, only the
// deterministic fallback.
const sceneTimeout = 60 * time.Second

const sceneSystemPrompt = `You are a creative music composition assistant. Generate a single scene-specific prompt that will be combined with a base prompt for music generation.

Guidelines:
- Focus on scene-specific elements such as mood shifts, tempo changes, instrumentation variations, or structural developments
- Make the scene unique while ensuring it flows from all previous scenes
- Use descriptive language that complements the base prompt
- Keep the scene prompt concise but evocative (one sentence)
- Ensure smooth transitions between scenes

Return only the scene-specific prompt as a plain text string (do not include the base prompt).`

type sceneRequest struct {
	BasePrompt string
	Ordinal    int
	Total      int
	Window     []string
	Structure  string // empty for sequential
}

// sceneDescription asks the creative service for the next scene and falls
// back to a deterministic description on any failure or degenerate output.
// The pipeline never aborts because the creative service is unavailable.
func sceneDescription(ctx context.Context, svc SceneService, req sceneRequest) string {
	callCtx, cancel := context.WithTimeout(ctx, sceneTimeout)
	defer cancel()

	content, err := svc.Complete(callCtx, sceneSystemPrompt, sceneUserPrompt(req))
	if err != nil {
		return fallbackScene(req.Ordinal)
	}
	scene := llm.StripQuotes(content)
	if len(scene) < minSceneLength {
		return fallbackScene(req.Ordinal)
	}
	return scene
}

func sceneUserPrompt(req sceneRequest) string {
	var b strings.Builder

	shape := fmt.Sprintf("with %d sequential parts", req.Total)
	if req.Structure != "" {
		shape = fmt.Sprintf("using a %s musical structure with %d sections", req.Structure, req.Total)
	}
	fmt.Fprintf(&b, "Create a scene-specific prompt for section %d of %d that will be combined with this base prompt: %q %s.\n\n",
		req.Ordinal, req.Total, req.BasePrompt, shape)
	fmt.Fprintf(&b, "This is scene %d in the sequence.", req.Ordinal)

	if len(req.Window) > 0 {
		b.WriteString("\n\nPrevious scenes for continuity:\n")
		first := req.Ordinal - len(req.Window)
		for i, scene := range req.Window {
			fmt.Fprintf(&b, "Scene %d: %s\n", first+i, scene)
		}
	}

	b.WriteString("\nThe scene prompt should describe scene-specific elements that complement the base prompt and create a cohesive musical journey.")
	return b.String()
}

func fallbackScene(ordinal int) string {
	return fmt.Sprintf("scene %d continuing the musical development", ordinal)
}
