package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// defaultSceneDuration is applied when a scene declares no duration.
const defaultSceneDuration = 3

const defaultVideoDuration = 30

// Scene is one parsed unit of a video script.
type Scene struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Narration   string `json:"narration"`
	Duration    int    `json:"duration"`
}

var sceneLineRe = regexp.MustCompile(`(?i)^SCENE\s+(\d+)\s*:\s*(.*)$`)

// ParseScript extracts scenes from the structured script format:
//
//	SCENE 1: visual description
//	NARRATION: spoken text
//	DURATION: 3
//
// Scripts that carry no SCENE lines degrade to a single scene whose
// narration is the whole text.
func ParseScript(script string) []Scene {
	var scenes []Scene

	var current *Scene

	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := sceneLineRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				scenes = append(scenes, *current)
			}

			index, _ := strconv.Atoi(m[1])
			current = &Scene{
				Index:       index,
				Description: strings.TrimSpace(m[2]),
				Duration:    defaultSceneDuration,
			}

			continue
		}

		if current == nil {
			continue
		}

		switch {
		case hasFieldPrefix(line, "NARRATION"):
			current.Narration = fieldValue(line)
		case hasFieldPrefix(line, "DURATION"):
			if n, err := strconv.Atoi(strings.TrimSuffix(fieldValue(line), "s")); err == nil && n > 0 {
				current.Duration = n
			}
		case current.Narration != "":
			// continuation of a multi-line narration
			current.Narration += " " + line
		}
	}

	if current != nil {
		scenes = append(scenes, *current)
	}

	if len(scenes) == 0 && strings.TrimSpace(script) != "" {
		scenes = append(scenes, Scene{
			Index:       1,
			Description: firstLine(script),
			Narration:   strings.TrimSpace(script),
			Duration:    defaultSceneDuration,
		})
	}

	return scenes
}

func hasFieldPrefix(line, field string) bool {
	upper := strings.ToUpper(line)

	return strings.HasPrefix(upper, field+":") || strings.HasPrefix(upper, field+" :")
}

func fieldValue(line string) string {
	_, value, ok := strings.Cut(line, ":")
	if !ok {
		return ""
	}

	return strings.TrimSpace(value)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")

	return strings.TrimSpace(line)
}

// buildScriptPrompt asks the completion provider for a scene-structured
// script sized to the requested duration.
func buildScriptPrompt(topic string, duration int, style string) string {
	if duration <= 0 {
		duration = defaultVideoDuration
	}

	sceneCount := duration / defaultSceneDuration
	if sceneCount < 1 {
		sceneCount = 1
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Write a %d-second video script about: %s\n", duration, topic)

	if style != "" {
		fmt.Fprintf(&b, "Tone and style: %s\n", style)
	}

	fmt.Fprintf(&b, `
Structure the script as exactly %d scenes using this format for each:

SCENE <number>: <visual description for an image generator>
NARRATION: <spoken text for this scene>
DURATION: <seconds>

Scene durations must add up to roughly %d seconds. Respond with only
the scenes, no introduction or commentary.`, sceneCount, duration)

	return b.String()
}
