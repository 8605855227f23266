package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumoworks/lumo/pkg/media"
	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/providers"
	"github.com/lumoworks/lumo/pkg/store"
)

// video pipeline stage anchors
const (
	videoProgressScript = 10
	videoSceneBase      = 20
	videoSceneSpan      = 30
	videoProgressAudio  = 60
	videoProgressMux    = 80
	videoProgressStored = 95
)

func (p *Pipeline) runScriptOnly(ctx context.Context, task *models.Task, params Params) (string, error) {
	p.emit(ctx, task, videoProgressScript, "Generating script")

	script, scenes, err := p.generateScript(ctx, params)
	if err != nil {
		return "", err
	}

	p.appendResult(task, models.StageResult{
		Index:   0,
		Name:    "script",
		Success: true,
		Payload: map[string]any{"script": script, "scenes": scenes},
	})

	p.emit(ctx, task, progressStored, "Script ready")

	return fmt.Sprintf("Script generated with %d scenes", len(scenes)), nil
}

func (p *Pipeline) runVideoAuto(ctx context.Context, task *models.Task, params Params) (string, error) {
	if p.workDir != "" {
		if err := os.MkdirAll(p.workDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create scratch root: %w", err)
		}
	}

	workDir, err := os.MkdirTemp(p.workDir, "video-"+task.ID+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	// stage 1: script
	p.emit(ctx, task, videoProgressScript, "Generating script")

	script, scenes, err := p.generateScript(ctx, params)
	if err != nil {
		return "", err
	}

	p.appendResult(task, models.StageResult{
		Index:   0,
		Name:    "script",
		Success: true,
		Payload: map[string]any{"script": script, "scene_count": len(scenes)},
	})

	// stage 2: one image per scene, failures contained per scene
	slides, sceneFailures := p.renderScenes(ctx, task, workDir, scenes, params)
	if len(slides) == 0 {
		return "", fmt.Errorf("all %d scene images failed", len(scenes))
	}

	// stage 3: narration, best effort
	audioPath := p.synthesizeNarration(ctx, task, workDir, scenes, params.VoiceID)

	// stage 4: assemble and store
	p.emit(ctx, task, videoProgressMux, "Assembling video")

	quality := params.Quality
	width, height := media.Resolution(params.AspectRatio, quality)
	outputPath := filepath.Join(workDir, "output.mp4")

	err = p.muxer.Mux(ctx, media.MuxInput{
		Slides:     slides,
		AudioPath:  audioPath,
		OutputPath: outputPath,
		Width:      width,
		Height:     height,
		CRF:        media.CRF(quality),
		WorkDir:    workDir,
	})
	if err != nil {
		return "", err
	}

	artifact, err := p.artifacts.ImportFile(ctx, store.PutInput{
		Category: models.ArtifactVideo,
		Ext:      "mp4",
		Prompt:   params.Topic,
		Metadata: map[string]any{
			"task_id":      task.ID,
			"topic":        params.Topic,
			"duration":     params.Duration,
			"aspect_ratio": params.AspectRatio,
			"quality":      quality,
			"scene_count":  len(scenes),
			"narrated":     audioPath != "",
			"script":       script,
		},
	}, outputPath)
	if err != nil {
		return "", err
	}

	p.emit(ctx, task, videoProgressStored, "Video stored")

	p.appendResult(task, models.StageResult{
		Index:   3,
		Name:    "store",
		Success: true,
		Payload: artifact,
	})

	if sceneFailures > 0 {
		return fmt.Sprintf("Video generated with %d of %d scenes", len(slides), len(scenes)), nil
	}

	return "Video generated", nil
}

func (p *Pipeline) generateScript(ctx context.Context, params Params) (string, []Scene, error) {
	script, err := p.completion.Complete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: "system", Content: "You are a video script writer. Follow the requested structure exactly."},
			{Role: "user", Content: buildScriptPrompt(params.Topic, params.Duration, params.Style)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", nil, err
	}

	scenes := ParseScript(script)
	if len(scenes) == 0 {
		return "", nil, fmt.Errorf("script generation produced no usable scenes")
	}

	return script, scenes, nil
}

// renderScenes generates one image per scene into workDir. A failed
// scene is recorded and dropped from the slideshow; the stage carries
// on with the remaining scenes.
func (p *Pipeline) renderScenes(ctx context.Context, task *models.Task, workDir string, scenes []Scene, params Params) ([]media.Slide, int) {
	slides := make([]media.Slide, 0, len(scenes))
	failures := 0

	for i, scene := range scenes {
		if i > 0 {
			if err := p.pauseBetweenItems(ctx); err != nil {
				break
			}
		}

		path, err := p.renderScene(ctx, workDir, i, scene, params)
		if err != nil {
			failures++

			p.appendResult(task, models.StageResult{
				Index: 1,
				Name:  fmt.Sprintf("scene %d", scene.Index),
				Error: err.Error(),
			})
		} else {
			slides = append(slides, media.Slide{ImagePath: path, Duration: scene.Duration})

			p.appendResult(task, models.StageResult{
				Index:   1,
				Name:    fmt.Sprintf("scene %d", scene.Index),
				Success: true,
				Payload: map[string]any{"description": scene.Description},
			})
		}

		percent := videoSceneBase + float64(i+1)/float64(len(scenes))*videoSceneSpan
		p.emit(ctx, task, percent, fmt.Sprintf("Rendered scene %d/%d", i+1, len(scenes)))
	}

	return slides, failures
}

func (p *Pipeline) renderScene(ctx context.Context, workDir string, index int, scene Scene, params Params) (string, error) {
	result, err := p.image.Generate(ctx, providers.ImageRequest{
		Prompt: stylePrompt(scene.Description, params.Style),
		Size:   imageSizeForAspect(params.AspectRatio),
		Model:  imageModel(params.Quality),
	})
	if err != nil {
		return "", err
	}

	body, err := p.image.Download(ctx, result.URL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	path := filepath.Join(workDir, fmt.Sprintf("scene-%03d.png", index))

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, body); err != nil {
		return "", err
	}

	return path, nil
}

// synthesizeNarration renders the concatenated scene narrations to an
// audio file. Narration is best effort: on failure the video is
// assembled silent and the failure is recorded as a contained stage
// result.
func (p *Pipeline) synthesizeNarration(ctx context.Context, task *models.Task, workDir string, scenes []Scene, voiceID string) string {
	p.emit(ctx, task, videoProgressAudio, "Synthesizing narration")

	var parts []string

	for _, scene := range scenes {
		if scene.Narration != "" {
			parts = append(parts, scene.Narration)
		}
	}

	if len(parts) == 0 {
		return ""
	}

	audio, err := p.speech.Synthesize(ctx, providers.SpeechRequest{
		Text:    strings.Join(parts, " "),
		VoiceID: voiceID,
	})
	if err != nil {
		p.appendResult(task, models.StageResult{
			Index: 2,
			Name:  "narration",
			Error: err.Error(),
		})

		return ""
	}
	defer audio.Close()

	path := filepath.Join(workDir, "narration.mp3")

	out, err := os.Create(path)
	if err != nil {
		p.appendResult(task, models.StageResult{Index: 2, Name: "narration", Error: err.Error()})

		return ""
	}
	defer out.Close()

	if _, err := io.Copy(out, audio); err != nil {
		p.appendResult(task, models.StageResult{Index: 2, Name: "narration", Error: err.Error()})

		return ""
	}

	p.appendResult(task, models.StageResult{Index: 2, Name: "narration", Success: true})

	return path
}
