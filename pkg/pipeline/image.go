package pipeline

import (
	"context"
	"fmt"

	"github.com/lumoworks/lumo/pkg/media"
	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/providers"
	"github.com/lumoworks/lumo/pkg/store"
)

const defaultImageSize = "1024x1024"

// image-batch: items spread over the first batchItemSpan percent.
const batchItemSpan = 80

func (p *Pipeline) runImageSingle(ctx context.Context, task *models.Task, params Params) (string, error) {
	size := params.Size
	if size == "" {
		size = defaultImageSize
	}

	p.emit(ctx, task, progressStart, "Generating image")

	artifact, err := p.generateAndStoreImage(ctx, task, params.Prompt, size, params.Quality, params.Style, 0)
	if err != nil {
		return "", err
	}

	p.emit(ctx, task, progressStored, "Image stored")

	p.appendResult(task, models.StageResult{
		Index:   1,
		Name:    "store",
		Success: true,
		Payload: artifact,
	})

	return "Image generated", nil
}

func (p *Pipeline) runImageBatch(ctx context.Context, task *models.Task, params Params) (string, error) {
	size := params.Size
	if size == "" {
		size = defaultImageSize
	}

	total := len(params.Prompts)
	successes := 0

	for i, prompt := range params.Prompts {
		if i > 0 {
			if err := p.pauseBetweenItems(ctx); err != nil {
				return "", err
			}
		}

		artifact, err := p.generateAndStoreImage(ctx, task, prompt, size, params.Quality, params.Style, i)
		if err != nil {
			// Storage failures abort the whole batch; provider failures
			// are contained to the item.
			if store.IsStorageError(err) {
				return "", err
			}

			p.appendResult(task, models.StageResult{
				Index: i,
				Name:  fmt.Sprintf("item %d", i),
				Error: err.Error(),
			})
		} else {
			successes++

			p.appendResult(task, models.StageResult{
				Index:   i,
				Name:    fmt.Sprintf("item %d", i),
				Success: true,
				Payload: artifact,
			})
		}

		percent := float64(i+1) / float64(total) * batchItemSpan
		p.emit(ctx, task, percent, fmt.Sprintf("Processed image %d/%d", i+1, total))
	}

	if successes == 0 {
		return "", fmt.Errorf("all %d batch items failed", total)
	}

	p.emit(ctx, task, progressStored, "Finalizing batch")

	return fmt.Sprintf("Batch finished: %d succeeded, %d failed", successes, total-successes), nil
}

// generateAndStoreImage runs the provider round-trip for one image and
// persists the result. For single-image tasks it also emits the
// post-generation progress anchor.
func (p *Pipeline) generateAndStoreImage(ctx context.Context, task *models.Task, prompt, size, quality, style string, index int) (*models.Artifact, error) {
	result, err := p.image.Generate(ctx, providers.ImageRequest{
		Prompt: stylePrompt(prompt, style),
		Size:   size,
		Model:  imageModel(quality),
	})
	if err != nil {
		return nil, err
	}

	if task.Kind == models.TaskImageSingle {
		p.appendResult(task, models.StageResult{
			Index:   0,
			Name:    "generate",
			Success: true,
			Payload: map[string]any{"revised_prompt": result.RevisedPrompt},
		})
		p.emit(ctx, task, progressGenerated, "Image generated, downloading")
	}

	body, err := p.image.Download(ctx, result.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return p.artifacts.PutStream(ctx, store.PutInput{
		Category: models.ArtifactImage,
		Ext:      "png",
		Prompt:   prompt,
		Metadata: map[string]any{
			"task_id":        task.ID,
			"size":           size,
			"quality":        quality,
			"style":          style,
			"batch_index":    index,
			"revised_prompt": result.RevisedPrompt,
		},
	}, body)
}

func stylePrompt(prompt, style string) string {
	if style == "" || style == "natural" {
		return prompt
	}

	return prompt + ", " + style + " style"
}

// imageModel picks the provider model by quality tier: HD and above use
// the larger model.
func imageModel(quality string) string {
	switch quality {
	case "hd", "fullhd", "4k":
		return "dall-e-3"
	}

	return ""
}

// imageSizeForAspect exposes the aspect-ratio mapping for video scenes.
func imageSizeForAspect(aspectRatio string) string {
	return media.ImageSize(aspectRatio)
}
