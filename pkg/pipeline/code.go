package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/lumoworks/lumo/pkg/providers"
	"github.com/lumoworks/lumo/pkg/store"
)

var codeExtensions = map[string]string{
	"go":         "go",
	"python":     "py",
	"javascript": "js",
	"typescript": "ts",
	"java":       "java",
	"rust":       "rs",
	"ruby":       "rb",
	"c":          "c",
	"cpp":        "cpp",
	"html":       "html",
	"css":        "css",
	"sql":        "sql",
	"bash":       "sh",
}

func codeExtension(language string) string {
	if ext, ok := codeExtensions[strings.ToLower(language)]; ok {
		return ext
	}

	return "txt"
}

func (p *Pipeline) runCodeGenerate(ctx context.Context, task *models.Task, params Params) (string, error) {
	p.emit(ctx, task, progressStart, "Generating code")

	code, err := p.completion.Complete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: "system", Content: "You are an expert software engineer. Respond with code only, no surrounding commentary."},
			{Role: "user", Content: buildCodePrompt(params)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}

	code = stripCodeFence(code)

	p.appendResult(task, models.StageResult{
		Index:   0,
		Name:    "generate",
		Success: true,
		Payload: map[string]any{"length": len(code)},
	})

	p.emit(ctx, task, progressGenerated, "Code generated, storing")

	artifact, err := p.artifacts.Put(ctx, store.PutInput{
		Category: models.ArtifactCode,
		Ext:      codeExtension(params.Language),
		Prompt:   params.Description,
		Metadata: map[string]any{
			"task_id":    task.ID,
			"language":   params.Language,
			"framework":  params.Framework,
			"complexity": params.Complexity,
		},
	}, []byte(code))
	if err != nil {
		return "", err
	}

	p.emit(ctx, task, progressStored, "Code stored")

	p.appendResult(task, models.StageResult{
		Index:   1,
		Name:    "store",
		Success: true,
		Payload: artifact,
	})

	return "Code generated", nil
}

func buildCodePrompt(params Params) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write code for the following task: %s\n", params.Description)

	if params.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", params.Language)
	}

	if params.Framework != "" {
		fmt.Fprintf(&b, "Framework: %s\n", params.Framework)
	}

	if params.Complexity != "" {
		fmt.Fprintf(&b, "Complexity level: %s\n", params.Complexity)
	}

	if params.IncludeTests {
		b.WriteString("Include unit tests.\n")
	}

	if params.IncludeComments {
		b.WriteString("Include explanatory comments.\n")
	}

	return b.String()
}

// stripCodeFence unwraps a response the model wrapped in a markdown
// code block.
func stripCodeFence(code string) string {
	trimmed := strings.TrimSpace(code)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.Index(trimmed, "\n"); i >= 0 {
		trimmed = trimmed[i+1:]
	}

	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}
