package pipeline

import (
	"context"
	"fmt"

	"github.com/lumoworks/lumo/pkg/models"
)

func (p *Pipeline) runAutomationRun(ctx context.Context, task *models.Task, params Params) (string, error) {
	p.emit(ctx, task, progressStart, "Executing automation")

	execution, err := p.engine.Execute(ctx, params.AutomationID, "task")
	if err != nil {
		return "", err
	}

	p.emit(ctx, task, progressStored, "Automation finished")

	for _, outcome := range execution.Outcomes {
		p.appendResult(task, models.StageResult{
			Index:   outcome.ActionIndex,
			Name:    outcome.ActionName,
			Success: outcome.Success,
			Payload: outcome.Result,
			Error:   outcome.Error,
		})
	}

	if execution.Status == models.ExecutionFailed {
		return "", fmt.Errorf("automation run %s failed", execution.ID)
	}

	return fmt.Sprintf("Automation run %s %s", execution.ID, execution.Status), nil
}
