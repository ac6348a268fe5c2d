package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
)

// Tool names
const (
	ParseTaskTool         = "parse_task"
	CheckDependenciesTool = "check_dependencies"
	GenerateScheduleTool  = "generate_schedule"
	EvaluateProgressTool  = "evaluate_progress"
	CalculateMetricsTool  = "calculate_metrics"
)

type parseTaskInput struct {
	Task string `json:"task" jsonschema:"description=Free text task description"`
}

type checkDependenciesInput struct {
	TaskID string `json:"task_id" jsonschema:"description=Identifier of the task to inspect"`
}

type checkDependenciesOutput struct {
	TaskID       string   `json:"task_id"`
	Dependencies []string `json:"dependencies"`
}

type generateScheduleInput struct {
	Tasks []string `json:"tasks" jsonschema:"description=Names of the tasks to schedule"`
}

type evaluateProgressInput struct {
	Completed int `json:"completed" jsonschema:"description=Number of completed tasks"`
	Total     int `json:"total" jsonschema:"description=Total number of tasks"`
}

type calculateMetricsInput struct {
	Data map[string]any `json:"data,omitempty" jsonschema:"description=Task results to score"`
}

// GetTools wraps every toolkit operation as an Eino tool
func GetTools(t *Toolkit) ([]tool.InvokableTool, error) {
	builders := []func(*Toolkit) (tool.InvokableTool, error){
		parseTaskTool,
		checkDependenciesTool,
		generateScheduleTool,
		evaluateProgressTool,
		calculateMetricsTool,
	}

	tools := make([]tool.InvokableTool, 0, len(builders))
	for _, build := range builders {
		it, err := build(t)
		if err != nil {
			return nil, fmt.Errorf("error creating tool: %w", err)
		}
		tools = append(tools, it)
	}
	return tools, nil
}

func parseTaskTool(t *Toolkit) (tool.InvokableTool, error) {
	return utils.InferTool(ParseTaskTool, "Parse a task description into a structured task with a priority",
		func(ctx context.Context, in parseTaskInput) (ParsedTask, error) {
			return t.ParseTask(ctx, in.Task), nil
		})
}

func checkDependenciesTool(t *Toolkit) (tool.InvokableTool, error) {
	return utils.InferTool(CheckDependenciesTool, "List the tasks that must be finished before the given task",
		func(ctx context.Context, in checkDependenciesInput) (checkDependenciesOutput, error) {
			deps, err := t.CheckDependencies(ctx, in.TaskID)
			if err != nil {
				return checkDependenciesOutput{}, err
			}
			return checkDependenciesOutput{TaskID: in.TaskID, Dependencies: deps}, nil
		})
}

func generateScheduleTool(t *Toolkit) (tool.InvokableTool, error) {
	return utils.InferTool(GenerateScheduleTool, "Generate a schedule for a list of tasks",
		func(ctx context.Context, in generateScheduleInput) (ScheduleResult, error) {
			return t.GenerateSchedule(ctx, in.Tasks)
		})
}

func evaluateProgressTool(t *Toolkit) (tool.InvokableTool, error) {
	return utils.InferTool(EvaluateProgressTool, "Compute completion percentage and remaining tasks",
		func(ctx context.Context, in evaluateProgressInput) (Progress, error) {
			return t.EvaluateProgress(ctx, in.Completed, in.Total), nil
		})
}

func calculateMetricsTool(t *Toolkit) (tool.InvokableTool, error) {
	return utils.InferTool(CalculateMetricsTool, "Score productivity from task results",
		func(ctx context.Context, in calculateMetricsInput) (Scores, error) {
			return t.CalculateMetrics(ctx, in.Data), nil
		})
}
