package prioritize

import (
	"strings"

	"github.com/cruciblehq/crucible/pkg/models"
)

// Plan groups prioritized tests into three stages: critical and high
// priority tests run first, medium second, low last. Each stage is capped
// by configuration and carries a ready-to-invoke runner command.
func (p *Prioritizer) Plan(tests []models.PrioritizedTest) models.RunPlan {
	var critical, high, medium, low []models.PrioritizedTest
	for _, t := range tests {
		switch t.Priority {
		case models.PriorityCritical:
			critical = append(critical, t)
		case models.PriorityHigh:
			high = append(high, t)
		case models.PriorityMedium:
			medium = append(medium, t)
		default:
			low = append(low, t)
		}
	}

	stage1 := capStage(append(critical, high...), p.cfg.StageCaps.Stage1)
	stage2 := capStage(medium, p.cfg.StageCaps.Stage2)
	stage3 := capStage(low, p.cfg.StageCaps.Stage3)

	return models.RunPlan{
		Stage1: models.PlanStage{Tests: stage1, Command: p.command(stage1)},
		Stage2: models.PlanStage{Tests: stage2, Command: p.command(stage2)},
		Stage3: models.PlanStage{Tests: stage3, Command: p.command(stage3)},
	}
}

// capStage truncates a stage to its configured maximum. Zero means uncapped.
func capStage(tests []models.PrioritizedTest, limit int) []models.PrioritizedTest {
	if limit > 0 && len(tests) > limit {
		return tests[:limit]
	}
	return tests
}

// command builds the runner invocation for a stage. Empty stages get no
// command.
func (p *Prioritizer) command(tests []models.PrioritizedTest) string {
	if len(tests) == 0 {
		return ""
	}
	runner := p.cfg.Runner
	if runner == "" {
		runner = "jest"
	}

	parts := []string{runner}
	for _, t := range tests {
		parts = append(parts, t.TestFilePath)
	}
	if p.cfg.FailFast {
		parts = append(parts, "--bail")
	}
	return strings.Join(parts, " ")
}
