package models

// Priority buckets a prioritized test by estimated impact.
type Priority string

const (
	// PriorityCritical is assigned only to tests pre-tagged upstream.
	PriorityCritical Priority = "critical"
	// PriorityHigh covers impact scores of 0.7 and above.
	PriorityHigh Priority = "high"
	// PriorityMedium covers impact scores in [0.5, 0.7).
	PriorityMedium Priority = "medium"
	// PriorityLow covers impact scores below 0.5.
	PriorityLow Priority = "low"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// PrioritizedTest is a test unit augmented with its impact estimate.
type PrioritizedTest struct {
	TestUnit
	// ImpactScore is a bounded [0,1] estimate of risk relevance.
	ImpactScore float64 `json:"impact_score"`
	// Priority is the monotone bucketing of ImpactScore.
	Priority Priority `json:"priority"`
	// Reason explains the score adjustments that were applied.
	Reason string `json:"reason"`
}

// PlanStage is one stage of a staged run plan.
type PlanStage struct {
	// Tests are the units assigned to this stage, capped by configuration.
	Tests []PrioritizedTest `json:"tests"`
	// Command is a ready-to-invoke runner command for the stage.
	Command string `json:"command,omitempty"`
}

// RunPlan is a three-stage execution plan over a prioritized test set.
// Stage 1 holds critical and high priority tests, stage 2 medium, stage 3 low.
type RunPlan struct {
	Stage1 PlanStage `json:"stage1"`
	Stage2 PlanStage `json:"stage2"`
	Stage3 PlanStage `json:"stage3"`
}
