// Package prioritize scores test units by estimated impact and groups them
// into a staged run plan.
package prioritize

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/pkg/models"
)

const (
	baseScore          = 0.3
	relatednessWeight  = 0.4
	relatednessCeiling = 3
	failureBonus       = 0.2
	newTestBonus       = 0.1
	slowTestBonus      = 0.1
	unitBonus          = 0.1
	integrationBonus   = 0.15
	e2eBonus           = 0.2
)

// HistoryProvider supplies recorded run statistics for a test file. A
// zero-run stats record marks the test as new.
type HistoryProvider interface {
	Stats(testFilePath string) (models.TestStats, error)
}

// Prioritizer scores and stages test units.
type Prioritizer struct {
	cfg     config.PrioritizeConfig
	history HistoryProvider
}

// New returns a Prioritizer. history may be nil, in which case no history
// signals apply and tests score on relatedness and type alone.
func New(cfg config.PrioritizeConfig, history HistoryProvider) *Prioritizer {
	return &Prioritizer{cfg: cfg, history: history}
}

// Prioritize scores every test unit and returns them sorted descending by
// impact score. When changedFiles is nil the reduced scoring path applies:
// the relatedness term is dropped entirely and only history and test-type
// signals contribute.
func (p *Prioritizer) Prioritize(tests []models.TestUnit, changedFiles []string) []models.PrioritizedTest {
	prioritized := make([]models.PrioritizedTest, 0, len(tests))
	for _, test := range tests {
		var scored models.PrioritizedTest
		if changedFiles == nil {
			scored = p.scoreWithoutChanges(test)
		} else {
			scored = p.score(test, changedFiles)
		}
		prioritized = append(prioritized, scored)
	}

	sort.SliceStable(prioritized, func(i, j int) bool {
		return prioritized[i].ImpactScore > prioritized[j].ImpactScore
	})
	return prioritized
}

// score is the full scoring path: base score plus relatedness against the
// changed-file list, plus history and test-type bonuses, clamped to [0,1].
func (p *Prioritizer) score(test models.TestUnit, changedFiles []string) models.PrioritizedTest {
	score := baseScore
	reasons := []string{"base"}

	if related := relatedChangeCount(test, changedFiles); related > 0 {
		bonus := relatednessWeight * math.Min(1, float64(related)/relatednessCeiling)
		score += bonus
		reasons = append(reasons, fmt.Sprintf("%d related change(s)", related))
	}

	score = p.applyHistory(test, score, &reasons)
	score = p.applyType(test, score, &reasons)

	return p.finish(test, score, reasons)
}

// scoreWithoutChanges is the reduced path used when no change list was
// supplied. It drops the relatedness term but keeps every other signal.
func (p *Prioritizer) scoreWithoutChanges(test models.TestUnit) models.PrioritizedTest {
	score := baseScore
	reasons := []string{"base (no change list)"}

	score = p.applyHistory(test, score, &reasons)
	score = p.applyType(test, score, &reasons)

	return p.finish(test, score, reasons)
}

func (p *Prioritizer) applyHistory(test models.TestUnit, score float64, reasons *[]string) float64 {
	if p.history == nil {
		return score
	}
	stats, err := p.history.Stats(test.TestFilePath)
	if err != nil {
		return score
	}

	if stats.Runs == 0 {
		score += newTestBonus
		*reasons = append(*reasons, "new test")
		return score
	}

	if stats.FailureRate() > p.cfg.FailureRateThreshold {
		score += failureBonus
		*reasons = append(*reasons, fmt.Sprintf("failure rate %.0f%%", stats.FailureRate()*100))
	}
	if stats.AvgDuration > p.cfg.SlowTestThreshold {
		score += slowTestBonus
		*reasons = append(*reasons, fmt.Sprintf("slow (avg %s)", stats.AvgDuration))
	}
	return score
}

func (p *Prioritizer) applyType(test models.TestUnit, score float64, reasons *[]string) float64 {
	kind := classify(test.TestFilePath)
	if p.cfg.PreferUnitTests {
		if kind == kindUnit {
			score += unitBonus
			*reasons = append(*reasons, "unit test")
		}
		return score
	}
	switch kind {
	case kindE2E:
		score += e2eBonus
		*reasons = append(*reasons, "end-to-end test")
	case kindIntegration:
		score += integrationBonus
		*reasons = append(*reasons, "integration test")
	}
	return score
}

func (p *Prioritizer) finish(test models.TestUnit, score float64, reasons []string) models.PrioritizedTest {
	score = clamp(score)
	return models.PrioritizedTest{
		TestUnit:    test,
		ImpactScore: score,
		Priority:    bucket(test, score),
		Reason:      strings.Join(reasons, ", "),
	}
}

// bucket maps a score to a priority. The critical bucket is only reachable
// through an upstream pre-tag; the scorer never assigns it.
func bucket(test models.TestUnit, score float64) models.Priority {
	if test.Critical {
		return models.PriorityCritical
	}
	switch {
	case score >= 0.7:
		return models.PriorityHigh
	case score >= 0.5:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

type testKind int

const (
	kindUnit testKind = iota
	kindIntegration
	kindE2E
)

// classify infers the test category from its path.
func classify(path string) testKind {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "e2e") || strings.Contains(lower, "end-to-end"):
		return kindE2E
	case strings.Contains(lower, "integration") || strings.Contains(lower, ".int."):
		return kindIntegration
	default:
		return kindUnit
	}
}

// relatedChangeCount counts changed files the test plausibly covers: an
// exact match on the unit's source file, or the test's normalized base name
// matching the change's basename or appearing in its path.
func relatedChangeCount(test models.TestUnit, changedFiles []string) int {
	normalized := normalizeBase(test.TestFilePath)
	related := 0
	for _, changed := range changedFiles {
		if changed == test.OriginalFilePath {
			related++
			continue
		}
		changedBase := strings.TrimSuffix(filepath.Base(changed), filepath.Ext(changed))
		if normalized != "" && (changedBase == normalized || strings.Contains(changed, normalized)) {
			related++
		}
	}
	return related
}

// normalizeBase strips the extension and test/spec infix markers from a
// test file name, leaving the base name of the code it covers.
func normalizeBase(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, marker := range []string{".test", ".spec", "_test", "_spec", "-test", "-spec"} {
		base = strings.TrimSuffix(base, marker)
	}
	return base
}
