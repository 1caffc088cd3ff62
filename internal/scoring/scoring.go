// Package scoring implements the screening score interpretation rules and the
// case aggregation policy. It is intentionally dependency-free: it imports
// nothing from internal/ and can be tested without a database.
package scoring

// ScreeningType identifies the instrument a score belongs to.
type ScreeningType string

const (
	ScreeningGAD7          ScreeningType = "gad7"
	ScreeningPHQ9          ScreeningType = "phq9"
	ScreeningGHQ12         ScreeningType = "ghq12"
	ScreeningPSS           ScreeningType = "pss"
	ScreeningComprehensive ScreeningType = "comprehensive"
)

// Individual reports whether the type is one of the single-instrument
// screenings scored by ScoreIndividual.
func (t ScreeningType) Individual() bool {
	switch t {
	case ScreeningGAD7, ScreeningPHQ9, ScreeningGHQ12:
		return true
	default:
		return false
	}
}

// RiskLevel is the ordinal classification of an assessment or a case.
// Ordering: low < moderate < high < critical. The high tier is only produced
// by the comprehensive scoring path.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank returns the position of the level in the risk ordering. Unknown
// levels rank below low so they never win a merge.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskModerate:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}

// MaxRisk returns the higher of the two levels. A stored case level is only
// ever replaced by a strictly higher one, so merges are monotone.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Issue is a categorical concern label attached to a flagged case.
type Issue string

const (
	IssueDepression              Issue = "depression"
	IssueAnxiety                 Issue = "anxiety"
	IssueStress                  Issue = "stress"
	IssueBurnout                 Issue = "burnout"
	IssueSuicidalThoughts        Issue = "suicidal_thoughts"
	IssueSelfHarm                Issue = "self_harm"
	IssueSevereDepression        Issue = "severe_depression"
	IssueEmotionalDistress       Issue = "emotional_distress"
	IssueSevereEmotionalDistress Issue = "severe_emotional_distress"
)

// UnionIssues merges two issue lists, preserving the order of existing entries
// and appending unseen new ones. Duplicates never accumulate, which keeps the
// merge idempotent under replayed submissions.
func UnionIssues(existing, incoming []Issue) []Issue {
	seen := make(map[Issue]struct{}, len(existing)+len(incoming))
	out := make([]Issue, 0, len(existing)+len(incoming))
	for _, issue := range existing {
		if _, ok := seen[issue]; ok {
			continue
		}
		seen[issue] = struct{}{}
		out = append(out, issue)
	}
	for _, issue := range incoming {
		if _, ok := seen[issue]; ok {
			continue
		}
		seen[issue] = struct{}{}
		out = append(out, issue)
	}
	return out
}

// MergeScores shallow-merges the incoming score payload over the existing one
// and stamps the assessment type. Keys from the newest assessment win.
func MergeScores(existing map[string]interface{}, scores map[string]float64, assessmentType ScreeningType) map[string]interface{} {
	merged := make(map[string]interface{}, len(existing)+len(scores)+1)
	for key, value := range existing {
		merged[key] = value
	}
	for key, value := range scores {
		merged[key] = value
	}
	merged["assessmentType"] = string(assessmentType)
	return merged
}
