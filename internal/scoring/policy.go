package scoring

// Action describes the effect a new assessment has on a student's flagged case.
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// CaseState is the slice of an existing flagged case the policy needs.
// Callers map their persistence model into this shape; the policy never sees
// storage types.
type CaseState struct {
	RiskLevel       RiskLevel
	FlaggedFor      []Issue
	ScreeningScores map[string]interface{}
}

// Assessment carries one scored submission into the policy.
type Assessment struct {
	Type      ScreeningType
	RiskLevel RiskLevel
	Issues    []Issue
	Scores    map[string]float64
}

// CaseEffect is the policy decision plus the merged case fields to persist.
// Every create or update implies status reset to pending and follow-up
// required; the repository applies those alongside the patch.
type CaseEffect struct {
	Action          Action
	RiskLevel       RiskLevel
	FlaggedFor      []Issue
	ScreeningScores map[string]interface{}
}

// DecideCaseEffect determines whether a scored assessment opens a new flagged
// case, merges into an existing one, or leaves everything untouched.
//
// Low-risk assessments never touch a case, even one that already exists:
// closing a case is an administrative action, not a scoring outcome. The
// merge is monotone in risk level and a set-union over issues, so replaying
// the same submission is a no-op beyond the timestamp bump.
func DecideCaseEffect(current *CaseState, a Assessment) CaseEffect {
	if a.RiskLevel.Rank() <= RiskLow.Rank() {
		return CaseEffect{Action: ActionNone}
	}

	if current == nil {
		return CaseEffect{
			Action:          ActionCreate,
			RiskLevel:       a.RiskLevel,
			FlaggedFor:      UnionIssues(nil, a.Issues),
			ScreeningScores: MergeScores(nil, a.Scores, a.Type),
		}
	}

	return CaseEffect{
		Action:          ActionUpdate,
		RiskLevel:       MaxRisk(current.RiskLevel, a.RiskLevel),
		FlaggedFor:      UnionIssues(current.FlaggedFor, a.Issues),
		ScreeningScores: MergeScores(current.ScreeningScores, a.Scores, a.Type),
	}
}
