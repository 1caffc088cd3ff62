package scoring

import "fmt"

// IndividualScores is the input to the single-instrument scoring family.
type IndividualScores struct {
	Type  ScreeningType
	Score float64
}

// ComprehensiveScores is the input to the combined legacy screening. Each
// sub-score is optional; absent instruments contribute nothing to the
// weighted risk score.
type ComprehensiveScores struct {
	PSS  *float64
	PHQ9 *float64
	GAD7 *float64
	GHQ  *float64
}

// Result is the outcome of scoring one submission.
type Result struct {
	RiskLevel RiskLevel
	Issues    []Issue
	// RiskScore is the weighted ordinal sum, populated only by the
	// comprehensive path.
	RiskScore int
}

// individualThreshold holds the inclusive lower bounds for a single
// instrument, evaluated highest-first.
type individualThreshold struct {
	moderate float64
	critical float64
}

var individualThresholds = map[ScreeningType]individualThreshold{
	ScreeningGAD7:  {moderate: 10, critical: 15},
	ScreeningPHQ9:  {moderate: 10, critical: 20},
	ScreeningGHQ12: {moderate: 13, critical: 26},
}

// ScoreIndividual classifies a single-instrument score. The individual path
// uses only the low/moderate/critical tiers; high is reserved for the
// comprehensive path.
func ScoreIndividual(in IndividualScores) (Result, error) {
	threshold, ok := individualThresholds[in.Type]
	if !ok {
		return Result{}, fmt.Errorf("no individual thresholds for screening type %q", in.Type)
	}

	level := RiskLow
	switch {
	case in.Score >= threshold.critical:
		level = RiskCritical
	case in.Score >= threshold.moderate:
		level = RiskModerate
	}

	return Result{RiskLevel: level, Issues: individualIssues(in)}, nil
}

func individualIssues(in IndividualScores) []Issue {
	var issues []Issue

	switch in.Type {
	case ScreeningGAD7:
		if in.Score >= 10 {
			issues = append(issues, IssueAnxiety)
		}
	case ScreeningPHQ9:
		if in.Score >= 10 {
			issues = append(issues, IssueDepression)
		}
		if in.Score >= 20 {
			issues = append(issues, IssueBurnout)
		}
	case ScreeningGHQ12:
		if in.Score >= 13 {
			issues = append(issues, IssueStress)
		}
		if in.Score >= 26 {
			issues = append(issues, IssueBurnout)
		}
	}

	return issues
}

// ScoreComprehensive combines the supplied sub-scores into a weighted ordinal
// risk score and maps the sum onto the four-tier scale. The banding here is
// deliberately kept separate from the individual thresholds: the two families
// are exercised by different call sites and sharing tables would silently
// change escalation behaviour.
func ScoreComprehensive(in ComprehensiveScores) Result {
	score := 0

	if in.PSS != nil {
		switch pss := *in.PSS; {
		case pss >= 27:
			score += 3
		case pss >= 21:
			score += 2
		case pss >= 14:
			score++
		}
	}

	if in.PHQ9 != nil {
		switch phq := *in.PHQ9; {
		case phq >= 15:
			score += 3
		case phq >= 10:
			score += 2
		case phq >= 5:
			score++
		}
	}

	if in.GAD7 != nil {
		switch gad := *in.GAD7; {
		case gad >= 15:
			score += 3
		case gad >= 10:
			score += 2
		case gad >= 5:
			score++
		}
	}

	level := RiskLow
	switch {
	case score >= 7:
		level = RiskCritical
	case score >= 5:
		level = RiskHigh
	case score >= 3:
		level = RiskModerate
	}

	return Result{RiskLevel: level, Issues: comprehensiveIssues(in), RiskScore: score}
}

func comprehensiveIssues(in ComprehensiveScores) []Issue {
	var issues []Issue

	if in.PHQ9 != nil && *in.PHQ9 >= 10 {
		issues = append(issues, IssueDepression)
	}
	if in.GAD7 != nil && *in.GAD7 >= 10 {
		issues = append(issues, IssueAnxiety)
	}
	if in.PSS != nil && *in.PSS >= 21 {
		issues = append(issues, IssueStress)
	}
	if in.PHQ9 != nil && in.GAD7 != nil && *in.PHQ9 >= 15 && *in.GAD7 >= 15 {
		issues = append(issues, IssueBurnout)
	}

	return issues
}
