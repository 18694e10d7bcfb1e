package leads

// Scoring component caps. They sum to exactly 100, but the final result is
// clamped anyway in case a component grows later.
const (
	scoreCap = 100

	budgetTierTop    = 100000
	budgetTierHigh   = 50000
	budgetTierMedium = 25000
)

// Score computes the 0-100 fitness score of a lead from its budget, project
// type and pipeline status. It is pure and deterministic; tier boundaries are
// inclusive at the lower bound.
func Score(budget float64, projectType, status string) int {
	score := 0

	// Budget component, capped at 40.
	switch {
	case budget >= budgetTierTop:
		score += 40
	case budget >= budgetTierHigh:
		score += 30
	case budget >= budgetTierMedium:
		score += 20
	case budget > 0:
		score += 10
	}

	// Project-type component, capped at 30.
	switch projectType {
	case "Commercial":
		score += 30
	case "Residential":
		score += 20
	}

	// Status component, capped at 30.
	switch status {
	case StatusQualified:
		score += 30
	case StatusInDiscussion:
		score += 20
	case StatusProposalSent:
		score += 15
	case StatusNew:
		score += 5
	}

	if score > scoreCap {
		score = scoreCap
	}
	return score
}

// scoreOf computes the score from a lead's current field values.
func scoreOf(lead *Lead) int {
	budget := 0.0
	if lead.Budget != nil {
		budget = *lead.Budget
	}
	projectType := ""
	if lead.ProjectType != nil {
		projectType = *lead.ProjectType
	}
	return Score(budget, projectType, lead.Status)
}
