package leads

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/optimwalls/Optimwalls/internal/testing/guard"
)

func TestScoreBudgetTiers(t *testing.T) {
	cases := []struct {
		name   string
		budget float64
		want   int
	}{
		{"top tier boundary", 100000, 40},
		{"just under top tier", 99999.99, 30},
		{"high tier boundary", 50000, 30},
		{"medium tier boundary", 25000, 20},
		{"just above zero", 0.01, 10},
		{"zero budget", 0, 0},
		{"negative budget", -500, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Score(tc.budget, "", ""))
		})
	}
}

func TestScoreProjectType(t *testing.T) {
	require.Equal(t, 30, Score(0, "Commercial", ""))
	require.Equal(t, 20, Score(0, "Residential", ""))
	// Unknown types contribute nothing, case-sensitively.
	require.Equal(t, 0, Score(0, "commercial", ""))
	require.Equal(t, 0, Score(0, "Industrial", ""))
}

func TestScoreStatus(t *testing.T) {
	require.Equal(t, 30, Score(0, "", StatusQualified))
	require.Equal(t, 20, Score(0, "", StatusInDiscussion))
	require.Equal(t, 15, Score(0, "", StatusProposalSent))
	require.Equal(t, 5, Score(0, "", StatusNew))
	require.Equal(t, 0, Score(0, "", StatusContacted))
	require.Equal(t, 0, Score(0, "", StatusConverted))
}

func TestScoreMaximum(t *testing.T) {
	got := Score(250000, "Commercial", StatusQualified)
	require.Equal(t, 100, got)
}

func TestScoreDeterministic(t *testing.T) {
	first := Score(60000, "Residential", StatusInDiscussion)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Score(60000, "Residential", StatusInDiscussion))
	}
	require.Equal(t, 70, first)
}

func TestScoreOfDerefsNilFields(t *testing.T) {
	lead := &Lead{Status: StatusNew}
	require.Equal(t, 5, scoreOf(lead))

	budget := 120000.0
	projectType := "Commercial"
	lead.Budget = &budget
	lead.ProjectType = &projectType
	require.Equal(t, 75, scoreOf(lead))
}
