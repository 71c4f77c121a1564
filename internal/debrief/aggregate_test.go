package debrief

import (
	"testing"

	"github.com/fyrsmithlabs/debrief/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		items     []string
		outcomes  []bool
		tolerance float64
		want      validator.Verdict
		sentence  string
	}{
		{
			name:     "empty list is not applicable",
			items:    []string{},
			outcomes: []bool{},
			want:     validator.VerdictNA,
		},
		{
			name:     "all given with zero tolerance",
			items:    []string{"q1", "q2", "q3"},
			outcomes: []bool{true, true, true},
			want:     validator.VerdictYes,
			sentence: "Applied instructions are necessarily given.",
		},
		{
			name:     "single miss cites first failing item",
			items:    []string{"q1", "q2", "q3"},
			outcomes: []bool{true, false, true},
			want:     validator.VerdictNo,
			sentence: "Applied instructions are not necessarily given, e.g., q2.",
		},
		{
			name:     "first failure in catalog order",
			items:    []string{"q1", "q2", "q3"},
			outcomes: []bool{true, false, false},
			want:     validator.VerdictNo,
			sentence: "Applied instructions are not necessarily given, e.g., q2.",
		},
		{
			name:      "misses below threshold are tolerated",
			items:     []string{"q1", "q2", "q3", "q4", "q5", "q6"},
			outcomes:  []bool{true, false, true, true, true, true},
			tolerance: 0.5,
			want:      validator.VerdictYes,
			sentence:  "Applied instructions are necessarily given.",
		},
		{
			name:      "misses at threshold fail",
			items:     []string{"q1", "q2", "q3", "q4", "q5", "q6"},
			outcomes:  []bool{true, false, true, false, false, true},
			tolerance: 0.5,
			want:      validator.VerdictNo,
			sentence:  "Applied instructions are not necessarily given, e.g., q2.",
		},
		{
			name:      "threshold rounds down",
			items:     []string{"q1", "q2"},
			outcomes:  []bool{false, true},
			tolerance: 0.9,
			want:      validator.VerdictNo,
			sentence:  "Applied instructions are not necessarily given, e.g., q1.",
		},
		{
			name:     "all missed",
			items:    []string{"Push hard and fast."},
			outcomes: []bool{false},
			want:     validator.VerdictNo,
			sentence: "Applied instructions are not necessarily given, e.g., Push hard and fast.",
		},
		{
			name:     "cited item loses trailing periods",
			items:    []string{"Stay on the line... ", "q2"},
			outcomes: []bool{false, true},
			want:     validator.VerdictNo,
			sentence: "Applied instructions are not necessarily given, e.g., Stay on the line.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, sentence, err := Aggregate(tt.items, tt.outcomes, tt.tolerance)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.sentence, sentence)
		})
	}
}

func TestAggregate_LengthMismatch(t *testing.T) {
	_, _, err := Aggregate([]string{"q1", "q2"}, []bool{true}, 0)
	require.Error(t, err)

	var ae *AggregationError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Reason, "2 items but 1 outcomes")

	err = withSection(err, SectionQuestions)
	assert.Equal(t, SectionQuestions, ae.Section)
	assert.Contains(t, err.Error(), SectionQuestions)
}

func TestJoinExplanation(t *testing.T) {
	assert.Equal(t, "", joinExplanation())
	assert.Equal(t, "a", joinExplanation("", " a "))
	assert.Equal(t, "Patient is not breathing. Applied instructions are necessarily given.",
		joinExplanation("Patient is not breathing.", "", "Applied instructions are necessarily given."))
}
