package debrief

import (
	"fmt"
	"math"
	"strings"

	"github.com/fyrsmithlabs/debrief/internal/validator"
)

const (
	sentenceGiven    = "Applied instructions are necessarily given."
	sentenceNotGiven = "Applied instructions are not necessarily given, e.g., %s."
	noCriticalFlags  = "No critical flags detected."
)

// AggregationError reports a section that could not be assembled.
type AggregationError struct {
	Section string
	Reason  string
}

func (e *AggregationError) Error() string {
	if e.Section == "" {
		return "aggregation failed: " + e.Reason
	}
	return fmt.Sprintf("aggregation failed for %q: %s", e.Section, e.Reason)
}

// Aggregate folds per-item outcomes into a section verdict. outcomes[i]
// is the judgment for items[i].
//
// With n outcomes and threshold floor(tolerance*n): no outcomes gives N/A,
// no negatives gives YES, fewer negatives than the threshold gives YES,
// anything else gives NO and cites the first negative item. The returned
// sentence is meant to be appended to the section's explanation.
func Aggregate(items []string, outcomes []bool, tolerance float64) (validator.Verdict, string, error) {
	if len(items) != len(outcomes) {
		return "", "", &AggregationError{
			Reason: fmt.Sprintf("%d items but %d outcomes", len(items), len(outcomes)),
		}
	}
	if len(outcomes) == 0 {
		return validator.VerdictNA, "", nil
	}

	threshold := int(math.Floor(tolerance * float64(len(outcomes))))
	falseCount, firstFalse := 0, -1
	for i, ok := range outcomes {
		if ok {
			continue
		}
		if firstFalse < 0 {
			firstFalse = i
		}
		falseCount++
	}

	if falseCount == 0 || falseCount < threshold {
		return validator.VerdictYes, sentenceGiven, nil
	}
	cited := strings.TrimRight(strings.TrimSpace(items[firstFalse]), ".")
	return validator.VerdictNo, fmt.Sprintf(sentenceNotGiven, cited), nil
}

// joinExplanation appends the non-empty parts with single spaces.
func joinExplanation(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
