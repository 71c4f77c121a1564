package validator

import (
	"context"

	"github.com/fyrsmithlabs/debrief/internal/condition"
)

// Category names a judgment kind. Each has its own prompt and response shape.
type Category string

const (
	CategoryAddress   Category = "address"
	CategoryPhone     Category = "phone"
	CategoryName      Category = "name"
	CategoryGeneral   Category = "general"
	CategoryFlags     Category = "flags"
	CategoryCondition Category = "condition"
	CategoryCheck     Category = "check"
)

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryAddress, CategoryPhone, CategoryName,
	CategoryGeneral, CategoryFlags, CategoryCondition, CategoryCheck,
}

// Transcript is the full text of one call. It is read-only for the
// lifetime of an evaluation.
type Transcript string

// Verdict is a checklist outcome.
type Verdict string

const (
	VerdictYes Verdict = "YES"
	VerdictNo  Verdict = "NO"
	VerdictNA  Verdict = "N/A"
)

// Judgment is the outcome of a single yes/no check.
type Judgment struct {
	Result      Verdict
	Explanation string
}

// Passed reports whether the check was judged satisfied.
func (j Judgment) Passed() bool {
	return j.Result == VerdictYes
}

// AddressResult is the address identity judgment.
type AddressResult struct {
	AskedFirst    Verdict
	DoubleChecked Verdict
	Obtained      Verdict
	CheckedAtEnd  Verdict
	Overall       Verdict
	Explanation   string
}

// PhoneResult is the caller phone identity judgment.
type PhoneResult struct {
	Asked       Verdict
	FollowUp    Verdict
	Obtained    Verdict
	Overall     Verdict
	Explanation string
}

// NameResult is the caller full name identity judgment.
type NameResult struct {
	Asked       Verdict
	FollowUp    Verdict
	Obtained    Verdict
	Overall     Verdict
	Explanation string
}

// FlagsResult lists protocol flags in the order the validator reported them.
// The first flag selects the time/life-critical branch.
type FlagsResult struct {
	Flags       []string
	Explanation string
}

// ConditionsResult is the set of catalog conditions judged to hold.
type ConditionsResult struct {
	Applied     condition.Set
	Explanation string
}

// Validator judges a transcript. Implementations must be safe for
// concurrent use; the orchestrator calls every method in parallel.
type Validator interface {
	Address(ctx context.Context, t Transcript) (*AddressResult, error)
	Phone(ctx context.Context, t Transcript) (*PhoneResult, error)
	Name(ctx context.Context, t Transcript) (*NameResult, error)
	// General judges one of the fixed checklist questions.
	General(ctx context.Context, t Transcript, check string) (*Judgment, error)
	Flags(ctx context.Context, t Transcript) (*FlagsResult, error)
	// Conditions decides which of defs hold for the call.
	Conditions(ctx context.Context, t Transcript, defs []condition.Definition) (*ConditionsResult, error)
	// Check judges whether one catalog question or instruction was delivered.
	Check(ctx context.Context, t Transcript, item string) (*Judgment, error)
}
