// Package debrief evaluates an emergency call transcript against the
// dispatch checklist and produces a Report.
//
// An Orchestrator runs one session per Evaluate call. Identity checks,
// the generic checks, the time/life-critical branch and the guidecard
// branch run concurrently. The branch and guidecard paths resolve which
// catalog conditions hold, select the applicable questions and
// instructions, judge each one on a shared bounded Executor, and
// aggregate the outcomes into a section verdict with Aggregate.
//
// A failure of any coarse call aborts the evaluation and no report is
// produced. A failure of a single item check is logged and counted as a
// negative outcome.
package debrief
