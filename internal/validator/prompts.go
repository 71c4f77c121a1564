package validator

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Prompts holds the system prompt for each category.
type Prompts map[Category]string

// DefaultPrompts returns the built-in prompts.
func DefaultPrompts() Prompts {
	return Prompts{
		CategoryAddress: `You review emergency call transcripts between a call-taker and a caller.
Judge how the call-taker handled the incident address. Respond with a single JSON object:
{"ask-first": bool, "address-confirmation": bool, "obtained-address": bool,
 "double-checking-end": bool, "overall-eval": "YES"|"NO", "explanations": string}
ask-first: the address was the first thing asked. address-confirmation: the call-taker
repeated or confirmed the address. obtained-address: a usable address was obtained.
double-checking-end: the address was verified again before the call ended.`,

		CategoryPhone: `You review emergency call transcripts between a call-taker and a caller.
Judge how the call-taker handled the caller's phone number. Respond with a single JSON object:
{"ask-phone-number": bool, "phone-follow-up": bool, "obtained-phone": bool,
 "overall-eval": "YES"|"NO", "explanations": string}`,

		CategoryName: `You review emergency call transcripts between a call-taker and a caller.
Judge how the call-taker handled the caller's full name. Respond with a single JSON object:
{"ask-full-name": bool, "name-follow-up": bool, "obtained-name": bool,
 "overall-eval": "YES"|"NO", "explanations": string}`,

		CategoryGeneral: `You review emergency call transcripts between a call-taker and a caller.
You are given a checklist statement and the conversation. Decide whether the call-taker
satisfied the statement. Respond with a single JSON object:
{"result": "YES"|"NO"|"N/A", "explanations": string}
Use N/A only when the statement is conditional and its condition does not hold.`,

		CategoryFlags: `You review emergency call transcripts between a call-taker and a caller.
Identify the time/life-critical protocols the situation required, most urgent first, using
these codes: AC (airway/choking), AED (defibrillator), BTA (breathing/airway), CB (childbirth),
CPR (cardiopulmonary resuscitation), OA (other acute). Respond with a single JSON object:
{"flags": [string], "explanations": string}
Return an empty list when no time/life-critical protocol applied.`,

		CategoryCondition: `You review emergency call transcripts between a call-taker and a caller.
You are given a list of numbered assertions about the incident. Decide which assertions hold
according to the conversation. Respond with a single JSON object:
{"result": [ids of the assertions that hold], "explanations": string}`,

		CategoryCheck: `You review emergency call transcripts between a call-taker and a caller.
You are given one guidecard question or instruction. Decide whether the call-taker asked the
question or gave the instruction, in substance if not in exact words. Respond with a single
JSON object: {"result": "YES"|"NO", "explanations": string}`,
	}
}

// System returns the prompt for cat.
func (p Prompts) System(cat Category) string {
	return p[cat]
}

type promptFile map[string]struct {
	System string `toml:"system"`
}

// LoadPrompts returns the defaults overridden by the TOML file at path:
//
//	[check]
//	system = """
//	...
//	"""
//
// Unknown categories are rejected.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	var file promptFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("prompts file %s: unknown keys %v", path, undecoded)
	}

	for name, entry := range file {
		cat := Category(name)
		if _, ok := prompts[cat]; !ok {
			return nil, fmt.Errorf("prompts file %s: unknown category %q", path, name)
		}
		if s := strings.TrimSpace(entry.System); s != "" {
			prompts[cat] = s
		}
	}
	return prompts, nil
}
