// Package catalog loads guidecard and protocol-branch catalogs and selects
// the items whose gating conditions hold.
//
// Layout under the catalog root:
//
//	guidecards/<incident_type>/conditions.json
//	guidecards/<incident_type>/questions.json
//	guidecards/<incident_type>/instructions.json
//	protocols/<CODE>/conditions.json
//	protocols/<CODE>/instructions.json
//
// conditions.json is an array of {"id": 3, "condition": "Patient is not breathing"}.
// Question and instruction files are arrays of items:
//
//	{"c": "AND(1, NOT(3))", "q": "Is the patient pregnant?"}
//	{"c": "", "i": "Do not give the patient anything to eat or drink."}
//
// The long keys "condition", "question" and "instruction" are accepted too.
// Catalogs are immutable once loaded and safe to share between evaluations.
package catalog
