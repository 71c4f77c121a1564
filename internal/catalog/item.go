package catalog

import (
	"encoding/json"
	"strings"

	"github.com/fyrsmithlabs/debrief/internal/condition"
)

// Item is one question or instruction, optionally gated by a condition
// expression. Exactly one of Question and Instruction is set for a usable
// item; items with neither are skipped.
type Item struct {
	Condition   string
	Question    string
	Instruction string

	expr condition.Expr
}

// NewQuestion returns a question item gated by cond.
func NewQuestion(cond, question string) Item {
	return Item{Condition: cond, Question: question}
}

// NewInstruction returns an instruction item gated by cond.
func NewInstruction(cond, instruction string) Item {
	return Item{Condition: cond, Instruction: instruction}
}

// Text returns the item's payload, the instruction if set, else the question.
func (it Item) Text() string {
	if it.Instruction != "" {
		return it.Instruction
	}
	return it.Question
}

// Unconditional reports whether the item applies regardless of conditions.
func (it Item) Unconditional() bool {
	return strings.TrimSpace(it.Condition) == ""
}

// compile parses the condition once so selection does not re-parse.
func (it *Item) compile() error {
	if it.Unconditional() {
		return nil
	}
	e, err := condition.Parse(it.Condition)
	if err != nil {
		return err
	}
	it.expr = e
	return nil
}

// Applies reports whether the item is included for applied.
func (it Item) Applies(applied condition.Set) (bool, error) {
	if it.Unconditional() {
		return true, nil
	}
	if it.expr != nil {
		return it.expr.Eval(applied), nil
	}
	return condition.Evaluate(it.Condition, applied)
}

type itemJSON struct {
	C           *string `json:"c"`
	Q           *string `json:"q"`
	I           *string `json:"i"`
	Condition   *string `json:"condition"`
	Question    *string `json:"question"`
	Instruction *string `json:"instruction"`
}

func pick(short, long *string) string {
	if short != nil {
		return *short
	}
	if long != nil {
		return *long
	}
	return ""
}

// UnmarshalJSON accepts both the short (c, q, i) and long key forms.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*it = Item{
		Condition:   pick(raw.C, raw.Condition),
		Question:    strings.TrimSpace(pick(raw.Q, raw.Question)),
		Instruction: strings.TrimSpace(pick(raw.I, raw.Instruction)),
	}
	return nil
}

// MarshalJSON writes the short key form.
func (it Item) MarshalJSON() ([]byte, error) {
	out := map[string]string{"c": it.Condition}
	if it.Question != "" {
		out["q"] = it.Question
	}
	if it.Instruction != "" {
		out["i"] = it.Instruction
	}
	return json.Marshal(out)
}

// Catalog is an ordered list of items. Order is authoring order and is
// preserved by selection.
type Catalog []Item

// SelectApplicable returns the payload text of every item whose condition
// holds for applied, in catalog order. Items without a payload are skipped.
// A malformed condition returns a *condition.ParseError.
func SelectApplicable(applied condition.Set, c Catalog) ([]string, error) {
	out := make([]string, 0, len(c))
	for _, it := range c {
		text := it.Text()
		if text == "" {
			continue
		}
		ok, err := it.Applies(applied)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, text)
		}
	}
	return out, nil
}
