package debrief

import (
	"bytes"
	"encoding/json"

	"github.com/fyrsmithlabs/debrief/internal/validator"
)

// SubFlag is one named verdict inside an identity section.
type SubFlag struct {
	Name  string
	Value validator.Verdict
}

// Section is one checklist entry of the report.
type Section struct {
	Result      validator.Verdict
	Explanation string
	// Flags is set for identity sections only, in display order.
	Flags []SubFlag
}

// MarshalJSON writes the sub-flags first, then result and explanation.
func (s Section) MarshalJSON() ([]byte, error) {
	var w objectWriter
	for _, f := range s.Flags {
		if err := w.field(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	if err := w.field("result", s.Result); err != nil {
		return nil, err
	}
	if err := w.field("explanation", s.Explanation); err != nil {
		return nil, err
	}
	return w.close(), nil
}

// Report is the outcome of one evaluation. It is only produced once every
// section has a result.
type Report struct {
	SessionID    string
	IncidentType string

	Sections map[string]Section

	AppliedQuestions      []string
	NotAppliedQuestions   []string
	AppliedPrearrivals    []string
	NotAppliedPrearrivals []string
	AppliedProtocols      []string
	NotAppliedProtocols   []string
}

// Section returns the section stored under key.
func (r Report) Section(key string) (Section, bool) {
	s, ok := r.Sections[key]
	return s, ok
}

// Verdicts maps each section key to its result.
func (r Report) Verdicts() map[string]validator.Verdict {
	out := make(map[string]validator.Verdict, len(r.Sections))
	for k, s := range r.Sections {
		out[k] = s.Result
	}
	return out
}

// MarshalJSON writes a flat object: every section in canonical order,
// followed by the audit lists. Session metadata is not part of the
// document.
func (r Report) MarshalJSON() ([]byte, error) {
	var w objectWriter
	for _, key := range SectionKeys {
		s, ok := r.Sections[key]
		if !ok {
			continue
		}
		if err := w.field(key, s); err != nil {
			return nil, err
		}
	}

	lists := []struct {
		key   string
		items []string
	}{
		{"applied_questions", r.AppliedQuestions},
		{"not_applied_questions", r.NotAppliedQuestions},
		{"applied_prearrivals", r.AppliedPrearrivals},
		{"not_applied_prearrivals", r.NotAppliedPrearrivals},
		{"applied_protocols", r.AppliedProtocols},
		{"not_applied_protocols", r.NotAppliedProtocols},
	}
	for _, l := range lists {
		items := l.items
		if items == nil {
			items = []string{}
		}
		if err := w.field(l.key, items); err != nil {
			return nil, err
		}
	}
	return w.close(), nil
}

// objectWriter builds a JSON object with keys in insertion order.
type objectWriter struct {
	buf bytes.Buffer
	n   int
}

func (w *objectWriter) field(key string, v interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if w.n == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(val)
	w.n++
	return nil
}

func (w *objectWriter) close() []byte {
	if w.n == 0 {
		return []byte("{}")
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes()
}
