package debrief

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/debrief/internal/validator"
)

// ErrInvalidRequest indicates a request rejected before any validator call.
var ErrInvalidRequest = errors.New("invalid request")

// IncidentSpec identifies the incident the call is about.
type IncidentSpec struct {
	IncidentType string `json:"incident_type"`
}

// Task is the task document accompanying a transcript. Unknown fields are
// ignored.
type Task struct {
	IncidentSpec *IncidentSpec `json:"incident_spec"`
}

// ParseTask decodes a task document and checks that it names an incident
// type.
func ParseTask(data []byte) (IncidentSpec, error) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return IncidentSpec{}, fmt.Errorf("%w: task is not valid JSON: %v", ErrInvalidRequest, err)
	}
	if task.IncidentSpec == nil {
		return IncidentSpec{}, fmt.Errorf("%w: task is missing incident_spec", ErrInvalidRequest)
	}
	if err := task.IncidentSpec.Validate(); err != nil {
		return IncidentSpec{}, err
	}
	return *task.IncidentSpec, nil
}

// Validate checks that an incident type is named.
func (s IncidentSpec) Validate() error {
	if strings.TrimSpace(s.IncidentType) == "" {
		return fmt.Errorf("%w: incident_spec is missing incident_type", ErrInvalidRequest)
	}
	return nil
}

// Request is one evaluation input.
type Request struct {
	Transcript validator.Transcript
	Incident   IncidentSpec
}

// Validate checks the request before any work starts.
func (r Request) Validate() error {
	if strings.TrimSpace(string(r.Transcript)) == "" {
		return fmt.Errorf("%w: transcript is empty", ErrInvalidRequest)
	}
	return r.Incident.Validate()
}
