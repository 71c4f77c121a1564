package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/validator"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInputPaths(t *testing.T) {
	conv, task, err := inputPaths(runOptions{example: true}, "/srv/catalogs")
	require.NoError(t, err)
	assert.Equal(t, "/srv/catalogs/examples/sample_conversation.txt", conv)
	assert.Equal(t, "/srv/catalogs/examples/sample_task.json", task)

	conv, task, err = inputPaths(runOptions{conversation: "a.txt", task: "b.json"}, ".")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", conv)
	assert.Equal(t, "b.json", task)

	_, _, err = inputPaths(runOptions{conversation: "a.txt"}, ".")
	assert.ErrorContains(t, err, "--task")
}

func TestLoadRequest(t *testing.T) {
	dir := t.TempDir()
	conv := writeFile(t, dir, "call.txt", "Call-taker: 911, what is the address of the emergency?\nCaller: 12 Elm St\n")

	t.Run("valid", func(t *testing.T) {
		task := writeFile(t, dir, "task.json", `{"incident_spec": {"incident_type": "cardiac_arrest", "units": 2}}`)
		req, err := loadRequest(conv, task)
		require.NoError(t, err)
		assert.Equal(t, "cardiac_arrest", req.Incident.IncidentType)
		assert.Contains(t, string(req.Transcript), "12 Elm St")
	})

	t.Run("missing incident spec", func(t *testing.T) {
		task := writeFile(t, dir, "nospec.json", `{"priority": 1}`)
		_, err := loadRequest(conv, task)
		assert.ErrorIs(t, err, debrief.ErrInvalidRequest)
		assert.ErrorContains(t, err, "incident_spec")
	})

	t.Run("missing incident type", func(t *testing.T) {
		task := writeFile(t, dir, "notype.json", `{"incident_spec": {}}`)
		_, err := loadRequest(conv, task)
		assert.ErrorIs(t, err, debrief.ErrInvalidRequest)
	})

	t.Run("empty transcript", func(t *testing.T) {
		empty := writeFile(t, dir, "empty.txt", "  \n")
		task := writeFile(t, dir, "task2.json", `{"incident_spec": {"incident_type": "fall"}}`)
		_, err := loadRequest(empty, task)
		assert.ErrorIs(t, err, debrief.ErrInvalidRequest)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadRequest(filepath.Join(dir, "nope.txt"), filepath.Join(dir, "task.json"))
		assert.ErrorContains(t, err, "failed to read conversation")
	})
}

func sampleReport() *debrief.Report {
	r := &debrief.Report{
		SessionID:           "sess-1",
		IncidentType:        "cardiac_arrest",
		Sections:            make(map[string]debrief.Section),
		AppliedQuestions:    []string{"Is the patient awake?"},
		NotAppliedQuestions: []string{"Is the patient breathing?"},
		AppliedProtocols:    []string{"CPR"},
	}
	for _, key := range debrief.SectionKeys {
		r.Sections[key] = debrief.Section{Result: validator.VerdictYes, Explanation: "ok"}
	}
	r.Sections[debrief.SectionQuestions] = debrief.Section{
		Result:      validator.VerdictNo,
		Explanation: "Applied instructions are not necessarily given, e.g., Is the patient breathing?.",
	}
	return r
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeReport(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, []byte("\n")))

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.JSONEq(t, `["CPR"]`, string(doc["applied_protocols"]))
	assert.JSONEq(t, `[]`, string(doc["not_applied_prearrivals"]))

	var questions map[string]string
	require.NoError(t, json.Unmarshal(doc[debrief.SectionQuestions], &questions))
	assert.Equal(t, "NO", questions["result"])
}

func TestRenderSummary(t *testing.T) {
	out := renderSummary(sampleReport(), "out.json")
	for _, key := range debrief.SectionKeys {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, "NO")
	assert.Contains(t, out, "questions 1/2 given")
	assert.Contains(t, out, "critical protocol CPR")
}

func TestCheckConfig(t *testing.T) {
	t.Setenv("DEBRIEF_VALIDATOR_API_KEY", "sk-test-key-123456")

	t.Run("valid catalog root", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "guidecards"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "protocols"), 0o755))
		t.Setenv("DEBRIEF_CATALOG_ROOT", root)

		assert.NoError(t, checkConfig(""))
	})

	t.Run("reports every problem", func(t *testing.T) {
		root := t.TempDir()
		t.Setenv("DEBRIEF_CATALOG_ROOT", root)
		t.Setenv("DEBRIEF_EVALUATION_TOLERANCE", "1.5")

		err := checkConfig("")
		require.Error(t, err)
		assert.ErrorContains(t, err, "tolerance")
		assert.ErrorContains(t, err, "missing guidecards/")
		assert.ErrorContains(t, err, "missing protocols/")
	})
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "check-config", "serve", "mcp"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "out.json", run.Flags().Lookup("output").DefValue)
	assert.Equal(t, "c", run.Flags().Lookup("conversation").Shorthand)
	assert.Equal(t, "t", run.Flags().Lookup("task").Shorthand)
}
