// internal/reporting/reporter_test.go
package reporting_test

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/zyclicker/internal/matcher"
	"github.com/xkilldash9x/zyclicker/internal/reporting"
)

func sampleRun(id string) *reporting.Run {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &reporting.Run{
		RunID:      id,
		StartedAt:  started,
		FinishedAt: started.Add(12 * time.Second),
		Settle:     "400ms",
		Behaviors:  []string{"drag_and_drop", "multiple_choice"},
		DragAndDrop: []reporting.Block{{
			ID:          "dnd-0",
			Assignments: map[string]string{"A": "s2", "B": "s1"},
			Probes:      3,
			Replayed:    true,
			Duration:    "2.4s",
		}},
		MultipleChoice: []reporting.Question{{ID: "mc-0", Attempts: 2, Solved: true}},
	}
}

func TestNew_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.sarif")
	r, err := reporting.New("sarif", path)
	assert.Error(t, err)
	assert.Nil(t, r)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file is created for a rejected format")
}

func TestNew_Stdout(t *testing.T) {
	for _, path := range []string{"", "stdout"} {
		r, err := reporting.New("yaml", path)
		require.NoError(t, err)
		assert.NoError(t, r.Close())
	}
}

func TestYAMLReporter_AppendsDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "runs.yaml")

	// Separate sessions append to the same file; the first writes two runs.
	sessions := [][]string{{"run-1", "run-2"}, {"run-3"}}
	for _, ids := range sessions {
		r, err := reporting.New("yaml", path)
		require.NoError(t, err)
		for _, id := range ids {
			require.NoError(t, r.Write(sampleRun(id)))
		}
		require.NoError(t, r.Close())
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "---\n"))
	assert.Equal(t, 3, strings.Count(string(raw), "---\n"), "one separator per run")

	var runs []reporting.Run
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	for {
		var run reporting.Run
		err := dec.Decode(&run)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		runs = append(runs, run)
	}

	require.Len(t, runs, 3)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, "run-2", runs[1].RunID)
	assert.Equal(t, "run-3", runs[2].RunID)
	assert.Equal(t, map[string]string{"A": "s2", "B": "s1"}, runs[2].DragAndDrop[0].Assignments)
	assert.True(t, runs[2].StartedAt.Equal(sampleRun("x").StartedAt))
}

func TestJSONReporter_OneRunPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	r, err := reporting.New("json", path)
	require.NoError(t, err)
	require.NoError(t, r.Write(sampleRun("run-1")))
	require.NoError(t, r.Write(sampleRun("run-2")))
	require.NoError(t, r.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var run reporting.Run
		require.NoError(t, jsoniter.Unmarshal(scanner.Bytes(), &run))
		ids = append(ids, run.RunID)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"run-1", "run-2"}, ids)
}

func TestBlockFromResult(t *testing.T) {
	m := matcher.NewAssignmentMap()
	require.NoError(t, m.Assign(matcher.Source{Label: "A"}, matcher.Slot{ID: "s1"}))

	b := reporting.BlockFromResult(&matcher.Result{
		BlockID:     "dnd-3",
		Assignments: m,
		Unmapped:    []string{"B"},
		Probes:      4,
		Duration:    1234567 * time.Microsecond,
		Err:         errors.New("block dnd-3: reset: boom"),
	})
	assert.Equal(t, "dnd-3", b.ID)
	assert.Equal(t, map[string]string{"A": "s1"}, b.Assignments)
	assert.Equal(t, []string{"B"}, b.Unmapped)
	assert.Equal(t, "1.235s", b.Duration)
	assert.Equal(t, "block dnd-3: reset: boom", b.Error)

	empty := reporting.BlockFromResult(&matcher.Result{BlockID: "dnd-4"})
	assert.NotNil(t, empty.Assignments)
	assert.Empty(t, empty.Assignments)
}

func TestRun_Summarize(t *testing.T) {
	run := sampleRun("run-1")
	run.DragAndDrop = append(run.DragAndDrop, reporting.Block{ID: "dnd-1", Unmapped: []string{"C"}, Replayed: true})
	run.ShortAnswers = []reporting.Question{{ID: "sa-0", Solved: true}, {ID: "sa-1", Error: "missing answer textarea"}}

	s := run.Summarize()
	assert.Equal(t, reporting.Summary{
		Blocks: 2, BlocksSolved: 1,
		Choices: 1, ChoicesSolved: 1,
		Answers: 2, AnswersSubmitted: 1,
	}, s)
}
