package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "/data/records.jsonl",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "/a/much/longer/path/to/a/knowledge/export/that/should/still/hash/consistently.jsonl",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("a.jsonl")
	id2 := IDFromContent("b.jsonl")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestRunStatus_String(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "processing", StatusProcessing.String())
	assert.Equal(t, "done", StatusDone.String())
	assert.Equal(t, "error", StatusFailed.String())
	assert.Equal(t, "RunStatus(9)", RunStatus(9).String())
}

func TestRunStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusDone.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestParseRunStatus(t *testing.T) {
	for _, s := range []RunStatus{StatusPending, StatusProcessing, StatusDone, StatusFailed} {
		parsed, err := ParseRunStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	parsed, err := ParseRunStatus(" Failed ")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, parsed)

	_, err = ParseRunStatus("exploded")
	assert.ErrorIs(t, err, ErrInvalidRunStatus)
}

func TestRunStatus_JSON(t *testing.T) {
	data, err := json.Marshal(Snapshot{Status: StatusFailed, Error: "boom"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"error"`)

	var s Snapshot
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "boom", s.Error)

	_, err = json.Marshal(Snapshot{Status: RunStatus(42)})
	assert.Error(t, err)
}

func TestRunReport_Apply(t *testing.T) {
	report := NewRunReport("run-1", "in.jsonl", "out.jsonl")
	assert.Equal(t, StatusPending, report.Status)
	assert.Equal(t, IDFromContent("in.jsonl"), report.Id)

	report.Apply(Snapshot{
		Status:        StatusDone,
		Progress:      100,
		Processed:     3,
		Skipped:       2,
		Errors:        1,
		TotalBytes:    100,
		ConsumedBytes: 100,
	})

	assert.Equal(t, StatusDone, report.Status)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, int64(100), report.ConsumedBytes)
	assert.Empty(t, report.Error)
}
