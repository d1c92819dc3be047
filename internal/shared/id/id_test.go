package id

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunIDFormat(t *testing.T) {
	runID := NewRunID()

	assert.True(t, strings.HasPrefix(runID.String(), "run_"))
	assert.Len(t, runID.String(), len("run_")+26)
}

func TestRunIDTime(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	g := NewGenerator(bytes.NewReader(make([]byte, 64)), func() time.Time { return at })

	got, err := g.RunID().Time()
	require.NoError(t, err)
	assert.True(t, at.Equal(got), "got %s", got)
}

func TestRunIDsSortByTime(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewGenerator(bytes.NewReader(make([]byte, 256)), func() time.Time { return clock })

	first := g.RunID()
	clock = clock.Add(time.Millisecond)
	second := g.RunID()

	assert.Less(t, first.String(), second.String())
}

func TestRunIDTimeRejectsForeignIDs(t *testing.T) {
	tests := []RunID{
		"",
		"01ARZ3NDEKTSV4RRFFQ69G5FAV",
		"req_01ARZ3NDEKTSV4RRFFQ69G5FAV",
		"run_not-a-ulid",
	}

	for _, runID := range tests {
		_, err := runID.Time()
		assert.Error(t, err, string(runID))
	}
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
