// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pagemill/pkg/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordRun_RoundTrip(t *testing.T) {
	s := openStore(t)

	result := types.BatchResult{
		Converted: 1,
		Failed:    1,
		Documents: []types.DocumentResult{
			{
				Source:   "in/a.pdf",
				Output:   "out/a.md",
				Status:   types.DocumentConverted,
				Pages:    3,
				Images:   2,
				Duration: 1500 * time.Millisecond,
			},
			{
				Source: "in/b.pdf",
				Status: types.DocumentFailed,
				Err:    errors.New("corrupt xref"),
			},
		},
	}

	runID, err := s.RecordRun(time.Now().Add(-time.Minute), result)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runs, err := s.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, 2, runs[0].Documents)
	assert.Equal(t, 1, runs[0].Failed)

	docs, err := s.DocumentsForRun(runID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "in/a.pdf", docs[0].Source)
	assert.Equal(t, types.DocumentConverted, docs[0].Status)
	assert.Equal(t, 3, docs[0].Pages)
	assert.Equal(t, 1500*time.Millisecond, docs[0].Duration)
	assert.Equal(t, types.DocumentFailed, docs[1].Status)
}

func TestOpen_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(dir)
	require.NoError(t, err)
	_, err = s1.RecordRun(time.Now(), types.BatchResult{})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Reopening against an existing schema must not fail, and data
	// persists across connections.
	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	runs, err := s2.Runs(0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestDocumentsForRun_UnknownRun(t *testing.T) {
	s := openStore(t)
	docs, err := s.DocumentsForRun("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, docs)
}
