package dedup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeenProjects_AddAndReload(t *testing.T) {
	dir := t.TempDir()

	s := NewSeenProjects(dir)
	assert.False(t, s.Contains(10))
	s.Add(10, 11, 10)
	assert.True(t, s.Contains(10))
	assert.Equal(t, 2, s.Len())

	reloaded := NewSeenProjects(dir)
	assert.True(t, reloaded.Contains(11))
	assert.Equal(t, 2, reloaded.Len())
}

func TestSeenProjects_ExpiredEntriesDropped(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-31 * 24 * time.Hour).UnixMilli()
	fresh := time.Now().Add(-time.Hour).UnixMilli()

	data, err := json.Marshal([]seenEntry{{ProjectID: 1, Timestamp: old}, {ProjectID: 2, Timestamp: fresh}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seen_projects.json"), data, 0644))

	s := NewSeenProjects(dir)
	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(2))
}

func TestSeenProjects_Recent(t *testing.T) {
	s := NewSeenProjects("")
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	for id := int64(1); id <= 5; id++ {
		s.Add(id)
		clock = clock.Add(time.Second)
	}

	assert.Equal(t, []int64{5, 4, 3}, s.Recent(3))
	assert.Len(t, s.Recent(0), 5)
}

func TestSeenProjects_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seen_projects.json"), []byte("oops"), 0644))

	s := NewSeenProjects(dir)
	assert.Zero(t, s.Len())
}
