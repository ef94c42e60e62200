// Package dedup remembers which projects were already processed so a
// restart does not bid twice.
package dedup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Retention is how long a processed project is remembered
const Retention = 30 * 24 * time.Hour

type seenEntry struct {
	ProjectID int64 `json:"project_id"`
	Timestamp int64 `json:"timestamp"`
}

// SeenProjects is a file-backed set of processed project IDs
type SeenProjects struct {
	mu       sync.Mutex
	filePath string
	seen     map[int64]int64

	now func() time.Time
}

// NewSeenProjects loads seen_projects.json from dir. An empty dir keeps the
// set in memory only.
func NewSeenProjects(dir string) *SeenProjects {
	s := &SeenProjects{
		seen: make(map[int64]int64),
		now:  time.Now,
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Msg("⚠️ Failed to create cache directory")
		}
		s.filePath = filepath.Join(dir, "seen_projects.json")
		s.load()
	}
	return s
}

// Contains reports whether a project was processed within the retention window
func (s *SeenProjects) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

// Add marks projects as processed and saves when anything changed
func (s *SeenProjects) Add(ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixMilli()
	changed := false
	for _, id := range ids {
		if _, ok := s.seen[id]; !ok {
			s.seen[id] = now
			changed = true
		}
	}
	if changed {
		s.save()
	}
}

// Len returns the number of remembered projects
func (s *SeenProjects) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Recent returns up to n project IDs, newest first
func (s *SeenProjects) Recent(n int) []int64 {
	s.mu.Lock()
	entries := s.entries()
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp > entries[j].Timestamp
		}
		return entries[i].ProjectID > entries[j].ProjectID
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}

	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ProjectID
	}
	return ids
}

func (s *SeenProjects) entries() []seenEntry {
	entries := make([]seenEntry, 0, len(s.seen))
	for id, ts := range s.seen {
		entries = append(entries, seenEntry{ProjectID: id, Timestamp: ts})
	}
	return entries
}

func (s *SeenProjects) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("⚠️ Failed to read seen_projects.json")
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to parse seen_projects.json")
		return
	}

	cutoff := s.now().Add(-Retention).UnixMilli()
	loaded := 0
	for _, e := range entries {
		if e.Timestamp > cutoff {
			s.seen[e.ProjectID] = e.Timestamp
			loaded++
		}
	}
	log.Info().Int("loaded", loaded).Int("expired", len(entries)-loaded).Msg("📋 Loaded seen projects")
}

func (s *SeenProjects) save() {
	if s.filePath == "" {
		return
	}
	data, err := json.MarshalIndent(s.entries(), "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to marshal seen projects")
		return
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to write seen_projects.json")
		return
	}
	log.Debug().Int("count", len(s.seen)).Msg("💾 Saved seen projects")
}
