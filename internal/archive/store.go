// Package archive keeps fetched issues and their comments on disk so they
// can be re-assessed without going back to Jira.
package archive

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"jira-assess/internal/assess"
	"jira-assess/internal/jira"

	"github.com/rs/zerolog/log"
)

// Record is one archived issue snapshot.
type Record struct {
	Key       string                `json:"key"`
	Issue     jira.IssueDTO         `json:"issue"`
	Comments  jira.CommentsResponse `json:"comments"`
	FetchedAt time.Time             `json:"fetchedAt"`
}

// Input converts the record into a batch assessment input.
func (r Record) Input() assess.Input {
	return assess.Input{
		Key:      r.Key,
		Issue:    assess.IssueFromDTO(&r.Issue),
		Comments: assess.CommentsFromDTO(r.Comments.Comments),
	}
}

// Store provides thread-safe storage of Records, partitioned by source ID
// (a project key or any other caller-chosen grouping).
type Store struct {
	mu      sync.RWMutex
	sources map[string]map[string]Record
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		sources: make(map[string]map[string]Record),
	}
}

// Put adds records to a source, replacing any with the same key.
func (s *Store) Put(sourceID string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	part, ok := s.sources[sourceID]
	if !ok {
		part = make(map[string]Record)
		s.sources[sourceID] = part
	}
	for _, r := range records {
		part[r.Key] = r
	}
}

// Get returns the record for key in a source.
func (s *Store) Get(sourceID, key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.sources[sourceID][key]
	return r, ok
}

// Records returns a copy of a source's records sorted by key.
func (s *Store) Records(sourceID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part := s.sources[sourceID]
	out := make([]Record, 0, len(part))
	for _, r := range part {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Count returns the number of records in a source.
func (s *Store) Count(sourceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources[sourceID])
}

func archivePath(dir, sourceID string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.jsonl", sourceID))
}

// Load reads records from a JSONL archive file for the given source.
func (s *Store) Load(dir string, sourceID string) error {
	file, err := os.Open(archivePath(dir, sourceID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // No archive yet, not an error
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	// Issues with long changelogs exceed the default 64KB line limit.
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil || r.Key == "" {
			log.Warn().Err(err).Str("source", sourceID).Msg("Skipping invalid JSON line in archive")
			continue
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading archive: %w", err)
	}

	log.Info().Str("source", sourceID).Int("count", len(records)).Msg("Loaded issues from archive")
	s.Put(sourceID, records...)
	return nil
}

// Save persists a source to a JSONL archive file, one record per line.
func (s *Store) Save(dir string, sourceID string) error {
	records := s.Records(sourceID)
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	path := archivePath(dir, sourceID)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp archive file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode record %s: %w", r.Key, err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename archive file: %w", err)
	}

	log.Info().Str("source", sourceID).Int("count", len(records)).Msg("Archive saved")
	return nil
}
