// Package lastquery persists the matches of the most recent query so they
// can be referred to by number in follow-up commands.
package lastquery

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aidanlsb/outsearch/internal/atomicfile"
	"github.com/aidanlsb/outsearch/internal/outline"
)

// FileName is the name of the file written by Write.
const FileName = "last-query.json"

// LastQuery is the saved result of one query.
type LastQuery struct {
	Query     string    `json:"query"`
	Outline   string    `json:"outline"`
	Scope     string    `json:"scope,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Results   []Entry   `json:"results"`
}

// Entry is one numbered match.
type Entry struct {
	Num    int            `json:"num"` // 1-indexed, as displayed
	EdgeID outline.EdgeID `json:"edge_id"`
	Text   string         `json:"text"`
	Path   string         `json:"path"`
}

var (
	ErrNoLastQuery      = errors.New("no last query available")
	ErrInvalidNumber    = errors.New("invalid result number")
	ErrNumberOutOfRange = errors.New("result number out of range")
)

// Path returns the location of the saved query inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Write saves lq into dir, creating dir if needed.
func Write(dir string, lq *LastQuery) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(lq, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal last query: %w", err)
	}
	if err := atomicfile.WriteFile(Path(dir), data, 0o644); err != nil {
		return fmt.Errorf("failed to write last query: %w", err)
	}
	return nil
}

// Read loads the saved query from dir. It returns ErrNoLastQuery when
// nothing has been saved.
func Read(dir string) (*LastQuery, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoLastQuery
		}
		return nil, fmt.Errorf("failed to read last query: %w", err)
	}

	var lq LastQuery
	if err := json.Unmarshal(data, &lq); err != nil {
		return nil, fmt.Errorf("failed to parse last query: %w", err)
	}
	return &lq, nil
}

// Select returns the entries for the given 1-indexed numbers, in order.
func (lq *LastQuery) Select(nums []int) ([]Entry, error) {
	out := make([]Entry, 0, len(nums))
	for _, n := range nums {
		if n < 1 || n > len(lq.Results) {
			return nil, fmt.Errorf("%w: %d (valid range: 1-%d)", ErrNumberOutOfRange, n, len(lq.Results))
		}
		out = append(out, lq.Results[n-1])
	}
	return out, nil
}
