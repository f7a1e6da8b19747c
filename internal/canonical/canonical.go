// Package canonical deduplicates resolved records and projects them into
// the star schema: one job fact table plus company, location and skill
// dimensions.
package canonical

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// Job is one deduplicated, enriched posting (the fact row).
type Job struct {
	JobID         string    `json:"job_id"`
	Source        string    `json:"source"`
	SourceURL     string    `json:"source_url,omitempty"`
	Title         string    `json:"title"`
	Company       string    `json:"company"`
	CompanyID     int       `json:"company_id"`
	LocationText  string    `json:"location_text"`
	LocationID    int       `json:"location_id"`
	Description   string    `json:"description"`
	Skills        []string  `json:"skills"`
	SkillIDs      []int     `json:"skill_ids"`
	SalaryMin     string    `json:"salary_min,omitempty"`
	SalaryMax     string    `json:"salary_max,omitempty"`
	PublishedAt   string    `json:"published_at,omitempty"`
	IngestedAt    time.Time `json:"ingested_at"`
	DuplicateFlag bool      `json:"duplicate_flag,omitempty"`
}

// Dimension is one deduplicated dimension entry. Key is the natural key
// (normalized form); Label keeps the first-seen display form.
type Dimension struct {
	ID    int    `json:"id"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Tables is the full star-schema output of one canonicalization run.
type Tables struct {
	Jobs      []*Job      `json:"jobs"`
	Companies []Dimension `json:"companies"`
	Locations []Dimension `json:"locations"`
	Skills    []Dimension `json:"skills"`
}

// dedupKey is the composite identity for exact-duplicate detection.
type dedupKey struct {
	Title    string
	Company  string
	Location string
	Date     string
}

// nearKey groups candidates for near-duplicate flagging: same normalized
// title and company but possibly different location or date.
type nearKey struct {
	Title   string
	Company string
}

// jobID derives the synthetic fact id. The same posting hashes to the same
// id on every run, which also makes it usable as a deterministic ranking
// tiebreak.
func jobID(source, sourceURL, title, company, location string) string {
	base := strings.Join([]string{source, sourceURL, title, company, location}, "|")
	sum := sha1.Sum([]byte(base))
	return hex.EncodeToString(sum[:])
}

// dimensionIndex assigns surrogate ids by first appearance of the natural key.
type dimensionIndex struct {
	byKey   map[string]int
	entries []Dimension
}

func newDimensionIndex() *dimensionIndex {
	return &dimensionIndex{byKey: map[string]int{}}
}

// upsert returns the id for the natural key, creating the entry on first
// occurrence. Ids start at 1 and follow appearance order within a run.
func (d *dimensionIndex) upsert(key, label string) int {
	if id, ok := d.byKey[key]; ok {
		return id
	}
	id := len(d.entries) + 1
	d.byKey[key] = id
	d.entries = append(d.entries, Dimension{ID: id, Key: key, Label: label})
	return id
}
