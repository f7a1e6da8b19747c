// Package dataset holds the record shapes shared by the ingestion,
// resolution and quality-gate layers of the pipeline.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RawRecord is one posting exactly as received from a source. Field names
// are source-native; canonical naming happens later in the schema resolver.
type RawRecord struct {
	Source     string            `json:"source"`
	IngestedAt time.Time         `json:"ingested_at"`
	Fields     map[string]string `json:"fields"`
}

// ResolvedRecord is a RawRecord after alias resolution into canonical field
// names. Still one record per raw row; deduplication happens downstream.
type ResolvedRecord struct {
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	LocationText string    `json:"location_text"`
	Description  string    `json:"description"`
	SkillsRaw    string    `json:"skills_raw"`
	SalaryMin    string    `json:"salary_min"`
	SalaryMax    string    `json:"salary_max"`
	PublishedAt  string    `json:"published_at"`
	Source       string    `json:"source"`
	SourceURL    string    `json:"source_url"`
	IngestedAt   time.Time `json:"ingested_at"`
}

// PopulatedFields returns the number of non-empty canonical fields. Used by
// the dedup retention rule: among exact duplicates the richest record wins.
func (r *ResolvedRecord) PopulatedFields() int {
	n := 0
	for _, v := range []string{
		r.Title, r.Company, r.LocationText, r.Description,
		r.SkillsRaw, r.SalaryMin, r.SalaryMax, r.PublishedAt,
		r.Source, r.SourceURL,
	} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// Dataset is a tabular view over a batch of records, consumed by the
// quality gate. Columns are the union of field names seen in the batch.
type Dataset struct {
	Name    string
	Columns []string
	Rows    []map[string]string
}

// FromRaw builds a tabular dataset from raw records.
func FromRaw(name string, records []RawRecord) *Dataset {
	rows := make([]map[string]string, 0, len(records))
	seen := map[string]bool{}
	for _, rec := range records {
		row := make(map[string]string, len(rec.Fields)+1)
		for k, v := range rec.Fields {
			row[k] = v
			seen[k] = true
		}
		row["source"] = rec.Source
		seen["source"] = true
		rows = append(rows, row)
	}
	return &Dataset{Name: name, Columns: sortedKeys(seen), Rows: rows}
}

// FromResolved builds a tabular dataset from resolved records.
func FromResolved(name string, records []ResolvedRecord) *Dataset {
	columns := []string{
		"title", "company", "location_text", "description", "skills_raw",
		"salary_min", "salary_max", "published_at", "source", "source_url",
	}
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, map[string]string{
			"title":         r.Title,
			"company":       r.Company,
			"location_text": r.LocationText,
			"description":   r.Description,
			"skills_raw":    r.SkillsRaw,
			"salary_min":    r.SalaryMin,
			"salary_max":    r.SalaryMax,
			"published_at":  r.PublishedAt,
			"source":        r.Source,
			"source_url":    r.SourceURL,
		})
	}
	return &Dataset{Name: name, Columns: columns, Rows: rows}
}

// HasColumn reports whether the dataset carries the column, case-insensitively.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// NullRatio returns the fraction of rows with an empty value for the column.
// An absent column counts as fully null. Empty datasets report zero.
func (d *Dataset) NullRatio(column string) float64 {
	if len(d.Rows) == 0 {
		return 0
	}
	if !d.HasColumn(column) {
		return 1
	}
	nulls := 0
	for _, row := range d.Rows {
		if strings.TrimSpace(valueFold(row, column)) == "" {
			nulls++
		}
	}
	return float64(nulls) / float64(len(d.Rows))
}

func valueFold(row map[string]string, column string) string {
	if v, ok := row[column]; ok {
		return v
	}
	for k, v := range row {
		if strings.EqualFold(k, column) {
			return v
		}
	}
	return ""
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteJSON persists any record set to path, creating parent directories.
// Intermediate run-local files are plain indented JSON.
func WriteJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads a record set previously written with WriteJSON.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
