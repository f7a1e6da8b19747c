// Package schema maps arbitrary source column names onto the canonical
// field set via an explicit alias table. Resolution is a pure transform:
// it never mutates input and fails loudly when a required field has no
// matching source column.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jobscope/jobscope/internal/dataset"
)

// Canonical field names produced by resolution.
const (
	FieldTitle       = "title"
	FieldCompany     = "company"
	FieldLocation    = "location_text"
	FieldDescription = "description"
	FieldSkillsRaw   = "skills_raw"
	FieldSalaryMin   = "salary_min"
	FieldSalaryMax   = "salary_max"
	FieldPublishedAt = "published_at"
	FieldSourceURL   = "source_url"
)

// UnresolvedFieldError reports a required canonical field with no matching
// column among one source's records.
type UnresolvedFieldError struct {
	Source  string
	Field   string
	Aliases []string
	Columns []string
}

func (e *UnresolvedFieldError) Error() string {
	return fmt.Sprintf("source %q: no column resolves required field %q (aliases tried: %s; columns seen: %s)",
		e.Source, e.Field, strings.Join(e.Aliases, ", "), strings.Join(e.Columns, ", "))
}

// Resolver holds the alias table and the set of required canonical fields.
type Resolver struct {
	aliases  map[string][]string
	required map[string]bool
}

// NewResolver builds a resolver. The alias table maps a canonical field to
// the accepted source column names in first-match-wins order.
func NewResolver(aliases map[string][]string, required []string) *Resolver {
	req := make(map[string]bool, len(required))
	for _, f := range required {
		req[f] = true
	}
	return &Resolver{aliases: aliases, required: req}
}

// Resolve projects a batch of raw records into resolved records. The column
// mapping is computed per source, case-insensitively, in the alias table's
// declared order: a batch mixing sources with different native headers
// resolves each source's records against that source's own columns.
func (r *Resolver) Resolve(records []dataset.RawRecord) ([]dataset.ResolvedRecord, error) {
	mappings := map[string]map[string]string{}
	for _, src := range sourceOrder(records) {
		mapping, err := r.mapColumns(src, unionColumns(records, src))
		if err != nil {
			return nil, err
		}
		mappings[src] = mapping
	}

	resolved := make([]dataset.ResolvedRecord, 0, len(records))
	for _, rec := range records {
		mapping := mappings[rec.Source]
		get := func(field string) string {
			col, ok := mapping[field]
			if !ok {
				return ""
			}
			return lookupFold(rec.Fields, col)
		}
		resolved = append(resolved, dataset.ResolvedRecord{
			Title:        strings.TrimSpace(get(FieldTitle)),
			Company:      strings.TrimSpace(get(FieldCompany)),
			LocationText: strings.TrimSpace(get(FieldLocation)),
			Description:  strings.TrimSpace(get(FieldDescription)),
			SkillsRaw:    strings.TrimSpace(get(FieldSkillsRaw)),
			SalaryMin:    strings.TrimSpace(get(FieldSalaryMin)),
			SalaryMax:    strings.TrimSpace(get(FieldSalaryMax)),
			PublishedAt:  strings.TrimSpace(get(FieldPublishedAt)),
			SourceURL:    strings.TrimSpace(get(FieldSourceURL)),
			Source:       rec.Source,
			IngestedAt:   rec.IngestedAt,
		})
	}

	return resolved, nil
}

// mapColumns picks the column carrying each canonical field for one source.
func (r *Resolver) mapColumns(source string, columns []string) (map[string]string, error) {
	mapping := make(map[string]string, len(r.aliases))
	for field, aliases := range r.aliases {
		col, ok := matchColumn(columns, aliases)
		if !ok {
			if r.required[field] {
				return nil, &UnresolvedFieldError{Source: source, Field: field, Aliases: aliases, Columns: columns}
			}
			continue
		}
		mapping[field] = col
	}

	for field := range r.required {
		if _, ok := mapping[field]; !ok {
			return nil, &UnresolvedFieldError{Source: source, Field: field, Aliases: r.aliases[field], Columns: columns}
		}
	}
	return mapping, nil
}

// sourceOrder lists the distinct sources in first-appearance order so a
// multi-source failure is reported deterministically.
func sourceOrder(records []dataset.RawRecord) []string {
	seen := map[string]bool{}
	var order []string
	for _, rec := range records {
		if !seen[rec.Source] {
			seen[rec.Source] = true
			order = append(order, rec.Source)
		}
	}
	return order
}

func unionColumns(records []dataset.RawRecord, source string) []string {
	seen := map[string]bool{}
	for _, rec := range records {
		if rec.Source != source {
			continue
		}
		for k := range rec.Fields {
			seen[k] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

// matchColumn returns the first alias that matches a present column,
// case-insensitively. The alias order decides, not the column order.
func matchColumn(columns, aliases []string) (string, bool) {
	for _, alias := range aliases {
		for _, col := range columns {
			if strings.EqualFold(col, alias) {
				return col, true
			}
		}
	}
	return "", false
}

func lookupFold(fields map[string]string, column string) string {
	if v, ok := fields[column]; ok {
		return v
	}
	for k, v := range fields {
		if strings.EqualFold(k, column) {
			return v
		}
	}
	return ""
}
