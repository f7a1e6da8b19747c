// Package export materializes the aggregate views consumed by the
// presentation layer. Artifacts are computed in memory and published as a
// single atomic batch; a partial export never becomes visible downstream.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jobscope/jobscope/internal/canonical"
	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/recommend"
	"github.com/jobscope/jobscope/internal/skillgraph"
)

// Artifact file names, referenced from the index manifest.
const (
	FileKPISummary     = "kpi_summary.json"
	FileTopTitles      = "top_titles.csv"
	FileTopSkills      = "top_skills.csv"
	FileSourceCounts   = "source_counts.csv"
	FileLocationCounts = "location_counts.csv"
	FileSkillGraph     = "skill_graph.json"
	FileDemoProfiles   = "demo_profiles.json"
	FileDemoRecs       = "demo_recs.json"
	FileIndex          = "index.json"
)

const topN = 50

// Artifact is one downstream-consumable file, rendered and ready to write.
type Artifact struct {
	Name string
	Data []byte
}

// ValueCount is one row of a top-N table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// LocationCount appears inside the KPI summary.
type LocationCount struct {
	LocationText string `json:"location_text"`
	Count        int    `json:"count"`
}

// KPISummary is the headline aggregate for the dashboard.
type KPISummary struct {
	TotalJobs       int             `json:"total_jobs"`
	UniqueCompanies int             `json:"unique_companies"`
	Sources         map[string]int  `json:"sources"`
	TopLocations    []LocationCount `json:"top_locations,omitempty"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// BuildKPISummary aggregates the canonical job set.
func BuildKPISummary(tables *canonical.Tables, generatedAt time.Time) KPISummary {
	sources := map[string]int{}
	var locations []string
	for _, job := range tables.Jobs {
		sources[job.Source]++
		if job.LocationText != "" {
			locations = append(locations, job.LocationText)
		}
	}

	var top []LocationCount
	for _, vc := range TopCounts(locations, 10) {
		top = append(top, LocationCount{LocationText: vc.Value, Count: vc.Count})
	}

	return KPISummary{
		TotalJobs:       len(tables.Jobs),
		UniqueCompanies: len(tables.Companies),
		Sources:         sources,
		TopLocations:    top,
		GeneratedAt:     generatedAt.UTC(),
	}
}

// TopCounts tallies the values and returns the top n, sorted by count
// descending with ties broken by ascending value. Empty values are skipped.
func TopCounts(values []string, n int) []ValueCount {
	counts := map[string]int{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		counts[v]++
	}

	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// BuildAggregates renders the KPI summary and the top-N count tables. The
// aggregate stage writes these into the run-local artifacts directory; the
// export stage re-renders them as part of the published batch.
func BuildAggregates(tables *canonical.Tables, generatedAt time.Time) ([]Artifact, error) {
	var titles, skills, sources, locations []string
	for _, job := range tables.Jobs {
		titles = append(titles, job.Title)
		sources = append(sources, job.Source)
		locations = append(locations, job.LocationText)
		skills = append(skills, job.Skills...)
	}

	kpi, err := marshalJSON(BuildKPISummary(tables, generatedAt))
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", FileKPISummary, err)
	}

	return []Artifact{
		{Name: FileKPISummary, Data: kpi},
		{Name: FileTopTitles, Data: renderCSV(TopCounts(titles, topN))},
		{Name: FileTopSkills, Data: renderCSV(TopCounts(skills, topN))},
		{Name: FileSourceCounts, Data: renderCSV(TopCounts(sources, topN))},
		{Name: FileLocationCounts, Data: renderCSV(TopCounts(locations, topN))},
	}, nil
}

// Build renders the full artifact batch for one run, index manifest last.
func Build(
	tables *canonical.Tables,
	graph *skillgraph.Graph,
	profiles []config.Profile,
	recs map[string][]recommend.Recommendation,
	generatedAt time.Time,
) ([]Artifact, error) {
	artifacts, err := BuildAggregates(tables, generatedAt)
	if err != nil {
		return nil, err
	}

	add := func(name string, data []byte, err error) error {
		if err != nil {
			return fmt.Errorf("building %s: %w", name, err)
		}
		artifacts = append(artifacts, Artifact{Name: name, Data: data})
		return nil
	}

	graphJSON, err := marshalJSON(graph)
	if err := add(FileSkillGraph, graphJSON, err); err != nil {
		return nil, err
	}
	profilesJSON, err := marshalJSON(profiles)
	if err := add(FileDemoProfiles, profilesJSON, err); err != nil {
		return nil, err
	}
	recsJSON, err := marshalJSON(recs)
	if err := add(FileDemoRecs, recsJSON, err); err != nil {
		return nil, err
	}

	index, err := marshalJSON(buildIndex(artifacts, generatedAt))
	if err := add(FileIndex, index, err); err != nil {
		return nil, err
	}

	return artifacts, nil
}

// Index is the manifest consumers use to detect a complete export. It lists
// every artifact except itself; its own size is not known until it is
// rendered, and a placeholder would read as a truncated file.
type Index struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Files       []IndexFile `json:"files"`
}

type IndexFile struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

func buildIndex(artifacts []Artifact, generatedAt time.Time) Index {
	index := Index{GeneratedAt: generatedAt.UTC()}
	for _, a := range artifacts {
		index.Files = append(index.Files, IndexFile{Path: a.Name, Size: len(a.Data)})
	}
	return index
}

func marshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func renderCSV(rows []ValueCount) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"value", "count"})
	for _, row := range rows {
		_ = w.Write([]string{row.Value, strconv.Itoa(row.Count)})
	}
	w.Flush()
	return buf.Bytes()
}
