package canonical

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobscope/jobscope/internal/dataset"
)

func testExtractor() *SkillExtractor {
	return NewSkillExtractor(
		[]string{"Python", "SQL", "Airflow", "Machine Learning", "Go"},
		map[string]string{"py": "Python", "ml": "Machine Learning", "golang": "Go"},
	)
}

func testBuilder() *Builder {
	return NewBuilder(testExtractor(), true, zap.NewNop())
}

func record(title, company, location, date string) dataset.ResolvedRecord {
	return dataset.ResolvedRecord{
		Title:        title,
		Company:      company,
		LocationText: location,
		PublishedAt:  date,
		Source:       "kaggle",
		IngestedAt:   time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildMergesExactDuplicates(t *testing.T) {
	t.Parallel()

	// Rows 1 and 2 share title/company/location/date; row 3 differs in
	// company. Exactly 2 canonical jobs must survive.
	records := []dataset.ResolvedRecord{
		record("Data Engineer", "Acme", "Remote", "2026-01-05"),
		record("Data Engineer", "Acme", "Remote", "2026-01-05"),
		record("Data Engineer", "Globex", "Remote", "2026-01-05"),
	}

	tables, err := testBuilder().Build(context.Background(), records)
	require.NoError(t, err)
	assert.Len(t, tables.Jobs, 2)
}

func TestBuildDedupKeyUniqueness(t *testing.T) {
	t.Parallel()

	records := []dataset.ResolvedRecord{
		record("Data Engineer", "Acme", "Remote", "2026-01-05"),
		record("data  engineer", "ACME", "remote", "2026-01-05T09:30:00Z"),
		record("Data Engineer!", "Acme,", " Remote ", "2026-01-05"),
		record("Analyst", "Acme", "Berlin", "2026-01-06"),
	}

	tables, err := testBuilder().Build(context.Background(), records)
	require.NoError(t, err)

	seen := map[dedupKey]bool{}
	for _, job := range tables.Jobs {
		key := dedupKey{
			Title:    normalizeText(job.Title),
			Company:  normalizeText(job.Company),
			Location: normalizeText(job.LocationText),
			Date:     datePart(job.PublishedAt),
		}
		require.False(t, seen[key], "dedup key appears twice: %+v", key)
		seen[key] = true
	}
	assert.Len(t, tables.Jobs, 2)
}

func TestRetentionPrefersPopulatedFields(t *testing.T) {
	t.Parallel()

	sparse := record("Data Engineer", "Acme", "Remote", "2026-01-05")
	rich := record("Data Engineer", "Acme", "Remote", "2026-01-05")
	rich.SalaryMin = "90000"
	rich.SalaryMax = "120000"
	rich.IngestedAt = sparse.IngestedAt.Add(time.Hour) // later, but richer

	tables, err := testBuilder().Build(context.Background(), []dataset.ResolvedRecord{sparse, rich})
	require.NoError(t, err)
	require.Len(t, tables.Jobs, 1)
	assert.Equal(t, "90000", tables.Jobs[0].SalaryMin)
}

func TestRetentionTieBreaksOnIngestedAt(t *testing.T) {
	t.Parallel()

	early := record("Data Engineer", "Acme", "Remote", "2026-01-05")
	early.IngestedAt = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	early.SourceURL = "https://example.com/early"
	late := record("Data Engineer", "Acme", "Remote", "2026-01-05")
	late.IngestedAt = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	late.SourceURL = "https://example.com/late"

	// Same populated-field count either way around.
	tables, err := testBuilder().Build(context.Background(), []dataset.ResolvedRecord{late, early})
	require.NoError(t, err)
	require.Len(t, tables.Jobs, 1)
	assert.Equal(t, "https://example.com/early", tables.Jobs[0].SourceURL)
}

func TestNearDuplicatesFlaggedNotMerged(t *testing.T) {
	t.Parallel()

	records := []dataset.ResolvedRecord{
		record("Data Engineer", "Acme", "Remote", "2026-01-05"),
		record("Data Engineer", "Acme", "Berlin", "2026-01-05"),
		record("Analyst", "Globex", "Paris", "2026-01-05"),
	}

	tables, err := testBuilder().Build(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, tables.Jobs, 3)

	flagged := 0
	for _, job := range tables.Jobs {
		if job.DuplicateFlag {
			flagged++
			assert.Equal(t, "Acme", job.Company)
		}
	}
	assert.Equal(t, 2, flagged)
}

func TestDimensionIDsStableByFirstAppearance(t *testing.T) {
	t.Parallel()

	records := []dataset.ResolvedRecord{
		record("Engineer", "Acme", "Remote", "2026-01-05"),
		record("Analyst", "Globex", "Berlin", "2026-01-06"),
		record("Scientist", "Acme", "Remote", "2026-01-07"),
	}

	tables, err := testBuilder().Build(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, tables.Jobs, 3)

	assert.Equal(t, 1, tables.Jobs[0].CompanyID)
	assert.Equal(t, 2, tables.Jobs[1].CompanyID)
	assert.Equal(t, 1, tables.Jobs[2].CompanyID) // Acme reused
	require.Len(t, tables.Companies, 2)
	assert.Equal(t, "Acme", tables.Companies[0].Label)

	assert.Equal(t, tables.Jobs[0].LocationID, tables.Jobs[2].LocationID)
}

func TestZeroSkillRecordRetained(t *testing.T) {
	t.Parallel()

	rec := record("Gardener", "GreenCo", "Lyon", "2026-01-05")
	rec.Description = "tend to plants and water them daily"

	tables, err := testBuilder().Build(context.Background(), []dataset.ResolvedRecord{rec})
	require.NoError(t, err)
	require.Len(t, tables.Jobs, 1)
	assert.Empty(t, tables.Jobs[0].Skills)
}

func TestSkillExtraction(t *testing.T) {
	t.Parallel()

	extractor := testExtractor()

	tests := []struct {
		name        string
		skillsRaw   string
		description string
		want        []string
	}{
		{
			name:      "explicit list with synonyms",
			skillsRaw: "py, SQL; golang",
			want:      []string{"Python", "SQL", "Go"},
		},
		{
			name:        "vocabulary match in description",
			description: "We need strong Python and machine learning experience.",
			want:        []string{"Python", "Machine Learning"},
		},
		{
			name:        "no substring false positives",
			description: "Our gopher mascot travels to Goa.",
			want:        nil,
		},
		{
			name:        "deduplicates across both inputs",
			skillsRaw:   "Python",
			description: "Python, python and more PYTHON",
			want:        []string{"Python"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := extractor.Extract(tt.skillsRaw, tt.description)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data engineer", normalizeText("  Data   Engineer!! "))
	assert.Equal(t, "c mon let s go", normalizeText("C'mon, let's GO"))
	assert.Equal(t, "", normalizeText("  ,;-- "))
}

func TestDatePart(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2026-01-05", datePart("2026-01-05T10:30:00Z"))
	assert.Equal(t, "2026-01-05", datePart("2026-01-05"))
	assert.Equal(t, "not-a-date", datePart(" not-a-date "))
	assert.Equal(t, "", datePart(""))
}
