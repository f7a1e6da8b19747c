package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscope/jobscope/internal/canonical"
)

func job(id, title, description string, skills ...string) *canonical.Job {
	return &canonical.Job{
		JobID:       id,
		Title:       title,
		Company:     "Acme",
		Source:      "kaggle",
		Description: description,
		Skills:      skills,
	}
}

func TestRecommendRanksMatchingJobFirst(t *testing.T) {
	t.Parallel()

	jobs := []*canonical.Job{
		job("b-job", "Office Manager", "coordinate meetings and order supplies for the office"),
		job("a-job", "Data Engineer", "build pipelines with Python SQL and Airflow every day"),
	}

	v, err := NewVectorizer(jobs, Options{})
	require.NoError(t, err)

	recs := v.Recommend("Python SQL Airflow", 10)
	require.Len(t, recs, 2)

	assert.Equal(t, "a-job", recs[0].JobID)
	assert.Greater(t, recs[0].Score, recs[1].Score)

	for _, reason := range recs[0].Reasons {
		assert.Contains(t, []string{"python", "sql", "airflow"}, reason)
	}
	require.NotEmpty(t, recs[0].Reasons)
}

func TestRecommendScoreRange(t *testing.T) {
	t.Parallel()

	jobs := []*canonical.Job{
		job("1", "Data Engineer", "python sql airflow python sql airflow"),
		job("2", "Gardener", "water the plants"),
		job("3", "Data Engineer", "python sql airflow"),
	}

	v, err := NewVectorizer(jobs, Options{})
	require.NoError(t, err)

	for _, profile := range []string{"python sql airflow", "plants", "quantum blockchain"} {
		for _, rec := range v.Recommend(profile, 0) {
			assert.GreaterOrEqual(t, rec.Score, 0.0)
			assert.LessOrEqual(t, rec.Score, 1.0)
		}
	}
}

func TestRecommendDeterminism(t *testing.T) {
	t.Parallel()

	jobs := []*canonical.Job{
		job("j1", "Data Engineer", "python sql spark airflow kafka snowflake aws"),
		job("j2", "Data Analyst", "sql excel tableau dashboards reporting"),
		job("j3", "Data Scientist", "python pandas machine learning nlp"),
		job("j4", "Backend Engineer", "go postgres docker kubernetes"),
	}

	first, err := NewVectorizer(jobs, Options{})
	require.NoError(t, err)
	second, err := NewVectorizer(jobs, Options{})
	require.NoError(t, err)

	profile := "data engineer python sql airflow"
	assert.Equal(t, first.Recommend(profile, 10), second.Recommend(profile, 10))
	assert.Equal(t, first.Recommend(profile, 10), first.Recommend(profile, 10))
}

func TestRecommendTieBreaksOnJobID(t *testing.T) {
	t.Parallel()

	// Identical descriptions score identically; the ranking must fall
	// back to ascending job id.
	jobs := []*canonical.Job{
		job("zz", "Engineer", "python sql"),
		job("aa", "Engineer", "python sql"),
	}

	v, err := NewVectorizer(jobs, Options{})
	require.NoError(t, err)

	recs := v.Recommend("python", 10)
	require.Len(t, recs, 2)
	assert.Equal(t, recs[0].Score, recs[1].Score)
	assert.Equal(t, "aa", recs[0].JobID)
}

func TestUnknownProfileTermsIgnored(t *testing.T) {
	t.Parallel()

	jobs := []*canonical.Job{
		job("1", "Data Engineer", "python sql"),
		job("2", "Gardener", "plants watering"),
	}

	v, err := NewVectorizer(jobs, Options{})
	require.NoError(t, err)

	withNoise := v.Recommend("python sql zeppelin warpdrive", 10)
	clean := v.Recommend("python sql", 10)

	require.Len(t, withNoise, 2)
	assert.Equal(t, clean[0].JobID, withNoise[0].JobID)
	// All-unknown profile scores zero everywhere instead of refitting.
	for _, rec := range v.Recommend("warpdrive zeppelin", 10) {
		assert.Zero(t, rec.Score)
	}
}

func TestReasonsCappedAndFallback(t *testing.T) {
	t.Parallel()

	jobs := []*canonical.Job{
		job("1", "Data Engineer", "python sql airflow spark kafka snowflake aws docker", "Python", "SQL"),
		job("2", "Gardener", "", "Pruning", "Watering", "Composting", "Mowing", "Raking"),
	}

	v, err := NewVectorizer(jobs, Options{MaxReasons: 3})
	require.NoError(t, err)

	recs := v.Recommend("python sql airflow spark kafka", 10)
	require.Len(t, recs, 2)
	assert.LessOrEqual(t, len(recs[0].Reasons), 3)

	// The gardener job shares no terms; its skill list stands in, capped.
	var gardener Recommendation
	for _, r := range recs {
		if r.JobID == "2" {
			gardener = r
		}
	}
	assert.Equal(t, []string{"Pruning", "Watering", "Composting"}, gardener.Reasons)
}

func TestEmptyCorpusAndVocabulary(t *testing.T) {
	t.Parallel()

	_, err := NewVectorizer(nil, Options{})
	require.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = NewVectorizer([]*canonical.Job{job("1", "", "")}, Options{})
	require.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "keeps plus and hash",
			text: "C++ and C# developers",
			want: []string{"c++", "c#", "developers"},
		},
		{
			name: "drops stopwords and short tokens",
			text: "a go to the big x",
			want: []string{"go", "big"},
		},
		{
			name: "lowercases",
			text: "Python SQL",
			want: []string{"python", "sql"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tokenize(tt.text, 2))
		})
	}
}
