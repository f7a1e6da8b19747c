// Package config holds the typed pipeline configuration, decoded from the
// viper-managed config file and validated before any stage runs.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jobscope/jobscope/internal/guard"
)

// Config is the full pipeline configuration.
type Config struct {
	DataDir      string `mapstructure:"data-dir" validate:"required"`
	ArtifactsDir string `mapstructure:"artifacts-dir" validate:"required"`
	PublicDir    string `mapstructure:"public-dir" validate:"required"`

	Sources   []Source                `mapstructure:"sources" validate:"min=1,dive"`
	Schema    Schema                  `mapstructure:"schema"`
	Quality   map[string][]guard.Spec `mapstructure:"quality"`
	Skills    Skills                  `mapstructure:"skills"`
	Dedup     Dedup                   `mapstructure:"dedup"`
	Graph     Graph                   `mapstructure:"graph"`
	Recommend Recommend               `mapstructure:"recommend"`
}

// Source describes one ingestion adapter.
type Source struct {
	Name string `mapstructure:"name" validate:"required"`
	Type string `mapstructure:"type" validate:"required,oneof=file remote"`

	// File source.
	Path    string `mapstructure:"path"`
	SampleN int    `mapstructure:"sample-n"`

	// Remote source.
	URL         string        `mapstructure:"url"`
	RecordsPath string        `mapstructure:"records-path"`
	TokenFile   string        `mapstructure:"token-file"`
	MaxRetries  int           `mapstructure:"max-retries"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Schema carries the alias table consulted at resolution time.
type Schema struct {
	// Aliases maps a canonical field name to accepted source column
	// names in first-match-wins order.
	Aliases  map[string][]string `mapstructure:"aliases"`
	Required []string            `mapstructure:"required"`
}

// Skills configures extraction against the controlled vocabulary.
type Skills struct {
	// Vocabulary lists canonical skill labels matched against free text.
	Vocabulary []string `mapstructure:"vocabulary"`
	// Synonyms maps lowercase variants to the canonical label.
	Synonyms map[string]string `mapstructure:"synonyms"`
}

// Dedup tunes near-duplicate handling. Exact duplicates are always merged.
type Dedup struct {
	FlagNearDuplicates bool `mapstructure:"flag-near-duplicates"`
}

// Graph tunes the co-occurrence graph builder.
type Graph struct {
	MinEdgeWeight int `mapstructure:"min-edge-weight" validate:"min=1"`
}

// Recommend tunes the recommender.
type Recommend struct {
	TopK          int       `mapstructure:"top-k" validate:"min=1"`
	MaxReasons    int       `mapstructure:"max-reasons" validate:"min=1"`
	MinTermLength int       `mapstructure:"min-term-length" validate:"min=1"`
	Profiles      []Profile `mapstructure:"profiles" validate:"dive"`
}

// Profile is a named candidate persona scored against the corpus.
type Profile struct {
	Name string `mapstructure:"name" json:"name" validate:"required"`
	Text string `mapstructure:"profile" json:"profile" validate:"required"`
}

// Validate checks the decoded configuration before the pipeline starts.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, s := range c.Sources {
		switch s.Type {
		case "file":
			if s.Path == "" {
				return fmt.Errorf("source %q: file sources require a path", s.Name)
			}
		case "remote":
			if s.URL == "" {
				return fmt.Errorf("source %q: remote sources require a url", s.Name)
			}
		}
	}
	return nil
}

// Default returns the built-in configuration. A config file overrides any
// subset of it.
func Default() *Config {
	return &Config{
		DataDir:      "data",
		ArtifactsDir: "artifacts",
		PublicDir:    "public/artifacts",
		Schema: Schema{
			Aliases: map[string][]string{
				"title":         {"job_title", "position", "title"},
				"company":       {"company_name", "employer", "company"},
				"location_text": {"location", "job_location", "candidate_required_location", "city"},
				"description":   {"description", "job_description", "details"},
				"skills_raw":    {"skills", "required_skills", "tags"},
				"salary_min":    {"salary_min", "min_salary"},
				"salary_max":    {"salary_max", "max_salary"},
				"published_at":  {"date_posted", "posted_at", "published_at", "publication_date", "listed_time"},
				"source_url":    {"job_posting_url", "url", "application_url", "job_url"},
			},
			Required: []string{"title", "company"},
		},
		Quality: map[string][]guard.Spec{
			"raw": {
				{Type: guard.RuleVolumeCheck, Options: map[string]any{"min_rows": 1}},
			},
			"curated": {
				{Type: guard.RuleSchemaCheck, Options: map[string]any{
					"required_fields": []string{"job_id", "title", "company", "location_text", "source"},
				}},
				{Type: guard.RuleNullCheck, Options: map[string]any{
					"critical_fields": []string{"title", "company"},
					"warn_fields":     []string{"location_text", "published_at"},
				}},
				{Type: guard.RuleVolumeCheck, Options: map[string]any{"min_rows": 1}},
			},
		},
		Skills: Skills{
			Vocabulary: []string{
				"Python", "SQL", "Pandas", "NumPy", "PostgreSQL", "MySQL", "Excel",
				"JavaScript", "TypeScript", "React", "Node.js", "AWS", "Azure", "GCP",
				"Machine Learning", "Deep Learning", "NLP", "Git", "Docker",
				"Kubernetes", "Spark", "Airflow", "Kafka", "Snowflake", "Tableau", "Go",
			},
			Synonyms: map[string]string{
				"py":               "Python",
				"postgres":         "PostgreSQL",
				"js":               "JavaScript",
				"node":             "Node.js",
				"node.js":          "Node.js",
				"ml":               "Machine Learning",
				"machine learning": "Machine Learning",
				"deep learning":    "Deep Learning",
				"golang":           "Go",
				"k8s":              "Kubernetes",
			},
		},
		Dedup: Dedup{FlagNearDuplicates: true},
		Graph: Graph{MinEdgeWeight: 1},
		Recommend: Recommend{
			TopK:          10,
			MaxReasons:    4,
			MinTermLength: 2,
			Profiles: []Profile{
				{Name: "Data Engineer", Text: "data engineer cloud pipelines spark airflow snowflake kafka aws python sql"},
				{Name: "Data Analyst", Text: "data analyst dashboards sql excel tableau business intelligence reporting"},
				{Name: "Data Scientist", Text: "data scientist machine learning python pandas sklearn nlp deep learning"},
			},
		},
	}
}
