package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jobscope/jobscope/internal/canonical"
	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/dataset"
	"github.com/jobscope/jobscope/internal/export"
	"github.com/jobscope/jobscope/internal/guard"
	"github.com/jobscope/jobscope/internal/pipeline"
	"github.com/jobscope/jobscope/internal/recommend"
	"github.com/jobscope/jobscope/internal/schema"
	"github.com/jobscope/jobscope/internal/skillgraph"
	"github.com/jobscope/jobscope/internal/source"
)

// stagePaths are the files handed between stages. Defaults derive from the
// configured directories; the per-stage commands may override individual
// entries through their --input/--output flags.
type stagePaths struct {
	raw          string
	canonical    string
	canonicalCSV string
	graph        string
	recs         string
	public       string
	runReport    string
}

func defaultPaths(cfg *config.Config) stagePaths {
	return stagePaths{
		raw:          filepath.Join(cfg.DataDir, "raw", "jobs_raw.json"),
		canonical:    filepath.Join(cfg.DataDir, "processed", "jobs_canonical.json"),
		canonicalCSV: filepath.Join(cfg.DataDir, "processed", "jobs_canonical.csv"),
		graph:        filepath.Join(cfg.ArtifactsDir, "skill_graph.json"),
		recs:         filepath.Join(cfg.ArtifactsDir, "demo_recs.json"),
		public:       cfg.PublicDir,
		runReport:    filepath.Join(cfg.ArtifactsDir, "run_report.json"),
	}
}

// stageSet builds the pipeline stages over one set of handoff paths. Each
// stage reloads its input from disk when the in-memory context does not
// carry it, so the per-stage commands compose with the all-in-one run.
type stageSet struct {
	paths stagePaths
}

func newStageSet(paths stagePaths) *stageSet {
	return &stageSet{paths: paths}
}

// extract ingests every configured source and persists the combined raw batch.
func (s *stageSet) extract(needs ...string) pipeline.Stage {
	return pipeline.Stage{
		Name:  "extract",
		Needs: needs,
		Run: func(ctx context.Context, rc *pipeline.Context) (*guard.Report, error) {
			adapters := make([]source.Adapter, 0, len(rc.Config.Sources))
			for _, sc := range rc.Config.Sources {
				adapter, err := source.New(sc, rc.Logger)
				if err != nil {
					return nil, err
				}
				adapters = append(adapters, adapter)
			}

			records, err := source.FetchAll(ctx, adapters, rc.Logger)
			if err != nil {
				return nil, err
			}
			rc.Raw = records

			return nil, dataset.WriteJSON(s.paths.raw, records)
		},
	}
}

// gateRaw checks the raw boundary with the rules configured for it.
func (s *stageSet) gateRaw(needs ...string) pipeline.Stage {
	return s.gate("gate_raw", "raw", func(rc *pipeline.Context) (*dataset.Dataset, error) {
		if err := s.ensureRaw(rc); err != nil {
			return nil, err
		}
		return dataset.FromRaw("raw", rc.Raw), nil
	}, needs...)
}

// gateCurated checks the canonical job set before aggregation.
func (s *stageSet) gateCurated(needs ...string) pipeline.Stage {
	return s.gate("gate_curated", "curated", func(rc *pipeline.Context) (*dataset.Dataset, error) {
		if err := s.ensureTables(rc); err != nil {
			return nil, err
		}
		columns := []string{"job_id", "title", "company", "location_text", "source", "published_at"}
		rows := make([]map[string]string, 0, len(rc.Tables.Jobs))
		for _, job := range rc.Tables.Jobs {
			rows = append(rows, map[string]string{
				"job_id":        job.JobID,
				"title":         job.Title,
				"company":       job.Company,
				"location_text": job.LocationText,
				"source":        job.Source,
				"published_at":  job.PublishedAt,
			})
		}
		return &dataset.Dataset{Name: "curated", Columns: columns, Rows: rows}, nil
	}, needs...)
}

func (s *stageSet) gate(name, boundary string, view func(*pipeline.Context) (*dataset.Dataset, error), needs ...string) pipeline.Stage {
	return pipeline.Stage{
		Name:  name,
		Needs: needs,
		Run: func(ctx context.Context, rc *pipeline.Context) (*guard.Report, error) {
			rules, err := guard.Build(rc.Config.Quality[boundary])
			if err != nil {
				return nil, err
			}
			ds, err := view(rc)
			if err != nil {
				return nil, err
			}
			return guard.Run(ctx, boundary, ds, rules, rc.Logger)
		},
	}
}

// transform resolves source columns to canonical fields and builds the
// deduplicated star schema.
func (s *stageSet) transform(needs ...string) pipeline.Stage {
	return pipeline.Stage{
		Name:  "transform",
		Needs: needs,
		Run: func(ctx context.Context, rc *pipeline.Context) (*guard.Report, error) {
			if err := s.ensureRaw(rc); err != nil {
				return nil, err
			}

			resolver := schema.NewResolver(rc.Config.Schema.Aliases, rc.Config.Schema.Required)
			resolved, err := resolver.Resolve(rc.Raw)
			if err != nil {
				return nil, err
			}
			rc.Resolved = resolved

			extractor := canonical.NewSkillExtractor(rc.Config.Skills.Vocabulary, rc.Config.Skills.Synonyms)
			builder := canonical.NewBuilder(extractor, rc.Config.Dedup.FlagNearDuplicates, rc.Logger)
			tables, err := builder.Build(ctx, resolved)
			if err != nil {
				return nil, err
			}
			rc.Tables = tables

			if err := dataset.WriteJSON(s.paths.canonical, tables); err != nil {
				return nil, err
			}
			return nil, writeJobsCSV(s.paths.canonicalCSV, tables.Jobs)
		},
	}
}

// aggregate builds the skill co-occurrence graph plus the KPI and top-N
// tables, all into the run-local artifacts directory.
func (s *stageSet) aggregate(needs ...string) pipeline.Stage {
	return pipeline.Stage{
		Name:  "aggregate",
		Needs: needs,
		Run: func(_ context.Context, rc *pipeline.Context) (*guard.Report, error) {
			if err := s.ensureTables(rc); err != nil {
				return nil, err
			}

			rc.Graph = skillgraph.Build(rc.Tables, rc.Config.Graph.MinEdgeWeight)
			if err := dataset.WriteJSON(s.paths.graph, rc.Graph); err != nil {
				return nil, err
			}

			aggregates, err := export.BuildAggregates(rc.Tables, time.Now())
			if err != nil {
				return nil, err
			}
			dir := filepath.Dir(s.paths.graph)
			for _, a := range aggregates {
				if err := os.WriteFile(filepath.Join(dir, a.Name), a.Data, 0o644); err != nil {
					return nil, fmt.Errorf("writing %s: %w", a.Name, err)
				}
			}
			return nil, nil
		},
	}
}

// recommend scores the profiles against the canonical corpus.
func (s *stageSet) recommend(profiles []config.Profile, needs ...string) pipeline.Stage {
	return pipeline.Stage{
		Name:  "recommend",
		Needs: needs,
		Run: func(_ context.Context, rc *pipeline.Context) (*guard.Report, error) {
			if err := s.ensureTables(rc); err != nil {
				return nil, err
			}

			vectorizer, err := recommend.NewVectorizer(rc.Tables.Jobs, recommend.Options{
				MinTermLength: rc.Config.Recommend.MinTermLength,
				MaxReasons:    rc.Config.Recommend.MaxReasons,
			})
			if err != nil {
				return nil, err
			}

			for _, profile := range profiles {
				rc.Recs[profile.Name] = vectorizer.Recommend(profile.Text, rc.Config.Recommend.TopK)
			}
			return nil, dataset.WriteJSON(s.paths.recs, rc.Recs)
		},
	}
}

// export renders the artifact batch and publishes it atomically.
func (s *stageSet) export(needs ...string) pipeline.Stage {
	return pipeline.Stage{
		Name:  "export",
		Needs: needs,
		Run: func(_ context.Context, rc *pipeline.Context) (*guard.Report, error) {
			if err := s.ensureTables(rc); err != nil {
				return nil, err
			}
			if rc.Graph == nil {
				rc.Graph = &skillgraph.Graph{}
				if err := dataset.ReadJSON(s.paths.graph, rc.Graph); err != nil {
					return nil, err
				}
			}
			if len(rc.Recs) == 0 {
				if err := dataset.ReadJSON(s.paths.recs, &rc.Recs); err != nil {
					return nil, err
				}
			}

			artifacts, err := export.Build(rc.Tables, rc.Graph, rc.Config.Recommend.Profiles, rc.Recs, time.Now())
			if err != nil {
				return nil, err
			}
			return nil, export.NewExporter(s.paths.public, rc.Logger).Write(artifacts)
		},
	}
}

// all is the full pipeline in dependency order.
func (s *stageSet) all(cfg *config.Config) []pipeline.Stage {
	return []pipeline.Stage{
		s.extract(),
		s.gateRaw("extract"),
		s.transform("gate_raw"),
		s.gateCurated("transform"),
		s.aggregate("gate_curated"),
		s.recommend(cfg.Recommend.Profiles, "gate_curated"),
		s.export("aggregate", "recommend"),
	}
}

func (s *stageSet) ensureRaw(rc *pipeline.Context) error {
	if rc.Raw != nil {
		return nil
	}
	return dataset.ReadJSON(s.paths.raw, &rc.Raw)
}

func (s *stageSet) ensureTables(rc *pipeline.Context) error {
	if rc.Tables != nil {
		return nil
	}
	rc.Tables = &canonical.Tables{}
	return dataset.ReadJSON(s.paths.canonical, rc.Tables)
}

// writeJobsCSV mirrors the canonical fact table as CSV for spreadsheet use.
func writeJobsCSV(path string, jobs []*canonical.Job) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"job_id", "source", "title", "company", "location_text",
		"skills", "salary_min", "salary_max", "published_at", "duplicate_flag",
	}); err != nil {
		return err
	}
	for _, job := range jobs {
		if err := w.Write([]string{
			job.JobID, job.Source, job.Title, job.Company, job.LocationText,
			strings.Join(job.Skills, "; "), job.SalaryMin, job.SalaryMax,
			job.PublishedAt, strconv.FormatBool(job.DuplicateFlag),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// sidecarCSV places the CSV mirror next to an overridden canonical path.
func sidecarCSV(jsonPath string) string {
	return strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".csv"
}
