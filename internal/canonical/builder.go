package canonical

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jobscope/jobscope/internal/dataset"
)

// Builder turns resolved records into the canonical star schema.
type Builder struct {
	extractor    *SkillExtractor
	flagNearDups bool
	workers      int
	logger       *zap.Logger
}

func NewBuilder(extractor *SkillExtractor, flagNearDups bool, logger *zap.Logger) *Builder {
	return &Builder{
		extractor:    extractor,
		flagNearDups: flagNearDups,
		workers:      runtime.GOMAXPROCS(0),
		logger:       logger,
	}
}

// derived is the per-record work done on the worker pool. Results land in
// a slice indexed by input position, so output order never depends on
// scheduling.
type derived struct {
	key    dedupKey
	near   nearKey
	skills []string
}

// Build deduplicates the records and projects the survivors into jobs and
// dimensions. Exact duplicates (same dedup key) collapse to one winner;
// near-duplicates are kept and flagged, never silently dropped.
func (b *Builder) Build(ctx context.Context, records []dataset.ResolvedRecord) (*Tables, error) {
	derivations := make([]derived, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range records {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := &records[i]
			derivations[i] = derived{
				key: dedupKey{
					Title:    normalizeText(rec.Title),
					Company:  normalizeText(rec.Company),
					Location: normalizeText(rec.LocationText),
					Date:     datePart(rec.PublishedAt),
				},
				near: nearKey{
					Title:   normalizeText(rec.Title),
					Company: normalizeText(rec.Company),
				},
				skills: b.extractor.Extract(rec.SkillsRaw, rec.Description),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("deriving record keys: %w", err)
	}

	winners, dropped := b.dedupe(records, derivations)

	tables := b.project(records, derivations, winners)

	b.logger.Info("canonicalized records",
		zap.Int("input", len(records)),
		zap.Int("jobs", len(tables.Jobs)),
		zap.Int("exact_duplicates_dropped", dropped),
		zap.Int("companies", len(tables.Companies)),
		zap.Int("locations", len(tables.Locations)),
		zap.Int("skills", len(tables.Skills)),
	)

	return tables, nil
}

// dedupe picks one winner per dedup key. The retention rule is a total
// order: most populated canonical fields, then earliest ingested_at, then
// source name, so the same input always keeps the same record.
func (b *Builder) dedupe(records []dataset.ResolvedRecord, derivations []derived) (winners []int, dropped int) {
	bestByKey := map[dedupKey]int{}
	order := make([]dedupKey, 0, len(records))

	for i := range records {
		key := derivations[i].key
		current, seen := bestByKey[key]
		if !seen {
			bestByKey[key] = i
			order = append(order, key)
			continue
		}
		dropped++
		if retains(&records[i], &records[current]) {
			b.logger.Debug("dedup ambiguity resolved",
				zap.String("title", records[i].Title),
				zap.String("company", records[i].Company),
				zap.String("kept_source", records[i].Source),
				zap.String("dropped_source", records[current].Source),
			)
			bestByKey[key] = i
		}
	}

	winners = make([]int, 0, len(order))
	for _, key := range order {
		winners = append(winners, bestByKey[key])
	}
	return winners, dropped
}

// retains reports whether candidate should replace incumbent under the
// retention rule.
func retains(candidate, incumbent *dataset.ResolvedRecord) bool {
	cf, inf := candidate.PopulatedFields(), incumbent.PopulatedFields()
	if cf != inf {
		return cf > inf
	}
	if !candidate.IngestedAt.Equal(incumbent.IngestedAt) {
		return candidate.IngestedAt.Before(incumbent.IngestedAt)
	}
	return candidate.Source < incumbent.Source
}

// project emits the fact rows and dimension tables for the winning records.
func (b *Builder) project(records []dataset.ResolvedRecord, derivations []derived, winners []int) *Tables {
	companies := newDimensionIndex()
	locations := newDimensionIndex()
	skills := newDimensionIndex()

	// Count distinct dedup keys per near key so near-duplicates can be
	// flagged for downstream transparency.
	nearGroups := map[nearKey]map[dedupKey]bool{}
	if b.flagNearDups {
		for _, idx := range winners {
			d := derivations[idx]
			if nearGroups[d.near] == nil {
				nearGroups[d.near] = map[dedupKey]bool{}
			}
			nearGroups[d.near][d.key] = true
		}
	}

	jobs := make([]*Job, 0, len(winners))
	for _, idx := range winners {
		rec := &records[idx]
		d := derivations[idx]

		job := &Job{
			JobID:        jobID(rec.Source, rec.SourceURL, rec.Title, rec.Company, rec.LocationText),
			Source:       rec.Source,
			SourceURL:    rec.SourceURL,
			Title:        rec.Title,
			Company:      rec.Company,
			LocationText: rec.LocationText,
			Description:  rec.Description,
			Skills:       d.skills,
			SalaryMin:    rec.SalaryMin,
			SalaryMax:    rec.SalaryMax,
			PublishedAt:  rec.PublishedAt,
			IngestedAt:   rec.IngestedAt,
		}

		if d.near.Company != "" {
			job.CompanyID = companies.upsert(d.near.Company, rec.Company)
		}
		if d.key.Location != "" {
			job.LocationID = locations.upsert(d.key.Location, rec.LocationText)
		}
		for _, skill := range d.skills {
			job.SkillIDs = append(job.SkillIDs, skills.upsert(normalizeText(skill), skill))
		}

		if b.flagNearDups && len(nearGroups[d.near]) > 1 {
			job.DuplicateFlag = true
		}

		jobs = append(jobs, job)
	}

	return &Tables{
		Jobs:      jobs,
		Companies: companies.entries,
		Locations: locations.entries,
		Skills:    skills.entries,
	}
}
