package recommend

import (
	"sort"
)

// Recommendation is one scored job for a profile.
type Recommendation struct {
	JobID     string   `json:"job_id"`
	Title     string   `json:"title"`
	Company   string   `json:"company"`
	Source    string   `json:"source"`
	SourceURL string   `json:"source_url,omitempty"`
	Score     float64  `json:"score"`
	Reasons   []string `json:"reasons"`
}

// Recommend scores every job in the corpus against the profile text and
// returns the top K, ranked by score descending with ties broken by
// ascending job id. Fully deterministic: no randomness, and every float
// accumulation follows a fixed lexical term order.
func (v *Vectorizer) Recommend(profileText string, topK int) []Recommendation {
	if topK <= 0 {
		topK = len(v.jobs)
	}

	profile := v.weigh(tokenize(profileText, v.opts.MinTermLength))
	profileNorm := norm(profile)
	profileTerms := sortedTerms(profile)

	recs := make([]Recommendation, 0, len(v.jobs))
	for i, job := range v.jobs {
		score := v.cosine(profile, profileTerms, profileNorm, i)
		recs = append(recs, Recommendation{
			JobID:     job.JobID,
			Title:     job.Title,
			Company:   job.Company,
			Source:    job.Source,
			SourceURL: job.SourceURL,
			Score:     score,
			Reasons:   v.reasons(profile, profileTerms, i),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].JobID < recs[j].JobID
	})

	if len(recs) > topK {
		recs = recs[:topK]
	}
	return recs
}

// cosine computes the similarity between the profile vector and document i,
// clamped into [0,1]. Non-negative tf-idf weights cannot produce a negative
// cosine, but the range invariant is enforced anyway.
func (v *Vectorizer) cosine(profile map[string]float64, profileTerms []string, profileNorm float64, i int) float64 {
	if profileNorm == 0 || v.norms[i] == 0 {
		return 0
	}
	dot := 0.0
	doc := v.docs[i]
	for _, term := range profileTerms {
		if w, ok := doc[term]; ok {
			dot += profile[term] * w
		}
	}
	score := dot / (profileNorm * v.norms[i])
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// reasons picks the terms shared by profile and document with the highest
// pairwise tf-idf product, capped at MaxReasons. When nothing overlaps the
// job's extracted skills stand in, so a recommendation is never mute.
func (v *Vectorizer) reasons(profile map[string]float64, profileTerms []string, i int) []string {
	type scored struct {
		term   string
		weight float64
	}

	doc := v.docs[i]
	shared := make([]scored, 0, len(profileTerms))
	for _, term := range profileTerms {
		if w, ok := doc[term]; ok {
			shared = append(shared, scored{term: term, weight: profile[term] * w})
		}
	}
	sort.Slice(shared, func(a, b int) bool {
		if shared[a].weight != shared[b].weight {
			return shared[a].weight > shared[b].weight
		}
		return shared[a].term < shared[b].term
	})

	if len(shared) == 0 {
		skills := v.jobs[i].Skills
		if len(skills) > v.opts.MaxReasons {
			skills = skills[:v.opts.MaxReasons]
		}
		return append([]string(nil), skills...)
	}

	if len(shared) > v.opts.MaxReasons {
		shared = shared[:v.opts.MaxReasons]
	}
	out := make([]string, 0, len(shared))
	for _, s := range shared {
		out = append(out, s.term)
	}
	return out
}
