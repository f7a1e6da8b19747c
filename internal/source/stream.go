package source

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/jobscope/jobscope/internal/dataset"
)

// streamStack is the fixed skill pool the simulator draws from.
var streamStack = []string{
	"Python", "SQL", "React", "AWS", "Docker", "Kubernetes", "TypeScript", "Go",
}

var streamTitles = []string{"Data Engineer", "Software Engineer", "Data Scientist"}

// StreamProducer simulates a continuous feed of job postings. It exists for
// demos only; streaming ingestion proper is out of scope and the producer
// never touches pipeline state.
type StreamProducer struct {
	rng *rand.Rand
	now clock
}

func NewStreamProducer(seed int64) *StreamProducer {
	return &StreamProducer{rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

// Next generates one synthetic posting.
func (p *StreamProducer) Next() dataset.RawRecord {
	skills := make([]string, len(streamStack))
	copy(skills, streamStack)
	p.rng.Shuffle(len(skills), func(i, j int) { skills[i], skills[j] = skills[j], skills[i] })
	k := 2 + p.rng.Intn(4)

	return dataset.RawRecord{
		Source:     "stream",
		IngestedAt: p.now().UTC(),
		Fields: map[string]string{
			"title":   "Senior " + streamTitles[p.rng.Intn(len(streamTitles))],
			"company": fmt.Sprintf("TechCorp %d", 1+p.rng.Intn(100)),
			"skills":  strings.Join(skills[:k], ", "),
			"salary":  fmt.Sprintf("%d", 80000+p.rng.Intn(100001)),
		},
	}
}

// Stream emits count postings onto the channel, pausing delay between each,
// and closes it when done or when the context is cancelled.
func (p *StreamProducer) Stream(ctx context.Context, count int, delay time.Duration) <-chan dataset.RawRecord {
	out := make(chan dataset.RawRecord)
	go func() {
		defer close(out)
		for i := 0; i < count; i++ {
			rec := p.Next()
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// StreamConsumer keeps a live tally of skill mentions, the way a streaming
// aggregation job would.
type StreamConsumer struct {
	counts map[string]int
}

func NewStreamConsumer() *StreamConsumer {
	counts := make(map[string]int, len(streamStack))
	for _, s := range streamStack {
		counts[s] = 0
	}
	return &StreamConsumer{counts: counts}
}

// Ingest updates the tally with one posting.
func (c *StreamConsumer) Ingest(rec dataset.RawRecord) {
	for skill := range c.counts {
		if containsSkill(rec.Fields["skills"], skill) {
			c.counts[skill]++
		}
	}
}

// TopSkills returns the tally sorted by count descending, name ascending.
func (c *StreamConsumer) TopSkills() []SkillCount {
	out := make([]SkillCount, 0, len(c.counts))
	for skill, count := range c.counts {
		out = append(out, SkillCount{Skill: skill, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Skill < out[j].Skill
	})
	return out
}

type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

func containsSkill(list, skill string) bool {
	for _, tok := range strings.Split(list, ",") {
		if strings.TrimSpace(tok) == skill {
			return true
		}
	}
	return false
}
