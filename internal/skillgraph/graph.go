// Package skillgraph derives the weighted co-occurrence graph over the
// skills of the canonical job set.
package skillgraph

import (
	"sort"

	"github.com/jobscope/jobscope/internal/canonical"
)

// Node is one skill with its mention count (number of jobs containing the
// skill, not total occurrences).
type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Edge is an unordered skill pair weighted by the number of jobs in which
// both skills co-occur. Source always carries the lexically smaller label.
type Edge struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Weight int `json:"weight"`
}

// Graph is the exported artifact shape.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

type pair struct {
	a, b int // skill ids, a's label < b's label
}

// Build counts mentions and co-occurrences over the canonical jobs. Nodes
// sort by count descending then label ascending; edges by weight descending
// then (source,target) label ascending, so top-N truncation is reproducible.
// Pairs below minWeight are dropped; pair counters only exist once
// incremented, so no zero-weight edge can appear.
func Build(tables *canonical.Tables, minWeight int) *Graph {
	if minWeight < 1 {
		minWeight = 1
	}

	labels := make(map[int]string, len(tables.Skills))
	for _, dim := range tables.Skills {
		labels[dim.ID] = dim.Label
	}

	mentions := map[int]int{}
	weights := map[pair]int{}

	for _, job := range tables.Jobs {
		ids := uniqueIDs(job.SkillIDs)
		for _, id := range ids {
			mentions[id]++
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				weights[orient(ids[i], ids[j], labels)]++
			}
		}
	}

	graph := &Graph{}
	for id, count := range mentions {
		graph.Nodes = append(graph.Nodes, Node{ID: id, Label: labels[id], Count: count})
	}
	sort.Slice(graph.Nodes, func(i, j int) bool {
		if graph.Nodes[i].Count != graph.Nodes[j].Count {
			return graph.Nodes[i].Count > graph.Nodes[j].Count
		}
		return graph.Nodes[i].Label < graph.Nodes[j].Label
	})

	for p, w := range weights {
		if w < minWeight {
			continue
		}
		graph.Edges = append(graph.Edges, Edge{Source: p.a, Target: p.b, Weight: w})
	}
	sort.Slice(graph.Edges, func(i, j int) bool {
		ei, ej := graph.Edges[i], graph.Edges[j]
		if ei.Weight != ej.Weight {
			return ei.Weight > ej.Weight
		}
		if labels[ei.Source] != labels[ej.Source] {
			return labels[ei.Source] < labels[ej.Source]
		}
		return labels[ei.Target] < labels[ej.Target]
	})

	return graph
}

// orient returns the pair in canonical orientation: the skill with the
// lexically smaller label first. Self-pairs never reach here because ids
// are unique within a job.
func orient(x, y int, labels map[int]string) pair {
	if labels[x] > labels[y] || (labels[x] == labels[y] && x > y) {
		x, y = y, x
	}
	return pair{a: x, b: y}
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
