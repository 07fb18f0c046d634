package index

import (
	"sort"
)

// TagCount is one entry of the tag histogram.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats summarizes the index contents.
type Stats struct {
	Documents int        `json:"documents"`
	Nodes     int        `json:"nodes"`
	Roots     int        `json:"roots"`
	Mirrors   int        `json:"mirrors"`
	PathCache int        `json:"path_cache"`
	MaxDepth  int        `json:"max_depth"`
	Todos     int        `json:"todos"`
	TodosDone int        `json:"todos_done"`
	Tags      []TagCount `json:"tags"`
}

// Stats computes summary counts. Tags are counted case-insensitively per
// document and sorted by descending count, then name.
func (x *Index) Stats() Stats {
	s := Stats{
		Documents: len(x.docs),
		Nodes:     len(x.byNode),
		Roots:     len(x.roots),
		PathCache: len(x.paths),
	}

	counts := make(map[string]int)
	for _, doc := range x.docs {
		if doc.Mirror {
			s.Mirrors++
		}
		if d := doc.Depth(); d > s.MaxDepth {
			s.MaxDepth = d
		}
		if doc.HasType(TypeTodo) {
			s.Todos++
		}
		if doc.HasType(TypeTodoDone) {
			s.TodosDone++
		}
		seen := make(map[string]bool, len(doc.TagsLower))
		for _, t := range doc.TagsLower {
			if !seen[t] {
				seen[t] = true
				counts[t]++
			}
		}
	}

	s.Tags = make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		s.Tags = append(s.Tags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(s.Tags, func(i, j int) bool {
		if s.Tags[i].Count != s.Tags[j].Count {
			return s.Tags[i].Count > s.Tags[j].Count
		}
		return s.Tags[i].Tag < s.Tags[j].Tag
	})
	return s
}
