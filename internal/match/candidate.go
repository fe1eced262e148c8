package match

import (
	"sort"
)

// DefaultThreshold is the minimum similarity for a name to be suggested.
const DefaultThreshold = 0.6

// Candidate is an existing name scored against a query.
type Candidate struct {
	Name  string
	Score float64
}

// CandidateList is a list of candidates ordered best first.
type CandidateList []Candidate

// Rank scores every name against query and returns them sorted by score
// (descending), ties broken by the original order of names.
func Rank(query string, names []string) CandidateList {
	list := make(CandidateList, 0, len(names))
	for _, n := range names {
		list = append(list, Candidate{Name: n, Score: Similarity(query, n)})
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})

	return list
}

// Above returns the candidates scoring at least threshold.
func (l CandidateList) Above(threshold float64) CandidateList {
	var out CandidateList

	for _, c := range l {
		if c.Score >= threshold {
			out = append(out, c)
		}
	}

	return out
}

// Names returns the candidate names in order.
func (l CandidateList) Names() []string {
	names := make([]string, len(l))
	for i, c := range l {
		names[i] = c.Name
	}

	return names
}

// Suggest returns up to limit names similar enough to query to be offered
// as "did you mean" hints. The query itself is never suggested.
func Suggest(query string, names []string, limit int) []string {
	var out []string

	for _, c := range Rank(query, names).Above(DefaultThreshold) {
		if c.Name == query {
			continue
		}

		out = append(out, c.Name)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out
}
