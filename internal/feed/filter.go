package feed

import (
	"strings"
	"time"
)

// Date window buckets for the date-range filter
const (
	DateWindowAll   = "all"
	DateWindowToday = "today"
	DateWindow7d    = "7d"
	DateWindow1m    = "1m"
	DateWindow1y    = "1y"
)

const relatedResultCap = 10

// FilterState is the session-local filter selection. The zero value matches
// everything.
type FilterState struct {
	// Selected tag names; matching is case-insensitive and trimmed
	Tags []string `json:"tags"`

	// MatchAll switches tag composition from ANY (default) to ALL
	MatchAll bool `json:"match_all"`

	// Selected exam types, OR semantics
	Exams []string `json:"exams"`

	// One of the DateWindow* buckets; empty means all
	DateWindow string `json:"date_window"`

	// Free-text query
	Query string `json:"query"`
}

// IsZero reports whether no filter is active
func (s FilterState) IsZero() bool {
	return len(s.Tags) == 0 && len(s.Exams) == 0 &&
		(s.DateWindow == "" || s.DateWindow == DateWindowAll) &&
		strings.TrimSpace(s.Query) == ""
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// matchTags applies the tag predicate under the state's ANY/ALL mode
func matchTags(c *Candidate, selected []string, matchAll bool) bool {
	if len(selected) == 0 {
		return true
	}

	have := make(map[string]struct{}, len(c.Tags))
	for _, t := range c.Tags {
		have[normalize(t)] = struct{}{}
	}

	if matchAll {
		for _, want := range selected {
			if _, ok := have[normalize(want)]; !ok {
				return false
			}
		}
		return true
	}

	for _, want := range selected {
		if _, ok := have[normalize(want)]; ok {
			return true
		}
	}
	return false
}

// matchExams applies OR semantics across selected exam types
func matchExams(c *Candidate, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	exam := normalize(c.Post.ExamType)
	for _, want := range selected {
		if exam == normalize(want) {
			return true
		}
	}
	return false
}

// matchDate checks the creation timestamp against [now - window, now].
// "today" means since local midnight.
func matchDate(c *Candidate, window string, now time.Time) bool {
	cutoff, ok := windowCutoff(window, now)
	if !ok {
		return true
	}
	created := c.Post.CreatedAt
	return !created.Before(cutoff) && !created.After(now)
}

// searchable builds the haystack for free-text matching
func searchable(c *Candidate) string {
	parts := []string{c.Post.Title, c.Post.Content, c.Post.ExamType}
	parts = append(parts, c.Tags...)
	if c.Author != nil {
		parts = append(parts, c.Author.Username)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// matchQuery is a case-insensitive substring match over the haystack
func matchQuery(c *Candidate, query string) bool {
	q := normalize(query)
	if q == "" {
		return true
	}
	return strings.Contains(searchable(c), q)
}

// relatedFallback finds loosely related candidates for a query with zero
// primary matches: any candidate whose tags or exam type contain a query
// token longer than two characters, capped at relatedResultCap.
func relatedFallback(candidates []Candidate, query string) []Candidate {
	tokens := make([]string, 0)
	for _, tok := range strings.Fields(normalize(query)) {
		if len(tok) > 2 {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return []Candidate{}
	}

	related := make([]Candidate, 0, relatedResultCap)
	for _, c := range candidates {
		if len(related) >= relatedResultCap {
			break
		}
		hay := strings.ToLower(strings.Join(c.Tags, " ") + " " + c.Post.ExamType)
		for _, tok := range tokens {
			if strings.Contains(hay, tok) {
				related = append(related, c)
				break
			}
		}
	}
	return related
}

// ApplyFilters runs the filter chain over the candidates. All predicates
// compose by AND; order does not matter. When a free-text query yields zero
// primary matches, a looser related-content list is returned separately;
// the empty primary list is never silently replaced.
func ApplyFilters(candidates []Candidate, state FilterState, now time.Time) (primary, related []Candidate) {
	primary = make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !matchTags(&c, state.Tags, state.MatchAll) {
			continue
		}
		if !matchExams(&c, state.Exams) {
			continue
		}
		if !matchDate(&c, state.DateWindow, now) {
			continue
		}
		if !matchQuery(&c, state.Query) {
			continue
		}
		primary = append(primary, c)
	}

	if len(primary) == 0 && strings.TrimSpace(state.Query) != "" {
		related = relatedFallback(candidates, state.Query)
	} else {
		related = []Candidate{}
	}
	return primary, related
}
