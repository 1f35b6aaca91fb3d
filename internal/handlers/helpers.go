package handlers

import (
	"strconv"
	"strings"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/apierr"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/feed"
	"github.com/gin-gonic/gin"
)

// respondError writes a structured API error with its mapped status code
func respondError(c *gin.Context, e *apierr.APIError) {
	c.JSON(e.Status, gin.H{"error": e})
}

func parseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// splitCSV parses a comma-separated query value into trimmed parts
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseFilterState builds the per-request filter selection from query
// parameters: tags, match (any|all), exams, date (today|7d|1m|1y|all), q
func parseFilterState(c *gin.Context) feed.FilterState {
	return feed.FilterState{
		Tags:       splitCSV(c.Query("tags")),
		MatchAll:   strings.EqualFold(c.Query("match"), "all"),
		Exams:      splitCSV(c.Query("exams")),
		DateWindow: c.Query("date"),
		Query:      c.Query("q"),
	}
}
