package supabase

import (
	"net/url"
	"strconv"
	"strings"
)

// ============================================================
// PostgREST query helpers
// ============================================================

const restPrefix = "rest/v1/"

func tablePath(table string) string { return restPrefix + table }

// eq builds a PostgREST equality filter value.
func eq(v string) string { return "eq." + v }

// byID returns the query selecting a single row by primary key.
func byID(id string) url.Values {
	return url.Values{"id": {eq(id)}}
}

// parseContentRange reads the total from a PostgREST Content-Range header
// ("0-9/42", "*/0"). Returns false when the total is unknown ("0-9/*").
func parseContentRange(h string) (int, bool) {
	i := strings.LastIndexByte(h, '/')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(h[i+1:]))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
