// internal/care/slug.go
package care

import "strings"

// SlugFromPath returns the last segment of a URL path, without surrounding
// slashes or whitespace. An empty result is allowed; it matches no row.
func SlugFromPath(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return strings.TrimSpace(path)
}

// NormalizeSlug trims, lowercases and turns non-breaking spaces into plain
// spaces. Applying it twice gives the same result as applying it once.
func NormalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}

// Match returns the rows whose first column equals slug after normalization,
// as records in feed order.
func Match(rows [][]string, slug string) []Record {
	want := NormalizeSlug(slug)
	var out []Record
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if NormalizeSlug(row[ColSlug]) == want {
			out = append(out, RecordFromRow(row))
		}
	}
	return out
}
