package search

import (
	"math"
	"net/url"
	"strings"
)

// normalize drops malformed hits, fills blanks, clamps scores, tags the
// provider and truncates to maxResults. Provider order is preserved.
// A hit is malformed when its URL is not absolute http(s) or when it has
// neither title nor snippet. A missing title alone falls back to the URL.
func normalize(results []Result, provider string, maxResults int) ([]Result, int) {
	out := make([]Result, 0, min(len(results), maxResults))
	dropped := 0
	for _, r := range results {
		if len(out) == maxResults {
			break
		}
		link, ok := validURL(r.URL)
		if !ok {
			dropped++
			continue
		}
		r.Title = strings.TrimSpace(cleanSnippet(r.Title))
		r.Snippet = cleanSnippet(r.Snippet)
		if r.Title == "" && r.Snippet == "" {
			dropped++
			continue
		}
		r.URL = link
		if r.Title == "" {
			r.Title = link
		}
		r.Score = clampScore(r.Score)
		r.Provider = provider
		out = append(out, r)
	}
	return out, dropped
}

func validURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s) || s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
