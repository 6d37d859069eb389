package search

import (
	"strings"

	"golang.org/x/net/html"
)

// cleanSnippet reduces provider text to plain text. Search APIs sometimes
// return fragments with <b> highlights or entities; anything that does not
// look like markup is only whitespace-collapsed.
func cleanSnippet(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if isHidden(name) && tt == html.StartTagToken {
				skip++
			}
			if isBreak(name) {
				sb.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isHidden(name) && skip > 0 {
				skip--
			}
			if isBreak(name) {
				sb.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func isBreak(tag []byte) bool {
	switch string(tag) {
	case "br", "p", "div", "li", "tr", "td", "h1", "h2", "h3":
		return true
	}
	return false
}

func isHidden(tag []byte) bool {
	switch string(tag) {
	case "script", "style", "noscript":
		return true
	}
	return false
}
