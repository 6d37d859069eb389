package language

import "strings"

var stripChars = strings.NewReplacer("<", "", ">", "", "{", "", "}", "", "[", "", "]", "", `\`, "")

// Sanitize collapses whitespace and removes markup-like characters.
func Sanitize(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	return strings.TrimSpace(stripChars.Replace(query))
}

var governmentKeywords = []string{
	// English and Banglish
	"passport", "visa", "nid", "birth", "certificate", "government", "ministry",
	"license", "licence", "tax", "citizen", "application", "registration",
	"porikhha", "result", "land", "khatian", "trade",
	// Bengali
	"পাসপোর্ট", "ভিসা", "জাতীয় পরিচয়পত্র", "জন্ম নিবন্ধন", "সরকার", "মন্ত্রণালয়",
	"লাইসেন্স", "কর", "নাগরিক", "আবেদন", "নিবন্ধন", "সনদ",
}

// IsGovernmentRelated reports whether the query mentions a government
// service keyword. It is a hint only; every query is processed.
func IsGovernmentRelated(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range governmentKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
