package search

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

const catalogName = "catalog"

// CatalogEntry is a curated government portal.
type CatalogEntry struct {
	Keywords []string
	Result   Result
}

// Catalog is an offline provider that matches queries against a curated list
// of Bangladeshi government portals. It never fails.
type Catalog struct {
	entries  []CatalogEntry
	fallback []Result
}

// NewCatalog creates a catalog provider with the built-in portal list.
func NewCatalog() *Catalog {
	return &Catalog{entries: defaultCatalog, fallback: defaultPortals}
}

// Name implements Provider.
func (c *Catalog) Name() string { return catalogName }

// Search implements Provider. Unmatched queries get the general portals.
func (c *Catalog) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(q, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) {
		words[w] = true
	}

	var results []Result
	for _, e := range c.entries {
		for _, kw := range e.Keywords {
			if keywordMatch(q, words, kw) {
				results = append(results, e.Result)
				break
			}
		}
	}
	if len(results) == 0 {
		results = append(results, c.fallback...)
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// keywordMatch requires short keywords such as "tin" or "কর" to appear as
// whole words; longer ones may match inside a word.
func keywordMatch(query string, words map[string]bool, kw string) bool {
	if utf8.RuneCountInString(kw) <= 3 {
		return words[kw]
	}
	return strings.Contains(query, kw)
}

var defaultCatalog = []CatalogEntry{
	{
		Keywords: []string{"পাসপোর্ট", "passport"},
		Result: Result{
			Title:   "পাসপোর্ট আবেদন - বাংলাদেশ সরকার",
			URL:     "https://www.dip.portal.gov.bd/",
			Snippet: "পাসপোর্ট আবেদনের জন্য প্রয়োজনীয় কাগজপত্র ও প্রক্রিয়া সম্পর্কে বিস্তারিত তথ্য।",
			Score:   1.0,
		},
	},
	{
		Keywords: []string{"জাতীয় পরিচয়পত্র", "nid", "national id"},
		Result: Result{
			Title:   "জাতীয় পরিচয়পত্র - নির্বাচন কমিশন",
			URL:     "https://services.nidportal.gov.bd/",
			Snippet: "জাতীয় পরিচয়পত্র সংশোধন, নতুন আবেদন ও অন্যান্য সেবা।",
			Score:   1.0,
		},
	},
	{
		Keywords: []string{"জন্ম নিবন্ধন", "birth"},
		Result: Result{
			Title:   "জন্ম ও মৃত্যু নিবন্ধন - স্থানীয় সরকার বিভাগ",
			URL:     "https://bdris.gov.bd/",
			Snippet: "জন্ম ও মৃত্যু নিবন্ধন সংক্রান্ত সকল সেবা।",
			Score:   1.0,
		},
	},
	{
		Keywords: []string{"ড্রাইভিং", "driving", "license", "licence", "লাইসেন্স"},
		Result: Result{
			Title:   "ড্রাইভিং লাইসেন্স - বাংলাদেশ সড়ক পরিবহন কর্তৃপক্ষ",
			URL:     "https://www.brta.gov.bd/",
			Snippet: "ড্রাইভিং লাইসেন্স আবেদন, রিনিউ এবং সংশোধন সংক্রান্ত সেবা। ফি: নতুন লাইসেন্স ৫০০-১০০০ টাকা, রিনিউ ৫০০ টাকা।",
			Score:   1.0,
		},
	},
	{
		Keywords: []string{"কর", "tax", "tin"},
		Result: Result{
			Title:   "জাতীয় রাজস্ব বোর্ড - কর সেবা",
			URL:     "https://www.nbr.gov.bd/",
			Snippet: "আয়কর, মূল্য সংযোজন কর (ভ্যাট) এবং TIN সংক্রান্ত সকল সেবা।",
			Score:   1.0,
		},
	},
	{
		Keywords: []string{"শিক্ষা", "education", "certificate", "সার্টিফিকেট"},
		Result: Result{
			Title:   "শিক্ষা বোর্ড - সার্টিফিকেট সেবা",
			URL:     "https://www.educationboardresults.gov.bd/",
			Snippet: "শিক্ষা সনদ, ফলাফল এবং সার্টিফিকেট সংক্রান্ত সেবা।",
			Score:   1.0,
		},
	},
}

var defaultPortals = []Result{
	{
		Title:   "বাংলাদেশ সরকারের তথ্য বাতায়ন",
		URL:     "https://bangladesh.gov.bd/",
		Snippet: "বাংলাদেশ সরকারের সকল মন্ত্রণালয় ও বিভাগের তথ্য ও সেবা।",
		Score:   1.0,
	},
	{
		Title:   "সেবা প্রদান প্রতিশ্রুতি",
		URL:     "https://services.portal.gov.bd/",
		Snippet: "সরকারি সকল সেবার তালিকা এবং আবেদন প্রক্রিয়া।",
		Score:   1.0,
	},
}
