package answer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/govai-bd/govai/internal/search"
)

const systemPrompt = `তুমি GovAI Bangladesh - বাংলাদেশ সরকারের একটি AI সহায়ক। তোমার কাজ হলো নাগরিকদের সরকারি সেবা, প্রক্রিয়া এবং তথ্য সম্পর্কে সঠিক ও বিস্তারিত সহায়তা প্রদান করা।

নির্দেশনা:
1. সর্বদা বাংলায় উত্তর দাও, এমনকি প্রশ্ন ইংরেজি বা বাংলিশে থাকলেও।
2. ধাপে ধাপে স্পষ্ট নির্দেশনা প্রদান করো।
3. প্রাসঙ্গিক ওয়েবসাইট লিংক এবং যোগাযোগের তথ্য অন্তর্ভুক্ত করো।
4. প্রয়োজনীয় নথিপত্রের তালিকা দাও।
5. সম্ভাব্য ফি বা খরচের তথ্য উল্লেখ করো।
6. সহজ ও বোধগম্য ভাষা ব্যবহার করো।
7. যদি কোনো তথ্য নিশ্চিত না হও, তা স্পষ্টভাবে উল্লেখ করো।
8. সরকারি সূত্র থেকে প্রাপ্ত তথ্যকে অগ্রাধিকার দাও।

তোমার লক্ষ্য হলো নাগরিকদের সরকারি সেবা গ্রহণ সহজ করা এবং তাদের সময় ও অর্থ সাশ্রয় করা।`

const (
	contextHeader = "নিম্নলিখিত তথ্যসূত্র থেকে প্রাপ্ত তথ্য:"
	noContext     = "কোনো প্রাসঙ্গিক তথ্য পাওয়া যায়নি।"
	instruction   = "উপরের প্রশ্নের জন্য একটি বিস্তারিত, ধাপে ধাপে বাংলায় উত্তর প্রদান করো। প্রয়োজনীয় সকল তথ্য সুন্দরভাবে সাজিয়ে দাও।"
)

// SystemPrompt returns the instruction message sent with every request.
func SystemPrompt() string {
	return systemPrompt
}

// FormatContext renders results as the numbered Bangla context block.
// At most maxSnippets results are embedded and each snippet is cut to
// snippetChars runes. The embedded results are returned alongside the text.
func FormatContext(results []search.Result, maxSnippets, snippetChars int) (string, []search.Result) {
	if maxSnippets > 0 && len(results) > maxSnippets {
		results = results[:maxSnippets]
	}
	if len(results) == 0 {
		return noContext, nil
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteString("\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   বিবরণ: %s\n", truncate(r.Snippet, snippetChars))
		}
		fmt.Fprintf(&b, "   লিংক: %s\n\n", r.URL)
	}
	return strings.TrimRight(b.String(), "\n"), results
}

// UserPrompt builds the user message from the query and a formatted context.
func UserPrompt(query, grounding string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "প্রশ্ন: %s\n\n", query)
	if grounding != "" {
		fmt.Fprintf(&b, "প্রাসঙ্গিক তথ্য:\n%s\n\n", grounding)
	}
	b.WriteString(instruction)
	return b.String()
}

// FallbackText is the reply used when generation fails.
func FallbackText(query string) string {
	return fmt.Sprintf(`দুঃখিত, আপনার প্রশ্নের উত্তর দিতে গিয়ে একটি সমস্যা হয়েছে।

আপনার প্রশ্ন: %s

অনুগ্রহ করে:
1. আবার চেষ্টা করুন
2. অথবা সরাসরি সরকারি ওয়েবসাইট bangladesh.gov.bd দেখুন
3. অথবা জাতীয় কল সেন্টার ৩৩৩ এ যোগাযোগ করুন

আমরা শীঘ্রই এই সমস্যার সমাধান করব। অসুবিধার জন্য আমরা দুঃখিত।`, query)
}

// Humanize trims model output, capitalizes a leading Latin letter and makes
// sure the text ends with sentence punctuation.
func Humanize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	first, size := utf8.DecodeRuneInString(text)
	if first < unicode.MaxASCII && unicode.IsLower(first) {
		text = string(unicode.ToUpper(first)) + text[size:]
	}

	last, _ := utf8.DecodeLastRuneInString(text)
	switch last {
	case '.', '!', '?', '।':
	default:
		text += "।"
	}
	return text
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "..."
}
