package lead

import (
	"math"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Timeline buckets.
const (
	TimelineASAP       = "ASAP"
	TimelineOneMonth   = "1 month"
	TimelineOneToThree = "1-3 months"
	TimelineThreeToSix = "3-6 months"
	TimelineSixPlus    = "6+ months"
)

// Project categories.
const (
	ProjectCustomerSupport = "Customer Support Chatbot"
	ProjectOrderTracking   = "Order Tracking System"
	ProjectDocumentQA      = "Document Q&A Chatbot"
	ProjectAnalytics       = "Analytics Dashboard"
	ProjectChatbot         = "Chatbot"
)

var timelineBuckets = []string{
	TimelineASAP, TimelineOneMonth, TimelineOneToThree, TimelineThreeToSix, TimelineSixPlus,
}

// Checked in order; the first category with a matching keyword wins.
var projectCategories = []struct {
	name     string
	keywords []string
}{
	{ProjectOrderTracking, []string{"order track", "track order", "tracking order", "order status", "where is my order", "shipment", "delivery status", "tracking"}},
	{ProjectDocumentQA, []string{"document", "pdf", "knowledge base", "q&a", "rag", "manual", "contracts", "policies", "internal docs"}},
	{ProjectAnalytics, []string{"dashboard", "analytics", "reporting", "report", "metrics", "kpi", "visualis", "visualiz"}},
	{ProjectCustomerSupport, []string{"customer support", "customer service", "support", "help desk", "helpdesk", "ticket", "faq", "enquiries", "inquiries"}},
}

// Replies that acknowledge a question without answering it.
var fillers = map[string]struct{}{
	"yes": {}, "no": {}, "okay": {}, "ok": {}, "sure": {}, "yeah": {}, "yep": {},
	"nope": {}, "thanks": {}, "thank you": {}, "hi": {}, "hello": {}, "maybe": {},
	"not sure": {}, "idk": {},
}

var (
	asapPattern     = regexp.MustCompile(`\b(asap|as soon as possible|immediately|urgent(ly)?|right away|right now)\b`)
	durationPattern = regexp.MustCompile(`\b(\d+(?:\.\d+)?|an?|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|couple(?: of)?|few)\s*(?:(?:-|–|to)\s*(\d+(?:\.\d+)?|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve))?\s*(\+)?\s*(days?|weeks?|months?|mos?|quarters?|years?|yrs?)\b`)
	openEndedPrefix = regexp.MustCompile(`\b(more than|over|at least|longer than)\s*$`)
	whitespace      = regexp.MustCompile(`\s+`)
	sentenceEnd     = regexp.MustCompile(`[.!?](\s|$)`)
)

var numberWords = map[string]float64{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"couple": 2, "couple of": 2, "few": 3,
}

// Normalize cleans every field of r. Fillers, placeholders and values that
// cannot be mapped to their schema become nil.
func Normalize(r Record) Record {
	return Record{
		FullName:    normalizeWith(r.FullName, func(s string) (string, bool) { return TitleCase(s), true }),
		WorkEmail:   normalizeWith(r.WorkEmail, NormalizeEmail),
		Company:     normalizeWith(r.Company, func(s string) (string, bool) { return CapitalizeFirst(s), true }),
		Phone:       normalizeWith(r.Phone, NormalizePhone),
		ProjectType: normalizeWith(r.ProjectType, func(s string) (string, bool) { return CategorizeProject(s), true }),
		Timeline:    normalizeWith(r.Timeline, NormalizeTimeline),
		Goal:        normalizeWith(r.Goal, SummarizeGoal),
	}
}

func normalizeWith(v *string, fn func(string) (string, bool)) *string {
	if !Present(v) {
		return nil
	}
	s := collapse(*v)
	if IsFiller(s) {
		return nil
	}
	out, ok := fn(s)
	if !ok || !Present(&out) {
		return nil
	}
	return &out
}

// IsFiller reports whether s is an acknowledgement rather than information.
func IsFiller(s string) bool {
	s = strings.ToLower(strings.Trim(collapse(s), ".!?, "))
	_, ok := fillers[s]
	return ok
}

// TitleCase upper-cases the first letter of every word and hyphenated part
// and lower-cases the rest.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		parts := strings.Split(w, "-")
		for j, p := range parts {
			parts[j] = upperFirst(strings.ToLower(p))
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}

// CapitalizeFirst upper-cases the first letter and leaves the rest alone, so
// names like "eBay Partners" keep their inner casing.
func CapitalizeFirst(s string) string {
	return upperFirst(strings.TrimSpace(s))
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(s string) (string, bool) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	email := strings.ToLower(addr.Address)
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at:], ".") {
		return "", false
	}
	return email, true
}

// NormalizePhone keeps numbers with at least seven digits, preserving the
// caller's formatting.
func NormalizePhone(s string) (string, bool) {
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < 7 {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// NormalizeTimeline maps free text onto one of the timeline buckets.
func NormalizeTimeline(s string) (string, bool) {
	in := strings.ToLower(collapse(s))
	for _, b := range timelineBuckets {
		if in == strings.ToLower(b) {
			return b, true
		}
	}
	if asapPattern.MatchString(in) {
		return TimelineASAP, true
	}
	if strings.Contains(in, "half a year") || strings.Contains(in, "half year") {
		return TimelineThreeToSix, true
	}

	if loc := durationPattern.FindStringSubmatchIndex(in); loc != nil {
		m := durationPattern.FindStringSubmatch(in)
		value, ok := parseAmount(m[1])
		if !ok {
			return "", false
		}
		if m[2] != "" {
			if upper, ok := parseAmount(m[2]); ok {
				value = upper
			}
		}
		months := toMonths(value, m[4])
		openEnded := m[3] != "" || openEndedPrefix.MatchString(in[:loc[0]])
		if openEnded && months >= 6 {
			return TimelineSixPlus, true
		}
		return bucketMonths(months), true
	}

	switch {
	case strings.Contains(in, "next week"), strings.Contains(in, "this month"), strings.Contains(in, "next month"):
		return TimelineOneMonth, true
	case strings.Contains(in, "next quarter"), strings.Contains(in, "this quarter"):
		return TimelineOneToThree, true
	case strings.Contains(in, "end of the year"), strings.Contains(in, "end of year"):
		return TimelineThreeToSix, true
	case strings.Contains(in, "next year"), strings.Contains(in, "no rush"), strings.Contains(in, "long term"):
		return TimelineSixPlus, true
	}
	return "", false
}

func parseAmount(s string) (float64, bool) {
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func toMonths(value float64, unit string) float64 {
	switch {
	case strings.HasPrefix(unit, "day"):
		return value / 30
	case strings.HasPrefix(unit, "week"):
		return value / 4.345
	case strings.HasPrefix(unit, "quarter"):
		return value * 3
	case strings.HasPrefix(unit, "y"):
		return value * 12
	default:
		return value
	}
}

func bucketMonths(months float64) string {
	// Round so that 30 days and 4 weeks land in the one month bucket.
	months = math.Round(months*10) / 10
	switch {
	case months <= 1:
		return TimelineOneMonth
	case months <= 3:
		return TimelineOneToThree
	case months <= 6:
		return TimelineThreeToSix
	default:
		return TimelineSixPlus
	}
}

// CategorizeProject maps a free-form description onto a project category,
// falling back to the generic chatbot category.
func CategorizeProject(s string) string {
	in := strings.ToLower(collapse(s))
	for _, c := range projectCategories {
		if in == strings.ToLower(c.name) {
			return c.name
		}
	}
	if in == strings.ToLower(ProjectChatbot) {
		return ProjectChatbot
	}
	for _, c := range projectCategories {
		for _, kw := range c.keywords {
			if keywordPattern(kw).MatchString(in) {
				return c.name
			}
		}
	}
	return ProjectChatbot
}

var keywordPatterns sync.Map

// keywordPattern matches kw at the start of a word so that short keywords
// like "rag" do not fire inside "storage".
func keywordPattern(kw string) *regexp.Regexp {
	if re, ok := keywordPatterns.Load(kw); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(kw))
	keywordPatterns.Store(kw, re)
	return re
}

// SummarizeGoal trims a goal to its first two sentences.
func SummarizeGoal(s string) (string, bool) {
	s = collapse(s)
	if s == "" {
		return "", false
	}
	ends := sentenceEnd.FindAllStringIndex(s, 3)
	if len(ends) > 2 {
		s = s[:ends[1][0]+1]
	}
	return strings.TrimSpace(s), true
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
